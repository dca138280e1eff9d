package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/samarth/internal/render"
	"github.com/diogo/samarth/internal/transcript"
	"github.com/diogo/samarth/internal/tui"
)

func newChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session with Samarth AI.

The chat keeps the conversation context across messages. Logs are written
to ~/.samarth/samarth.log while the chat owns the terminal.

Type 'exit', 'quit', or press Ctrl+C to end the session.
Type '/copy' to copy the last reply to the clipboard.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationOwnsTerminal: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runChat(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&a.themeFlag, "theme", "",
		fmt.Sprintf("TUI theme (%s)", joinNames(render.TUIThemeNames())))

	return cmd
}

func (a *app) runChat(ctx context.Context) error {
	model := a.model()
	asker, err := a.deps.NewAsker(a.cfg, model)
	if err != nil {
		fmt.Fprintln(a.deps.Stderr, formatErrorMessage(err, "Failed to initialize"))
		return err
	}

	themeName := a.themeFlag
	if themeName == "" {
		themeName = a.cfg.TUITheme
	}
	theme := render.ResolveTUITheme(themeName)

	store := transcript.New(asker, transcript.WithGreeting(transcript.Greeting))

	log.Info().Str("model", model.Name).Str("theme", theme.Name).Msg("starting chat")
	return a.deps.RunChat(ctx, store, tui.Options{
		ModelName: model.Name,
		Theme:     theme,
		Render:    render.OptionsFromConfig(a.cfg.Markdown),
		Copy:      a.deps.Copy,
	})
}
