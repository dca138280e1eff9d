package commands

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/samarth/internal/api"
	"github.com/diogo/samarth/internal/config"
	"github.com/diogo/samarth/internal/conversation"
	"github.com/diogo/samarth/internal/models"
	"github.com/diogo/samarth/internal/server"
	"github.com/diogo/samarth/internal/transcript"
	"github.com/diogo/samarth/internal/tui"
)

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// NewAsker builds the streaming backend for a model. The default
	// creates a Gemini conversation and fails fast on missing credentials.
	NewAsker func(cfg config.Config, model models.Model) (transcript.Asker, error)

	// RunChat runs the terminal chat until the user quits.
	RunChat func(ctx context.Context, store *transcript.Store, opts tui.Options) error

	// Serve runs the web chat server until ctx is done.
	Serve func(ctx context.Context, store *transcript.Store, opts server.Options) error

	// Copy writes text to the clipboard.
	Copy func(text string) error

	// IsTTY reports whether stdout is a terminal; TermWidth returns its width.
	IsTTY     func() bool
	TermWidth func() int

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		NewAsker:  newGeminiAsker,
		RunChat:   tui.Run,
		Serve:     serve,
		Copy:      clipboard.WriteAll,
		IsTTY:     isStdoutTTY,
		TermWidth: getTerminalWidth,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// withDefaults fills unset fields so partially built Dependencies work
func (d *Dependencies) withDefaults() *Dependencies {
	def := NewDependencies()
	if d == nil {
		return def
	}
	out := *d
	if out.NewAsker == nil {
		out.NewAsker = def.NewAsker
	}
	if out.RunChat == nil {
		out.RunChat = def.RunChat
	}
	if out.Serve == nil {
		out.Serve = def.Serve
	}
	if out.Copy == nil {
		out.Copy = def.Copy
	}
	if out.IsTTY == nil {
		out.IsTTY = def.IsTTY
	}
	if out.TermWidth == nil {
		out.TermWidth = def.TermWidth
	}
	if out.Stdin == nil {
		out.Stdin = def.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = def.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = def.Stderr
	}
	return &out
}

// newGeminiAsker creates the client and conversation. A missing key fails
// here, before any UI starts; the chat session is created on first Ask.
func newGeminiAsker(cfg config.Config, model models.Model) (transcript.Asker, error) {
	key, err := config.LoadAPIKey()
	if err != nil {
		return nil, err
	}

	opts := []api.ClientOption{api.WithModel(model)}
	if cfg.BaseURL != "" {
		opts = append(opts, api.WithBaseURL(cfg.BaseURL))
	}
	if cfg.TimeoutSeconds > 0 {
		opts = append(opts, api.WithTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	}

	client, err := api.NewClient(key, opts...)
	if err != nil {
		return nil, err
	}

	return conversation.New(conversation.ClientFactory(client)), nil
}

func serve(ctx context.Context, store *transcript.Store, opts server.Options) error {
	s, err := server.New(store, opts)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// isStdinTTY returns true if stdin is connected to a terminal
func isStdinTTY(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
