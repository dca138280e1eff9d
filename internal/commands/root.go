// Package commands provides CLI commands for samarth.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/diogo/samarth/internal/config"
	"github.com/diogo/samarth/internal/models"
)

// Version info (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// annotationOwnsTerminal marks commands that draw full screen; their logs go
// to the log file instead of stderr.
const annotationOwnsTerminal = "owns-terminal"

// app is the state shared by one command tree
type app struct {
	deps *Dependencies
	cfg  config.Config

	// Global flags
	modelFlag    string
	logLevelFlag string
	logFileFlag  string

	// Root flags
	outputFlag string
	fileFlag   string

	// Subcommand flags
	themeFlag      string
	addrFlag       string
	htmlPolicyFlag string

	logCloser io.Closer
}

// NewRootCmd builds the samarth command tree
func NewRootCmd(deps *Dependencies) *cobra.Command {
	a := &app{deps: deps.withDefaults(), cfg: config.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "samarth [prompt]",
		Short: "Ask questions about India's agricultural and climate data",
		Long: `samarth is an analyst for India's agricultural and climate data, backed by
Google Gemini. Replies lead with an executive summary, quantify every claim
and cite a source after each data point.

The API key is read from API_KEY or GEMINI_API_KEY.

Examples:
  samarth "How did kharif rice output change in 2023?"
  samarth -f question.md                Read prompt from file
  cat question.md | samarth             Read prompt from stdin
  samarth "Rainfall in Punjab" -o out.md
  samarth chat                          Start interactive chat
  samarth serve                         Start the web chat
  samarth config show                   Show configuration`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: a.preRun,
		PersistentPostRun: a.postRun,
		RunE:              a.runRoot,
	}

	cmd.SetIn(a.deps.Stdin)
	cmd.SetOut(a.deps.Stdout)
	cmd.SetErr(a.deps.Stderr)

	cmd.PersistentFlags().StringVarP(&a.modelFlag, "model", "m", "",
		fmt.Sprintf("Model to use (%s or a full model name)", joinNames(config.AvailableModels())))
	cmd.PersistentFlags().StringVar(&a.logLevelFlag, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.logFileFlag, "log-file", "", "Write logs to this file instead of stderr")
	cmd.Flags().StringVarP(&a.outputFlag, "output", "o", "", "Save response to file")
	cmd.Flags().StringVarP(&a.fileFlag, "file", "f", "", "Read prompt from file")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd(NewDependencies()).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// preRun loads the configuration and sets up logging for every command
func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := config.LoadConfig()
	a.cfg = cfg

	level := a.logLevelFlag
	if level == "" {
		if _, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			level = cfg.LogLevel
		}
	}

	file := a.logFileFlag
	if file == "" && cmd.Annotations[annotationOwnsTerminal] == "true" {
		if path, err := config.GetLogPath(); err == nil {
			file = path
		}
	}

	closer, err := setupLogging(level, file, a.deps.Stderr)
	if err != nil {
		return err
	}
	a.logCloser = closer

	if cfgErr != nil {
		log.Warn().Err(cfgErr).Msg("failed to load config, using defaults")
	}
	return nil
}

func (a *app) postRun(_ *cobra.Command, _ []string) {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func (a *app) runRoot(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool("version"); v {
		fmt.Fprintf(a.deps.Stdout, "samarth %s (built %s)\n", Version, BuildTime)
		return nil
	}

	prompt, ok, err := a.readPrompt(args)
	if err != nil {
		return err
	}
	if !ok {
		return cmd.Help()
	}
	return a.runQuery(cmd.Context(), prompt)
}

// readPrompt picks the prompt from --file, the argument or piped stdin, in
// that order. ok is false when none was given.
func (a *app) readPrompt(args []string) (string, bool, error) {
	if a.fileFlag != "" {
		data, err := os.ReadFile(a.fileFlag)
		if err != nil {
			return "", false, fmt.Errorf("failed to read file: %w", err)
		}
		return string(data), true, nil
	}

	if len(args) > 0 {
		return args[0], true, nil
	}

	if !isStdinTTY(a.deps.Stdin) {
		data, err := io.ReadAll(a.deps.Stdin)
		if err != nil {
			return "", false, fmt.Errorf("failed to read stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", false, nil
		}
		return string(data), true, nil
	}

	return "", false, nil
}

// model returns the model to use (from flag or config)
func (a *app) model() models.Model {
	if a.modelFlag != "" {
		return models.ModelFromName(a.modelFlag)
	}
	return models.ModelFromName(a.cfg.DefaultModel)
}
