package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"github.com/diogo/samarth/internal/conversation"
	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/render"
	"github.com/diogo/samarth/internal/transcript"
)

// errNoReply is returned when the reply is one of the failure fragments
var errNoReply = errors.New("no reply from the model")

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#2d6a4f"),
	lipgloss.Color("#40916c"),
	lipgloss.Color("#52b788"),
	lipgloss.Color("#95d5b2"),
	lipgloss.Color("#e9c46a"),
	lipgloss.Color("#f4a261"),
}

var (
	colorText     = lipgloss.Color("#e9e5d6")
	colorTextDim  = lipgloss.Color("#8a8f7a")
	colorTextMute = lipgloss.Color("#4a4e42")
	colorSuccess  = lipgloss.Color("#95d5b2")
	colorPrimary  = lipgloss.Color("#e9c46a")
	colorError    = lipgloss.Color("#e76f51")
)

// Styles matching the chat TUI
var (
	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	assistantBubbleStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(colorPrimary).
				Foreground(colorText).
				Padding(0, 1).
				MarginTop(1).
				MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool
}

// newSpinner creates a new animated spinner
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[s.frame%len(chars)])

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)
	fmt.Fprintf(s.out, "\r\033[K%s %s %s", spinnerChar, msg, dots.String())
}

// halt stops the animation; safe to call more than once
func (s *spinner) halt() {
	s.mu.Lock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
	s.mu.Unlock()
	<-s.done
}

// runQuery sends a single prompt and prints the reply. On a terminal the
// reply is rendered once complete; otherwise fragments are written as they
// arrive.
func (a *app) runQuery(ctx context.Context, prompt string) error {
	stdout, stderr := a.deps.Stdout, a.deps.Stderr

	if strings.TrimSpace(prompt) == "" {
		return apierrors.NewValidationError("prompt", "cannot be empty")
	}

	model := a.model()
	asker, err := a.deps.NewAsker(a.cfg, model)
	if err != nil {
		fmt.Fprintln(stderr, formatErrorMessage(err, "Failed to initialize"))
		return err
	}

	store := transcript.New(asker)
	turn, err := store.Submit(ctx, prompt)
	if err != nil {
		return err
	}

	if a.cfg.Verbose {
		log.Info().Str("model", model.Name).Int("prompt_length", len(prompt)).Msg("sending prompt")
	}
	startTime := time.Now()

	decorated := a.deps.IsTTY() && a.outputFlag == ""
	var reply string
	switch {
	case decorated:
		spin := newSpinner(stderr, "Analyzing")
		spin.start()
		reply = turn.Drain()
		spin.halt()
	case a.outputFlag != "":
		reply = turn.Drain()
	default:
		written := 0
		for turn.Next() {
			if msg, ok := store.Last(); ok && len(msg.Content) > written {
				fmt.Fprint(stdout, msg.Content[written:])
				written = len(msg.Content)
			}
		}
		reply = store.LastReply()
		if written < len(reply) {
			fmt.Fprint(stdout, reply[written:])
		}
		if reply != "" && !strings.HasSuffix(reply, "\n") {
			fmt.Fprintln(stdout)
		}
	}

	log.Debug().
		Dur("duration", time.Since(startTime)).
		Int("reply_length", len(reply)).
		Msg("reply received")

	// Failure fragments are always the last thing a reply carries.
	failed := strings.HasSuffix(reply, conversation.TransportErrorMessage) ||
		strings.HasSuffix(reply, conversation.NotInitializedMessage)

	if a.outputFlag != "" {
		if err := os.WriteFile(a.outputFlag, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
			fmt.Sprintf("✓ Response saved to %s", a.outputFlag)))
	}

	if decorated {
		a.printReply(reply)
	}

	if failed {
		return errNoReply
	}

	if a.cfg.CopyToClipboard {
		if err := a.deps.Copy(reply); err != nil {
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorError).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err)))
		} else {
			fmt.Fprintln(stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	return nil
}

// printReply renders the reply in an assistant bubble sized to the terminal
func (a *app) printReply(reply string) {
	bubbleWidth := a.deps.TermWidth() - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(a.deps.Stdout, assistantLabelStyle.Render("✦ Samarth AI"))

	rendered := render.Reply(reply, render.OptionsFromConfig(a.cfg.Markdown).WithWidth(contentWidth))
	rendered = strings.TrimRight(rendered, "\n")
	fmt.Fprintln(a.deps.Stdout, assistantBubbleStyle.Width(bubbleWidth).Render(rendered))
}

// formatErrorMessage formats an error with additional context from structured errors
func formatErrorMessage(err error, context string) string {
	if err == nil {
		return ""
	}

	errorStyle := lipgloss.NewStyle().Foreground(colorError)
	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", context, err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  HTTP Status: %d", status)))
	}
	if endpoint := apierrors.GetEndpoint(err); endpoint != "" {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("\n  Endpoint: %s", endpoint)))
	}

	switch {
	case apierrors.IsConfigurationError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: export API_KEY or GEMINI_API_KEY and try again"))
	case apierrors.IsBlockedError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: The request was blocked by the provider's safety filters"))
	case apierrors.IsTransportError(err):
		sb.WriteString(dimStyle.Render("\n  Hint: Check your internet connection and try again"))
	}

	return sb.String()
}
