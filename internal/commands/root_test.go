package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/samarth/internal/config"
	"github.com/diogo/samarth/internal/conversation"
	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
	"github.com/diogo/samarth/internal/server"
	"github.com/diogo/samarth/internal/transcript"
	"github.com/diogo/samarth/internal/tui"
)

// fakeAsker replays fixed fragments and records prompts
type fakeAsker struct {
	fragments []string
	prompts   []string
}

func (f *fakeAsker) Ask(_ context.Context, prompt string) <-chan string {
	f.prompts = append(f.prompts, prompt)
	ch := make(chan string, len(f.fragments))
	for _, frag := range f.fragments {
		ch <- frag
	}
	close(ch)
	return ch
}

type harness struct {
	t      *testing.T
	home   string
	deps   *Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	asker  *fakeAsker
	model  models.Model
	copied []string

	chatStore *transcript.Store
	chatOpts  *tui.Options
	serveOpts *server.Options
}

func newHarness(t *testing.T, fragments ...string) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		home:   t.TempDir(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		asker:  &fakeAsker{fragments: fragments},
	}
	t.Setenv(config.HomeEnv, h.home)
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GLAMOUR_STYLE", "")

	h.deps = &Dependencies{
		NewAsker: func(_ config.Config, model models.Model) (transcript.Asker, error) {
			h.model = model
			return h.asker, nil
		},
		RunChat: func(_ context.Context, store *transcript.Store, opts tui.Options) error {
			h.chatStore = store
			h.chatOpts = &opts
			return nil
		},
		Serve: func(_ context.Context, _ *transcript.Store, opts server.Options) error {
			h.serveOpts = &opts
			return nil
		},
		Copy: func(text string) error {
			h.copied = append(h.copied, text)
			return nil
		},
		IsTTY:     func() bool { return false },
		TermWidth: func() int { return 80 },
		Stdin:     strings.NewReader(""),
		Stdout:    h.stdout,
		Stderr:    h.stderr,
	}
	return h
}

func (h *harness) run(args ...string) error {
	h.t.Helper()
	cmd := NewRootCmd(h.deps)
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd(nil)

	if cmd.Use != "samarth [prompt]" {
		t.Errorf("Expected use 'samarth [prompt]', got %s", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("descriptions should not be empty")
	}
	if cmd.Args == nil {
		t.Error("Args validation should be configured")
	}

	for _, name := range []string{"chat", "serve", "config"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("missing subcommand %s", name)
		}
	}
	for _, flag := range []string{"model", "log-level", "log-file"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	for _, arg := range []string{"-v", "--version"} {
		t.Run(arg, func(t *testing.T) {
			h := newHarness(t)
			if err := h.run(arg); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if !strings.HasPrefix(h.stdout.String(), "samarth "+Version) {
				t.Errorf("stdout = %q", h.stdout.String())
			}
			if len(h.asker.prompts) != 0 {
				t.Error("version should not send a prompt")
			}
		})
	}
}

func TestQuery_StreamsToStdout(t *testing.T) {
	h := newHarness(t, "Rice output ", "rose 4% [Source: MoA&FW].")

	if err := h.run("How did rice do?"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got := h.stdout.String(); got != "Rice output rose 4% [Source: MoA&FW].\n" {
		t.Errorf("stdout = %q", got)
	}
	if len(h.asker.prompts) != 1 || h.asker.prompts[0] != "How did rice do?" {
		t.Errorf("prompts = %q", h.asker.prompts)
	}
	if h.model.Name != models.DefaultModel.Name {
		t.Errorf("model = %s", h.model.Name)
	}
}

func TestQuery_ModelSelection(t *testing.T) {
	tests := []struct {
		name  string
		setup []string
		args  []string
		want  string
	}{
		{"flag alias", nil, []string{"-m", "pro", "q"}, "gemini-2.5-pro"},
		{"flag full name", nil, []string{"--model", "gemini-2.0-flash", "q"}, "gemini-2.0-flash"},
		{"config default", []string{"config", "set", "default_model", "lite"}, []string{"q"}, "gemini-2.0-flash"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "ok")
			if tt.setup != nil {
				if err := h.run(tt.setup...); err != nil {
					t.Fatalf("setup failed: %v", err)
				}
			}
			if err := h.run(tt.args...); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
			if h.model.Name != tt.want {
				t.Errorf("model = %s, want %s", h.model.Name, tt.want)
			}
		})
	}
}

func TestQuery_PromptSources(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		h := newHarness(t, "ok")
		h.deps.Stdin = strings.NewReader("Monsoon rainfall in Kerala?\n")
		if err := h.run(); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if len(h.asker.prompts) != 1 || h.asker.prompts[0] != "Monsoon rainfall in Kerala?\n" {
			t.Errorf("prompts = %q", h.asker.prompts)
		}
	})

	t.Run("file", func(t *testing.T) {
		h := newHarness(t, "ok")
		path := filepath.Join(t.TempDir(), "prompt.md")
		if err := os.WriteFile(path, []byte("Wheat MSP trend"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := h.run("-f", path); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if len(h.asker.prompts) != 1 || h.asker.prompts[0] != "Wheat MSP trend" {
			t.Errorf("prompts = %q", h.asker.prompts)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		h := newHarness(t, "ok")
		if err := h.run("-f", filepath.Join(t.TempDir(), "nope.md")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("no input shows help", func(t *testing.T) {
		h := newHarness(t, "ok")
		if err := h.run(); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if !strings.Contains(h.stdout.String(), "Usage:") {
			t.Error("expected help output")
		}
		if len(h.asker.prompts) != 0 {
			t.Error("no prompt should be sent")
		}
	})
}

func TestQuery_BlankPrompt(t *testing.T) {
	h := newHarness(t, "ok")
	err := h.run("   ")
	if !apierrors.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if len(h.asker.prompts) != 0 {
		t.Error("blank prompt must not be sent")
	}
}

func TestQuery_OutputFile(t *testing.T) {
	h := newHarness(t, "### Summary\n", "* Output up 6%")
	out := filepath.Join(t.TempDir(), "reply.md")

	if err := h.run("q", "-o", out); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "### Summary\n* Output up 6%" {
		t.Errorf("file = %q", data)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("stdout should stay empty, got %q", h.stdout.String())
	}
	if !strings.Contains(h.stderr.String(), "Response saved") {
		t.Error("expected saved notice on stderr")
	}
}

func TestQuery_Decorated(t *testing.T) {
	h := newHarness(t, "**Kharif** output rose")
	h.deps.IsTTY = func() bool { return true }

	if err := h.run("q"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	out := h.stdout.String()
	if !strings.Contains(out, "Samarth AI") || !strings.Contains(out, "Kharif") {
		t.Errorf("decorated output missing label or reply: %q", out)
	}
	if strings.Contains(out, "**Kharif**") {
		t.Error("markdown should be rendered on a terminal")
	}
}

func TestQuery_FailureFragment(t *testing.T) {
	h := newHarness(t, conversation.TransportErrorMessage)

	err := h.run("q")
	if !errors.Is(err, errNoReply) {
		t.Errorf("expected errNoReply, got %v", err)
	}
	if !strings.Contains(h.stdout.String(), conversation.TransportErrorMessage) {
		t.Error("failure fragment should still be printed")
	}
}

func TestQuery_FailureAfterPartialReply(t *testing.T) {
	h := newHarness(t, "Partial answer. ", conversation.TransportErrorMessage)

	err := h.run("q")
	if !errors.Is(err, errNoReply) {
		t.Errorf("expected errNoReply, got %v", err)
	}
	if !strings.HasPrefix(h.stdout.String(), "Partial answer. ") {
		t.Errorf("partial text should still be printed: %q", h.stdout.String())
	}
	if len(h.copied) != 0 {
		t.Error("failed reply must not reach the clipboard")
	}
}

func TestQuery_MissingAPIKey(t *testing.T) {
	h := newHarness(t)
	h.deps.NewAsker = nil

	err := h.run("q")
	if !apierrors.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(h.stderr.String(), "API_KEY") {
		t.Errorf("stderr should name the variable: %q", h.stderr.String())
	}
}

func TestQuery_CopyToClipboard(t *testing.T) {
	h := newHarness(t, "Pulses imports fell 12%")
	if err := h.run("config", "set", "copy_to_clipboard", "true"); err != nil {
		t.Fatal(err)
	}

	if err := h.run("q"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(h.copied) != 1 || h.copied[0] != "Pulses imports fell 12%" {
		t.Errorf("copied = %q", h.copied)
	}
	if !strings.Contains(h.stderr.String(), "Copied to clipboard") {
		t.Error("expected clipboard notice")
	}
}

func TestInvalidLogLevel(t *testing.T) {
	h := newHarness(t, "ok")
	if err := h.run("--log-level", "loud", "q"); err == nil {
		t.Error("expected error for invalid log level")
	}
	if len(h.asker.prompts) != 0 {
		t.Error("prompt should not be sent when setup fails")
	}
}

func TestFormatErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{"missing key", apierrors.NewMissingAPIKeyError("API_KEY"), []string{"Failed", "Hint: export API_KEY"}},
		{"api error", apierrors.NewAPIError(503, "https://api.test/x", "unavailable"), []string{"HTTP Status: 503", "Endpoint: https://api.test/x", "internet connection"}},
		{"blocked", apierrors.NewBlockedError("SAFETY"), []string{"safety filters"}},
		{"plain", errors.New("boom"), []string{"boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatErrorMessage(tt.err, "Failed")
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("formatErrorMessage() = %q, want it to contain %q", got, want)
				}
			}
		})
	}

	if formatErrorMessage(nil, "x") != "" {
		t.Error("nil error should format empty")
	}
}
