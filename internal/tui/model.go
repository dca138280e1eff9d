package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apierrors "github.com/diogo/samarth/internal/errors"
	"github.com/diogo/samarth/internal/models"
	"github.com/diogo/samarth/internal/render"
	"github.com/diogo/samarth/internal/transcript"
)

// Animation tick message
type animationTickMsg time.Time

// Message types for the TUI
type (
	// fragmentMsg reports the result of one Turn.Next call
	fragmentMsg struct {
		more bool
	}
	// scrollMsg asks for a scroll to the bottom once the last update has
	// been laid out
	scrollMsg struct{}
)

// Options configures the chat model
type Options struct {
	ModelName string
	Theme     render.TUITheme
	Render    render.Options
	// Copy writes text to the clipboard; defaults to clipboard.WriteAll
	Copy func(string) error
}

// Model represents the TUI state
type Model struct {
	ctx       context.Context
	store     *transcript.Store
	modelName string
	styles    Styles
	renderOpt render.Options
	copyFn    func(string) error

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// State
	turn           *transcript.Turn
	ready          bool
	err            error
	notice         string
	animationFrame int

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a chat model over the given transcript
func NewChatModel(ctx context.Context, store *transcript.Store, opts Options) Model {
	if opts.Theme.Name == "" {
		opts.Theme = render.DefaultTUITheme
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	styles := NewStyles(opts.Theme)

	ta := textarea.New()
	ta.Placeholder = "Ask a question about India's agricultural economy..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(opts.Theme.Text)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(opts.Theme.TextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Loading

	return Model{
		ctx:       ctx,
		store:     store,
		modelName: opts.ModelName,
		styles:    styles,
		renderOpt: opts.Render,
		copyFn:    opts.Copy,
		textarea:  ta,
		spinner:   s,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// animationTick returns a command that sends animation tick messages
func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// scrollToBottom defers the scroll to the next update
func scrollToBottom() tea.Cmd {
	return func() tea.Msg {
		return scrollMsg{}
	}
}

// waitForFragment blocks on the next fragment of turn
func waitForFragment(turn *transcript.Turn) tea.Cmd {
	return func() tea.Msg {
		return fragmentMsg{more: turn.Next()}
	}
}

// busy reports whether a reply is streaming
func (m Model) busy() bool {
	return m.turn != nil || m.store.Busy()
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 4)
		m.updateViewport()
		cmds = append(cmds, scrollToBottom())

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if !m.busy() {
				return m, tea.Quit
			}

		case "enter":
			if m.busy() {
				// Input is disabled while a reply streams
				return m, nil
			}
			return m.submit()
		}

	case fragmentMsg:
		if msg.more && m.turn != nil {
			cmds = append(cmds, waitForFragment(m.turn))
		} else {
			m.turn = nil
		}
		m.updateViewport()
		cmds = append(cmds, scrollToBottom())

	case scrollMsg:
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.updateViewport()
		}

	case animationTickMsg:
		if m.busy() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	// Only keys reach the textarea, and only while idle
	if !m.busy() {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit handles the Enter key while idle
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.textarea.Value()
	trimmed := strings.TrimSpace(input)

	switch trimmed {
	case "":
		return m, nil
	case "exit", "quit", "/exit", "/quit":
		return m, tea.Quit
	case "/copy":
		m.textarea.Reset()
		m.err = nil
		if err := m.copyLastReply(); err != nil {
			m.err = err
			m.notice = ""
		} else {
			m.notice = "Last reply copied to clipboard"
		}
		return m, nil
	}

	turn, err := m.store.Submit(m.ctx, input)
	if err != nil {
		m.err = err
		return m, nil
	}

	m.turn = turn
	m.err = nil
	m.notice = ""
	m.animationFrame = 0
	m.textarea.Reset()
	m.updateViewport()

	return m, tea.Batch(
		waitForFragment(turn),
		scrollToBottom(),
		m.spinner.Tick,
		animationTick(),
	)
}

// copyLastReply puts the latest assistant reply on the clipboard
func (m Model) copyLastReply() error {
	reply := m.store.LastReply()
	if reply == "" {
		return apierrors.NewValidationError("reply", "nothing to copy yet")
	}
	if err := m.copyFn(reply); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return m.styles.Loading.Render("  Initializing...")
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		m.styles.Title.Render("✦ Samarth AI"),
		m.styles.Hint.Render("  •  "),
		m.styles.Subtitle.Render("Agricultural & Climate Data Analyst"),
	}
	if m.modelName != "" {
		headerParts = append(headerParts,
			m.styles.Hint.Render("  •  "),
			m.styles.Hint.Render(m.modelName),
		)
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	sections = append(sections, m.styles.Header.Width(contentWidth).Render(headerContent))

	// Messages
	var messagesContent string
	if m.store.Len() == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, m.styles.MessagesArea.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input
	var inputContent string
	if m.busy() {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			m.styles.InputLabel.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, m.styles.InputPanel.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, m.formatError(m.err))
	} else if m.notice != "" {
		sections = append(sections, m.styles.Notice.Render(m.notice))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderWelcome renders the welcome screen when the transcript is empty
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		m.styles.WelcomeIcon.Width(width).Render("✦"),
		"",
		m.styles.WelcomeTitle.Width(width).Render("Samarth AI"),
		"",
		m.styles.Welcome.Width(width).Render(transcript.Greeting),
		"",
	)

	topPadding := (height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderLoadingAnimation renders the "Sending..." indicator shown in place
// of the input while a reply streams
func (m Model) renderLoadingAnimation() string {
	frame := m.animationFrame

	barWidth := 20
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		color := gradientColors[(i+frame)%len(gradientColors)]
		bar.WriteString(lipgloss.NewStyle().Foreground(color).Render("▮"))
	}

	dots := strings.Repeat(".", (frame/3)%4)
	text := m.styles.Sending.Render(fmt.Sprintf(" Sending%-3s", dots))

	return fmt.Sprintf("%s %s %s", m.spinner.View(), bar.String(), text)
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"/copy", "Copy reply"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			m.styles.StatusKey.Render(s.key),
			m.styles.StatusDesc.Render(" "+s.desc),
		))
	}

	bar := strings.Join(items, "  │  ")
	return m.styles.StatusBar.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content from the transcript
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	messages := m.store.Messages()
	streaming := m.busy()

	for i, msg := range messages {
		if i > 0 {
			content.WriteString("\n")
		}

		if msg.Role == models.RoleUser {
			label := m.styles.UserLabel.Render("● You")
			bubble := m.styles.UserBubble.Width(bubbleWidth).Render(msg.Content)
			content.WriteString(label + "\n" + bubble)
		} else {
			label := m.styles.AssistantLabel.Render("✦ Samarth")
			rendered := strings.TrimRight(render.Reply(msg.Content, m.renderOpt.WithWidth(bubbleWidth-4)), "\n")
			if streaming && i == len(messages)-1 {
				if rendered != "" {
					rendered += "\n"
				}
				rendered += "  " + m.spinner.View()
			}
			bubble := m.styles.AssistantBubble.Width(bubbleWidth).Render(rendered)
			content.WriteString(label + "\n" + bubble)
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// formatError formats an error for the line under the status bar
func (m Model) formatError(err error) string {
	if err == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Error.Render(fmt.Sprintf("⚠ %v", err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Detail.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}

	switch {
	case errors.Is(err, transcript.ErrBusy):
		sb.WriteString("\n")
		sb.WriteString(m.styles.Detail.Render("Wait for the current reply to finish"))
	case apierrors.IsConfigurationError(err):
		sb.WriteString("\n")
		sb.WriteString(m.styles.Detail.Render("Set API_KEY or GEMINI_API_KEY and restart"))
	}

	return sb.String()
}

// Run starts the chat TUI and blocks until the user quits
func Run(ctx context.Context, store *transcript.Store, opts Options) error {
	p := tea.NewProgram(
		NewChatModel(ctx, store, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
