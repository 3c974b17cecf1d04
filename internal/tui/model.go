package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/ragchat/internal/chat"
	"github.com/diogo/ragchat/internal/models"
	"github.com/diogo/ragchat/internal/render"
)

// controllerChangeMsg carries a controller change into the program loop
type controllerChangeMsg struct {
	change chat.Change
}

// Options configures the chat model
type Options struct {
	// Models are offered by the model selector after the server default.
	Models       []string
	DefaultModel string
	// Retrieval is the initial toggle value ("on" or "off").
	Retrieval string
	Theme     string
	Markdown  render.Options
}

// Model represents the TUI state
type Model struct {
	ctrl   *chat.Controller
	labels chat.Labels

	// selector values; index 0 is the server default
	models    []string
	modelIdx  int
	retrieval string
	markdown  render.Options
	rendered  map[string]renderedMessage

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ready bool

	width  int
	height int
}

// renderedMessage caches the markdown rendering of an answer
type renderedMessage struct {
	text  string
	width int
	out   string
}

// NewModel creates the chat model over a controller
func NewModel(ctrl *chat.Controller, opts Options) Model {
	SetTheme(opts.Theme)

	ta := textarea.New()
	ta.Placeholder = "Ask a question..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	selector, idx := modelSelector(opts.Models, opts.DefaultModel)

	retrieval := models.RetrievalOn
	if opts.Retrieval == models.RetrievalOff {
		retrieval = models.RetrievalOff
	}

	md := opts.Markdown
	if md.Style == "" {
		md = render.DefaultOptions()
	}

	return Model{
		ctrl:      ctrl,
		labels:    ctrl.Labels(),
		models:    selector,
		modelIdx:  idx,
		retrieval: retrieval,
		markdown:  md,
		rendered:  make(map[string]renderedMessage),
		textarea:  ta,
		spinner:   s,
	}
}

// modelSelector builds the selector values: the server default ("")
// followed by the configured models, without duplicates
func modelSelector(configured []string, def string) ([]string, int) {
	values := []string{""}
	seen := map[string]bool{"": true}
	for _, m := range append(append([]string{}, configured...), def) {
		m = strings.TrimSpace(m)
		if !seen[m] {
			values = append(values, m)
			seen[m] = true
		}
	}

	for i, v := range values {
		if v == strings.TrimSpace(def) {
			return values, i
		}
	}
	return values, 0
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// selection returns the current selector values
func (m Model) selection() chat.Selection {
	return chat.Selection{
		Model:     m.models[m.modelIdx],
		Retrieval: m.retrieval,
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 6
		statusHeight := 1
		padding := 3

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

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.ctrl.StopStream()
			return m, tea.Quit

		case "esc":
			if m.ctrl.Streaming() {
				m.ctrl.StopStream()
				return m, nil
			}
			return m, tea.Quit

		case "ctrl+x":
			m.ctrl.StopStream()
			return m, nil

		case "enter":
			if m.ctrl.SendEnabled() && m.submit() {
				return m, tea.Batch(m.textarea.Focus(), m.spinner.Tick)
			}
			return m, nil

		case "alt+enter", "ctrl+s":
			// not gated on SendEnabled; starting closes any open stream
			if m.submit() {
				return m, m.spinner.Tick
			}
			return m, nil

		case "tab":
			m.modelIdx = (m.modelIdx + 1) % len(m.models)
			return m, nil

		case "ctrl+r":
			if m.retrieval == models.RetrievalOff {
				m.retrieval = models.RetrievalOn
			} else {
				m.retrieval = models.RetrievalOff
			}
			return m, nil
		}

		// Only key messages reach the textarea to prevent escape sequence leaks
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)

	case controllerChangeMsg:
		m.updateViewport()
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.ctrl.Streaming() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit starts a stream from the input and clears it
func (m *Model) submit() bool {
	if !m.ctrl.Submit(m.textarea.Value(), m.selection()) {
		return false
	}
	m.textarea.Reset()
	m.updateViewport()
	m.viewport.GotoBottom()
	return true
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	contentWidth := m.width - 4
	var sections []string

	sections = append(sections, headerStyle.Width(contentWidth).Render(m.renderHeader()))

	var messagesContent string
	if m.ctrl.Transcript().Len() == 0 {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	inputLabel := inputLabelStyle.Render(m.labels.User)
	if m.ctrl.Streaming() {
		inputLabel += "  " + m.spinner.View()
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, inputLabel, m.textarea.View()),
	))

	sections = append(sections, m.renderStatusBar(contentWidth))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	model := m.models[m.modelIdx]
	if model == "" {
		model = "server default"
	}

	rag := ragOnStyle.Render("RAG on")
	if m.retrieval == models.RetrievalOff {
		rag = ragOffStyle.Render("RAG off")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("✦ RAG Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(model),
		hintStyle.Render("  •  "),
		rag,
	)
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		welcomeTitleStyle.Width(width).Render("Ask about your documents"),
		"",
		welcomeStyle.Width(width).Render("Type a question below and press Enter"),
	)

	topPadding := (m.viewport.Height - lipgloss.Height(content)) / 2
	if topPadding < 0 {
		topPadding = 0
	}
	return strings.Repeat("\n", topPadding) + content
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	streaming := m.ctrl.Streaming()

	send := statusKeyStyle.Render("Enter") + statusDescStyle.Render(" Send")
	stop := statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Stop")
	if streaming {
		send = statusDisabledStyle.Render("Enter Send")
	} else {
		stop = statusKeyStyle.Render("Esc") + statusDescStyle.Render(" Quit")
	}

	items := []string{
		send,
		stop,
		statusKeyStyle.Render("Tab") + statusDescStyle.Render(" Model"),
		statusKeyStyle.Render("^R") + statusDescStyle.Render(" RAG"),
		statusKeyStyle.Render("↑↓") + statusDescStyle.Render(" Scroll"),
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
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

	msgs := m.ctrl.Transcript().Messages()
	for i, msg := range msgs {
		if i > 0 {
			content.WriteString("\n")
		}

		text := msg.Text()
		if msg.Role == models.RoleUser {
			content.WriteString(userLabelStyle.Render("⬤ " + m.labels.For(msg.Role)))
			content.WriteString("\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(text))
		} else {
			content.WriteString(assistantLabelStyle.Render("✦ " + m.labels.For(msg.Role)))
			content.WriteString("\n")

			body := m.renderAnswer(msg.ID, text, bubbleWidth-4)
			if text == "" && i == len(msgs)-1 && m.ctrl.Streaming() {
				body = m.spinner.View()
			}
			content.WriteString(assistantBubbleStyle.Width(bubbleWidth).Render(body))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
}

// renderAnswer renders answer markdown, reusing the previous rendering
// while the text and width are unchanged
func (m *Model) renderAnswer(id, text string, width int) string {
	if r, ok := m.rendered[id]; ok && r.text == text && r.width == width {
		return r.out
	}
	out := render.Answer(text, m.markdown.WithWidth(width))
	m.rendered[id] = renderedMessage{text: text, width: width, out: out}
	return out
}
