package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/liao/lyric-bot/internal/chatbot"
	"github.com/liao/lyric-bot/internal/notice"
)

// ChatPort is the TUI-facing subset of chatbot.Service.
type ChatPort interface {
	State() chatbot.State
	Configure(credential string) error
	Handle(ctx context.Context, query string) chatbot.Outcome
}

type outcomeMsg chatbot.Outcome

// Model is the Bubble Tea model: a masked key prompt until a credential is
// configured, then a single query line.
type Model struct {
	ctx     context.Context
	service ChatPort
	notices *notice.Board

	keyInput   textinput.Model
	queryInput textinput.Model
	spinner    spinner.Model

	searching bool
	outcome   *chatbot.Outcome
	status    string
}

func New(ctx context.Context, service ChatPort, notices *notice.Board) Model {
	key := textinput.New()
	key.Prompt = "API key> "
	key.Placeholder = "Paste your Google API key here"
	key.EchoMode = textinput.EchoPassword
	key.EchoCharacter = '•'

	q := textinput.New()
	q.Prompt = "> "
	q.Placeholder = "Type the lyric you're looking for"
	q.CharLimit = 0

	if service.State() == chatbot.StateUnconfigured {
		key.Focus()
	} else {
		q.Focus()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:        ctx,
		service:    service,
		notices:    notices,
		keyInput:   key,
		queryInput: q,
		spinner:    sp,
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			return m.submit()
		}
	case outcomeMsg:
		out := chatbot.Outcome(msg)
		m.searching = false
		m.outcome = &out
		return m, nil
	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.configuring() {
		m.keyInput, cmd = m.keyInput.Update(msg)
	} else {
		m.queryInput, cmd = m.queryInput.Update(msg)
	}
	return m, cmd
}

func (m Model) configuring() bool {
	return m.service.State() == chatbot.StateUnconfigured
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.configuring() {
		if err := m.service.Configure(m.keyInput.Value()); err != nil {
			m.status = "Please enter your Google API key to continue."
			return m, nil
		}
		m.keyInput.Reset()
		m.keyInput.Blur()
		m.status = ""
		return m, m.queryInput.Focus()
	}

	if m.searching {
		return m, nil
	}
	q := m.queryInput.Value()
	if strings.TrimSpace(q) == "" {
		m.outcome = nil
		return m, nil
	}
	m.searching = true
	m.outcome = nil
	return m, tea.Batch(m.spinner.Tick, m.ask(q))
}

func (m Model) ask(q string) tea.Cmd {
	ctx, svc := m.ctx, m.service
	return func() tea.Msg {
		return outcomeMsg(svc.Handle(ctx, q))
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🎵 Lyric Finder Chatbot 🎵"))
	b.WriteString("\n")
	b.WriteString(captionStyle.Render("Hello, how can I help?"))
	b.WriteString("\n\n")

	for _, n := range m.notices.List() {
		b.WriteString(noticeStyle(n.Level).Render(n.Text))
		b.WriteString("\n")
	}

	if m.configuring() {
		b.WriteString(boxStyle.Render(m.keyInput.View()))
		b.WriteString("\n")
		b.WriteString(captionStyle.Render("You can get an API key from Google AI Studio."))
		if m.status != "" {
			b.WriteString("\n" + warnStyle.Render(m.status))
		}
		return b.String() + "\n"
	}

	b.WriteString(boxStyle.Render(m.queryInput.View()))
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.spinner.View() + " " + chatbot.SpinnerText)
	case m.outcome != nil:
		b.WriteString(renderOutcome(*m.outcome))
	}
	return b.String() + "\n"
}

func renderOutcome(o chatbot.Outcome) string {
	switch o.Status {
	case chatbot.StatusAnswered:
		return successStyle.Render(o.Message()) + "\n\n" +
			labelStyle.Render(chatbot.AnswerLabel) + " " + o.Answer
	case chatbot.StatusNoAnswer:
		return errorStyle.Render(o.Message())
	case chatbot.StatusFailed:
		return errorStyle.Render(o.Message()) + "\n" + errorStyle.Render(chatbot.ErrorHint)
	default:
		return ""
	}
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	captionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func noticeStyle(l notice.Level) lipgloss.Style {
	switch l {
	case notice.LevelSuccess:
		return successStyle
	case notice.LevelWarning:
		return warnStyle
	case notice.LevelError:
		return errorStyle
	default:
		return infoStyle
	}
}
