// Package tui is the terminal chat front-end. It only reads the
// session transcript and submits questions; all pipeline state lives
// behind the chat session.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/internal/models"
	"docchat/internal/rag"
)

// ChatPort is the TUI-facing subset of the chat session.
type ChatPort interface {
	Submit(ctx context.Context, question string) (*rag.Answer, error)
	Transcript() []models.Turn
}

type answerMsg struct {
	err error
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	session  ChatPort
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	docName  string
	status   string
	thinking bool
	ready    bool
}

func New(session ChatPort, docName string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the document"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return Model{
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		spin:     sp,
		docName:  docName,
		status:   "Index ready. Ask away.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + ih + 1 // header, status, input frame
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = vh
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.thinking {
			question := strings.TrimSpace(m.input.Value())
			if question == "" {
				return m, nil
			}
			m.input.Reset()
			m.thinking = true
			m.status = "Thinking..."
			session := m.session
			return m, tea.Batch(m.spin.Tick, func() tea.Msg {
				_, err := session.Submit(context.Background(), question)
				return answerMsg{err: err}
			})
		}

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case answerMsg:
		m.thinking = false
		if msg.err != nil {
			m.status = errorStyle.Render("Error: " + msg.err.Error())
		} else {
			m.status = "Index ready. Ask away."
		}
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render(fmt.Sprintf("docchat - %s", m.docName))
	status := m.status
	if m.thinking {
		status = m.spin.View() + " " + status
	}
	return header + "\n" + m.viewport.View() + "\n" + inputBoxStyle.Render(m.input.View()) + "\n" + statusStyle.Render(status)
}

func (m Model) renderTranscript() string {
	turns := m.session.Transcript()
	if len(turns) == 0 {
		return "No questions yet."
	}
	var sb strings.Builder
	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			sb.WriteString(userStyle.Render("You: ") + turn.Content)
		case models.RoleAssistant:
			sb.WriteString(assistantStyle.Render("Assistant: ") + turn.Content)
		}
		sb.WriteString("\n\n")
	}
	return sb.String()
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)
