package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmitFunc returns the command that submits text through the query panel.
type SubmitFunc func(text string) tea.Cmd

type Model struct {
	input   textinput.Model
	results viewport.Model
	submit  SubmitFunc

	server  string
	sqlText string
	markup  string
	failed  bool

	width  int
	height int
}

func NewModel(server string, submit SubmitFunc) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about customers, orders, products... or type SELECT ..."
	ti.Prompt = StylePrompt.Render("❯ ")
	ti.CharLimit = 2000
	ti.Focus()

	return Model{
		input:   ti,
		results: viewport.New(80, 20),
		submit:  submit,
		server:  server,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		m.results.Width = max(msg.Width-2, 10)
		m.results.Height = max(msg.Height-9, 3)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.submit == nil {
				return m, nil
			}
			return m, m.submit(m.input.Value())
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}

	case sqlTextMsg:
		m.sqlText = string(msg)
		return m, nil

	case resultsMarkupMsg:
		m.markup = string(msg)
		m.refresh()
		return m, nil

	case prependResultsMsg:
		m.markup = string(msg) + m.markup
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	m.failed = strings.Contains(m.markup, `class="error-alert"`)
	text := ToMarkdown(m.markup)
	if m.failed {
		text = StyleError.Render(text)
	}
	m.results.SetContent(text)
	m.results.GotoTop()
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("querydesk"))
	b.WriteString(StyleDimmed.Render("  " + m.server))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	sql := m.sqlText
	if sql == "" {
		sql = StyleDimmed.Render("-")
	} else {
		sql = StyleSQL.Render(sql)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, StyleLabel.Render("SQL: "), sql))
	b.WriteString("\n")

	b.WriteString(StyleBorder.Render(m.results.View()))
	b.WriteString("\n")
	b.WriteString(StyleDimmed.Render("enter: submit • pgup/pgdn: scroll • esc: quit"))

	return b.String()
}

// SQLText returns the SQL preview region.
func (m Model) SQLText() string { return m.sqlText }

// ResultsMarkup returns the raw results region.
func (m Model) ResultsMarkup() string { return m.markup }
