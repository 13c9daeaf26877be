package tui

import tea "github.com/charmbracelet/bubbletea"

// Messages carrying panel region updates into the program.
type (
	sqlTextMsg        string
	resultsMarkupMsg  string
	prependResultsMsg string
)

// programView implements panel.View by forwarding every region update to the
// running program, so updates from the submit goroutine are applied on the
// program's own loop.
type programView struct {
	send func(tea.Msg)
}

func (v *programView) SetSQLText(text string) {
	v.send(sqlTextMsg(text))
}

func (v *programView) SetResultsMarkup(markup string) {
	v.send(resultsMarkupMsg(markup))
}

func (v *programView) PrependResults(markup string) {
	v.send(prependResultsMsg(markup))
}
