// Package tui is the terminal front end of the query panel.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"querydesk/panel"
)

// Start runs the interactive query panel against querier until the user quits.
func Start(ctx context.Context, server string, querier panel.Querier, logger log.FieldLogger) error {
	view := &programView{}
	handler := panel.NewHandler(querier, view, logger)

	submit := func(text string) tea.Cmd {
		return func() tea.Msg {
			handler.Submit(ctx, text)
			return nil
		}
	}

	p := tea.NewProgram(NewModel(server, submit), tea.WithAltScreen(), tea.WithContext(ctx))
	view.send = p.Send

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
