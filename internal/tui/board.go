package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"habitquest/internal/app"
	"habitquest/internal/reminder"
)

// RunBoard runs the interactive board until the user quits or ctx ends.
// Reminder notifications are shown in the board's log line.
func RunBoard(ctx context.Context, a *app.App, out io.Writer) error {
	m := newBoardModel(a)
	p := tea.NewProgram(m,
		tea.WithOutput(out),
		tea.WithContext(ctx),
		tea.WithReportFocus(),
		tea.WithMouseCellMotion(),
	)
	a.OnNotify(func(n reminder.Notification) {
		p.Send(notifiedMsg{n: n})
	})
	_, err := p.Run()
	return err
}
