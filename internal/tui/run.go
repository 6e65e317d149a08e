package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Run starts the monitor on the alternate screen and blocks until the user
// quits or ctx ends.
func Run(ctx context.Context, backend Backend, source EventSource, opts Options) error {
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
	program := tea.NewProgram(NewModel(ctx, backend, source, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
