package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/raainshe/homepanel/internal/dashboard"
)

// Program runs the watch view and doubles as a display drawer, so the update
// loop can draw straight into the terminal.
type Program struct {
	program *tea.Program
}

// New creates the Bubbletea program
func New(ctx context.Context, refresh RefreshFunc) *Program {
	model := NewAppModel(ctx, refresh)
	return &Program{
		program: tea.NewProgram(
			model,
			tea.WithAltScreen(), // Use alternate screen buffer
			tea.WithContext(ctx),
		),
	}
}

// Run blocks until the user quits or ctx is cancelled
func (p *Program) Run() error {
	_, err := p.program.Run()
	return err
}

// Draw implements display.Drawer
func (p *Program) Draw(s dashboard.Screen) error {
	p.program.Send(frameMsg(s))
	return nil
}

// Name implements display.Drawer
func (p *Program) Name() string { return "tui" }

// Close implements display.Drawer
func (p *Program) Close() error {
	p.program.Quit()
	return nil
}
