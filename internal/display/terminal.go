package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/tui/styles"
)

// panelColumns is the character width of the terminal panel body.
const panelColumns = 22

// PanelView renders a screen as a boxed terminal panel.
func PanelView(s dashboard.Screen) string {
	title := styles.TitleStyle(s.Title == "ALERT").Render(s.Title)
	clock := styles.PanelClockStyle.Render(s.Clock)
	gap := panelColumns - lipgloss.Width(title) - lipgloss.Width(clock)
	if gap < 1 {
		gap = 1
	}
	header := title + strings.Repeat(" ", gap) + clock

	rows := []string{header}
	for _, line := range s.Lines() {
		rows = append(rows, styles.PanelLineStyle.Width(panelColumns).Render(line))
	}
	return styles.PanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// Terminal prints each frame as a lipgloss panel.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal creates a terminal drawer writing to out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

func (t *Terminal) Draw(s dashboard.Screen) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintln(t.out, PanelView(s))
	return err
}

func (t *Terminal) Name() string { return config.DriverTerminal }

func (t *Terminal) Close() error { return nil }
