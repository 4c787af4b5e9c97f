package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/display"
	"github.com/raainshe/homepanel/internal/tui/styles"
)

// Messages for the TUI
type (
	// frameMsg carries a screen drawn by the update loop
	frameMsg dashboard.Screen

	// refreshedMsg reports the result of a forced refresh
	refreshedMsg struct {
		kind dashboard.Kind
		ok   bool
	}
)

// RefreshFunc forces an immediate tick of the update loop.
type RefreshFunc func(ctx context.Context) (dashboard.Candidate, bool)

// AppModel mirrors the panel in the terminal
type AppModel struct {
	ctx     context.Context
	refresh RefreshFunc
	spinner spinner.Model

	screen  *dashboard.Screen
	frames  int
	lastAt  time.Time
	paused  bool
	status  string
	width   int
	height  int
	nowFunc func() time.Time
}

// NewAppModel creates the watch model. refresh may be nil.
func NewAppModel(ctx context.Context, refresh RefreshFunc) AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return AppModel{
		ctx:     ctx,
		refresh: refresh,
		spinner: s,
		nowFunc: time.Now,
	}
}

// Init implements tea.Model
func (m AppModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "p":
			m.paused = !m.paused
			if m.paused {
				m.status = "paused"
			} else {
				m.status = ""
			}

		case "r":
			if m.refresh != nil {
				return m, m.refreshCmd()
			}
		}

	case frameMsg:
		if m.paused {
			return m, nil
		}
		screen := dashboard.Screen(msg)
		m.screen = &screen
		m.frames++
		m.lastAt = m.nowFunc()

	case refreshedMsg:
		if msg.ok {
			m.status = "refreshed: " + string(msg.kind)
		} else {
			m.status = "refresh skipped, tick in progress"
		}

	case spinner.TickMsg:
		if m.screen != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m AppModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		c, ok := m.refresh(m.ctx)
		return refreshedMsg{kind: c.Kind, ok: ok}
	}
}

// View implements tea.Model
func (m AppModel) View() string {
	var body string
	if m.screen == nil {
		body = m.spinner.View() + " Waiting for the first frame..."
	} else {
		body = display.PanelView(*m.screen)
	}

	var info []string
	if m.screen != nil {
		info = append(info, fmt.Sprintf("frames %d", m.frames), "last "+m.lastAt.Format("15:04:05"))
	}
	if m.status != "" {
		info = append(info, m.status)
	}
	statusBar := styles.StatusBarStyle.Render(strings.Join(info, " · "))
	help := styles.HelpStyle.Render(
		styles.KeyStyle.Render("r") + " refresh  " +
			styles.KeyStyle.Render("p") + " pause  " +
			styles.KeyStyle.Render("q") + " quit")

	return lipgloss.JoinVertical(lipgloss.Left, body, statusBar, help)
}
