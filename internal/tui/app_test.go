package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raainshe/homepanel/internal/dashboard"
)

var testScreen = dashboard.Screen{Title: "System", Clock: "12:00", Line1: "IP 10.0.0.2", Line2: "Temp 48.3C", Line3: "Mem 42%"}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(refresh RefreshFunc) AppModel {
	m := NewAppModel(context.Background(), refresh)
	m.nowFunc = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 5, 0, time.UTC) }
	return m
}

func TestWaitingForFirstFrame(t *testing.T) {
	m := newTestModel(nil)
	assert.Contains(t, m.View(), "Waiting for the first frame")
}

func TestFrameIsShown(t *testing.T) {
	m := newTestModel(nil)
	updated, _ := m.Update(frameMsg(testScreen))
	m = updated.(AppModel)

	require.NotNil(t, m.screen)
	assert.Equal(t, testScreen, *m.screen)
	view := m.View()
	assert.Contains(t, view, "Temp 48.3C")
	assert.Contains(t, view, "frames 1")
	assert.Contains(t, view, "last 12:00:05")
}

func TestPauseIgnoresFrames(t *testing.T) {
	m := newTestModel(nil)
	updated, _ := m.Update(key("p"))
	m = updated.(AppModel)
	assert.True(t, m.paused)

	updated, _ = m.Update(frameMsg(testScreen))
	m = updated.(AppModel)
	assert.Nil(t, m.screen)
	assert.Contains(t, m.View(), "paused")

	updated, _ = m.Update(key("p"))
	m = updated.(AppModel)
	assert.False(t, m.paused)
}

func TestRefreshKey(t *testing.T) {
	called := 0
	m := newTestModel(func(context.Context) (dashboard.Candidate, bool) {
		called++
		return dashboard.Candidate{Kind: dashboard.KindTips}, true
	})

	_, cmd := m.Update(key("r"))
	require.NotNil(t, cmd)
	msg := cmd()
	assert.Equal(t, 1, called)

	updated, _ := m.Update(msg)
	assert.Equal(t, "refreshed: tips", updated.(AppModel).status)
}

func TestQuitKey(t *testing.T) {
	m := newTestModel(nil)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
