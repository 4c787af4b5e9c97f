package dashboard

import (
	"time"

	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/probe"
)

// Input is everything the selector looks at on one tick.
type Input struct {
	Snapshot     probe.SubsystemSnapshot
	Alert        *alert.Alert
	ActivityText string
	ActivityAge  time.Duration
}

// Selector picks a screen by priority: alert, then recent activity, then a
// clock-driven rotation through the informational screens.
type Selector struct {
	Title          string
	RotationPeriod time.Duration
	ActivityWindow time.Duration
	Width          int
}

// NewSelector builds a selector from the dashboard configuration.
func NewSelector(cfg config.DashboardConfig, title string) Selector {
	return Selector{
		Title:          title,
		RotationPeriod: cfg.RotationPeriod,
		ActivityWindow: cfg.ActivityWindow,
		Width:          cfg.DisplayWidth,
	}
}

// Pool returns the rotation candidates for a snapshot, in order. The
// torrent screen is listed twice while a download is active. The pool always
// ends with the system and tips screens, so it is never empty.
func (s Selector) Pool(snap probe.SubsystemSnapshot) []Candidate {
	var pool []Candidate
	if snap.Container == probe.ContainerStarting {
		pool = append(pool, Candidate{KindInit, initScreen()})
	}
	if snap.TorrentActive() {
		t := Candidate{KindTorrent, torrentScreen(snap.Torrent)}
		pool = append(pool, t, t)
	}
	if snap.Container == probe.ContainerOn {
		pool = append(pool, Candidate{KindPlayers, playersScreen(snap.Players)})
	}
	pool = append(pool,
		Candidate{KindSystem, systemScreen(snap)},
		Candidate{KindTips, tipsScreen(s.Title)},
	)
	return pool
}

// RotationIndex returns floor(now / period) mod size.
func RotationIndex(now time.Time, period time.Duration, size int) int {
	if size <= 0 || period <= 0 {
		return 0
	}
	slot := now.UnixNano() / period.Nanoseconds()
	idx := int(slot % int64(size))
	if idx < 0 {
		idx += size
	}
	return idx
}

// Select returns the screen to show at now.
func (s Selector) Select(in Input, now time.Time) Candidate {
	var c Candidate
	switch {
	case in.Alert != nil:
		c = Candidate{KindAlert, alertScreen(in.Alert)}
	case in.ActivityText != "" && in.ActivityAge < s.ActivityWindow:
		c = Candidate{KindActivity, activityScreen(in.ActivityText, in.ActivityAge, s.Width)}
	default:
		pool := s.Pool(in.Snapshot)
		c = pool[RotationIndex(now, s.RotationPeriod, len(pool))]
	}

	c.Screen.Title = truncate(c.Screen.Title, TitleWidth)
	c.Screen.Clock = now.Format("15:04")
	c.Screen.Line1 = truncate(c.Screen.Line1, s.Width)
	c.Screen.Line2 = truncate(c.Screen.Line2, s.Width)
	c.Screen.Line3 = truncate(c.Screen.Line3, s.Width)
	return c
}
