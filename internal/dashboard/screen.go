// Package dashboard decides which screen the panel shows on each tick.
package dashboard

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/probe"
)

// TitleWidth is the number of characters the header fits next to the clock.
const TitleWidth = 10

// Screen is one frame of the panel: a header with a clock and three lines.
type Screen struct {
	Title string
	Clock string
	Line1 string
	Line2 string
	Line3 string
}

// Lines returns the three body lines.
func (s Screen) Lines() [3]string {
	return [3]string{s.Line1, s.Line2, s.Line3}
}

// Kind names a screen in the selection policy.
type Kind string

const (
	KindAlert    Kind = "alert"
	KindActivity Kind = "activity"
	KindInit     Kind = "init"
	KindTorrent  Kind = "torrent"
	KindPlayers  Kind = "players"
	KindSystem   Kind = "system"
	KindTips     Kind = "tips"
)

// Candidate is a screen together with its kind.
type Candidate struct {
	Kind   Kind
	Screen Screen
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return string(r[:width])
}

func alertScreen(a *alert.Alert) Screen {
	s := Screen{Title: "ALERT", Line3: "Check the server"}
	if len(a.Conditions) > 0 {
		s.Line1 = a.Conditions[0]
	}
	if len(a.Conditions) > 1 {
		s.Line2 = a.Conditions[1]
	}
	return s
}

func activityScreen(text string, age time.Duration, width int) Screen {
	return Screen{
		Title: "Last cmd",
		Line1: truncate(text, width),
		Line2: fmt.Sprintf("%ds ago", int(age/time.Second)),
	}
}

func initScreen() Screen {
	return Screen{Title: "Minecraft", Line1: "Initializing...", Line2: "Please wait"}
}

func torrentScreen(t *probe.TorrentSummary) Screen {
	return Screen{
		Title: "Torrent",
		Line1: t.Name,
		Line2: fmt.Sprintf("%.1f%% (%d active)", t.Progress, t.Count),
		Line3: fmt.Sprintf("D%s U%s", rate(t.DlRate), rate(t.UlRate)),
	}
}

func rate(bytesPerSecond int64) string {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}

func playersScreen(p probe.Players) Screen {
	first := "-"
	if len(p.Names) > 0 {
		first = p.Names[0]
	}
	return Screen{
		Title: "Players",
		Line1: fmt.Sprintf("Online: %d", p.Count),
		Line2: first,
	}
}

func systemScreen(snap probe.SubsystemSnapshot) Screen {
	s := Screen{Title: "System", Line1: "IP --", Line2: "Temp --", Line3: "Mem --"}
	if snap.IP != "" {
		s.Line1 = "IP " + snap.IP
	}
	if snap.TempC != nil {
		s.Line2 = fmt.Sprintf("Temp %.1fC", *snap.TempC)
	}
	if snap.MemPct != nil {
		s.Line3 = fmt.Sprintf("Mem %d%%", *snap.MemPct)
	}
	return s
}

func tipsScreen(title string) Screen {
	return Screen{Title: title, Line1: "/status /ip", Line2: "/minecraft /torrents", Line3: "/help"}
}
