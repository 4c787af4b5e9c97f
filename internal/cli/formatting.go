package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/raainshe/homepanel/internal/alert"
	"github.com/raainshe/homepanel/internal/cache"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/probe"
)

// Colors for health levels
var (
	ColorHealthy = color.New(color.FgGreen, color.Bold)
	ColorWarning = color.New(color.FgYellow, color.Bold)
	ColorError   = color.New(color.FgRed, color.Bold)
	ColorHeader  = color.New(color.FgWhite, color.Bold)
	ColorMuted   = color.New(color.FgHiBlack)
)

// Usage bar characters
const (
	BarFull  = "█"
	BarEmpty = "░"
	BarWidth = 20
)

const unavailable = "unavailable"

// SnapshotReport is the printable form of a subsystem snapshot
type SnapshotReport struct {
	TakenAt     time.Time `json:"taken_at"`
	Temperature *float64  `json:"temperature_c"`
	Memory      *int      `json:"memory_pct"`
	IP          string    `json:"ip,omitempty"`
	Container   string    `json:"container"`
	Players     []string  `json:"players,omitempty"`
	PlayerCount int       `json:"player_count"`
	Torrent     *Torrent  `json:"torrent,omitempty"`
	TorrentDown bool      `json:"torrent_unavailable,omitempty"`
	Alert       string    `json:"alert,omitempty"`
}

// Torrent is the printable torrent summary
type Torrent struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	DlRate   int64   `json:"dl_rate"`
	UlRate   int64   `json:"ul_rate"`
	Count    int     `json:"active"`
}

// NewSnapshotReport converts a snapshot and its alert (may be nil)
func NewSnapshotReport(snap probe.SubsystemSnapshot, a *alert.Alert) SnapshotReport {
	r := SnapshotReport{
		TakenAt:     snap.TakenAt,
		Temperature: snap.TempC,
		Memory:      snap.MemPct,
		IP:          snap.IP,
		Container:   snap.Container.String(),
		Players:     snap.Players.Names,
		PlayerCount: snap.Players.Count,
		TorrentDown: snap.TorrentUnavailable,
	}
	if t := snap.Torrent; t != nil {
		r.Torrent = &Torrent{Name: t.Name, Progress: t.Progress, DlRate: t.DlRate, UlRate: t.UlRate, Count: t.Count}
	}
	if a != nil {
		r.Alert = a.Key
	}
	return r
}

// FormatRate converts bytes per second to human readable format
func FormatRate(bytesPerSec int64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	return humanize.Bytes(uint64(bytesPerSec)) + "/s"
}

// CreateUsageBar renders percentage (0-100) as a bar of the given width
func CreateUsageBar(percentage float64, width int) string {
	if percentage < 0 {
		percentage = 0
	} else if percentage > 100 {
		percentage = 100
	}

	filled := int((percentage / 100.0) * float64(width))
	empty := width - filled

	return strings.Repeat(BarFull, filled) + strings.Repeat(BarEmpty, empty)
}

// GetHealthColor returns the color for a reading against its alert threshold
func GetHealthColor(value, threshold float64) *color.Color {
	switch {
	case value >= threshold:
		return ColorError
	case value >= threshold*0.85:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// GetContainerColor returns the color and label for a container state
func GetContainerColor(state probe.ContainerState) (*color.Color, string) {
	switch state {
	case probe.ContainerOn:
		return ColorHealthy, "🟢 Online"
	case probe.ContainerStarting:
		return ColorWarning, "🟡 Starting"
	default:
		return ColorError, "🔴 Offline"
	}
}

// PrintSnapshot writes a key/value view of the snapshot, or JSON
func PrintSnapshot(w io.Writer, snap probe.SubsystemSnapshot, a *alert.Alert, thresholds config.AlertConfig, jsonOutput bool) error {
	report := NewSnapshotReport(snap, a)

	if jsonOutput {
		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(jsonData))
		return nil
	}

	fmt.Fprintf(w, "📊 %s %s\n\n", ColorHeader.Sprint("Snapshot"), ColorMuted.Sprint(snap.TakenAt.Format("2006-01-02 15:04:05")))

	if snap.TempC != nil {
		c := GetHealthColor(*snap.TempC, thresholds.TempThreshold)
		fmt.Fprintf(w, "🌡️  %-10s %s\n", "Temp", c.Sprintf("%.1f°C", *snap.TempC))
	} else {
		fmt.Fprintf(w, "🌡️  %-10s %s\n", "Temp", ColorMuted.Sprint(unavailable))
	}

	if snap.MemPct != nil {
		c := GetHealthColor(float64(*snap.MemPct), float64(thresholds.MemoryThreshold))
		fmt.Fprintf(w, "🧠 %-10s %s %s\n", "Memory", CreateUsageBar(float64(*snap.MemPct), BarWidth), c.Sprintf("%d%%", *snap.MemPct))
	} else {
		fmt.Fprintf(w, "🧠 %-10s %s\n", "Memory", ColorMuted.Sprint(unavailable))
	}

	ip := snap.IP
	if ip == "" {
		ip = ColorMuted.Sprint(unavailable)
	}
	fmt.Fprintf(w, "🌐 %-10s %s\n", "IP", ip)

	c, label := GetContainerColor(snap.Container)
	fmt.Fprintf(w, "🎮 %-10s %s\n", "Minecraft", c.Sprint(label))
	if snap.Container == probe.ContainerOn {
		fmt.Fprintf(w, "👥 %-10s %d", "Players", snap.Players.Count)
		if len(snap.Players.Names) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(snap.Players.Names, ", "))
		}
		fmt.Fprintln(w)
	}

	if t := snap.Torrent; t != nil {
		fmt.Fprintf(w, "📥 %-10s %s\n", "Torrent", t.Name)
		fmt.Fprintf(w, "   %-10s %s %.1f%% (%d active)\n", "", CreateUsageBar(t.Progress, BarWidth), t.Progress, t.Count)
		fmt.Fprintf(w, "   %-10s ⬇️ %s ⬆️ %s\n", "", FormatRate(t.DlRate), FormatRate(t.UlRate))
	} else if snap.TorrentUnavailable {
		fmt.Fprintf(w, "📥 %-10s %s\n", "Torrent", ColorMuted.Sprint(unavailable))
	} else {
		fmt.Fprintf(w, "📥 %-10s %s\n", "Torrent", ColorMuted.Sprint("idle"))
	}

	fmt.Fprintln(w)
	if a != nil {
		fmt.Fprintf(w, "⚠️  %s %s\n", ColorError.Sprint("ALERT"), a.Key)
	} else {
		fmt.Fprintf(w, "✅ %s\n", ColorHealthy.Sprint("All readings within thresholds"))
	}
	return nil
}

// PrintCacheStats writes the per-sampler hit/miss counters
func PrintCacheStats(w io.Writer, stats []cache.StatsSnapshot) {
	if len(stats) == 0 {
		return
	}
	fmt.Fprintf(w, "\n🗄️  %s\n", ColorHeader.Sprint("Probe cache"))
	for _, s := range stats {
		fmt.Fprintf(w, "   %-18s hits %d · misses %d · failures %d · %.0f%%\n",
			s.Name, s.Hits, s.Misses, s.Failures, s.HitRatio())
	}
}
