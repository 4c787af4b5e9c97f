package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/raainshe/homepanel/internal/probe"
)

// Torrents answers /torrents with the most active download.
func Torrents(summary *probe.TorrentSummary) *discordgo.MessageEmbed {
	if summary == nil {
		return createInfoEmbed("📥 Torrents", "No active downloads.")
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**%s**\n", truncateString(summary.Name, 200)))
	builder.WriteString(fmt.Sprintf("%s %.1f%%\n", getProgressBar(summary.Progress), summary.Progress))
	builder.WriteString(fmt.Sprintf("⬇️ %s | ⬆️ %s\n", formatRate(summary.DlRate), formatRate(summary.UlRate)))
	builder.WriteString(fmt.Sprintf("**Active downloads:** %d", summary.Count))

	return createInfoEmbed("📥 Torrents", builder.String())
}

// getProgressBar renders progress without the usage colour scale
func getProgressBar(percent float64) string {
	bar := getUsageBar(percent)
	_, bar, _ = strings.Cut(bar, " ")
	return bar
}
