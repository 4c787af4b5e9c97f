package commands

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"
)

// Response utilities for Discord commands

// now is the embed timestamp source, replaced in tests.
var now = time.Now

// createEmbed creates a basic Discord embed
func createEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Homepanel",
		},
	}
}

// createSuccessEmbed creates a success embed
func createSuccessEmbed(title, description string) *discordgo.MessageEmbed {
	return createEmbed(title, description, 0x00FF00) // Green
}

// createErrorEmbed creates an error embed
func createErrorEmbed(title, description string) *discordgo.MessageEmbed {
	return createEmbed(title, description, 0xFF0000) // Red
}

// createInfoEmbed creates an info embed
func createInfoEmbed(title, description string) *discordgo.MessageEmbed {
	return createEmbed(title, description, 0x0099FF) // Blue
}

// createWarningEmbed creates a warning embed
func createWarningEmbed(title, description string) *discordgo.MessageEmbed {
	return createEmbed(title, description, 0xFFA500) // Orange
}

// ErrorEmbed is the reply for a command that could not be served.
func ErrorEmbed(description string) *discordgo.MessageEmbed {
	return createErrorEmbed("❌ Error", description)
}

// formatRate formats a transfer rate in bytes per second
func formatRate(bytesPerSecond int64) string {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	return humanize.Bytes(uint64(bytesPerSecond)) + "/s"
}

// getUsageBar creates a visual usage bar
func getUsageBar(percent float64) string {
	const barLength = 20
	filled := int(percent / 100 * barLength)
	if filled > barLength {
		filled = barLength
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", barLength-filled)

	// Add color indicator
	if percent >= 90 {
		return "🔴 " + bar
	} else if percent >= 70 {
		return "🟡 " + bar
	} else {
		return "🟢 " + bar
	}
}

// truncateString truncates string to fit Discord limits
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
