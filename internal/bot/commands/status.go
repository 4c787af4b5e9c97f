package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/raainshe/homepanel/internal/probe"
)

// Ping answers /ping.
func Ping() *discordgo.MessageEmbed {
	return createSuccessEmbed("🏓 Pong!", "Homepanel is alive.")
}

// Status answers /status with temperature, memory and container state.
func Status(snap probe.SubsystemSnapshot, tempThreshold float64, memThreshold int) *discordgo.MessageEmbed {
	var builder strings.Builder
	warn := false

	builder.WriteString("**🌡️ CPU Temperature:** ")
	if snap.TempC != nil {
		builder.WriteString(fmt.Sprintf("%.1f°C", *snap.TempC))
		if *snap.TempC >= tempThreshold {
			builder.WriteString(" ⚠️")
			warn = true
		}
	} else {
		builder.WriteString("unavailable")
	}
	builder.WriteString("\n")

	builder.WriteString("**🧠 Memory:** ")
	if snap.MemPct != nil {
		builder.WriteString(fmt.Sprintf("%d%%\n%s", *snap.MemPct, getUsageBar(float64(*snap.MemPct))))
		if *snap.MemPct >= memThreshold {
			warn = true
		}
	} else {
		builder.WriteString("unavailable")
	}
	builder.WriteString("\n")

	builder.WriteString(fmt.Sprintf("**🎮 Minecraft:** %s\n", containerLabel(snap.Container)))
	if snap.IP != "" {
		builder.WriteString(fmt.Sprintf("**🌐 IP:** `%s`\n", snap.IP))
	}

	if warn {
		return createWarningEmbed("📊 Server Status", builder.String())
	}
	return createInfoEmbed("📊 Server Status", builder.String())
}

// IP answers /ip.
func IP(ip string) *discordgo.MessageEmbed {
	return createInfoEmbed("🌐 IP Address", fmt.Sprintf("`%s`", ip))
}

func containerLabel(state probe.ContainerState) string {
	switch state {
	case probe.ContainerOn:
		return "🟢 Online"
	case probe.ContainerStarting:
		return "🟡 Starting"
	default:
		return "🔴 Offline"
	}
}
