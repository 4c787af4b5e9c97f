package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/raainshe/homepanel/internal/probe"
)

// maxListedPlayers caps the player list in the embed
const maxListedPlayers = 20

// Minecraft answers /minecraft with the container state and who is online.
func Minecraft(state probe.ContainerState, players probe.Players) *discordgo.MessageEmbed {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("**Status:** %s\n", containerLabel(state)))

	switch state {
	case probe.ContainerStarting:
		builder.WriteString("The server is starting and not accepting connections yet.")
		return createWarningEmbed("🎮 Minecraft", builder.String())
	case probe.ContainerOff:
		return createInfoEmbed("🎮 Minecraft", builder.String())
	}

	builder.WriteString(fmt.Sprintf("**Players online:** %d\n", players.Count))
	for i, name := range players.Names {
		if i >= maxListedPlayers {
			builder.WriteString(fmt.Sprintf("... and %d more\n", len(players.Names)-maxListedPlayers))
			break
		}
		builder.WriteString(fmt.Sprintf("• %s\n", name))
	}
	return createSuccessEmbed("🎮 Minecraft", builder.String())
}
