package commands

import (
	"github.com/bwmarrin/discordgo"
)

// Help answers /help.
func Help() *discordgo.MessageEmbed {
	content := "**🤖 Homepanel - Discord Bot Commands**\n\n" +
		"**📊 Server:**\n" +
		"• `/ping` - Check that the bot is alive\n" +
		"• `/status` - CPU temperature, memory and game server state\n" +
		"• `/ip` - Local IP address of the server\n\n" +
		"**🎮 Minecraft:**\n" +
		"• `/minecraft` - Container state and online players\n\n" +
		"**📥 Downloads:**\n" +
		"• `/torrents` - Most active download and transfer rates\n\n" +
		"**💡 Tips:**\n" +
		"• Every command also shows up on the panel for a few seconds\n" +
		"• Temperature and memory alerts are sent to the admin by DM"

	return createInfoEmbed("❓ Help & Commands", content)
}
