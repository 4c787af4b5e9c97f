package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/multierr"

	"github.com/raainshe/homepanel/internal/bot/commands"
	"github.com/raainshe/homepanel/internal/config"
	"github.com/raainshe/homepanel/internal/dashboard"
	"github.com/raainshe/homepanel/internal/logging"
	"github.com/raainshe/homepanel/internal/probe"
)

// StatusSource is what the commands read from.
type StatusSource interface {
	Snapshot(ctx context.Context) probe.SubsystemSnapshot
	IP(ctx context.Context) (string, error)
	Container(ctx context.Context) (probe.ContainerState, error)
	Players(ctx context.Context) (probe.Players, error)
	Torrent(ctx context.Context) (*probe.TorrentSummary, error)
}

// ActivityNoter records the last handled command.
type ActivityNoter interface {
	Note(text string)
}

// Refresher redraws the panel right away.
type Refresher interface {
	Refresh(ctx context.Context) (dashboard.Candidate, bool)
}

// Bot represents the Discord bot instance
type Bot struct {
	session   *discordgo.Session
	config    *config.Config
	logger    *logging.Logger
	status    StatusSource
	activity  ActivityNoter
	refresher Refresher
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewBot creates a new Discord bot instance
func NewBot(cfg *config.Config, session *discordgo.Session, status StatusSource, activity ActivityNoter, refresher Refresher) *Bot {
	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	bot := &Bot{
		session:   session,
		config:    cfg,
		logger:    logging.GetDiscordLogger(),
		status:    status,
		activity:  activity,
		refresher: refresher,
		ctx:       ctx,
		cancel:    cancel,
	}

	// Set up event handlers
	if session != nil {
		bot.setupEventHandlers()
	}

	return bot
}

// NewSession creates a discordgo session for the configured bot token
func NewSession(cfg *config.Config) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsDirectMessages
	return session, nil
}

// setupEventHandlers configures Discord event handlers
func (b *Bot) setupEventHandlers() {
	// Bot ready event
	b.session.AddHandler(b.handleReady)

	// Interaction create event (slash commands)
	b.session.AddHandler(b.handleInteractionCreate)
}

// handleReady is called when the bot is ready
func (b *Bot) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	b.logger.WithFields(map[string]interface{}{
		"bot_id":   event.User.ID,
		"username": event.User.Username,
		"guilds":   len(event.Guilds),
	}).Info("Discord bot is ready")

	// Set bot status
	if err := s.UpdateGameStatus(0, "Watching the server"); err != nil {
		b.logger.WithError(err).Error("Failed to update bot status")
	}
}

// handleInteractionCreate handles slash command interactions
func (b *Bot) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	// Only handle slash commands
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	user := interactionUser(i)
	embed := b.Dispatch(b.ctx, name, user)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
	if err != nil {
		b.logger.WithFields(map[string]interface{}{
			"command": name,
			"error":   err.Error(),
		}).Error("Failed to send command response")
	}
}

func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

// Dispatch runs a command and returns its reply. Every known command is
// noted on the panel and triggers an immediate refresh.
func (b *Bot) Dispatch(ctx context.Context, name, user string) *discordgo.MessageEmbed {
	var embed *discordgo.MessageEmbed
	switch name {
	case "ping":
		embed = commands.Ping()
	case "status":
		snap := b.status.Snapshot(ctx)
		embed = commands.Status(snap, b.config.Alert.TempThreshold, b.config.Alert.MemoryThreshold)
	case "ip":
		ip, err := b.status.IP(ctx)
		if err != nil {
			embed = commands.ErrorEmbed(fmt.Sprintf("Failed to get IP address: %v", err))
			break
		}
		embed = commands.IP(ip)
	case "minecraft":
		state, err := b.status.Container(ctx)
		if err != nil {
			embed = commands.ErrorEmbed(fmt.Sprintf("Failed to get container state: %v", err))
			break
		}
		players, err := b.status.Players(ctx)
		if err != nil {
			b.logger.WithError(err).Warn("Failed to list players")
		}
		embed = commands.Minecraft(state, players)
	case "torrents":
		summary, err := b.status.Torrent(ctx)
		if err != nil {
			embed = commands.ErrorEmbed(fmt.Sprintf("Failed to reach the torrent client: %v", err))
			break
		}
		embed = commands.Torrents(summary)
	case "help":
		embed = commands.Help()
	default:
		return commands.ErrorEmbed("Unknown command")
	}

	logging.LogCommand(name, user, nil)
	b.activity.Note(fmt.Sprintf("/%s %s", name, user))
	if b.refresher != nil {
		b.refresher.Refresh(ctx)
	}
	return embed
}

// RegisterCommands registers slash commands with Discord
func (b *Bot) RegisterCommands() error {
	// Register commands for each guild (server)
	for _, guildID := range b.config.Discord.GuildIDs {
		b.logger.WithField("guild_id", guildID).Info("Registering commands for guild")

		_, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, guildID, Commands)
		if err != nil {
			return fmt.Errorf("failed to register commands for guild %s: %w", guildID, err)
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"command_count": len(Commands),
		"guild_count":   len(b.config.Discord.GuildIDs),
	}).Info("Successfully registered Discord commands")

	return nil
}

// Commands are the slash commands the bot serves
var Commands = []*discordgo.ApplicationCommand{
	{Name: "ping", Description: "Check that the bot is alive"},
	{Name: "status", Description: "Show temperature, memory and game server state"},
	{Name: "ip", Description: "Show the server's local IP address"},
	{Name: "minecraft", Description: "Show the Minecraft container state and online players"},
	{Name: "torrents", Description: "Show the most active download"},
	{Name: "help", Description: "Show available commands and usage"},
}

// Start opens the gateway connection, registers commands and greets the
// admin
func (b *Bot) Start() error {
	b.logger.WithField("guild_count", len(b.config.Discord.GuildIDs)).Info("Starting Discord bot")

	if err := openAndRegister(b.session, b.RegisterCommands); err != nil {
		return err
	}

	b.greetAdmin()

	b.logger.Info("Discord bot started successfully")
	return nil
}

// gateway is the connection half of a discordgo session.
type gateway interface {
	Open() error
	Close() error
}

// openAndRegister opens the gateway and registers commands. The gateway is
// closed again when registration fails.
func openAndRegister(g gateway, register func() error) error {
	if err := g.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if err := register(); err != nil {
		err = fmt.Errorf("failed to register commands: %w", err)
		return multierr.Append(err, g.Close())
	}
	return nil
}

// greetAdmin DMs the admin that the server is up. Failures are logged.
func (b *Bot) greetAdmin() {
	if b.config.Discord.AdminUserID == "" {
		return
	}
	channel, err := b.session.UserChannelCreate(b.config.Discord.AdminUserID, discordgo.WithContext(b.ctx))
	if err == nil {
		_, err = b.session.ChannelMessageSend(channel.ID, "👋 Homepanel is up", discordgo.WithContext(b.ctx))
	}
	if err != nil {
		b.logger.WithError(err).Warn("Failed to greet admin")
	}
}

// Stop gracefully stops the Discord bot
func (b *Bot) Stop() error {
	b.logger.Info("Stopping Discord bot")

	// Cancel context to signal shutdown
	b.cancel()

	// Close Discord session
	if b.session != nil {
		if err := b.session.Close(); err != nil {
			b.logger.WithError(err).Error("Error closing Discord session")
			return err
		}
	}

	b.logger.Info("Discord bot stopped successfully")
	return nil
}
