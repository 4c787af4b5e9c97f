package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// DirectMessenger is the part of a discordgo session used to DM a user.
type DirectMessenger interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord sends notifications as direct messages to one user.
type Discord struct {
	session DirectMessenger
	userID  string
}

// NewDiscord creates a Discord DM notifier for userID.
func NewDiscord(session DirectMessenger, userID string) *Discord {
	return &Discord{session: session, userID: userID}
}

// Notify implements Notifier.
func (d *Discord) Notify(ctx context.Context, text string) error {
	if d.userID == "" {
		return errors.New("discord notifier has no recipient")
	}

	channel, err := d.session.UserChannelCreate(d.userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := d.session.ChannelMessageSend(channel.ID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}
