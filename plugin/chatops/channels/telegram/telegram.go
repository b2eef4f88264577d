// Package telegram implements the Telegram notify channel.
package telegram

import (
	"context"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/sprintlens/sprintlens/plugin/chatops"
)

const defaultParseMode = "Markdown"

// Channel implements NotifyChannel for the Telegram Bot API.
type Channel struct {
	bot *tgbotapi.BotAPI
}

// NewChannel creates a Telegram notify channel.
func NewChannel(botToken string) (*Channel, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Telegram bot")
	}
	return &Channel{bot: bot}, nil
}

// Name returns the platform name.
func (c *Channel) Name() chatops.Platform {
	return chatops.PlatformTelegram
}

// Post sends the message. Link previews are disabled, matching the Slack
// channel's unfurl behavior.
func (c *Channel) Post(ctx context.Context, msg *chatops.OutgoingMessage) error {
	chatID, err := strconv.ParseInt(msg.ChannelID, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "invalid telegram chat id %q", msg.ChannelID)
	}

	out := tgbotapi.NewMessage(chatID, msg.Text)
	out.ParseMode = defaultParseMode
	out.DisableWebPagePreview = true

	if _, err := c.bot.Send(out); err != nil {
		return errors.Wrapf(err, "failed to post to telegram chat %d", chatID)
	}
	return nil
}
