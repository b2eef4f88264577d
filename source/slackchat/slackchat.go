// Package slackchat implements the chat source adapter on the Slack Web API.
package slackchat

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"golang.org/x/time/rate"

	"github.com/sprintlens/sprintlens/source"
)

const (
	// historyLimit caps one conversations.history page.
	historyLimit = 200

	// Slack Web API tier 3 allows ~50 requests per minute.
	requestsPerSecond = 1
)

// Client is the chat adapter. A nil *Client is a valid unconfigured adapter:
// every read degrades to ErrNotConfigured.
type Client struct {
	api     *slack.Client
	limiter *rate.Limiter
}

// Option customizes the underlying Slack client. Tests use slack.OptionAPIURL
// to point at an httptest server.
type Option = slack.Option

// New creates a chat adapter. Returns nil when the token is empty.
func New(token string, opts ...Option) *Client {
	if token == "" {
		return nil
	}
	return &Client{
		api:     slack.New(token, opts...),
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 2),
	}
}

// FetchMessages returns the channel's messages inside the window, oldest
// first as Slack returns them. System notices ("has joined the channel") and
// bot-originated messages are dropped.
func (c *Client) FetchMessages(ctx context.Context, channelID string, window source.TimeWindow) ([]source.ChatMessage, error) {
	if c == nil {
		return nil, source.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameChat, err)
	}

	oldest := strconv.FormatInt(window.Since().Unix(), 10)
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Oldest:    oldest,
		Limit:     historyLimit,
	})
	if err != nil {
		return nil, mapError(err)
	}

	messages := make([]source.ChatMessage, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		if msg.SubType == "bot_message" {
			continue
		}
		if strings.Contains(msg.Text, "has joined the channel") {
			continue
		}
		messages = append(messages, source.ChatMessage{
			User:      msg.User,
			Text:      msg.Text,
			Timestamp: msg.Timestamp,
		})
	}
	slog.Debug("chat: fetched channel history",
		"channel", channelID,
		"days", window.Days,
		"messages", len(messages),
	)
	return messages, nil
}

// ListChannels returns the public and private channels visible to the bot.
func (c *Client) ListChannels(ctx context.Context) ([]source.ChatChannel, error) {
	if c == nil {
		return nil, source.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, source.NewUnavailableError(source.NameChat, err)
	}

	raw, _, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Types: []string{"public_channel", "private_channel"},
	})
	if err != nil {
		return nil, mapError(err)
	}

	channels := make([]source.ChatChannel, 0, len(raw))
	for _, ch := range raw {
		channels = append(channels, source.ChatChannel{
			ID:        ch.ID,
			Name:      ch.Name,
			IsPrivate: ch.IsPrivate,
		})
	}
	return channels, nil
}

// PostMessage posts text to a channel with link unfurling disabled.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) error {
	if c == nil {
		return source.ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return source.NewUnavailableError(source.NameChat, err)
	}

	_, _, err := c.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return mapError(err)
	}
	return nil
}

// mapError converts slack-go errors into the source taxonomy.
func mapError(err error) error {
	var statusErr slack.StatusCodeError
	if errors.As(err, &statusErr) {
		return source.NewAPIError(source.NameChat, statusErr.Code, statusErr.Status)
	}
	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return source.NewAPIError(source.NameChat, 0, slackErr.Err)
	}
	return source.NewUnavailableError(source.NameChat, err)
}
