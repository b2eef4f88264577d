// Package slack implements the Slack notify channel on top of the chat
// source adapter's posting capability.
package slack

import (
	"context"

	"github.com/sprintlens/sprintlens/plugin/chatops"
	"github.com/sprintlens/sprintlens/source/slackchat"
)

// Channel implements NotifyChannel for Slack.
type Channel struct {
	client *slackchat.Client
}

// NewChannel creates a Slack notify channel sharing the chat adapter's
// authenticated client.
func NewChannel(client *slackchat.Client) *Channel {
	return &Channel{client: client}
}

// Name returns the platform name.
func (c *Channel) Name() chatops.Platform {
	return chatops.PlatformSlack
}

// Post sends the message with link unfurling disabled.
func (c *Channel) Post(ctx context.Context, msg *chatops.OutgoingMessage) error {
	return c.client.PostMessage(ctx, msg.ChannelID, msg.Text)
}
