// Package chatops provides multi-platform notify channels for posting
// generated summaries back into team chat.
package chatops

// Platform represents a supported notify platform.
type Platform string

const (
	PlatformSlack    Platform = "slack"
	PlatformTelegram Platform = "telegram"
)

// IsValid checks if the platform is valid.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformSlack, PlatformTelegram:
		return true
	default:
		return false
	}
}

// OutgoingMessage represents a message to post to a chat platform.
type OutgoingMessage struct {
	ChannelID string // Destination channel or chat ID
	Text      string // Message body
}
