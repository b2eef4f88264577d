// Package bot implements the chat-relay surface: posting summaries to
// channels and answering mentions through an ordered keyword dispatch table.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sprintlens/sprintlens/ai"
	"github.com/sprintlens/sprintlens/plugin/chatops"
	"github.com/sprintlens/sprintlens/plugin/chatops/channels"
	"github.com/sprintlens/sprintlens/summary"
)

// DefaultDays is the lookback window for mention-triggered summaries.
const DefaultDays = 7

const helpText = `🤖 *SprintLens Bot Commands:*
• ` + "`@SprintLens summary`" + ` - Generate a summary of recent activity
• ` + "`@SprintLens help`" + ` - Show this help message
• ` + "`@SprintLens weekly`" + ` - Post a comprehensive weekly summary to the channel
• ` + "`@SprintLens status`" + ` - Show which integrations are configured`

// Service composes the aggregator, composer, summarization client, and
// notify router for the bot flows.
type Service struct {
	aggregator *summary.Aggregator
	summarizer ai.Summarizer
	router     *channels.Router

	// includeCode mirrors whether the code source is configured; weekly and
	// mention summaries include it automatically when it is.
	includeCode bool

	statusLine string
	rules      []rule
}

// Mention is one inbound bot mention.
type Mention struct {
	ChannelID string
	UserID    string
	Text      string
}

// rule is one (predicate, handler) pair of the dispatch table. Rules are
// evaluated top to bottom; the first match wins.
type rule struct {
	matches func(text string) bool
	handle  func(ctx context.Context, m *Mention) string
}

// NewService wires the bot flows. statusLine is the fixed integration status
// string answered to "status" mentions.
func NewService(aggregator *summary.Aggregator, summarizer ai.Summarizer, router *channels.Router, includeCode bool, statusLine string) *Service {
	s := &Service{
		aggregator:  aggregator,
		summarizer:  summarizer,
		router:      router,
		includeCode: includeCode,
		statusLine:  statusLine,
	}
	// Dispatch order is a contract: summary/report, help, weekly, status,
	// then the greeting fallback.
	s.rules = []rule{
		{matchesAny("summary", "report"), s.handleInlineSummary},
		{matchesAny("help"), s.handleHelp},
		{matchesAny("weekly"), s.handleWeekly},
		{matchesAny("status"), s.handleStatus},
	}
	return s
}

// matchesAny builds a case-insensitive substring predicate.
func matchesAny(keywords ...string) func(string) bool {
	return func(text string) bool {
		lower := strings.ToLower(text)
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				return true
			}
		}
		return false
	}
}

// PostSummary posts a formatted summary to a Slack channel. Returns false on
// delivery failure.
func (s *Service) PostSummary(ctx context.Context, channelID, text string) bool {
	return s.postTo(ctx, chatops.PlatformSlack, channelID, fmt.Sprintf("📊 *Sprint Summary*\n\n%s", text))
}

// PostStatusUpdate posts a status line with optional details.
func (s *Service) PostStatusUpdate(ctx context.Context, channelID, status, details string) bool {
	text := fmt.Sprintf("🔄 *Status Update:* %s", status)
	if details != "" {
		text += "\n\n" + details
	}
	return s.postTo(ctx, chatops.PlatformSlack, channelID, text)
}

func (s *Service) postTo(ctx context.Context, platform chatops.Platform, channelID, text string) bool {
	err := s.router.Post(ctx, platform, &chatops.OutgoingMessage{ChannelID: channelID, Text: text})
	if err != nil {
		slog.Warn("bot: failed to post message", "platform", platform, "channel", channelID, "error", err)
		return false
	}
	return true
}

// GenerateSummary runs the full aggregate-compose-summarize pipeline for one
// channel. The result is always displayable text.
func (s *Service) GenerateSummary(ctx context.Context, channelID string, days int) string {
	bundle := s.aggregator.Aggregate(ctx, summary.Request{
		ChannelID:   channelID,
		Days:        days,
		IncludeCode: s.includeCode,
	})
	if bundle.Empty() {
		return summary.NoDataMessage
	}
	prompt, err := ai.Compose(bundle)
	if err != nil {
		return summary.NoDataMessage
	}
	return s.summarizer.Summarize(ctx, prompt)
}

// PostWeeklySummary generates and posts a summary for one channel.
func (s *Service) PostWeeklySummary(ctx context.Context, channelID string, days int) bool {
	if days <= 0 {
		days = DefaultDays
	}
	text := s.GenerateSummary(ctx, channelID, days)
	return s.PostSummary(ctx, channelID, text)
}

// RespondToMention dispatches a mention through the rule table and returns
// the response text. No natural-language understanding: plain substring
// matching, first match wins, case-insensitive.
func (s *Service) RespondToMention(ctx context.Context, m *Mention) string {
	for _, r := range s.rules {
		if r.matches(m.Text) {
			return r.handle(ctx, m)
		}
	}
	return s.handleGreeting(ctx, m)
}

func (s *Service) handleInlineSummary(ctx context.Context, m *Mention) string {
	text := s.GenerateSummary(ctx, m.ChannelID, DefaultDays)
	return fmt.Sprintf("📊 *Here's your summary:*\n\n%s", text)
}

func (s *Service) handleHelp(context.Context, *Mention) string {
	return helpText
}

func (s *Service) handleWeekly(ctx context.Context, m *Mention) string {
	if s.PostWeeklySummary(ctx, m.ChannelID, DefaultDays) {
		return "✅ Weekly summary posted to the channel!"
	}
	return "❌ Failed to post weekly summary. Please try again."
}

func (s *Service) handleStatus(context.Context, *Mention) string {
	return s.statusLine
}

func (s *Service) handleGreeting(_ context.Context, m *Mention) string {
	return fmt.Sprintf("Hi <@%s>! I'm SprintLens, your AI teammate. Type `@SprintLens help` to see what I can do.", m.UserID)
}
