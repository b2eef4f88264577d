package bot

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintlens/sprintlens/ai"
	"github.com/sprintlens/sprintlens/plugin/chatops"
	"github.com/sprintlens/sprintlens/plugin/chatops/channels"
	"github.com/sprintlens/sprintlens/source"
	"github.com/sprintlens/sprintlens/summary"
)

type stubChat struct {
	messages []source.ChatMessage
}

func (s *stubChat) FetchMessages(context.Context, string, source.TimeWindow) ([]source.ChatMessage, error) {
	return s.messages, nil
}

type stubSummarizer struct {
	calls int
	reply string
}

func (s *stubSummarizer) Summarize(context.Context, *ai.Prompt) string {
	s.calls++
	return s.reply
}

type stubChannel struct {
	posts []*chatops.OutgoingMessage
	err   error
}

func (s *stubChannel) Name() chatops.Platform { return chatops.PlatformSlack }

func (s *stubChannel) Post(_ context.Context, msg *chatops.OutgoingMessage) error {
	if s.err != nil {
		return s.err
	}
	s.posts = append(s.posts, msg)
	return nil
}

func newTestService(chat *stubChat, summarizer *stubSummarizer, channel *stubChannel) *Service {
	aggregator := summary.NewAggregator(chat, nil, nil, nil)
	router := channels.NewRouter()
	router.Register(channel)
	return NewService(aggregator, summarizer, router, false, "🔌 *Integration Status:*\n✅ Slack")
}

func TestGenerateSummary_NoData(t *testing.T) {
	summarizer := &stubSummarizer{reply: "should not appear"}
	s := newTestService(&stubChat{}, summarizer, &stubChannel{})

	text := s.GenerateSummary(context.Background(), "C123", DefaultDays)

	assert.Equal(t, summary.NoDataMessage, text)
	assert.Zero(t, summarizer.calls, "summarizer must not run on an empty bundle")
}

func TestGenerateSummary_WithMessages(t *testing.T) {
	summarizer := &stubSummarizer{reply: "the team shipped things"}
	s := newTestService(&stubChat{messages: []source.ChatMessage{{User: "U1", Text: "merged the fix"}}}, summarizer, &stubChannel{})

	text := s.GenerateSummary(context.Background(), "C123", DefaultDays)

	assert.Equal(t, "the team shipped things", text)
	assert.Equal(t, 1, summarizer.calls)
}

func TestPostSummary_Formatting(t *testing.T) {
	channel := &stubChannel{}
	s := newTestService(&stubChat{}, &stubSummarizer{}, channel)

	ok := s.PostSummary(context.Background(), "C123", "all green")

	assert.True(t, ok)
	require.Len(t, channel.posts, 1)
	assert.Equal(t, "C123", channel.posts[0].ChannelID)
	assert.Equal(t, "📊 *Sprint Summary*\n\nall green", channel.posts[0].Text)
}

func TestPostSummary_DeliveryFailure(t *testing.T) {
	s := newTestService(&stubChat{}, &stubSummarizer{}, &stubChannel{err: errors.New("channel_not_found")})

	assert.False(t, s.PostSummary(context.Background(), "C123", "all green"))
}

func TestPostStatusUpdate(t *testing.T) {
	channel := &stubChannel{}
	s := newTestService(&stubChat{}, &stubSummarizer{}, channel)

	require.True(t, s.PostStatusUpdate(context.Background(), "C123", "deploying", "v1.4.2 to prod"))
	require.Len(t, channel.posts, 1)
	assert.Equal(t, "🔄 *Status Update:* deploying\n\nv1.4.2 to prod", channel.posts[0].Text)
}

func TestRespondToMention_Dispatch(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"summary keyword", "give me a summary", "📊 *Here's your summary:*"},
		{"report keyword", "weekly REPORT please", "📊 *Here's your summary:*"},
		{"uppercase summary", "SUMMARY now", "📊 *Here's your summary:*"},
		{"help keyword", "help", "🤖 *SprintLens Bot Commands:*"},
		{"weekly keyword", "post the weekly update", "✅ Weekly summary posted to the channel!"},
		{"status keyword", "what's your status?", "🔌 *Integration Status:*"},
		{"no keyword", "good morning", "Hi <@U42>!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(
				&stubChat{messages: []source.ChatMessage{{User: "U1", Text: "merged"}}},
				&stubSummarizer{reply: "summary text"},
				&stubChannel{},
			)
			reply := s.RespondToMention(context.Background(), &Mention{
				ChannelID: "C123",
				UserID:    "U42",
				Text:      tt.text,
			})
			assert.Contains(t, reply, tt.want)
		})
	}
}

func TestRespondToMention_WeeklyDeliveryFailure(t *testing.T) {
	s := newTestService(
		&stubChat{messages: []source.ChatMessage{{User: "U1", Text: "merged"}}},
		&stubSummarizer{reply: "summary text"},
		&stubChannel{err: errors.New("not_in_channel")},
	)

	reply := s.RespondToMention(context.Background(), &Mention{ChannelID: "C123", UserID: "U42", Text: "weekly"})
	assert.Equal(t, "❌ Failed to post weekly summary. Please try again.", reply)
}

func TestRespondToMention_SummaryBeatsWeekly(t *testing.T) {
	// "weekly summary" matches both rules; the summary rule is checked first,
	// so the reply is inline rather than a channel post.
	channel := &stubChannel{}
	s := newTestService(
		&stubChat{messages: []source.ChatMessage{{User: "U1", Text: "merged"}}},
		&stubSummarizer{reply: "summary text"},
		channel,
	)

	reply := s.RespondToMention(context.Background(), &Mention{ChannelID: "C123", UserID: "U42", Text: "weekly summary"})
	assert.Contains(t, reply, "📊 *Here's your summary:*")
	assert.Empty(t, channel.posts)
}
