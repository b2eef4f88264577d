package channels

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintlens/sprintlens/plugin/chatops"
)

type recordingChannel struct {
	platform chatops.Platform
	posts    []*chatops.OutgoingMessage
}

func (r *recordingChannel) Name() chatops.Platform { return r.platform }

func (r *recordingChannel) Post(_ context.Context, msg *chatops.OutgoingMessage) error {
	r.posts = append(r.posts, msg)
	return nil
}

func TestRouter_RegisterAndGet(t *testing.T) {
	router := NewRouter()
	slackCh := &recordingChannel{platform: chatops.PlatformSlack}
	router.Register(slackCh)

	assert.Equal(t, NotifyChannel(slackCh), router.Get(chatops.PlatformSlack))
	assert.Nil(t, router.Get(chatops.PlatformTelegram))
}

func TestRouter_Post(t *testing.T) {
	router := NewRouter()
	slackCh := &recordingChannel{platform: chatops.PlatformSlack}
	router.Register(slackCh)

	msg := &chatops.OutgoingMessage{ChannelID: "C123", Text: "hello"}
	require.NoError(t, router.Post(context.Background(), chatops.PlatformSlack, msg))
	require.Len(t, slackCh.posts, 1)
	assert.Equal(t, msg, slackCh.posts[0])
}

func TestRouter_PostUnregisteredPlatform(t *testing.T) {
	router := NewRouter()

	err := router.Post(context.Background(), chatops.PlatformTelegram, &chatops.OutgoingMessage{})
	assert.ErrorIs(t, err, ErrNoChannelForPlatform)
}

func TestRouter_RegisterOverwrites(t *testing.T) {
	router := NewRouter()
	first := &recordingChannel{platform: chatops.PlatformSlack}
	second := &recordingChannel{platform: chatops.PlatformSlack}
	router.Register(first)
	router.Register(second)

	assert.Equal(t, NotifyChannel(second), router.Get(chatops.PlatformSlack))
}
