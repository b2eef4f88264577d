package slackchat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintlens/sprintlens/source"
)

func TestNew_ReturnsNilWithoutToken(t *testing.T) {
	assert.Nil(t, New(""))
	assert.NotNil(t, New("xoxb-test"))
}

func TestNilClient_Degrades(t *testing.T) {
	var c *Client
	ctx := context.Background()

	_, err := c.FetchMessages(ctx, "C123", source.NewWindow(7))
	assert.True(t, source.IsNotConfigured(err))

	_, err = c.ListChannels(ctx)
	assert.True(t, source.IsNotConfigured(err))

	err = c.PostMessage(ctx, "C123", "hello")
	assert.True(t, source.IsNotConfigured(err))
}

func TestFetchMessages_FiltersSystemAndBotNoise(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"ok": true,
			"messages": [
				{"type": "message", "user": "U1", "text": "deployed the fix", "ts": "1700000001.000100"},
				{"type": "message", "subtype": "bot_message", "text": "build passed", "ts": "1700000002.000100"},
				{"type": "message", "user": "U2", "text": "<@U9> has joined the channel", "ts": "1700000003.000100"},
				{"type": "message", "user": "U3", "text": "reviewing now", "ts": "1700000004.000100"}
			]
		}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New("xoxb-test", slack.OptionAPIURL(server.URL+"/"))
	messages, err := c.FetchMessages(context.Background(), "C123", source.NewWindow(7))

	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "deployed the fix", messages[0].Text)
	assert.Equal(t, "U1", messages[0].User)
	assert.Equal(t, "reviewing now", messages[1].Text)
}

func TestFetchMessages_APIErrorMapped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.history", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok": false, "error": "channel_not_found"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New("xoxb-test", slack.OptionAPIURL(server.URL+"/"))
	_, err := c.FetchMessages(context.Background(), "C404", source.NewWindow(7))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestListChannels(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/conversations.list", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"ok": true,
			"channels": [
				{"id": "C1", "name": "general", "is_private": false},
				{"id": "C2", "name": "eng-private", "is_private": true}
			],
			"response_metadata": {"next_cursor": ""}
		}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New("xoxb-test", slack.OptionAPIURL(server.URL+"/"))
	chs, err := c.ListChannels(context.Background())

	require.NoError(t, err)
	require.Len(t, chs, 2)
	assert.Equal(t, source.ChatChannel{ID: "C1", Name: "general", IsPrivate: false}, chs[0])
	assert.Equal(t, source.ChatChannel{ID: "C2", Name: "eng-private", IsPrivate: true}, chs[1])
}

func TestPostMessage(t *testing.T) {
	var gotUnfurl bool
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotUnfurl = r.Form.Get("unfurl_links") == "false"
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ok": true, "channel": "C123", "ts": "1700000005.000100"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	c := New("xoxb-test", slack.OptionAPIURL(server.URL+"/"))
	err := c.PostMessage(context.Background(), "C123", "📊 *Sprint Summary*\n\nall good")

	require.NoError(t, err)
	assert.True(t, gotUnfurl, "link unfurling should be disabled")
}
