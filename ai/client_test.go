package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPrompt() *Prompt {
	return &Prompt{
		System:   systemInstruction,
		Sections: []Section{{Label: SectionChat, Body: "- shipped the release"}},
	}
}

func newStubLLM(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&Config{
		Provider: "openai",
		Model:    "gpt-3.5-turbo",
		APIKey:   "sk-test",
		BaseURL:  server.URL + "/v1",
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(&Config{APIKey: "sk-test", Model: "gpt-3.5-turbo"})

	assert.Equal(t, defaultMaxTokens, c.maxTokens)
	assert.Equal(t, float32(defaultTemperature), c.temperature)
	assert.Equal(t, defaultTimeoutSeconds, c.timeout)
}

func TestSummarize_Success(t *testing.T) {
	c := newStubLLM(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "The team shipped the release."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 8, "total_tokens": 48}
		}`)
	})

	out := c.Summarize(context.Background(), testPrompt())
	assert.Equal(t, "The team shipped the release.", out)
}

func TestSummarize_ErrorRenderedAsText(t *testing.T) {
	c := newStubLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error": {"message": "model overloaded", "type": "server_error"}}`)
	})

	out := c.Summarize(context.Background(), testPrompt())
	assert.True(t, strings.HasPrefix(out, "Error generating summary: "), out)
}

func TestSummarize_EmptyChoices(t *testing.T) {
	c := newStubLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`)
	})

	out := c.Summarize(context.Background(), testPrompt())
	assert.Equal(t, "No summary generated.", out)
}
