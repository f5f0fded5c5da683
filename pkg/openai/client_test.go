package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-summary/internal/types"
)

func TestNormalizeApiKey(t *testing.T) {
	assert.Equal(t, "sk-1", NormalizeApiKey("  Bearer sk-1 "))
	assert.Equal(t, "sk-1", NormalizeApiKey("bearer sk-1"))
	assert.Equal(t, "sk-1", NormalizeApiKey("sk-1"))
	assert.Equal(t, "", NormalizeApiKey(""))
}

type capturedRequest struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, reply string, captured *capturedRequest, auth *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		*auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": reply}}},
			"usage":   map[string]any{"total_tokens": 10},
		})
	}))
}

func TestChatCompletionWithHistory(t *testing.T) {
	var captured capturedRequest
	var auth string
	srv := newChatServer(t, "  总结内容  ", &captured, &auth)
	defer srv.Close()

	c := NewClient(Options{BaseUrl: srv.URL + "/", ApiKey: "Bearer sk-test", Model: "GLM-4.7", Temperature: 0.7, MaxTokens: 1500})
	got, err := c.ChatCompletionWithHistory(context.Background(), "sys",
		[]types.Message{{Role: types.RoleUser, Content: "q1"}, {Role: types.RoleAssistant, Content: "a1"}}, "q2")
	require.NoError(t, err)

	assert.Equal(t, "总结内容", got)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "GLM-4.7", captured.Model)
	assert.Equal(t, 1500, captured.MaxTokens)
	assert.InDelta(t, 0.7, captured.Temperature, 1e-6)
	require.Len(t, captured.Messages, 4)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "q2", captured.Messages[3].Content)
}

func TestChatCompletionEmptyContent(t *testing.T) {
	var captured capturedRequest
	var auth string
	srv := newChatServer(t, "", &captured, &auth)
	defer srv.Close()

	c := NewClient(Options{BaseUrl: srv.URL, ApiKey: "k", Model: "m"})
	_, err := c.ChatCompletion(context.Background(), "", "hello")
	assert.Error(t, err)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
}
