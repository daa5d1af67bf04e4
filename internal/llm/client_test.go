package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetmind/internal/config"
)

func newChatServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func chatReply(content string) []byte {
	data, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]string{"content": content}, "finish_reason": "stop"},
		},
	})
	return data
}

func TestOpenAICompleteWithSystem(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(chatReply(`{"task_type":"chat","entities":{}}`))
	})

	client := NewOpenAIClientWithConfig("openai", OpenAIConfig{
		APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini",
	})

	out, err := client.CompleteWithSystem(context.Background(), "you are a planner", "hi")
	require.NoError(t, err)
	assert.Equal(t, `{"task_type":"chat","entities":{}}`, out)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestOpenAIRetriesOnServerError(t *testing.T) {
	var calls int
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write(chatReply("recovered"))
	})

	client := NewOpenAIClientWithConfig("groq", OpenAIConfig{
		APIKey: "gk", BaseURL: srv.URL, Model: "llama-3.1-8b-instant",
	})

	out, err := client.Complete(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 3, calls)
}

func TestOpenAIClientErrorIsNotRetried(t *testing.T) {
	var calls int
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	})

	client := NewOpenAIClientWithConfig("openai", OpenAIConfig{APIKey: "bad", BaseURL: srv.URL})

	_, err := client.Complete(context.Background(), "ping")
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, 1, calls)
}

func TestOpenAIRetryHonorsContextCancel(t *testing.T) {
	srv := newChatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	client := NewOpenAIClientWithConfig("openai", OpenAIConfig{APIKey: "k", BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Complete(ctx, "ping")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewFromConfigPriority(t *testing.T) {
	// Gemini outranks Groq and OpenAI when no provider is pinned.
	c, err := NewFromConfig(config.LLMConfig{
		GeminiAPIKey: "g", GroqAPIKey: "q", OpenAIAPIKey: "o",
	}, 0)
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	c, err = NewFromConfig(config.LLMConfig{GroqAPIKey: "q", OpenAIAPIKey: "o"}, 0)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewFromConfig(config.LLMConfig{OllamaEnabled: true}, 0)
	require.NoError(t, err)
	assert.IsType(t, &OllamaClient{}, c)

	_, err = NewFromConfig(config.LLMConfig{}, 0)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewFromConfigExplicitProvider(t *testing.T) {
	c, err := NewFromConfig(config.LLMConfig{Provider: "groq", APIKey: "k", Model: "custom"}, 0)
	require.NoError(t, err)
	oc, ok := c.(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "custom", oc.GetModel())

	_, err = NewFromConfig(config.LLMConfig{Provider: "gemini"}, 0)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = NewFromConfig(config.LLMConfig{Provider: "martian"}, 0)
	assert.ErrorContains(t, err, "unknown LLM provider")
}
