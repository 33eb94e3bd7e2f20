package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid config", Config{APIKey: "test-key"}, false},
		{"missing API key", Config{}, true},
		{"custom model and settings", Config{APIKey: "k", Model: "gpt-4o", Temperature: 0.5, MaxTokens: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrMissingConfig)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
		})
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "gpt-4o-mini", body["model"])
			messages, ok := body["messages"].([]any)
			require.True(t, ok)
			assert.Len(t, messages, 2)

			_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":" Food\n"}}]}`))
		}))
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
		require.NoError(t, err)

		reply, err := client.Generate(context.Background(), "classify pizza")
		require.NoError(t, err)
		assert.Equal(t, " Food\n", reply)
	})

	statusTests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}
	for _, tt := range statusTests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), "x")
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrGenerativeTransport)
			assert.Equal(t, tt.retryable, common.IsRetryable(err))
		})
	}

	t.Run("no choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}))
		defer server.Close()

		client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
		require.NoError(t, err)
		_, err = client.Generate(context.Background(), "x")
		assert.ErrorIs(t, err, common.ErrGenerativeTransport)
	})

	t.Run("connection refused is retryable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: url})
		require.NoError(t, err)
		_, err = client.Generate(context.Background(), "x")
		assert.ErrorIs(t, err, common.ErrGenerativeTransport)
		assert.True(t, common.IsRetryable(err))
	})

	t.Run("canceled context is final", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Food"}}]}`))
		}))
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		client, err := newOpenAIClient(Config{APIKey: "k", BaseURL: server.URL})
		require.NoError(t, err)
		_, err = client.Generate(ctx, "x")
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, common.IsRetryable(err))
	})
}

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{Provider: "OpenAI", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &openAIClient{}, client)

	client, err = NewClient(Config{Provider: "anthropic", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &anthropicClient{}, client)

	_, err = NewClient(Config{Provider: "anthropic"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewClient(Config{Provider: "gemini", APIKey: "k"})
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
	assert.Equal(t, []string{"anthropic", "openai"}, Providers())
}
