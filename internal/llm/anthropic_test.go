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

func TestAnthropicClient_Generate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/messages", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))

			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "claude-3-5-haiku-latest", body["model"])
			assert.NotEmpty(t, body["system"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "msg_01",
				"type": "message",
				"role": "assistant",
				"model": "claude-3-5-haiku-latest",
				"content": [{"type": "text", "text": "Utilities"}],
				"stop_reason": "end_turn",
				"usage": {"input_tokens": 12, "output_tokens": 2}
			}`))
		}))
		defer server.Close()

		client, err := newAnthropicClient(Config{APIKey: "test-key", BaseURL: server.URL})
		require.NoError(t, err)

		reply, err := client.Generate(context.Background(), "electricity bill")
		require.NoError(t, err)
		assert.Equal(t, "Utilities", reply)
	})

	t.Run("api errors", func(t *testing.T) {
		tests := []struct {
			name      string
			status    int
			retryable bool
		}{
			{"overloaded", http.StatusInternalServerError, true},
			{"invalid request", http.StatusBadRequest, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(tt.status)
					_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
				}))
				defer server.Close()

				client, err := newAnthropicClient(Config{APIKey: "k", BaseURL: server.URL})
				require.NoError(t, err)

				_, err = client.Generate(context.Background(), "x")
				require.Error(t, err)
				assert.ErrorIs(t, err, common.ErrGenerativeTransport)
				assert.Equal(t, tt.retryable, common.IsRetryable(err))
			})
		}
	})
}
