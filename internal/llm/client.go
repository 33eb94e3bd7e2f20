package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Generate sends a single prompt and returns the raw text of the reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for LLM clients.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string // overrides the provider endpoint
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	Timeout     time.Duration
	RateLimit   int // requests per minute
	Temperature float64
	MaxTokens   int
}

// systemPrompt constrains every provider to label-only replies.
const systemPrompt = "You are an expense categorization assistant. Reply with exactly one category label from the list you are given and nothing else."

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// maxResponseBytes caps how much of a provider reply is read.
const maxResponseBytes = 1 << 20

// transportError classifies a failed round trip. Context expiry is final;
// anything else (refused connection, reset, DNS) may succeed on retry.
func transportError(err error) error {
	wrapped := fmt.Errorf("%w: request failed: %w", common.ErrGenerativeTransport, err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return wrapped
	}
	return &common.RetryableError{Err: wrapped, Retryable: true}
}

// statusError maps a provider HTTP status to the retry taxonomy.
func statusError(provider string, status int, body string) error {
	err := fmt.Errorf("%w: %s API error (status %d): %s", common.ErrGenerativeTransport, provider, status, body)
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case status >= 500:
		return &common.RetryableError{Err: err, Retryable: true}
	default:
		return err
	}
}
