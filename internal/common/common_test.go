package common

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsWord(t *testing.T) {
	tests := []struct {
		name string
		text string
		word string
		want bool
	}{
		{"single word", "paid for uber ride", "uber", true},
		{"prefix is not a word", "paid for ubereats", "uber", false},
		{"suffix is not a word", "superuber", "uber", false},
		{"at start", "uber ride", "uber", true},
		{"at end", "ride uber", "uber", true},
		{"multi word phrase", "monthly electricity bill", "electricity bill", true},
		{"whole text", "rent", "rent", true},
		{"empty word", "rent", "", false},
		{"empty text", "", "rent", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsWord(tt.text, tt.word))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRateLimit))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrRateLimit)))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("503"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("400"), Retryable: false}))
	assert.False(t, IsRetryable(context.DeadlineExceeded))
	assert.False(t, IsRetryable(errors.New("boom")))
}

func TestIsConfigError(t *testing.T) {
	assert.True(t, IsConfigError(fmt.Errorf("load: %w", ErrInvalidConfig)))
	assert.True(t, IsConfigError(ErrMissingConfig))
	assert.False(t, IsConfigError(ErrStoreUnavailable))
}

func TestWithRetry(t *testing.T) {
	opts := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return &RetryableError{Err: errors.New("temporary"), Retryable: true}
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		permanent := errors.New("bad request")
		err := WithRetry(context.Background(), func() error {
			calls++
			return permanent
		}, opts)
		require.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrRateLimit
		}, opts)
		require.ErrorIs(t, err, ErrMaxRetries)
		require.ErrorIs(t, err, ErrRateLimit)
		assert.Equal(t, 3, calls)
	})
}

func TestParseLevel(t *testing.T) {
	_, err := ParseLevel("verbose")
	require.ErrorIs(t, err, ErrInvalidConfig)

	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())
}
