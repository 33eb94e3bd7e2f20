package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
)

// Service wraps a Client with response caching, rate limiting and retries.
// It implements Client itself.
type Service struct {
	client      Client
	cache       *responseCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   common.RetryOptions
}

// NewService builds the provider client described by cfg and wraps it.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(client, cfg, logger), nil
}

// Wrap layers caching, rate limiting and retries over an existing client.
func Wrap(client Client, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Service{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
	}
}

// Generate returns a cached reply when available, otherwise calls the
// provider under the rate limiter with retries.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	if reply, ok := s.cache.get(prompt); ok {
		s.logger.Debug("LLM cache hit")
		return reply, nil
	}

	var reply string
	err := common.WithRetry(ctx, func() error {
		if err := s.rateLimiter.wait(ctx); err != nil {
			return err
		}

		var genErr error
		reply, genErr = s.client.Generate(ctx, prompt)
		return genErr
	}, s.retryOpts)
	if err != nil {
		return "", err
	}

	s.cache.set(prompt, reply)
	return reply, nil
}

// Close stops the background goroutines.
func (s *Service) Close() error {
	s.cache.Close()
	s.rateLimiter.Close()
	return nil
}
