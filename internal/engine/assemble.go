package engine

import (
	"context"
	"log/slog"

	"github.com/Veraticus/expense-cascade/internal/embedding"
	"github.com/Veraticus/expense-cascade/internal/llm"
	"github.com/Veraticus/expense-cascade/internal/matcher"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/service"
)

// Components are the collaborators of the default cascade. Nil fields drop
// their stage from the cascade.
type Components struct {
	Store           service.KeywordStore
	Embeddings      service.EmbeddingStore
	Embedder        embedding.Embedder
	Generative      llm.Client
	Log             service.ClassificationLog
	Categories      model.CategoryMap
	VectorThreshold float64
	CaseInsensitive bool
}

// Assemble builds the default cascade: DB, Pattern, Vector, Generative.
func Assemble(ctx context.Context, cfg Config, c Components) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = c.Categories.Names()
	}

	var stages []matcher.Matcher
	if c.Store != nil {
		stages = append(stages, matcher.NewDBMatcher(c.Store))
	}
	stages = append(stages, matcher.NewPatternMatcher(c.Categories))

	if c.Embedder != nil && c.Embeddings != nil {
		// An unavailable table still yields a stage; it simply never matches.
		vector, err := matcher.LoadVectorMatcher(ctx, c.Embedder, c.Embeddings, c.VectorThreshold, logger)
		if err == nil {
			logger.Info("Vector stage ready", "entries", vector.Size(), "model", c.Embedder.Model())
		}
		stages = append(stages, vector)
	}

	if c.Generative != nil {
		opts := []matcher.GenerativeOption{matcher.WithGenerativeLogger(logger)}
		if c.CaseInsensitive {
			opts = append(opts, matcher.WithCaseInsensitiveLabels())
		}
		stages = append(stages, matcher.NewGenerativeMatcher(c.Generative, cfg.Categories, opts...))
	}

	var opts []Option
	if c.Store != nil {
		opts = append(opts, WithKeywordStore(c.Store))
	}
	if c.Log != nil {
		opts = append(opts, WithClassificationLog(c.Log))
	}

	return New(cfg, stages, opts...)
}
