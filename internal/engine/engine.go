// Package engine implements the cascading classification engine for expense descriptions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/matcher"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/normalize"
	"github.com/Veraticus/expense-cascade/internal/service"
)

// DefaultTimeout bounds a whole cascade run.
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnknownCategory is returned when a correction names a category outside the candidate set.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrNoKeywordStore is returned when corrections are recorded without a keyword store.
	ErrNoKeywordStore = errors.New("no keyword store configured")
)

// Config holds configuration options for the engine.
type Config struct {
	Logger     *slog.Logger
	Normalizer *normalize.Normalizer
	Categories []string // candidate labels offered to the generative stage and accepted by corrections
	Timeout    time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{Timeout: DefaultTimeout}
}

// Engine runs an ordered list of matchers and stops at the first outcome.
type Engine struct {
	store      service.KeywordStore
	recorder   service.ClassificationLog
	logger     *slog.Logger
	normalizer *normalize.Normalizer
	stages     []matcher.Matcher
	categories []string
	timeout    time.Duration
}

// Option configures optional collaborators.
type Option func(*Engine)

// WithKeywordStore enables RecordCorrection.
func WithKeywordStore(store service.KeywordStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithClassificationLog records every classification.
func WithClassificationLog(recorder service.ClassificationLog) Option {
	return func(e *Engine) { e.recorder = recorder }
}

// New creates an engine running stages in the given order.
func New(cfg Config, stages []matcher.Matcher, opts ...Option) (*Engine, error) {
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("%w: at least one category is required", common.ErrInvalidConfig)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout", common.ErrInvalidConfig)
	}
	for i, s := range stages {
		if s == nil {
			return nil, fmt.Errorf("%w: stage %d is nil", common.ErrInvalidConfig, i)
		}
	}

	e := &Engine{
		stages:     stages,
		categories: append([]string(nil), cfg.Categories...),
		timeout:    cfg.Timeout,
		logger:     cfg.Logger,
		normalizer: cfg.Normalizer,
	}
	if e.timeout == 0 {
		e.timeout = DefaultTimeout
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.normalizer == nil {
		e.normalizer = &normalize.Normalizer{}
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Categories returns the candidate labels.
func (e *Engine) Categories() []string {
	return append([]string(nil), e.categories...)
}

// Stages returns the stage tags in cascade order.
func (e *Engine) Stages() []model.Reasoning {
	tags := make([]model.Reasoning, len(e.stages))
	for i, s := range e.stages {
		tags[i] = s.Stage()
	}
	return tags
}

// Classify normalizes inputText and runs the cascade. It never fails: stage
// errors are logged and treated as no match, and input that normalizes to
// nothing yields Unknown without running any stage.
func (e *Engine) Classify(ctx context.Context, inputText, userID string) model.ClassificationResult {
	text := e.normalizer.Normalize(inputText)

	result := model.UnknownResult()
	if text == "" {
		e.logger.Debug("Input empty after normalization", "input", inputText)
	} else {
		result = e.run(ctx, matcher.Query{Raw: inputText, Text: text, UserID: userID})
	}

	e.record(ctx, inputText, userID, result)
	return result
}

func (e *Engine) run(ctx context.Context, q matcher.Query) model.ClassificationResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	for _, stage := range e.stages {
		out, err := stage.Match(ctx, q)
		if err != nil {
			e.logger.Warn("Stage failed, continuing cascade",
				"stage", stage.Stage(),
				"error", err)
			continue
		}
		if out == nil {
			e.logger.Debug("Stage found no match", "stage", stage.Stage())
			continue
		}

		e.logger.Debug("Stage matched",
			"stage", out.Stage,
			"category", out.Category,
			"confidence", out.Confidence)

		return model.ClassificationResult{
			Category:   out.Category,
			Reasoning:  out.Stage,
			Confidence: out.Confidence,
			Detail:     out.Detail,
			Keywords:   out.Keywords,
		}
	}

	return model.UnknownResult()
}

func (e *Engine) record(ctx context.Context, inputText, userID string, result model.ClassificationResult) {
	if e.recorder == nil {
		return
	}
	entry := &model.ClassificationLogEntry{
		InputText:  inputText,
		UserID:     userID,
		Category:   result.Category,
		Method:     result.Reasoning,
		Confidence: result.Confidence,
	}
	// The caller's deadline may already be spent on the cascade.
	if err := e.recorder.LogClassification(context.WithoutCancel(ctx), entry); err != nil {
		common.LogError(err, "Failed to record classification", common.Fields{"input": inputText})
	}
}

// RecordCorrection stores the normalized input as a keyword for correctedCategory
// in the user's scope (global when userID is empty). It reports whether a new
// rule was written; repeating a correction is a no-op.
func (e *Engine) RecordCorrection(ctx context.Context, inputText, correctedCategory, userID string) (bool, error) {
	if e.store == nil {
		return false, ErrNoKeywordStore
	}

	keyword := e.normalizer.Normalize(inputText)
	if keyword == "" {
		return false, common.ErrEmptyInput
	}
	if !e.isCategory(correctedCategory) {
		return false, fmt.Errorf("%w: %q", ErrUnknownCategory, correctedCategory)
	}

	inserted, err := e.store.InsertIfAbsent(ctx, model.KeywordRule{
		Scope:    model.UserScope(userID),
		Keyword:  keyword,
		Category: correctedCategory,
		Source:   model.SourceFeedback,
	})
	if err != nil {
		return false, fmt.Errorf("failed to record correction: %w", err)
	}

	e.logger.Info("Recorded correction",
		"keyword", keyword,
		"category", correctedCategory,
		"user", userID,
		"inserted", inserted)
	return inserted, nil
}

func (e *Engine) isCategory(name string) bool {
	for _, c := range e.categories {
		if c == name {
			return true
		}
	}
	return false
}
