// Package storage provides the SQLite persistence layer for keyword rules,
// keyword embeddings and the classification log.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/normalize"
)

// Validation errors.
var (
	ErrNilContext       = errors.New("context cannot be nil")
	ErrEmptyString      = errors.New("string parameter cannot be empty")
	ErrNilParameter     = errors.New("parameter cannot be nil")
	ErrInvalidKeyword   = errors.New("invalid keyword rule")
	ErrInvalidEmbedding = errors.New("invalid embedding entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// PrepareKeywordRule normalizes the rule's keyword and checks required fields.
// Both storage backends store keywords in normalized form so that (scope, keyword)
// uniqueness holds for spellings that normalize identically.
func PrepareKeywordRule(rule model.KeywordRule) (model.KeywordRule, error) {
	rule.Keyword = normalize.Normalize(rule.Keyword)
	rule.Category = strings.TrimSpace(rule.Category)

	if rule.Keyword == "" {
		return rule, fmt.Errorf("%w: keyword is empty after normalization", ErrInvalidKeyword)
	}
	if rule.Category == "" {
		return rule, fmt.Errorf("%w: category is required", ErrInvalidKeyword)
	}
	if rule.Source == "" {
		rule.Source = model.SourceManual
	}
	return rule, nil
}

// ValidateEmbeddingEntry checks an entry before it is written.
func ValidateEmbeddingEntry(entry model.EmbeddingEntry) error {
	switch {
	case strings.TrimSpace(entry.Keyword) == "":
		return fmt.Errorf("%w: keyword is required", ErrInvalidEmbedding)
	case strings.TrimSpace(entry.Category) == "":
		return fmt.Errorf("%w: category is required for %q", ErrInvalidEmbedding, entry.Keyword)
	case entry.Model == "":
		return fmt.Errorf("%w: model is required for %q", ErrInvalidEmbedding, entry.Keyword)
	case len(entry.Vector) == 0:
		return fmt.Errorf("%w: vector is empty for %q", ErrInvalidEmbedding, entry.Keyword)
	}
	return nil
}
