// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/Veraticus/expense-cascade/internal/model"
)

// KeywordStore is the persisted keyword → category rule set consumed by the exact matcher.
type KeywordStore interface {
	// Lookup returns the rules of exactly one scope in store (insertion) order.
	Lookup(ctx context.Context, scope model.Scope) ([]model.KeywordRule, error)
	// InsertIfAbsent atomically adds a rule unless (scope, keyword) already exists.
	// It reports whether a row was written.
	InsertIfAbsent(ctx context.Context, rule model.KeywordRule) (bool, error)
}

// KeywordLister enumerates every rule across scopes.
type KeywordLister interface {
	ListKeywords(ctx context.Context) ([]model.KeywordRule, error)
}

// EmbeddingStore holds the precomputed keyword embedding table.
type EmbeddingStore interface {
	// LoadEmbeddings returns every entry built with the named embedding model, in table order.
	LoadEmbeddings(ctx context.Context, embeddingModel string) ([]model.EmbeddingEntry, error)
	// ReplaceEmbeddings upserts entries keyed by keyword.
	ReplaceEmbeddings(ctx context.Context, entries []model.EmbeddingEntry) error
}

// ClassificationLog records classification outcomes.
type ClassificationLog interface {
	LogClassification(ctx context.Context, entry *model.ClassificationLogEntry) error
	RecentClassifications(ctx context.Context, limit int) ([]model.ClassificationLogEntry, error)
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	KeywordStore
	KeywordLister
	EmbeddingStore
	ClassificationLog

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
