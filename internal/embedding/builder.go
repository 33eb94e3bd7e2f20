package embedding

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/normalize"
	"github.com/Veraticus/expense-cascade/internal/service"
)

// BuildStats summarizes an index build.
type BuildStats struct {
	Candidates int // distinct keywords after deduplication
	Duplicates int // keywords dropped because an earlier source already claimed them
	Embedded   int
}

// ProgressFunc is called after each keyword is embedded.
type ProgressFunc func(done, total int)

// Builder computes the keyword embedding table offline.
type Builder struct {
	embedder Embedder
	store    service.EmbeddingStore
	logger   *slog.Logger
}

// NewBuilder creates a Builder that writes to store.
func NewBuilder(embedder Embedder, store service.EmbeddingStore, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{embedder: embedder, store: store, logger: logger}
}

// Candidates merges global keyword rules and the category map into one list.
// Rules come first; a keyword keeps the category of its first occurrence.
func Candidates(rules []model.KeywordRule, categories model.CategoryMap) ([]model.EmbeddingEntry, int) {
	seen := make(map[string]struct{})
	var entries []model.EmbeddingEntry
	duplicates := 0

	add := func(keyword, category string) {
		kw := normalize.Normalize(keyword)
		if kw == "" {
			return
		}
		if _, ok := seen[kw]; ok {
			duplicates++
			return
		}
		seen[kw] = struct{}{}
		entries = append(entries, model.EmbeddingEntry{Keyword: kw, Category: category})
	}

	for _, rule := range rules {
		if rule.Scope.IsGlobal() {
			add(rule.Keyword, rule.Category)
		}
	}
	for _, c := range categories {
		for _, kw := range c.Keywords {
			add(kw, c.Name)
		}
	}

	return entries, duplicates
}

// Build embeds every candidate keyword and replaces the matching rows of the table.
func (b *Builder) Build(ctx context.Context, rules []model.KeywordRule, categories model.CategoryMap, progress ProgressFunc) (BuildStats, error) {
	entries, duplicates := Candidates(rules, categories)
	stats := BuildStats{Candidates: len(entries), Duplicates: duplicates}

	b.logger.Info("Building keyword embeddings",
		"model", b.embedder.Model(),
		"keywords", len(entries),
		"duplicates", duplicates)

	modelName := b.embedder.Model()
	for i := range entries {
		vec, err := b.embedder.Embed(ctx, entries[i].Keyword)
		if err != nil {
			return stats, fmt.Errorf("failed to embed %q: %w", entries[i].Keyword, err)
		}
		entries[i].Vector = vec
		entries[i].Model = modelName
		stats.Embedded++

		if progress != nil {
			progress(stats.Embedded, len(entries))
		}
	}

	if len(entries) == 0 {
		return stats, nil
	}

	if err := b.store.ReplaceEmbeddings(ctx, entries); err != nil {
		return stats, fmt.Errorf("failed to store embeddings: %w", err)
	}

	b.logger.Info("Keyword embeddings stored", "count", stats.Embedded)
	return stats, nil
}
