package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/embedding"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/service"
)

// DefaultVectorThreshold is the minimum cosine similarity accepted by the vector stage.
const DefaultVectorThreshold = 0.7

// VectorMatcher is the semantic similarity stage. Its table is loaded once
// and never changes afterwards.
type VectorMatcher struct {
	embedder  embedding.Embedder
	logger    *slog.Logger
	entries   []model.EmbeddingEntry
	threshold float64
}

// NewVectorMatcher builds the stage from an in-memory table.
func NewVectorMatcher(embedder embedding.Embedder, entries []model.EmbeddingEntry, threshold float64, logger *slog.Logger) *VectorMatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold <= 0 {
		threshold = DefaultVectorThreshold
	}
	return &VectorMatcher{
		embedder:  embedder,
		entries:   entries,
		threshold: threshold,
		logger:    logger,
	}
}

// LoadVectorMatcher reads the table for the embedder's model from store. An
// unreadable table yields a stage that never matches; the returned error
// (wrapping common.ErrEmbeddingUnavailable) is informational.
func LoadVectorMatcher(ctx context.Context, embedder embedding.Embedder, store service.EmbeddingStore, threshold float64, logger *slog.Logger) (*VectorMatcher, error) {
	entries, err := store.LoadEmbeddings(ctx, embedder.Model())
	m := NewVectorMatcher(embedder, nil, threshold, logger)
	if err != nil {
		if !errors.Is(err, common.ErrEmbeddingUnavailable) {
			err = fmt.Errorf("%w: %w", common.ErrEmbeddingUnavailable, err)
		}
		m.logger.Warn("Vector stage disabled", "error", err)
		return m, err
	}
	m.entries = entries
	if len(entries) == 0 {
		m.logger.Warn("Embedding table is empty; vector stage will never match", "model", embedder.Model())
	}
	return m, nil
}

// Stage implements Matcher.
func (m *VectorMatcher) Stage() model.Reasoning {
	return model.ReasoningVector
}

// Size returns the number of loaded entries.
func (m *VectorMatcher) Size() int {
	return len(m.entries)
}

// Match implements Matcher.
func (m *VectorMatcher) Match(ctx context.Context, q Query) (*Outcome, error) {
	entry, similarity, err := m.nearest(ctx, q.Text)
	if err != nil || entry == nil {
		return nil, err
	}
	if similarity < m.threshold {
		return nil, nil
	}
	return &Outcome{
		Stage:      model.ReasoningVector,
		Category:   entry.Category,
		Keywords:   []string{entry.Keyword},
		Confidence: min(similarity, 1.0),
	}, nil
}

// nearest scans the table linearly. Ties keep the earliest entry; entries of
// a different dimension than the query are skipped.
func (m *VectorMatcher) nearest(ctx context.Context, text string) (*model.EmbeddingEntry, float64, error) {
	if len(m.entries) == 0 || text == "" {
		return nil, 0, nil
	}

	query, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: embed query: %w", common.ErrEmbeddingUnavailable, err)
	}

	var best *model.EmbeddingEntry
	bestSim := 0.0
	for i := range m.entries {
		e := &m.entries[i]
		if len(e.Vector) != len(query) {
			continue
		}
		if sim := embedding.Cosine(query, e.Vector); best == nil || sim > bestSim {
			best, bestSim = e, sim
		}
	}
	return best, bestSim, nil
}
