package matcher

import (
	"context"
	"fmt"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/normalize"
	"github.com/Veraticus/expense-cascade/internal/service"
)

// DBMatcher is the exact-keyword stage backed by the keyword store.
type DBMatcher struct {
	store      service.KeywordStore
	normalizer *normalize.Normalizer
}

// NewDBMatcher creates the exact-keyword stage.
func NewDBMatcher(store service.KeywordStore) *DBMatcher {
	return &DBMatcher{store: store, normalizer: &normalize.Normalizer{}}
}

// Stage implements Matcher.
func (m *DBMatcher) Stage() model.Reasoning {
	return model.ReasoningDB
}

// Match implements Matcher.
func (m *DBMatcher) Match(ctx context.Context, q Query) (*Outcome, error) {
	category, keywords, err := m.bestMatch(ctx, q.Text, q.UserID)
	if err != nil || category == "" {
		return nil, err
	}
	return &Outcome{
		Stage:      model.ReasoningDB,
		Category:   category,
		Keywords:   keywords,
		Confidence: model.ConfidenceDB,
	}, nil
}

// BestMatch normalizes text and returns the best category for the user's
// rules plus the global rules, or "" when nothing matches.
func (m *DBMatcher) BestMatch(ctx context.Context, text, userID string) (string, error) {
	category, _, err := m.bestMatch(ctx, m.normalizer.Normalize(text), userID)
	return category, err
}

func (m *DBMatcher) bestMatch(ctx context.Context, text, userID string) (string, []string, error) {
	if text == "" {
		return "", nil, nil
	}

	var scoped []rule
	if userID != "" {
		rules, err := m.lookup(ctx, model.UserScope(userID))
		if err != nil {
			return "", nil, err
		}
		scoped = rules
	}

	global, err := m.lookup(ctx, model.GlobalScope)
	if err != nil {
		return "", nil, err
	}

	category, keywords, _ := bestMatch(text, scoped, global)
	return category, keywords, nil
}

func (m *DBMatcher) lookup(ctx context.Context, scope model.Scope) ([]rule, error) {
	stored, err := m.store.Lookup(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("%w: lookup %s: %w", common.ErrStoreUnavailable, scope, err)
	}

	rules := make([]rule, 0, len(stored))
	for _, r := range stored {
		// Stored keywords are normalized on insert; rows written by other tools may not be.
		kw := m.normalizer.Normalize(r.Keyword)
		if kw == "" {
			continue
		}
		rules = append(rules, rule{keyword: kw, category: r.Category})
	}
	return rules, nil
}
