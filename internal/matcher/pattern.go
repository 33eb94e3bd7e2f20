package matcher

import (
	"context"

	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/normalize"
)

// PatternMatcher is the keyword-map stage over the static category map.
type PatternMatcher struct {
	rules []rule
}

// NewPatternMatcher flattens the category map into rules, in declaration order.
func NewPatternMatcher(categories model.CategoryMap) *PatternMatcher {
	var rules []rule
	for _, c := range categories {
		for _, kw := range c.Keywords {
			if n := normalize.Normalize(kw); n != "" {
				rules = append(rules, rule{keyword: n, category: c.Name})
			}
		}
	}
	return &PatternMatcher{rules: rules}
}

// Stage implements Matcher.
func (m *PatternMatcher) Stage() model.Reasoning {
	return model.ReasoningPattern
}

// Match implements Matcher.
func (m *PatternMatcher) Match(_ context.Context, q Query) (*Outcome, error) {
	category, keywords, ok := bestMatch(q.Text, nil, m.rules)
	if !ok {
		return nil, nil
	}
	return &Outcome{
		Stage:      model.ReasoningPattern,
		Category:   category,
		Keywords:   keywords,
		Confidence: model.ConfidencePattern,
	}, nil
}

// BestMatch normalizes text and returns the best category, or "" when nothing matches.
func (m *PatternMatcher) BestMatch(text string) string {
	category, _, _ := bestMatch(normalize.Normalize(text), nil, m.rules)
	return category
}
