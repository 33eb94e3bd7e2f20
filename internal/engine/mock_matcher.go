package engine

import (
	"context"
	"sync"

	"github.com/Veraticus/expense-cascade/internal/matcher"
	"github.com/Veraticus/expense-cascade/internal/model"
)

// MockMatcher is a scripted stage that counts its invocations.
type MockMatcher struct {
	Outcome *matcher.Outcome
	Err     error
	Tag     model.Reasoning
	queries []matcher.Query
	mu      sync.Mutex
}

// Stage implements matcher.Matcher.
func (m *MockMatcher) Stage() model.Reasoning {
	return m.Tag
}

// Match implements matcher.Matcher.
func (m *MockMatcher) Match(_ context.Context, q matcher.Query) (*matcher.Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, q)
	return m.Outcome, m.Err
}

// Calls returns how many times Match ran.
func (m *MockMatcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// Queries returns the queries seen so far.
func (m *MockMatcher) Queries() []matcher.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]matcher.Query(nil), m.queries...)
}
