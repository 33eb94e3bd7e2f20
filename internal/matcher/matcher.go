// Package matcher implements the cascade stages. Every stage satisfies the
// same Matcher interface so the engine can iterate them as one ordered list.
package matcher

import (
	"context"

	"github.com/Veraticus/expense-cascade/internal/model"
)

// Query is one classification request as seen by a stage.
type Query struct {
	Raw    string // original input
	Text   string // normalized input
	UserID string // empty for anonymous requests
}

// Outcome is a stage's positive answer. A nil *Outcome means "no match, continue".
type Outcome struct {
	Stage      model.Reasoning
	Category   string
	Detail     string
	Keywords   []string
	Confidence float64
}

// Matcher is one stage of the cascade.
type Matcher interface {
	// Stage identifies the matcher in results and logs.
	Stage() model.Reasoning
	// Match returns nil, nil when the stage has no answer. An error means the
	// stage could not run; the cascade treats it as no match.
	Match(ctx context.Context, q Query) (*Outcome, error)
}
