// Package model defines the core domain models used throughout the application.
package model

import "time"

// UnknownCategory is the label returned when no stage produces a recognized category.
const UnknownCategory = "Unknown"

// Reasoning identifies which cascade stage produced a classification.
type Reasoning string

// Reasoning constants, in cascade order.
const (
	ReasoningDB         Reasoning = "DB"
	ReasoningPattern    Reasoning = "Pattern"
	ReasoningVector     Reasoning = "Vector"
	ReasoningGenerative Reasoning = "Generative"
	ReasoningNone       Reasoning = "None"
)

// Fixed per-stage confidence scores. The vector stage reports its similarity instead.
const (
	ConfidenceDB         = 1.0
	ConfidencePattern    = 0.8
	ConfidenceGenerative = 0.6
)

// ClassificationResult is the structured answer returned for every input.
type ClassificationResult struct {
	Category   string    `json:"category"`
	Reasoning  Reasoning `json:"reasoning"`
	Detail     string    `json:"detail,omitempty"`
	Keywords   []string  `json:"keywords,omitempty"`
	Confidence float64   `json:"confidence"`
}

// IsUnknown reports whether the result carries no recognized category.
func (r ClassificationResult) IsUnknown() bool {
	return r.Category == UnknownCategory
}

// UnknownResult returns the result used when nothing in the cascade matched.
func UnknownResult() ClassificationResult {
	return ClassificationResult{
		Category:   UnknownCategory,
		Reasoning:  ReasoningNone,
		Confidence: 0,
	}
}

// ClassificationLogEntry is a persisted record of one classification.
type ClassificationLogEntry struct {
	Timestamp  time.Time
	InputText  string
	UserID     string
	Category   string
	Method     Reasoning
	ID         int64
	Confidence float64
}
