package matcher

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/llm"
	"github.com/Veraticus/expense-cascade/internal/model"
)

// GenerativeMatcher is the terminal stage. It always produces an outcome.
type GenerativeMatcher struct {
	client          llm.Client
	logger          *slog.Logger
	candidates      []string
	caseInsensitive bool
}

// GenerativeOption configures a GenerativeMatcher.
type GenerativeOption func(*GenerativeMatcher)

// WithCaseInsensitiveLabels accepts replies that differ from a candidate only by case.
func WithCaseInsensitiveLabels() GenerativeOption {
	return func(m *GenerativeMatcher) { m.caseInsensitive = true }
}

// WithGenerativeLogger sets the logger.
func WithGenerativeLogger(logger *slog.Logger) GenerativeOption {
	return func(m *GenerativeMatcher) { m.logger = logger }
}

// NewGenerativeMatcher creates the stage. "Unknown" is always offered as a candidate.
func NewGenerativeMatcher(client llm.Client, candidates []string, opts ...GenerativeOption) *GenerativeMatcher {
	labels := make([]string, 0, len(candidates)+1)
	for _, c := range candidates {
		if c != model.UnknownCategory {
			labels = append(labels, c)
		}
	}
	labels = append(labels, model.UnknownCategory)

	m := &GenerativeMatcher{
		client:     client,
		candidates: labels,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Stage implements Matcher.
func (m *GenerativeMatcher) Stage() model.Reasoning {
	return model.ReasoningGenerative
}

// Match implements Matcher. Transport failures, deadline expiry and
// unrecognized replies all become Unknown with zero confidence.
func (m *GenerativeMatcher) Match(ctx context.Context, q Query) (*Outcome, error) {
	category, detail := m.Classify(ctx, q.Text)

	out := &Outcome{
		Stage:    model.ReasoningGenerative,
		Category: category,
		Detail:   detail,
	}
	if category != model.UnknownCategory {
		out.Confidence = model.ConfidenceGenerative
	}
	return out, nil
}

// Classify asks the model for one label. It returns the validated label and,
// when the label is Unknown because of a failure, a description of that failure.
func (m *GenerativeMatcher) Classify(ctx context.Context, text string) (string, string) {
	reply, err := m.client.Generate(ctx, llm.BuildCategoryPrompt(text, m.candidates))
	if err != nil {
		m.logger.Warn("Generative stage failed", "error", err)
		return model.UnknownCategory, err.Error()
	}

	if label, ok := m.validate(reply); ok {
		return label, ""
	}

	m.logger.Info("Generative stage returned an unrecognized label", "reply", reply)
	return model.UnknownCategory, reply
}

func (m *GenerativeMatcher) validate(reply string) (string, bool) {
	trimmed := strings.TrimSpace(reply)
	for _, c := range m.candidates {
		if trimmed == c || (m.caseInsensitive && strings.EqualFold(trimmed, c)) {
			return c, true
		}
	}
	return "", false
}
