package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/model"
)

// ReviewAction is the user's decision about one classification.
type ReviewAction int

// Review actions.
const (
	ReviewAccept ReviewAction = iota
	ReviewCorrect
	ReviewSkip
	ReviewQuit
)

// ReviewDecision carries the action and, for corrections, the chosen category.
type ReviewDecision struct {
	Category string
	Action   ReviewAction
}

// ReviewStats summarizes a review session.
type ReviewStats struct {
	Reviewed  int
	Accepted  int
	Corrected int
	Skipped   int
}

// Prompter asks the user to confirm or correct classifications.
type Prompter struct {
	writer     io.Writer
	reader     *LineReader
	categories []string
	stats      ReviewStats
}

// NewPrompter creates a prompter offering categories as corrections.
func NewPrompter(reader io.Reader, writer io.Writer, categories []string) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		reader:     NewLineReader(reader),
		writer:     writer,
		categories: categories,
	}
}

// Stats returns the running totals.
func (p *Prompter) Stats() ReviewStats {
	return p.stats
}

// Review shows one classification and reads the decision. Unknown results
// cannot be accepted.
func (p *Prompter) Review(ctx context.Context, input string, result model.ClassificationResult) (ReviewDecision, error) {
	if err := ctx.Err(); err != nil {
		return ReviewDecision{}, err
	}

	if _, err := fmt.Fprintln(p.writer, RenderResult(input, result)); err != nil {
		return ReviewDecision{}, fmt.Errorf("failed to write result: %w", err)
	}

	choices := []string{"c", "s", "q"}
	if !result.IsUnknown() {
		choices = append([]string{"a"}, choices...)
		fmt.Fprintf(p.writer, "  [A] Accept %s\n", SuccessStyle.Render(result.Category))
	}
	fmt.Fprintln(p.writer, "  [C] Correct the category")
	fmt.Fprintln(p.writer, "  [S] Skip")
	fmt.Fprintln(p.writer, "  [Q] Quit review")

	choice, err := p.promptChoice(ctx, "Choice", choices)
	if err != nil {
		return ReviewDecision{}, err
	}

	var decision ReviewDecision
	switch choice {
	case "a":
		decision = ReviewDecision{Action: ReviewAccept, Category: result.Category}
		p.stats.Accepted++
	case "c":
		category, err := p.promptCategory(ctx)
		if err != nil {
			return ReviewDecision{}, err
		}
		decision = ReviewDecision{Action: ReviewCorrect, Category: category}
		p.stats.Corrected++
	case "s":
		decision = ReviewDecision{Action: ReviewSkip}
		p.stats.Skipped++
	case "q":
		return ReviewDecision{Action: ReviewQuit}, nil
	}
	p.stats.Reviewed++
	return decision, nil
}

func (p *Prompter) promptChoice(ctx context.Context, prompt string, valid []string) (string, error) {
	for {
		fmt.Fprint(p.writer, FormatPrompt(fmt.Sprintf("%s [%s]", prompt, strings.Join(valid, "/"))))
		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", p.readError(err)
		}
		choice := strings.ToLower(line)
		for _, v := range valid {
			if choice == v {
				return choice, nil
			}
		}
		fmt.Fprintln(p.writer, FormatError("Invalid choice: "+line))
	}
}

// promptCategory accepts a list number or an exact category name.
func (p *Prompter) promptCategory(ctx context.Context) (string, error) {
	for i, c := range p.categories {
		fmt.Fprintf(p.writer, "  %2d. %s\n", i+1, c)
	}
	for {
		fmt.Fprint(p.writer, FormatPrompt("Category"))
		line, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", p.readError(err)
		}
		if n, convErr := strconv.Atoi(line); convErr == nil && n >= 1 && n <= len(p.categories) {
			return p.categories[n-1], nil
		}
		for _, c := range p.categories {
			if strings.EqualFold(c, line) {
				return c, nil
			}
		}
		fmt.Fprintln(p.writer, FormatError("Unknown category: "+line))
	}
}

func (p *Prompter) readError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("input ended: %w", err)
	}
	return err
}

// ShowSummary prints the session totals.
func (p *Prompter) ShowSummary() {
	s := p.stats
	content := fmt.Sprintf("Reviewed:  %d\nAccepted:  %d\nCorrected: %d\nSkipped:   %d",
		s.Reviewed, s.Accepted, s.Corrected, s.Skipped)
	fmt.Fprintln(p.writer, RenderBox("Review Summary", content))
}
