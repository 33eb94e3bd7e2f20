package matcher

import "github.com/Veraticus/expense-cascade/internal/common"

// rule is a keyword → category pair already in normalized form.
type rule struct {
	keyword  string
	category string
}

// tally accumulates matched keywords per category in first-encounter order.
type tally struct {
	matches map[string][]string
	scoped  map[string]bool
	order   []string
}

func newTally() *tally {
	return &tally{
		matches: make(map[string][]string),
		scoped:  make(map[string]bool),
	}
}

func (t *tally) add(category, keyword string) {
	existing, seen := t.matches[category]
	if !seen {
		t.order = append(t.order, category)
	}
	for _, kw := range existing {
		if kw == keyword {
			return
		}
	}
	t.matches[category] = append(existing, keyword)
}

// best returns the category with the most matched keywords. Ties go to the
// category encountered first.
func (t *tally) best() (string, []string, bool) {
	var winner string
	bestCount := 0
	for _, category := range t.order {
		if n := len(t.matches[category]); n > bestCount {
			winner, bestCount = category, n
		}
	}
	if bestCount == 0 {
		return "", nil, false
	}
	return winner, t.matches[winner], true
}

// bestMatch scores text against scoped rules then global rules. A global rule
// does not count toward a category that already has scoped matches, so a
// user's own rules for a category are never inflated by shared ones; global
// matches for other categories still count.
func bestMatch(text string, scoped, global []rule) (string, []string, bool) {
	if text == "" {
		return "", nil, false
	}

	t := newTally()
	for _, r := range scoped {
		if common.ContainsWord(text, r.keyword) {
			t.add(r.category, r.keyword)
			t.scoped[r.category] = true
		}
	}
	for _, r := range global {
		if t.scoped[r.category] {
			continue
		}
		if common.ContainsWord(text, r.keyword) {
			t.add(r.category, r.keyword)
		}
	}
	return t.best()
}
