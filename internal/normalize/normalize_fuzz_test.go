package normalize

import (
	"regexp"
	"testing"
)

var normalizedForm = regexp.MustCompile(`^(?:[a-z]+(?: [a-z]+)*)?$`)

func FuzzNormalize(f *testing.F) {
	seeds := []string{
		"POS TRXN - Groceries USD 50.00",
		"Momo payment for electricity bill",
		"KFC order via UberEats",
		"usd5",
		"u-usd-sd",
		"€£¥₹$",
		"İstanbul café",
		"",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	rich := Rich()

	f.Fuzz(func(t *testing.T, input string) {
		for _, n := range []*Normalizer{standard, rich} {
			out := n.Normalize(input)
			if !normalizedForm.MatchString(out) {
				t.Errorf("Normalize(%q) = %q contains characters outside [a-z ]", input, out)
			}
			if again := n.Normalize(out); again != out {
				t.Errorf("Normalize not idempotent: %q -> %q -> %q", input, out, again)
			}
		}
	})
}
