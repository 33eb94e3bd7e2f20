package llm

import (
	"fmt"
	"strings"
)

// BuildCategoryPrompt asks for exactly one label from candidates for the given expense text.
func BuildCategoryPrompt(text string, candidates []string) string {
	var sb strings.Builder
	sb.WriteString("Classify the following expense description into exactly one category.\n\n")
	fmt.Fprintf(&sb, "Expense: %q\n\n", text)
	sb.WriteString("Categories:\n")
	for _, c := range candidates {
		fmt.Fprintf(&sb, "- %s\n", c)
	}
	sb.WriteString("\nRespond with only the category name, exactly as written above.")
	return sb.String()
}
