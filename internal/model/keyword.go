package model

import "time"

// Scope is the namespace a keyword rule belongs to.
// The zero value is the global scope shared by every user.
type Scope struct {
	UserID string
}

// GlobalScope is the unscoped namespace.
var GlobalScope = Scope{}

// UserScope returns the scope for a user. An empty ID yields the global scope.
func UserScope(userID string) Scope {
	return Scope{UserID: userID}
}

// IsGlobal reports whether the scope is the shared namespace.
func (s Scope) IsGlobal() bool {
	return s.UserID == ""
}

// String returns a printable form of the scope.
func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "user:" + s.UserID
}

// KeywordSource indicates how a keyword rule was created.
type KeywordSource string

const (
	// SourceConfig indicates the rule came from a configuration import.
	SourceConfig KeywordSource = "CONFIG"
	// SourceManual indicates the rule was added via CLI command.
	SourceManual KeywordSource = "MANUAL"
	// SourceFeedback indicates the rule was learned from a user correction.
	SourceFeedback KeywordSource = "FEEDBACK"
)

// KeywordRule maps a keyword to a category within a scope.
// Within a scope a keyword maps to exactly one category.
type KeywordRule struct {
	CreatedAt time.Time
	Scope     Scope
	Keyword   string
	Category  string
	Source    KeywordSource
	ID        int64
}
