// Package testutil provides shared test fixtures for the expense-cascade packages.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/storage"
)

// TestDB represents a migrated in-memory database with seeding helpers.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup    func(context.Context, *storage.SQLiteStorage) error
	Rules          []model.KeywordRule
	Embeddings     []model.EmbeddingEntry
	SkipMigrations bool
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithRules creates a test database seeded with keyword rules.
//
// Example:
//
//	db := testutil.SetupTestDBWithRules(t,
//		testutil.GlobalRule("mtn airtime", "Bills & Fees"),
//		testutil.ScopedRule("alice", "chop bar", "Food & Dining"),
//	)
func SetupTestDBWithRules(t *testing.T, rules ...model.KeywordRule) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{Rules: rules})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	ctx := context.Background()
	if !opts.SkipMigrations {
		if err := store.Migrate(ctx); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
	}

	db := &TestDB{Storage: store, t: t}
	db.SeedRules(opts.Rules...)
	if len(opts.Embeddings) > 0 {
		if err := store.ReplaceEmbeddings(ctx, opts.Embeddings); err != nil {
			t.Fatalf("failed to seed embeddings: %v", err)
		}
	}

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// SeedRules inserts rules, failing the test on any error.
func (db *TestDB) SeedRules(rules ...model.KeywordRule) {
	db.t.Helper()
	for _, r := range rules {
		if _, err := db.Storage.InsertIfAbsent(context.Background(), r); err != nil {
			db.t.Fatalf("failed to seed keyword %q: %v", r.Keyword, err)
		}
	}
}

// MustLookup returns the rules stored in scope or fails the test.
func (db *TestDB) MustLookup(scope model.Scope) []model.KeywordRule {
	db.t.Helper()
	rules, err := db.Storage.Lookup(context.Background(), scope)
	if err != nil {
		db.t.Fatalf("failed to look up %s rules: %v", scope, err)
	}
	return rules
}

// GlobalRule builds a rule in the shared scope.
func GlobalRule(keyword, category string) model.KeywordRule {
	return model.KeywordRule{Keyword: keyword, Category: category, Source: model.SourceConfig}
}

// ScopedRule builds a rule owned by userID.
func ScopedRule(userID, keyword, category string) model.KeywordRule {
	return model.KeywordRule{
		Scope:    model.UserScope(userID),
		Keyword:  keyword,
		Category: category,
		Source:   model.SourceFeedback,
	}
}
