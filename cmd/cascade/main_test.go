package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/expense-cascade/internal/config"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestRulesFromCategoryMap(t *testing.T) {
	rules := rulesFromCategoryMap(model.CategoryMap{
		{Name: "Food", Keywords: []string{"pizza", "chop bar"}},
		{Name: "Empty"},
		{Name: "Housing", Keywords: []string{"rent"}},
	}, model.UserScope("alice"))

	require.Len(t, rules, 3)
	assert.Equal(t, "chop bar", rules[1].Keyword)
	assert.Equal(t, "Housing", rules[2].Category)
	for _, r := range rules {
		assert.Equal(t, "alice", r.Scope.UserID)
		assert.Equal(t, model.SourceConfig, r.Source)
	}
}

func TestInitStorageBackends(t *testing.T) {
	for _, backend := range []string{"sqlite", "bolt"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			settings := &config.Settings{Database: config.DatabaseSettings{
				Backend: backend,
				Path:    filepath.Join(t.TempDir(), "data", "cascade.db"),
			}}

			store, err := initStorage(ctx, settings)
			require.NoError(t, err)
			defer func() { _ = store.Close() }()

			inserted, err := store.InsertIfAbsent(ctx, model.KeywordRule{Keyword: "rent", Category: "Housing"})
			require.NoError(t, err)
			assert.True(t, inserted)

			version, err := store.SchemaVersion(ctx)
			require.NoError(t, err)
			assert.Positive(t, version)
		})
	}
}

func TestCommandsEndToEnd(t *testing.T) {
	for _, backend := range []string{"sqlite", "bolt"} {
		t.Run(backend, func(t *testing.T) {
			t.Setenv("CASCADE_LLM_PROVIDER", "none")
			db := filepath.Join(t.TempDir(), "cascade.db")
			global := []string{"--db", db, "--backend", backend, "--log-level", "error"}
			run := func(args ...string) string {
				return execute(t, append(append([]string{}, args...), global...)...)
			}

			run("migrate")
			assert.Contains(t, run("migrate", "--status"), "Current")

			assert.Contains(t, run("keywords", "add", "MTN Airtime", "Communication"), "Added")
			assert.Contains(t, run("keywords", "add", "mtn airtime", "Bills"), "already")
			assert.Contains(t, run("keywords", "list"), "telecom airtime")

			out := run("classify", "MTN airtime GHS 5.00")
			assert.Contains(t, out, "Communication")
			assert.Contains(t, out, "DB")

			assert.Contains(t, run("correct", "--user", "alice", "Food", "Kofi's Chop Bar"), "Learned")
			out = run("classify", "--user", "alice", "KOFIS CHOP BAR")
			assert.Contains(t, out, "Food")

			assert.Contains(t, run("history"), "KOFIS CHOP BAR")
			assert.Contains(t, run("embeddings", "build"), "Embedded")

			reviewFile := filepath.Join(t.TempDir(), "review.txt")
			require.NoError(t, os.WriteFile(reviewFile, []byte("Electricity bill\nchale some random thing\n"), 0600))
			rootCmd.SetIn(strings.NewReader("c\nHousing\ns\n"))
			t.Cleanup(func() { rootCmd.SetIn(nil) })
			out = run("review", reviewFile)
			assert.Contains(t, out, "Learned Housing")
			assert.Contains(t, out, "Electricity bill")

			out = run("classify", "Electricity bill")
			assert.Contains(t, out, "Housing")
			assert.Contains(t, out, "DB")
		})
	}
}
