package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategoryMap(t *testing.T) {
	t.Run("preserves document order", func(t *testing.T) {
		doc := []byte(`
Utilities: [electricity, internet]
Food:
  - groceries
  - pizza
Transport: [uber]
`)
		categories, err := ParseCategoryMap(doc)
		require.NoError(t, err)
		assert.Equal(t, []string{"Utilities", "Food", "Transport"}, categories.Names())

		food, ok := categories.Lookup("Food")
		require.True(t, ok)
		assert.Equal(t, []string{"groceries", "pizza"}, food)
	})

	t.Run("empty keyword list", func(t *testing.T) {
		categories, err := ParseCategoryMap([]byte("Misc:\n"))
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Empty(t, categories[0].Keywords)
	})

	invalid := []struct {
		name string
		doc  string
	}{
		{"list root", "- groceries\n- pizza\n"},
		{"scalar root", "groceries\n"},
		{"empty document", ""},
		{"non-string keyword", "Food: [groceries, 42]\n"},
		{"nested mapping", "Food: {groceries: 1}\n"},
		{"scalar value", "Food: groceries\n"},
		{"non-string category", "1: [groceries]\n"},
		{"duplicate category", "Food: [a]\nFood: [b]\n"},
		{"malformed yaml", "Food: [groceries\n"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCategoryMap([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadCategoryMap(t *testing.T) {
	t.Run("default when path empty", func(t *testing.T) {
		categories, err := LoadCategoryMap("")
		require.NoError(t, err)
		assert.True(t, categories.Has("Transport"))
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "categories.yaml")
		require.NoError(t, os.WriteFile(path, []byte("Housing: [rent]\n"), 0o600))

		categories, err := LoadCategoryMap(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Housing"}, categories.Names())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCategoryMap(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, common.IsConfigError(err))
	})
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		v := viper.New()
		s, err := LoadSettings(v)
		require.NoError(t, err)

		assert.Equal(t, "sqlite", s.Database.Backend)
		assert.Equal(t, 30*time.Second, s.Engine.Timeout)
		assert.InDelta(t, 0.7, s.Vector.Threshold, 1e-9)
		assert.Equal(t, "hashing", s.Embedding.Provider)
		assert.Equal(t, "hashing-384", s.Embedding.Model)
		assert.Equal(t, "none", s.LLM.Provider)
		assert.Equal(t, ":8080", s.Server.Addr)
		assert.NotContains(t, s.Database.Path, "$HOME")
	})

	t.Run("explicit values", func(t *testing.T) {
		v := viper.New()
		v.Set("database.backend", "bolt")
		v.Set("vector.threshold", 0.85)
		v.Set("llm.provider", "openai")
		v.Set("llm.api_key", "sk-test")
		v.Set("engine.timeout", "5s")

		s, err := LoadSettings(v)
		require.NoError(t, err)
		assert.Equal(t, "bolt", s.Database.Backend)
		assert.InDelta(t, 0.85, s.Vector.Threshold, 1e-9)
		assert.Equal(t, "gpt-4o-mini", s.LLM.Model)
		assert.Equal(t, 5*time.Second, s.Engine.Timeout)
	})

	t.Run("api key from environment", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "env-key")
		v := viper.New()
		v.Set("llm.provider", "anthropic")

		s, err := LoadSettings(v)
		require.NoError(t, err)
		assert.Equal(t, "env-key", s.LLM.APIKey)
	})

	invalid := []struct {
		name string
		key  string
		val  any
	}{
		{"backend", "database.backend", "postgres"},
		{"embedding provider", "embedding.provider", "word2vec"},
		{"llm provider", "llm.provider", "gemini"},
		{"threshold", "vector.threshold", 1.5},
	}
	for _, tt := range invalid {
		t.Run("invalid "+tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := LoadSettings(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}

	t.Run("missing api key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		v := viper.New()
		v.Set("llm.provider", "openai")
		_, err := LoadSettings(v)
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "data.db"), ExpandPath("~/data.db"))
	assert.Equal(t, home, ExpandPath("~"))
	assert.Empty(t, ExpandPath(""))
	assert.Equal(t, ":memory:", ExpandPath(":memory:"))

	t.Setenv("CASCADE_TEST_DIR", "/tmp/cascade")
	assert.Equal(t, "/tmp/cascade/db", ExpandPath("$CASCADE_TEST_DIR/db"))
}
