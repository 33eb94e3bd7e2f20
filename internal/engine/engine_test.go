package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/embedding"
	"github.com/Veraticus/expense-cascade/internal/llm"
	"github.com/Veraticus/expense-cascade/internal/matcher"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Lookup(context.Context, model.Scope) ([]model.KeywordRule, error) {
	return nil, errors.New("disk on fire")
}

func (failingStore) InsertIfAbsent(context.Context, model.KeywordRule) (bool, error) {
	return false, errors.New("disk on fire")
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Categories = model.DefaultCategoryMap().Names()
	return cfg
}

func TestNew(t *testing.T) {
	t.Run("requires categories", func(t *testing.T) {
		_, err := New(Config{}, nil)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("rejects nil stage", func(t *testing.T) {
		_, err := New(testConfig(), []matcher.Matcher{nil})
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("applies defaults", func(t *testing.T) {
		e, err := New(testConfig(), nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultTimeout, e.timeout)
		assert.Equal(t, model.DefaultCategoryMap().Names(), e.Categories())
	})
}

func TestClassify_ShortCircuits(t *testing.T) {
	first := &MockMatcher{
		Tag:     model.ReasoningDB,
		Outcome: &matcher.Outcome{Stage: model.ReasoningDB, Category: "Food", Confidence: 1},
	}
	second := &MockMatcher{Tag: model.ReasoningPattern}

	e, err := New(testConfig(), []matcher.Matcher{first, second})
	require.NoError(t, err)

	result := e.Classify(context.Background(), "Pizza Hut", "")
	assert.Equal(t, "Food", result.Category)
	assert.Equal(t, model.ReasoningDB, result.Reasoning)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.Equal(t, 1, first.Calls())
	assert.Equal(t, 0, second.Calls())
}

func TestClassify_StagesReceiveNormalizedText(t *testing.T) {
	stage := &MockMatcher{Tag: model.ReasoningPattern}
	e, err := New(testConfig(), []matcher.Matcher{stage})
	require.NoError(t, err)

	e.Classify(context.Background(), "  UBER Eats *** USD 12.50 ", "alice")

	queries := stage.Queries()
	require.Len(t, queries, 1)
	assert.Equal(t, "ubereats", queries[0].Text)
	assert.Equal(t, "  UBER Eats *** USD 12.50 ", queries[0].Raw)
	assert.Equal(t, "alice", queries[0].UserID)
}

func TestClassify_StageErrorContinues(t *testing.T) {
	broken := &MockMatcher{Tag: model.ReasoningDB, Err: errors.New("boom")}
	next := &MockMatcher{
		Tag:     model.ReasoningPattern,
		Outcome: &matcher.Outcome{Stage: model.ReasoningPattern, Category: "Housing", Confidence: 0.8},
	}

	e, err := New(testConfig(), []matcher.Matcher{broken, next})
	require.NoError(t, err)

	result := e.Classify(context.Background(), "rent", "")
	assert.Equal(t, "Housing", result.Category)
	assert.Equal(t, model.ReasoningPattern, result.Reasoning)
	assert.Equal(t, 1, broken.Calls())
}

func TestClassify_EmptyInput(t *testing.T) {
	stage := &MockMatcher{Tag: model.ReasoningDB}
	e, err := New(testConfig(), []matcher.Matcher{stage})
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "$12.50 USD", "***"} {
		result := e.Classify(context.Background(), input, "")
		assert.Equal(t, model.UnknownResult(), result, "input %q", input)
	}
	assert.Equal(t, 0, stage.Calls())
}

func TestClassify_NoStageMatches(t *testing.T) {
	e, err := New(testConfig(), []matcher.Matcher{
		&MockMatcher{Tag: model.ReasoningDB},
		&MockMatcher{Tag: model.ReasoningPattern},
	})
	require.NoError(t, err)

	assert.Equal(t, model.UnknownResult(), e.Classify(context.Background(), "something", ""))
}

func TestAssemble_Cascade(t *testing.T) {
	ctx := context.Background()
	embedder, err := embedding.NewHashingEmbedder(64)
	require.NoError(t, err)

	tests := []struct {
		name       string
		input      string
		userID     string
		reply      string
		wantCat    string
		wantReason model.Reasoning
		wantConf   float64
		wantLLM    bool
	}{
		{
			name:       "database rule wins",
			input:      "MTN Airtime 5 GHS",
			wantCat:    "Communication",
			wantReason: model.ReasoningDB,
			wantConf:   model.ConfidenceDB,
		},
		{
			name:       "pattern when database is silent",
			input:      "Electricity bill",
			wantCat:    "Utilities",
			wantReason: model.ReasoningPattern,
			wantConf:   model.ConfidencePattern,
		},
		{
			name:       "generative label accepted",
			input:      "kumasi gym membership",
			reply:      "Transport",
			wantCat:    "Transport",
			wantReason: model.ReasoningGenerative,
			wantConf:   model.ConfidenceGenerative,
			wantLLM:    true,
		},
		{
			name:       "invalid generative label is unknown",
			input:      "kumasi gym membership",
			reply:      "Fitness",
			wantCat:    model.UnknownCategory,
			wantReason: model.ReasoningGenerative,
			wantConf:   0,
			wantLLM:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDBWithRules(t, testutil.GlobalRule("mtn airtime", "Communication"))
			client := &llm.MockClient{Reply: tt.reply}

			e, err := Assemble(ctx, Config{}, Components{
				Store:           db.Storage,
				Embeddings:      db.Storage,
				Embedder:        embedder,
				Generative:      client,
				Categories:      model.DefaultCategoryMap(),
				VectorThreshold: matcher.DefaultVectorThreshold,
			})
			require.NoError(t, err)
			assert.Equal(t, []model.Reasoning{
				model.ReasoningDB,
				model.ReasoningPattern,
				model.ReasoningVector,
				model.ReasoningGenerative,
			}, e.Stages())

			result := e.Classify(ctx, tt.input, tt.userID)
			assert.Equal(t, tt.wantCat, result.Category)
			assert.Equal(t, tt.wantReason, result.Reasoning)
			assert.InDelta(t, tt.wantConf, result.Confidence, 1e-9)
			assert.Equal(t, tt.wantLLM, client.Calls() > 0)
		})
	}
}

func TestAssemble_UserRuleBeatsGlobal(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDBWithRules(t,
		testutil.GlobalRule("chop bar", "Food"),
		testutil.ScopedRule("alice", "chop bar", "Housing"),
	)

	e, err := Assemble(ctx, testConfig(), Components{Store: db.Storage, Categories: model.DefaultCategoryMap()})
	require.NoError(t, err)

	assert.Equal(t, "Housing", e.Classify(ctx, "Chop bar tonight", "alice").Category)
	assert.Equal(t, "Food", e.Classify(ctx, "Chop bar tonight", "bob").Category)
}

func TestAssemble_VectorStage(t *testing.T) {
	ctx := context.Background()
	embedder, err := embedding.NewHashingEmbedder(128)
	require.NoError(t, err)

	db := testutil.SetupTestDB(t)
	builder := embedding.NewBuilder(embedder, db.Storage, nil)
	_, err = builder.Build(ctx, nil, model.DefaultCategoryMap(), nil)
	require.NoError(t, err)

	e, err := Assemble(ctx, Config{}, Components{
		Embeddings:      db.Storage,
		Embedder:        embedder,
		Categories:      model.CategoryMap{{Name: "Food", Keywords: []string{"restaurant"}}, {Name: "Utilities"}},
		VectorThreshold: 0.7,
	})
	require.NoError(t, err)

	// Identical text embeds to the same vector, so similarity is 1.
	result := e.Classify(ctx, "Electricity", "")
	assert.Equal(t, "Utilities", result.Category)
	assert.Equal(t, model.ReasoningVector, result.Reasoning)
	assert.InDelta(t, 1.0, result.Confidence, 1e-6)
}

func TestAssemble_StoreErrorsDegrade(t *testing.T) {
	e, err := Assemble(context.Background(), Config{}, Components{
		Store:      failingStore{},
		Categories: model.DefaultCategoryMap(),
	})
	require.NoError(t, err)

	result := e.Classify(context.Background(), "monthly rent", "")
	assert.Equal(t, "Housing", result.Category)
	assert.Equal(t, model.ReasoningPattern, result.Reasoning)
}

func TestClassify_Deadline(t *testing.T) {
	client := &llm.MockClient{Block: true}
	cfg := testConfig()
	cfg.Timeout = 50 * time.Millisecond

	e, err := New(cfg, []matcher.Matcher{
		matcher.NewGenerativeMatcher(client, cfg.Categories),
	})
	require.NoError(t, err)

	start := time.Now()
	result := e.Classify(context.Background(), "mystery charge", "")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, model.UnknownCategory, result.Category)
	assert.Equal(t, model.ReasoningGenerative, result.Reasoning)
	assert.Zero(t, result.Confidence)
	assert.NotEmpty(t, result.Detail)
}

func TestRecordCorrection(t *testing.T) {
	ctx := context.Background()

	t.Run("learns scoped rule once", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		e, err := Assemble(ctx, Config{}, Components{Store: db.Storage, Categories: model.DefaultCategoryMap()})
		require.NoError(t, err)

		inserted, err := e.RecordCorrection(ctx, "Kofi's Chop Bar", "Food", "alice")
		require.NoError(t, err)
		assert.True(t, inserted)

		inserted, err = e.RecordCorrection(ctx, "KOFIS chop bar!", "Food", "alice")
		require.NoError(t, err)
		assert.False(t, inserted)

		rules := db.MustLookup(model.UserScope("alice"))
		require.Len(t, rules, 1)
		assert.Equal(t, "kofis chop bar", rules[0].Keyword)
		assert.Equal(t, model.SourceFeedback, rules[0].Source)

		result := e.Classify(ctx, "Kofi's Chop Bar", "alice")
		assert.Equal(t, "Food", result.Category)
		assert.Equal(t, model.ReasoningDB, result.Reasoning)

		// Other users are unaffected.
		assert.Equal(t, model.UnknownResult(), e.Classify(ctx, "Kofi's Chop Bar", "bob"))
	})

	t.Run("global when user is empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		e, err := Assemble(ctx, Config{}, Components{Store: db.Storage, Categories: model.DefaultCategoryMap()})
		require.NoError(t, err)

		_, err = e.RecordCorrection(ctx, "Shell Station", "Transport", "")
		require.NoError(t, err)

		result := e.Classify(ctx, "shell station", "bob")
		assert.Equal(t, "Transport", result.Category)
		assert.Equal(t, model.ReasoningDB, result.Reasoning)
	})

	t.Run("errors", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		e, err := Assemble(ctx, Config{}, Components{Store: db.Storage, Categories: model.DefaultCategoryMap()})
		require.NoError(t, err)

		_, err = e.RecordCorrection(ctx, "$ 12.00", "Food", "")
		assert.ErrorIs(t, err, common.ErrEmptyInput)

		_, err = e.RecordCorrection(ctx, "pizza", "Snacks", "")
		assert.ErrorIs(t, err, ErrUnknownCategory)

		bare, err := New(testConfig(), nil)
		require.NoError(t, err)
		_, err = bare.RecordCorrection(ctx, "pizza", "Food", "")
		assert.ErrorIs(t, err, ErrNoKeywordStore)
	})
}

func TestClassify_RecordsLog(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)

	e, err := Assemble(ctx, Config{}, Components{
		Categories: model.DefaultCategoryMap(),
		Log:        db.Storage,
	})
	require.NoError(t, err)

	e.Classify(ctx, "Uber trip", "alice")
	e.Classify(ctx, "", "alice")

	entries, err := db.Storage.RecentClassifications(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, model.ReasoningNone, entries[0].Method)
	assert.Equal(t, "Transport", entries[1].Category)
	assert.Equal(t, model.ReasoningPattern, entries[1].Method)
	assert.Equal(t, "alice", entries[1].UserID)
}
