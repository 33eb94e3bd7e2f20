package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0, 1.5, -2.25, float32(math.Pi)}
	decoded, err := DecodeVector(EncodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, decoded)
	assert.Len(t, EncodeVector(v), 16)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestHashingEmbedder(t *testing.T) {
	e, err := NewHashingEmbedder(384)
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, "hashing-384", e.Model())

	a, err := e.Embed(ctx, "uber ride")
	require.NoError(t, err)
	require.Len(t, a, 384)

	again, err := e.Embed(ctx, "uber ride")
	require.NoError(t, err)
	assert.Equal(t, a, again, "embedding must be deterministic")

	var norm float64
	for _, x := range a {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)

	related, err := e.Embed(ctx, "uber trip")
	require.NoError(t, err)
	unrelated, err := e.Embed(ctx, "electricity")
	require.NoError(t, err)
	assert.Greater(t, Cosine(a, related), Cosine(a, unrelated))

	_, err = e.Embed(ctx, "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = NewHashingEmbedder(0)
	assert.Error(t, err)
}

func TestHTTPEmbedder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/embeddings", r.URL.Path)
			assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

			var req embeddingRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "mini", req.Model)
			assert.Equal(t, "uber", req.Input)
			assert.Equal(t, 3, req.Dimensions)

			_, _ = w.Write([]byte(`{"model":"mini","data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`))
		}))
		defer server.Close()

		e, err := NewHTTPEmbedder(HTTPConfig{BaseURL: server.URL + "/v1/", Model: "mini", APIKey: "secret", Dimensions: 3})
		require.NoError(t, err)
		assert.Equal(t, "mini", e.Model())

		vec, err := e.Embed(context.Background(), "uber")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
		}))
		defer server.Close()

		e, err := NewHTTPEmbedder(HTTPConfig{BaseURL: server.URL, Model: "m", RetryDelay: time.Millisecond})
		require.NoError(t, err)

		vec, err := e.Embed(context.Background(), "rent")
		require.NoError(t, err)
		assert.Equal(t, []float32{1}, vec)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		e, err := NewHTTPEmbedder(HTTPConfig{BaseURL: server.URL, Model: "m", RetryDelay: time.Millisecond})
		require.NoError(t, err)

		_, err = e.Embed(context.Background(), "rent")
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("empty data", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"data":[]}`))
		}))
		defer server.Close()

		e, err := NewHTTPEmbedder(HTTPConfig{BaseURL: server.URL, Model: "m"})
		require.NoError(t, err)
		_, err = e.Embed(context.Background(), "rent")
		assert.Error(t, err)
	})

	t.Run("config validation", func(t *testing.T) {
		_, err := NewHTTPEmbedder(HTTPConfig{Model: "m"})
		assert.ErrorIs(t, err, common.ErrMissingConfig)
		_, err = NewHTTPEmbedder(HTTPConfig{BaseURL: "http://x"})
		assert.ErrorIs(t, err, common.ErrMissingConfig)
	})
}

type memoryEmbeddingStore struct {
	entries []model.EmbeddingEntry
}

func (m *memoryEmbeddingStore) LoadEmbeddings(_ context.Context, _ string) ([]model.EmbeddingEntry, error) {
	return m.entries, nil
}

func (m *memoryEmbeddingStore) ReplaceEmbeddings(_ context.Context, entries []model.EmbeddingEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func TestCandidates(t *testing.T) {
	rules := []model.KeywordRule{
		{Keyword: "pizza", Category: "Takeout"},
		{Scope: model.UserScope("alice"), Keyword: "rent", Category: "Personal"},
		{Keyword: "Uber", Category: "Transport"},
	}
	categories := model.CategoryMap{
		{Name: "Food", Keywords: []string{"pizza", "groceries"}},
		{Name: "Housing", Keywords: []string{"rent", "  "}},
	}

	entries, duplicates := Candidates(rules, categories)
	assert.Equal(t, 1, duplicates)

	got := map[string]string{}
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		got[e.Keyword] = e.Category
		order = append(order, e.Keyword)
	}
	assert.Equal(t, []string{"pizza", "uber", "groceries", "rent"}, order)
	assert.Equal(t, "Takeout", got["pizza"], "first occurrence wins")
	assert.Equal(t, "Housing", got["rent"], "scoped rules are not embedded")
}

func TestBuilder(t *testing.T) {
	embedder, err := NewHashingEmbedder(16)
	require.NoError(t, err)
	store := &memoryEmbeddingStore{}
	builder := NewBuilder(embedder, store, nil)

	var progressCalls []int
	stats, err := builder.Build(context.Background(),
		[]model.KeywordRule{{Keyword: "uber", Category: "Transport"}},
		model.CategoryMap{{Name: "Transport", Keywords: []string{"uber", "taxi"}}},
		func(done, total int) {
			assert.Equal(t, 2, total)
			progressCalls = append(progressCalls, done)
		})
	require.NoError(t, err)

	assert.Equal(t, BuildStats{Candidates: 2, Duplicates: 1, Embedded: 2}, stats)
	assert.Equal(t, []int{1, 2}, progressCalls)
	require.Len(t, store.entries, 2)
	for _, e := range store.entries {
		assert.Equal(t, "hashing-16", e.Model)
		assert.Len(t, e.Vector, 16)
	}

	empty := &memoryEmbeddingStore{}
	stats, err = NewBuilder(embedder, empty, nil).Build(context.Background(), nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, stats.Embedded)
	assert.Nil(t, empty.entries)
}
