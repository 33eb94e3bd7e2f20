package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/expense-cascade/internal/config"
	"github.com/Veraticus/expense-cascade/internal/embedding"
	"github.com/Veraticus/expense-cascade/internal/engine"
	"github.com/Veraticus/expense-cascade/internal/kvstore"
	"github.com/Veraticus/expense-cascade/internal/llm"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/service"
	"github.com/Veraticus/expense-cascade/internal/storage"
	"github.com/spf13/viper"
)

// envKeyReplacer maps nested keys like llm.api_key to CASCADE_LLM_API_KEY.
var envKeyReplacer = strings.NewReplacer(".", "_")

// appStore is the storage surface shared by the sqlite and bolt backends.
type appStore interface {
	service.Storage
	ImportKeywords(ctx context.Context, rules []model.KeywordRule) (int, error)
	SchemaVersion(ctx context.Context) (int, error)
	Path() string
}

var (
	_ appStore = (*storage.SQLiteStorage)(nil)
	_ appStore = (*kvstore.Store)(nil)
)

func loadSettings() (*config.Settings, error) {
	return config.LoadSettings(viper.GetViper())
}

// openStore opens the configured backend without migrating it.
func openStore(settings *config.Settings) (appStore, error) {
	switch settings.Database.Backend {
	case "bolt":
		return kvstore.NewStore(settings.Database.Path)
	default:
		return storage.NewSQLiteStorage(settings.Database.Path)
	}
}

// initStorage opens the configured backend and brings its schema up to date.
func initStorage(ctx context.Context, settings *config.Settings) (appStore, error) {
	store, err := openStore(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

func newEmbedder(settings *config.Settings) (embedding.Embedder, error) {
	s := settings.Embedding
	if s.Provider == "hashing" {
		return embedding.NewHashingEmbedder(s.Dimensions)
	}
	return embedding.NewHTTPEmbedder(embedding.HTTPConfig{
		BaseURL:    s.BaseURL,
		Model:      s.Model,
		APIKey:     s.APIKey,
		Dimensions: s.Dimensions,
		MaxRetries: settings.LLM.MaxRetries,
		RetryDelay: settings.LLM.RetryDelay,
	})
}

// newGenerative returns nil when no provider is configured.
func newGenerative(settings *config.Settings) (*llm.Service, error) {
	s := settings.LLM
	if s.Provider == "none" {
		return nil, nil
	}
	return llm.NewService(llm.Config{
		Provider:    s.Provider,
		APIKey:      s.APIKey,
		Model:       s.Model,
		MaxRetries:  s.MaxRetries,
		RetryDelay:  s.RetryDelay,
		CacheTTL:    s.CacheTTL,
		RateLimit:   s.RateLimit,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}, slog.Default())
}

// app bundles the resources a classification command needs.
type app struct {
	settings   *config.Settings
	store      appStore
	categories model.CategoryMap
	engine     *engine.Engine
	generative *llm.Service
}

func (a *app) Close() {
	if a.generative != nil {
		_ = a.generative.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
}

// newApp loads settings, opens storage and assembles the cascade.
func newApp(ctx context.Context, logClassifications bool) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	categories, err := config.LoadCategoryMap(settings.Categories.Path)
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return nil, err
	}
	a := &app{settings: settings, store: store, categories: categories}

	components := engine.Components{
		Store:           store,
		Categories:      categories,
		VectorThreshold: settings.Vector.Threshold,
		CaseInsensitive: settings.LLM.CaseInsensitive,
	}
	if settings.Vector.Enabled {
		embedder, err := newEmbedder(settings)
		if err != nil {
			a.Close()
			return nil, err
		}
		components.Embedder = embedder
		components.Embeddings = store
	}

	a.generative, err = newGenerative(settings)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.generative != nil {
		components.Generative = a.generative
	}
	if logClassifications {
		components.Log = store
	}

	cfg := engine.DefaultConfig()
	cfg.Logger = slog.Default()
	if settings.Engine.Timeout > 0 {
		cfg.Timeout = settings.Engine.Timeout
	}
	a.engine, err = engine.Assemble(ctx, cfg, components)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
