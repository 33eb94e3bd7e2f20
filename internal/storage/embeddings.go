package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/embedding"
	"github.com/Veraticus/expense-cascade/internal/model"
)

// LoadEmbeddings returns the entries built with embeddingModel in table order.
// A table that only holds vectors from other models is reported as unavailable:
// comparing vectors across embedding spaces is meaningless.
func (s *SQLiteStorage) LoadEmbeddings(ctx context.Context, embeddingModel string) ([]model.EmbeddingEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword, category, model, vector
		FROM keyword_embeddings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query embeddings: %w", common.ErrEmbeddingUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.EmbeddingEntry
	foreign := 0
	for rows.Next() {
		var entry model.EmbeddingEntry
		var blob []byte
		if err := rows.Scan(&entry.Keyword, &entry.Category, &entry.Model, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}

		if entry.Model != embeddingModel {
			foreign++
			continue
		}

		entry.Vector, err = embedding.DecodeVector(blob)
		if err != nil {
			slog.Warn("Skipping corrupt embedding", "keyword", entry.Keyword, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEmbeddingUnavailable, err)
	}

	if foreign > 0 {
		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: table holds %d vectors from a different model than %q",
				common.ErrEmbeddingUnavailable, foreign, embeddingModel)
		}
		slog.Warn("Ignoring embeddings from other models", "count", foreign, "model", embeddingModel)
	}

	return entries, nil
}

// ReplaceEmbeddings upserts entries keyed by keyword. Existing rows keep their
// table position; new keywords are appended.
func (s *SQLiteStorage) ReplaceEmbeddings(ctx context.Context, entries []model.EmbeddingEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entries == nil {
		return fmt.Errorf("%w: entries", ErrNilParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO keyword_embeddings (keyword, category, model, dimensions, vector, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(keyword) DO UPDATE SET
			category = excluded.category,
			model = excluded.model,
			dimensions = excluded.dimensions,
			vector = excluded.vector,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare embedding upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for _, entry := range entries {
		if err := ValidateEmbeddingEntry(entry); err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			entry.Keyword, entry.Category, entry.Model, len(entry.Vector),
			embedding.EncodeVector(entry.Vector), now,
		); err != nil {
			return fmt.Errorf("failed to save embedding %q: %w", entry.Keyword, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit embeddings: %w", err)
	}
	return nil
}
