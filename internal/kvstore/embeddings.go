package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/embedding"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/storage"
	bolt "go.etcd.io/bbolt"
)

type embeddingRecord struct {
	UpdatedAt time.Time `json:"updated_at"`
	Keyword   string    `json:"keyword"`
	Category  string    `json:"category"`
	Model     string    `json:"model"`
	Vector    []byte    `json:"vector"`
}

// LoadEmbeddings returns the entries built with embeddingModel in table order.
// A table holding only vectors from other models is unavailable.
func (s *Store) LoadEmbeddings(ctx context.Context, embeddingModel string) ([]model.EmbeddingEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []model.EmbeddingEntry
	foreign := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		emb, err := bucket(tx, bucketEmbeddings)
		if err != nil {
			return err
		}
		rb := emb.Bucket(bucketRules)
		if rb == nil {
			return nil
		}
		return rb.ForEach(func(_, v []byte) error {
			var rec embeddingRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("%w: %w", common.ErrDatabaseCorrupted, err)
			}
			if rec.Model != embeddingModel {
				foreign++
				return nil
			}
			vec, err := embedding.DecodeVector(rec.Vector)
			if err != nil {
				slog.Warn("Skipping corrupt embedding", "keyword", rec.Keyword, "error", err)
				return nil
			}
			entries = append(entries, model.EmbeddingEntry{
				Keyword:  rec.Keyword,
				Category: rec.Category,
				Model:    rec.Model,
				Vector:   vec,
			})
			return nil
		})
	})
	if err != nil {
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

// ReplaceEmbeddings upserts entries keyed by keyword. Existing entries keep
// their position; new keywords are appended.
func (s *Store) ReplaceEmbeddings(ctx context.Context, entries []model.EmbeddingEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entries == nil {
		return fmt.Errorf("%w: entries", storage.ErrNilParameter)
	}
	for _, entry := range entries {
		if err := storage.ValidateEmbeddingEntry(entry); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	return s.db.Update(func(tx *bolt.Tx) error {
		emb, err := bucket(tx, bucketEmbeddings)
		if err != nil {
			return err
		}
		rb, idx := emb.Bucket(bucketRules), emb.Bucket(bucketIndex)

		for _, entry := range entries {
			data, err := json.Marshal(embeddingRecord{
				UpdatedAt: now,
				Keyword:   entry.Keyword,
				Category:  entry.Category,
				Model:     entry.Model,
				Vector:    embedding.EncodeVector(entry.Vector),
			})
			if err != nil {
				return fmt.Errorf("marshal embedding %q: %w", entry.Keyword, err)
			}

			key := idx.Get([]byte(entry.Keyword))
			if key == nil {
				seq, err := rb.NextSequence()
				if err != nil {
					return err
				}
				key = itob(seq)
				if err := idx.Put([]byte(entry.Keyword), key); err != nil {
					return err
				}
			} else {
				key = append([]byte(nil), key...)
			}
			if err := rb.Put(key, data); err != nil {
				return fmt.Errorf("failed to save embedding %q: %w", entry.Keyword, err)
			}
		}
		return nil
	})
}
