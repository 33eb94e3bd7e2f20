package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/storage"
	bolt "go.etcd.io/bbolt"
)

type logRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	InputText  string    `json:"input_text"`
	UserID     string    `json:"user_id"`
	Category   string    `json:"final_category"`
	Method     string    `json:"matching_method"`
	Confidence float64   `json:"confidence"`
}

// LogClassification appends an entry to the classification log.
func (s *Store) LogClassification(ctx context.Context, entry *model.ClassificationLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: entry", storage.ErrNilParameter)
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(logRecord{
		Timestamp:  entry.Timestamp,
		InputText:  entry.InputText,
		UserID:     entry.UserID,
		Category:   entry.Category,
		Method:     string(entry.Method),
		Confidence: entry.Confidence,
	})
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		lb, err := bucket(tx, bucketLog)
		if err != nil {
			return err
		}
		id, err := lb.NextSequence()
		if err != nil {
			return err
		}
		entry.ID = int64(id)
		return lb.Put(itob(id), data)
	})
}

// RecentClassifications returns up to limit entries, newest first.
func (s *Store) RecentClassifications(ctx context.Context, limit int) ([]model.ClassificationLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	var entries []model.ClassificationLogEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		lb, err := bucket(tx, bucketLog)
		if err != nil {
			return err
		}
		c := lb.Cursor()
		for k, v := c.Last(); k != nil && len(entries) < limit; k, v = c.Prev() {
			var rec logRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to decode log entry: %w", err)
			}
			entries = append(entries, model.ClassificationLogEntry{
				ID:         int64(btoi(k)),
				Timestamp:  rec.Timestamp,
				InputText:  rec.InputText,
				UserID:     rec.UserID,
				Category:   rec.Category,
				Method:     model.Reasoning(rec.Method),
				Confidence: rec.Confidence,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read classification log: %w", err)
	}
	return entries, nil
}
