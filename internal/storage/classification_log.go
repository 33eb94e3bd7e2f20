package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/expense-cascade/internal/model"
)

// LogClassification appends an entry to the classification log.
func (s *SQLiteStorage) LogClassification(ctx context.Context, entry *model.ClassificationLogEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: entry", ErrNilParameter)
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO classification_log (timestamp, input_text, user_id, final_category, matching_method, confidence)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.Timestamp, entry.InputText, entry.UserID, entry.Category, string(entry.Method), entry.Confidence)
	if err != nil {
		return fmt.Errorf("failed to log classification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get log entry ID: %w", err)
	}
	entry.ID = id

	return nil
}

// RecentClassifications returns up to limit entries, newest first.
func (s *SQLiteStorage) RecentClassifications(ctx context.Context, limit int) ([]model.ClassificationLogEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, input_text, user_id, final_category, matching_method, confidence
		FROM classification_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query classification log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.ClassificationLogEntry
	for rows.Next() {
		var entry model.ClassificationLogEntry
		var method string
		err := rows.Scan(
			&entry.ID,
			&entry.Timestamp,
			&entry.InputText,
			&entry.UserID,
			&entry.Category,
			&method,
			&entry.Confidence,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.Method = model.Reasoning(method)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
