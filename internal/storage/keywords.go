package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/model"
)

// Lookup returns the rules of one scope in insertion order.
func (s *SQLiteStorage) Lookup(ctx context.Context, scope model.Scope) ([]model.KeywordRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.lookupTx(ctx, s.db, scope)
}

func (s *SQLiteStorage) lookupTx(ctx context.Context, q queryable, scope model.Scope) ([]model.KeywordRule, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, keyword, category, source, created_at
		FROM keyword_rules
		WHERE user_id = ?
		ORDER BY id
	`, scope.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query keyword rules: %w", common.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	return scanKeywordRules(rows)
}

// ListKeywords returns every rule, global rules first, then by user and insertion order.
func (s *SQLiteStorage) ListKeywords(ctx context.Context) ([]model.KeywordRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, keyword, category, source, created_at
		FROM keyword_rules
		ORDER BY user_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list keyword rules: %w", common.ErrStoreUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	return scanKeywordRules(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanKeywordRules(rows rowScanner) ([]model.KeywordRule, error) {
	var rules []model.KeywordRule
	for rows.Next() {
		var rule model.KeywordRule
		var source string
		err := rows.Scan(
			&rule.ID,
			&rule.Scope.UserID,
			&rule.Keyword,
			&rule.Category,
			&source,
			&rule.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan keyword rule: %w", err)
		}
		rule.Source = model.KeywordSource(source)
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// InsertIfAbsent adds the rule unless its (scope, keyword) pair already exists.
// The check and the write are a single statement, so concurrent callers cannot
// both insert the same pair.
func (s *SQLiteStorage) InsertIfAbsent(ctx context.Context, rule model.KeywordRule) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	return s.insertIfAbsentTx(ctx, s.db, rule)
}

func (s *SQLiteStorage) insertIfAbsentTx(ctx context.Context, q queryable, rule model.KeywordRule) (bool, error) {
	rule, err := PrepareKeywordRule(rule)
	if err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO keyword_rules (user_id, keyword, category, source, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rule.Scope.UserID, rule.Keyword, rule.Category, string(rule.Source), time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("%w: failed to insert keyword rule: %w", common.ErrStoreUnavailable, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// ImportKeywords inserts rules in one transaction and reports how many were new.
func (s *SQLiteStorage) ImportKeywords(ctx context.Context, rules []model.KeywordRule) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for _, rule := range rules {
		ok, err := s.insertIfAbsentTx(ctx, tx, rule)
		if err != nil {
			return 0, fmt.Errorf("failed to import keyword %q: %w", rule.Keyword, err)
		}
		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit keyword import: %w", err)
	}
	return inserted, nil
}
