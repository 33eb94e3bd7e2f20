package kvstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	"github.com/Veraticus/expense-cascade/internal/model"
	"github.com/Veraticus/expense-cascade/internal/storage"
	bolt "go.etcd.io/bbolt"
)

type ruleRecord struct {
	CreatedAt time.Time `json:"created_at"`
	Keyword   string    `json:"keyword"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
}

// scopeKey names the sub-bucket of a scope. "global" sorts before "user:".
func scopeKey(scope model.Scope) []byte {
	return []byte(scope.String())
}

func scopeFromKey(key []byte) model.Scope {
	const prefix = "user:"
	k := string(key)
	if len(k) > len(prefix) && k[:len(prefix)] == prefix {
		return model.UserScope(k[len(prefix):])
	}
	return model.GlobalScope
}

// Lookup returns the rules of one scope in insertion order.
func (s *Store) Lookup(ctx context.Context, scope model.Scope) ([]model.KeywordRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rules []model.KeywordRule
	err := s.db.View(func(tx *bolt.Tx) error {
		kw, err := bucket(tx, bucketKeywords)
		if err != nil {
			return err
		}
		sb := kw.Bucket(scopeKey(scope))
		if sb == nil {
			return nil
		}
		rules, err = readRules(sb, scope)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to look up keywords: %w", common.ErrStoreUnavailable, err)
	}
	return rules, nil
}

// ListKeywords returns every rule, global scope first, then users by ID.
func (s *Store) ListKeywords(ctx context.Context) ([]model.KeywordRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rules []model.KeywordRule
	err := s.db.View(func(tx *bolt.Tx) error {
		kw, err := bucket(tx, bucketKeywords)
		if err != nil {
			return err
		}
		return kw.ForEachBucket(func(name []byte) error {
			scoped, err := readRules(kw.Bucket(name), scopeFromKey(name))
			if err != nil {
				return err
			}
			rules = append(rules, scoped...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return rules, nil
}

func readRules(sb *bolt.Bucket, scope model.Scope) ([]model.KeywordRule, error) {
	rb := sb.Bucket(bucketRules)
	if rb == nil {
		return nil, nil
	}

	var rules []model.KeywordRule
	err := rb.ForEach(func(k, v []byte) error {
		// json.Unmarshal copies, so nothing escapes the transaction.
		var rec ruleRecord
		if err := json.Unmarshal(v, &rec); err != nil {
			return fmt.Errorf("%w: rule %x: %w", common.ErrDatabaseCorrupted, k, err)
		}
		rules = append(rules, model.KeywordRule{
			ID:        int64(btoi(k)),
			Scope:     scope,
			Keyword:   rec.Keyword,
			Category:  rec.Category,
			Source:    model.KeywordSource(rec.Source),
			CreatedAt: rec.CreatedAt,
		})
		return nil
	})
	return rules, err
}

// InsertIfAbsent adds rule unless its (scope, keyword) already exists. The
// check and the write share one update transaction.
func (s *Store) InsertIfAbsent(ctx context.Context, rule model.KeywordRule) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	rule, err := storage.PrepareKeywordRule(rule)
	if err != nil {
		return false, err
	}

	var inserted bool
	err = s.db.Update(func(tx *bolt.Tx) error {
		inserted, err = insertRule(tx, rule)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert keyword: %w", err)
	}
	return inserted, nil
}

// ImportKeywords inserts rules in one transaction and returns how many were new.
func (s *Store) ImportKeywords(ctx context.Context, rules []model.KeywordRule) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	prepared := make([]model.KeywordRule, 0, len(rules))
	for _, r := range rules {
		p, err := storage.PrepareKeywordRule(r)
		if err != nil {
			return 0, err
		}
		prepared = append(prepared, p)
	}

	count := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, r := range prepared {
			ok, err := insertRule(tx, r)
			if err != nil {
				return err
			}
			if ok {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to import keywords: %w", err)
	}
	return count, nil
}

func insertRule(tx *bolt.Tx, rule model.KeywordRule) (bool, error) {
	kw, err := bucket(tx, bucketKeywords)
	if err != nil {
		return false, err
	}
	sb, err := kw.CreateBucketIfNotExists(scopeKey(rule.Scope))
	if err != nil {
		return false, err
	}
	idx, err := sb.CreateBucketIfNotExists(bucketIndex)
	if err != nil {
		return false, err
	}
	if idx.Get([]byte(rule.Keyword)) != nil {
		return false, nil
	}
	rb, err := sb.CreateBucketIfNotExists(bucketRules)
	if err != nil {
		return false, err
	}

	// IDs come from the parent bucket so they are unique across scopes.
	id, err := kw.NextSequence()
	if err != nil {
		return false, err
	}
	createdAt := rule.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	data, err := json.Marshal(ruleRecord{
		CreatedAt: createdAt,
		Keyword:   rule.Keyword,
		Category:  rule.Category,
		Source:    string(rule.Source),
	})
	if err != nil {
		return false, fmt.Errorf("marshal rule: %w", err)
	}

	key := itob(id)
	if err := rb.Put(key, data); err != nil {
		return false, err
	}
	return true, idx.Put([]byte(rule.Keyword), key)
}

func btoi(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
