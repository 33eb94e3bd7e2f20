// Package kvstore implements service.Storage on bbolt, an embedded B+ tree.
// Keyword rules live in one sub-bucket per scope, keyed by a big-endian
// sequence so cursor order equals insertion order. Values are JSON.
package kvstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/expense-cascade/internal/common"
	bolt "go.etcd.io/bbolt"
)

// ExpectedSchemaVersion is the bucket layout version this package writes.
const ExpectedSchemaVersion = 1

// Bucket keys.
var (
	bucketMeta       = []byte("meta")
	bucketKeywords   = []byte("keywords")
	bucketEmbeddings = []byte("embeddings")
	bucketLog        = []byte("classification_log")

	bucketRules = []byte("rules")
	bucketIndex = []byte("index")

	keySchemaVersion = []byte("schema_version")
)

// Store implements service.Storage backed by bbolt.
type Store struct {
	db   *bolt.DB
	path string
}

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("%w: bbolt open: %w", common.ErrStoreUnavailable, err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates every top-level bucket and records the layout version.
func (s *Store) Migrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketKeywords, bucketEmbeddings, bucketLog} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		emb := tx.Bucket(bucketEmbeddings)
		for _, name := range [][]byte{bucketRules, bucketIndex} {
			if _, err := emb.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create embedding bucket %s: %w", name, err)
			}
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, itob(ExpectedSchemaVersion))
	})
}

// SchemaVersion returns the recorded layout version, zero before Migrate.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var version int
	err := s.db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return nil
		}
		if v := meta.Get(keySchemaVersion); len(v) == 8 {
			version = int(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return version, err
}

// itob encodes a sequence number so byte order matches numeric order.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// bucket returns a top-level bucket or ErrStoreUnavailable when Migrate has not run.
func bucket(tx *bolt.Tx, name []byte) (*bolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%w: bucket %s missing, run migrate", common.ErrStoreUnavailable, name)
	}
	return b, nil
}
