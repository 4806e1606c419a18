// Package boltdb implements server storage on top of a single bbolt file.
// Records are kept as JSON documents keyed by ID.
package boltdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketUsers       = []byte("users")
	bucketUsersEmail  = []byte("users_by_email")
	bucketServices    = []byte("services")
	bucketMedia       = []byte("media")
	bucketQuotes      = []byte("quote_requests")
	errBucketNotFound = errors.New("bucket not found")
)

// Storage represents BoltDB storage implementation for the server
type Storage struct {
	db *bbolt.DB
}

// New opens (or creates) the database file at dbPath
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database file
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database file is still open
func (s *Storage) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketUsers) == nil {
			return fmt.Errorf("users %w", errBucketNotFound)
		}
		return nil
	})
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketUsersEmail, bucketServices, bucketMedia, bucketQuotes} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}

func bucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	b := tx.Bucket(name)
	if b == nil {
		return nil, fmt.Errorf("%s %w", name, errBucketNotFound)
	}
	return b, nil
}

func putJSON(b *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := b.Put([]byte(key), data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// listJSON decodes every document in the bucket, newest first
func listJSON[T any](tx *bbolt.Tx, name []byte, createdAt func(*T) time.Time) ([]*T, error) {
	b, err := bucket(tx, name)
	if err != nil {
		return nil, err
	}

	items := make([]*T, 0, b.Stats().KeyN)
	err = b.ForEach(func(k, v []byte) error {
		item := new(T)
		if err := json.Unmarshal(v, item); err != nil {
			return fmt.Errorf("failed to unmarshal %s/%s: %w", name, k, err)
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(items, func(a, b *T) int {
		return createdAt(b).Compare(createdAt(a))
	})

	return items, nil
}

// deleteJSON removes the document under id and returns its previous value
func deleteJSON[T any](tx *bbolt.Tx, name []byte, id string, notFound error) (*T, error) {
	b, err := bucket(tx, name)
	if err != nil {
		return nil, err
	}

	data := b.Get([]byte(id))
	if data == nil {
		return nil, notFound
	}

	item := new(T)
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s/%s: %w", name, id, err)
	}

	if err := b.Delete([]byte(id)); err != nil {
		return nil, fmt.Errorf("failed to delete %s/%s: %w", name, id, err)
	}

	return item, nil
}
