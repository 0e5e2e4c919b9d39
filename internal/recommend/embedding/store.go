// Couchside - Explainable Household Watch Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/couchside

package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for stored vectors.
const (
	itemKeyPrefix   = "vec:item:"
	personKeyPrefix = "vec:person:"
)

// ItemKey returns the store key for an item vector.
func ItemKey(itemID string) string { return itemKeyPrefix + itemID }

// PersonKey returns the store key for a person vector.
func PersonKey(personID string) string { return personKeyPrefix + personID }

// VectorStore persists precomputed vectors.
// Get and GetPerson return a nil vector when the key is absent.
type VectorStore interface {
	Get(ctx context.Context, key string) (Vector, error)
	Put(ctx context.Context, key string, v Vector) error

	// GetPerson returns a person vector with the fingerprint of the
	// ratings it was built from.
	GetPerson(ctx context.Context, personID string) (Vector, string, error)
	PutPerson(ctx context.Context, personID string, v Vector, fingerprint string) error

	CountItems(ctx context.Context) (int, error)
}

// personRecord is the stored form of a person vector.
type personRecord struct {
	Vector      Vector `json:"v"`
	Fingerprint string `json:"fp"`
}

// BadgerStore implements VectorStore on BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

var _ VectorStore = (*BadgerStore)(nil)

// NewBadgerStore wraps an open badger database.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadger opens a badger database at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	return db, nil
}

// Get reads a vector.
func (s *BadgerStore) Get(ctx context.Context, key string) (Vector, error) {
	var v Vector
	if _, err := s.read(ctx, key, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Put writes a vector.
func (s *BadgerStore) Put(ctx context.Context, key string, v Vector) error {
	if len(v) != Dim {
		return fmt.Errorf("put vector %s: dimension %d, want %d", key, len(v), Dim)
	}
	return s.write(ctx, key, v)
}

// GetPerson reads a person vector and its fingerprint.
func (s *BadgerStore) GetPerson(ctx context.Context, personID string) (Vector, string, error) {
	var rec personRecord
	found, err := s.read(ctx, PersonKey(personID), &rec)
	if err != nil || !found {
		return nil, "", err
	}
	return rec.Vector, rec.Fingerprint, nil
}

// PutPerson writes a person vector and its fingerprint.
func (s *BadgerStore) PutPerson(ctx context.Context, personID string, v Vector, fingerprint string) error {
	if len(v) != Dim {
		return fmt.Errorf("put person %s: dimension %d, want %d", personID, len(v), Dim)
	}
	return s.write(ctx, PersonKey(personID), personRecord{Vector: v, Fingerprint: fingerprint})
}

// read decodes the value at key into dst and reports whether it exists.
func (s *BadgerStore) read(ctx context.Context, key string, dst any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get vector: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dst)
		})
	})
	return found, err
}

func (s *BadgerStore) write(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal vector: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// CountItems returns the number of stored item vectors.
func (s *BadgerStore) CountItems(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(itemKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return count, nil
}
