// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package kvstore is a string key-value store backed by BuntDB
// (https://github.com/tidwall/buntdb).
//
// Only single-key operations are exposed. Every call runs in its own
// BuntDB transaction so a sequence of calls is never atomic as a whole;
// callers that need multi-key invariants must build them from SetNX and
// CompareAndDelete.
package kvstore

import (
	"errors"
	"fmt"

	"github.com/tidwall/buntdb"
)

// InMemory is the path which opens a store that is never written to disk.
const InMemory = ":memory:"

var (
	// ErrNotFound is returned by Get when the key has never been written
	// or was deleted.
	ErrNotFound = errors.New("kvstore: key not found")
)

// Store holds a BuntDB handle. It is safe for concurrent use.
type Store struct {
	db *buntdb.DB
}

// Open creates or opens the store at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("kvstore: empty path")
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("kvstore: problem opening %s: %v", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored at key or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var out string
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	if err != nil {
		if err == buntdb.ErrNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("kvstore: problem reading %s: %v", key, err)
	}
	return out, nil
}

// Set writes value at key unconditionally.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key, value, nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("kvstore: problem writing %s: %v", key, err)
	}
	return nil
}

// SetNX writes value at key only if the key is absent. The returned bool
// reports whether this call claimed the key.
func (s *Store) SetNX(key, value string) (bool, error) {
	claimed := false
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Get(key)
		if err == nil {
			return nil
		}
		if err != buntdb.ErrNotFound {
			return err
		}
		if _, _, err := tx.Set(key, value, nil); err != nil {
			return err
		}
		claimed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("kvstore: problem claiming %s: %v", key, err)
	}
	return claimed, nil
}

// CompareAndDelete removes key only while it still holds value. The
// returned bool reports whether a delete happened.
func (s *Store) CompareAndDelete(key, value string) (bool, error) {
	deleted := false
	err := s.db.Update(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if err == buntdb.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		if v != value {
			return nil
		}
		if _, err := tx.Delete(key); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("kvstore: problem releasing %s: %v", key, err)
	}
	return deleted, nil
}

// Len returns how many keys are stored.
func (s *Store) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n, err
}

// Ping reports whether the underlying database is still usable.
func (s *Store) Ping() error {
	_, err := s.Len()
	return err
}
