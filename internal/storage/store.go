// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package storage provides the durable key/value store shared by the event
// watcher and the command plugins.
//
// The backing store is BadgerDB opened with synchronous writes: a Set that
// returns nil has been flushed to disk. The watch pipeline relies on this to
// avoid re-announcing events after a restart. Each component namespaces its
// keys through a PrefixStore so keys never collide across components.
package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("storage: key not found")

// Store is a durable string key/value store.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(key string) (string, error)

	// Set durably stores value under key. The write is flushed before
	// the call returns.
	Set(key, value string) error

	// Has reports whether key exists.
	Has(key string) (bool, error)
}

// BadgerStore implements Store on top of a shared BadgerDB instance.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// Open opens (or creates) a BadgerDB store at path.
// SyncWrites is enabled so every update is durable before Set returns.
func Open(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store at %s: %w", path, err)
	}

	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already-open BadgerDB instance.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get returns the value for key, or ErrKeyNotFound.
func (s *BadgerStore) Get(key string) (string, error) {
	var value string

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrKeyNotFound
		}
		if err != nil {
			return fmt.Errorf("get %q: %w", key, err)
		}

		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	return value, nil
}

// Set durably stores value under key.
func (s *BadgerStore) Set(key, value string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}

	return nil
}

// Has reports whether key exists.
func (s *BadgerStore) Has(key string) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has %q: %w", key, err)
	}

	return true, nil
}

// Close closes the underlying BadgerDB instance.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying BadgerDB handle for components that need
// iteration (the canon plugin lists its topics with a prefix scan).
func (s *BadgerStore) DB() *badger.DB {
	return s.db
}

// PrefixStore namespaces another Store by prepending a fixed prefix to
// every key. Components receive a PrefixStore so their keys cannot
// collide with another component's state in the shared database.
type PrefixStore struct {
	store  Store
	prefix string
}

var _ Store = (*PrefixStore)(nil)

// NewPrefixStore wraps store, prefixing every key with prefix.
func NewPrefixStore(store Store, prefix string) *PrefixStore {
	return &PrefixStore{store: store, prefix: prefix}
}

// Get returns the value for the prefixed key.
func (s *PrefixStore) Get(key string) (string, error) {
	return s.store.Get(s.prefix + key)
}

// Set stores value under the prefixed key.
func (s *PrefixStore) Set(key, value string) error {
	return s.store.Set(s.prefix+key, value)
}

// Has reports whether the prefixed key exists.
func (s *PrefixStore) Has(key string) (bool, error) {
	return s.store.Has(s.prefix + key)
}

// Prefix returns the namespace prefix.
func (s *PrefixStore) Prefix() string {
	return s.prefix
}
