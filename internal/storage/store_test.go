// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package storage

import (
	"errors"
	"testing"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()

	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	return store
}

func TestBadgerStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	if err := store.Set("alpha", "one"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := store.Get("alpha")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "one" {
		t.Errorf("Get() = %q, want %q", got, "one")
	}

	if err := store.Set("alpha", "two"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	got, err = store.Get("alpha")
	if err != nil {
		t.Fatalf("Get() after overwrite error = %v", err)
	}
	if got != "two" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "two")
	}
}

func TestBadgerStoreMissingKey(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	if _, err := store.Get("absent"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
	}

	exists, err := store.Has("absent")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}
	if exists {
		t.Error("Has() = true for missing key")
	}
}

func TestBadgerStoreHas(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	if err := store.Set("present", ""); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	exists, err := store.Has("present")
	if err != nil {
		t.Fatalf("Has() error = %v", err)
	}
	if !exists {
		t.Error("Has() = false for existing key")
	}
}

func TestPrefixStoreNamespacing(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)

	first := NewPrefixStore(store, "a:")
	second := NewPrefixStore(store, "b:")

	if err := first.Set("key", "from-a"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := second.Set("key", "from-b"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := first.Get("key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "from-a" {
		t.Errorf("prefixed Get() = %q, want %q", got, "from-a")
	}

	// The raw key lives under the prefix.
	raw, err := store.Get("a:key")
	if err != nil {
		t.Fatalf("Get() raw error = %v", err)
	}
	if raw != "from-a" {
		t.Errorf("raw Get() = %q, want %q", raw, "from-a")
	}

	if _, err := store.Get("key"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("unprefixed key should not exist, got err = %v", err)
	}
}
