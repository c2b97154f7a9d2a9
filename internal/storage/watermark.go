// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package storage

import (
	"errors"
	"fmt"
	"strconv"
)

// WatermarkStore persists the highest event id already processed per
// organization. A zero watermark means "never polled": the first cycle
// records a watermark without dispatching anything, so a cold start does
// not replay an organization's recent history into chat.
type WatermarkStore struct {
	store Store
}

// NewWatermarkStore creates a watermark store over the given Store.
// Callers normally pass a PrefixStore namespaced to the watcher.
func NewWatermarkStore(store Store) *WatermarkStore {
	return &WatermarkStore{store: store}
}

// LastID returns the watermark for org, or 0 when none is recorded.
func (w *WatermarkStore) LastID(org string) (int64, error) {
	value, err := w.store.Get("last-id." + org)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read watermark for %s: %w", org, err)
	}

	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt watermark for %s: %w", org, err)
	}

	return id, nil
}

// SetLastID durably records id as the watermark for org.
// The write is flushed before the call returns.
func (w *WatermarkStore) SetLastID(org string, id int64) error {
	if id < 0 {
		return fmt.Errorf("watermark for %s must be non-negative, got %d", org, id)
	}

	if err := w.store.Set("last-id."+org, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("persist watermark for %s: %w", org, err)
	}

	return nil
}
