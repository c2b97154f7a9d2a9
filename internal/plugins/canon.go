// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package plugins contains the chat command handlers and passive
// listeners that ride alongside the event relay: the canon topic
// lookup and the issue reference linker.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/heliograph/internal/chat"
	"github.com/tomtom215/heliograph/internal/storage"
)

// canonPrefix namespaces canon topics in the shared store.
const canonPrefix = "canon:"

// fuzzyThreshold is the minimum similarity (percent) for a near-miss
// topic lookup to suggest the stored topic instead of giving up.
const fuzzyThreshold = 70.0

// Canon maps discussion topics to their canonical URLs. Lookups are
// open to everyone; add and remove are restricted to admins.
type Canon struct {
	store  *storage.BadgerStore
	admins map[string]struct{}
}

// NewCanon creates the canon plugin backed by the shared store.
func NewCanon(store *storage.BadgerStore, admins []string) *Canon {
	c := &Canon{
		store:  store,
		admins: make(map[string]struct{}, len(admins)),
	}
	for _, admin := range admins {
		c.admins[admin] = struct{}{}
	}
	return c
}

// Register wires the plugin's command into the registry.
func (c *Canon) Register(registry *chat.Registry) error {
	return registry.Register("canon", c.handle)
}

func (c *Canon) handle(_ context.Context, cmd chat.Command) (string, error) {
	if !cmd.HasParam(0) {
		return "Usage: !!canon <topic> | list | add <topic> <url> | remove <topic>", nil
	}

	switch cmd.Param(0) {
	case "list":
		return c.list()
	case "add":
		if !c.isAdmin(cmd.Message.Author) {
			return "Sorry, only admins can do that.", nil
		}
		if !cmd.HasParam(2) {
			return "Usage: !!canon add <topic> <url>", nil
		}
		return c.add(cmd.Param(1), cmd.Param(2))
	case "remove":
		if !c.isAdmin(cmd.Message.Author) {
			return "Sorry, only admins can do that.", nil
		}
		if !cmd.HasParam(1) {
			return "Usage: !!canon remove <topic>", nil
		}
		return c.remove(cmd.Param(1))
	default:
		return c.lookup(cmd.Param(0))
	}
}

func (c *Canon) isAdmin(author string) bool {
	_, ok := c.admins[author]
	return ok
}

// lookup resolves a topic, falling back to the closest stored topic
// when the exact key is missing and a near match exists.
func (c *Canon) lookup(topic string) (string, error) {
	key := strings.ToLower(topic)

	url, err := c.store.Get(canonPrefix + key)
	if err == nil {
		return fmt.Sprintf("Canonical %s discussion: %s", key, url), nil
	}
	if !errors.Is(err, storage.ErrKeyNotFound) {
		return "", err
	}

	topics, err := c.topics()
	if err != nil {
		return "", err
	}

	best, score := "", 0.0
	for _, candidate := range topics {
		if s := similarity(key, candidate); s > score {
			best, score = candidate, s
		}
	}

	if score < fuzzyThreshold {
		return fmt.Sprintf("Sorry, I don't know about %s.", topic), nil
	}

	url, err = c.store.Get(canonPrefix + best)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Canonical %s discussion: %s", best, url), nil
}

func (c *Canon) list() (string, error) {
	topics, err := c.topics()
	if err != nil {
		return "", err
	}
	if len(topics) == 0 {
		return "No canonical discussions stored yet.", nil
	}

	sort.Strings(topics)
	return "Known topics: " + strings.Join(topics, ", "), nil
}

func (c *Canon) add(topic, url string) (string, error) {
	key := strings.ToLower(topic)
	if err := c.store.Set(canonPrefix+key, url); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved %s.", key), nil
}

func (c *Canon) remove(topic string) (string, error) {
	key := strings.ToLower(topic)

	exists, err := c.store.Has(canonPrefix + key)
	if err != nil {
		return "", err
	}
	if !exists {
		return fmt.Sprintf("Sorry, I don't know about %s.", topic), nil
	}

	err = c.store.DB().Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(canonPrefix + key))
	})
	if err != nil {
		return "", fmt.Errorf("remove canon topic %q: %w", key, err)
	}

	return fmt.Sprintf("Removed %s.", key), nil
}

// topics lists the stored topic names with a prefix scan.
func (c *Canon) topics() ([]string, error) {
	var topics []string

	err := c.store.DB().View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(canonPrefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			topics = append(topics, strings.TrimPrefix(key, canonPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list canon topics: %w", err)
	}

	return topics, nil
}

// similarity returns the percentage of characters the two strings share,
// computed over their longest common substrings.
func similarity(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 100.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	common := commonChars(a, b)
	return float64(2*common) / float64(len(a)+len(b)) * 100.0
}

// commonChars counts shared characters by recursively splitting both
// strings around their longest common substring.
func commonChars(a, b string) int {
	posA, posB, max := 0, 0, 0

	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			length := 0
			for i+length < len(a) && j+length < len(b) && a[i+length] == b[j+length] {
				length++
			}
			if length > max {
				posA, posB, max = i, j, length
			}
		}
	}

	if max == 0 {
		return 0
	}

	sum := max
	sum += commonChars(a[:posA], b[:posB])
	sum += commonChars(a[posA+max:], b[posB+max:])
	return sum
}
