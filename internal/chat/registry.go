// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package chat

import (
	"context"
	"fmt"

	"github.com/tomtom215/heliograph/internal/logging"
)

// Handler handles one command invocation. The returned reply is sent back
// to the command's channel; an empty reply sends nothing.
type Handler func(ctx context.Context, cmd Command) (string, error)

// Listener observes every non-command message (the issue linker scans
// conversation for issue references). Listener errors are logged, never
// propagated: a broken plugin must not take the message flow down.
type Listener func(ctx context.Context, msg Message) error

// Registry routes inbound messages to command handlers and listeners.
//
// It is constructed once at startup and passed explicitly to whatever
// needs to dispatch commands; there is no ambient global registry.
// Registration happens during wiring, before any message flows, so
// Dispatch needs no locking.
type Registry struct {
	handlers  map[string]Handler
	listeners []Listener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a command handler. Duplicate names are a wiring bug and
// returned as an error.
func (r *Registry) Register(name string, handler Handler) error {
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("duplicate command: %s", name)
	}
	r.handlers[name] = handler
	return nil
}

// RegisterListener adds a passive message listener.
func (r *Registry) RegisterListener(listener Listener) {
	r.listeners = append(r.listeners, listener)
}

// Dispatch routes one inbound message.
//
// Commands return a reply (or the unknown-command notice); other messages
// fan out to the listeners and produce no direct reply.
func (r *Registry) Dispatch(ctx context.Context, msg Message) (string, bool) {
	cmd, ok := ParseCommand(msg)
	if !ok {
		for _, listener := range r.listeners {
			if err := listener(ctx, msg); err != nil {
				logging.Err(err).Str("channel", msg.Channel.String()).Msg("Message listener failed")
			}
		}
		return "", false
	}

	handler, exists := r.handlers[cmd.Name]
	if !exists {
		return "Sorry, can't find that command.", true
	}

	reply, err := handler(ctx, cmd)
	if err != nil {
		logging.Err(err).Str("command", cmd.Name).Msg("Command handler failed")
		return "Sorry, something went wrong.", true
	}

	return reply, reply != ""
}

// Commands returns the registered command names, for help output.
func (r *Registry) Commands() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
