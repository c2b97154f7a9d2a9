// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package chat defines the channel/message/command model shared by the
// sinks and the command plugins. It is transport-agnostic: the Telegram
// adapter maps Channel to a chat id, an IRC adapter would map it to a
// channel name.
package chat

import (
	"context"
	"strings"
)

// Channel identifies one delivery target in the chat system.
type Channel string

// String returns the channel identifier.
func (c Channel) String() string { return string(c) }

// Message is one inbound chat message.
type Message struct {
	Channel Channel
	Author  string
	Text    string
}

// CommandPrefix marks user-issued commands ("!!canon amp").
const CommandPrefix = "!!"

// Command is a parsed user command.
type Command struct {
	Message Message
	Name    string
	Params  []string
}

// ParseCommand parses a message into a Command.
// The second return value is false when the message is not a command;
// that is not an error, most chat traffic is plain conversation.
func ParseCommand(msg Message) (Command, bool) {
	if !strings.HasPrefix(msg.Text, CommandPrefix) {
		return Command{}, false
	}

	parts := strings.Fields(strings.TrimPrefix(msg.Text, CommandPrefix))
	if len(parts) == 0 {
		return Command{}, false
	}

	return Command{
		Message: msg,
		Name:    parts[0],
		Params:  parts[1:],
	}, true
}

// Param returns the parameter at index, or "" when absent.
func (c Command) Param(index int) string {
	if index < 0 || index >= len(c.Params) {
		return ""
	}
	return c.Params[index]
}

// HasParam reports whether a parameter exists at index.
func (c Command) HasParam(index int) bool {
	return index >= 0 && index < len(c.Params)
}

// Sink delivers formatted text to a channel. Implemented by the Telegram
// adapter; failures are logged by callers, never fatal.
type Sink interface {
	SendMessage(ctx context.Context, channel Channel, text string) error
}
