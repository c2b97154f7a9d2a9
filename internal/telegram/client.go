// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package telegram implements the chat sink on top of the Telegram Bot
// API. Channels map to Telegram chat ids.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/heliograph/internal/chat"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// Client sends messages through the Telegram Bot API.
type Client struct {
	baseURL           string
	token             string
	disableURLPreview bool
	httpClient        *http.Client
}

var _ chat.Sink = (*Client)(nil)

// NewClient creates a Telegram Bot API client.
func NewClient(baseURL, token string, disableURLPreview bool) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:           strings.TrimSuffix(baseURL, "/"),
		token:             token,
		disableURLPreview: disableURLPreview,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
	DisableNotification   bool   `json:"disable_notification"`
}

// SendMessage delivers text to the given channel (chat id).
// Non-2xx responses are returned as an error carrying status and body;
// callers log them, delivery is best-effort.
func (c *Client) SendMessage(ctx context.Context, channel chat.Channel, text string) error {
	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                channel.String(),
		Text:                  text,
		DisableWebPagePreview: c.disableURLPreview,
		DisableNotification:   true,
	})
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	endpoint := c.baseURL + "/bot" + c.token + "/sendMessage"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sendMessage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendMessage to %s: %w", channel, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendMessage to %s returned status %d: %s",
			channel, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
