// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/heliograph/internal/chat"
	"github.com/tomtom215/heliograph/internal/logging"
)

// pollTimeout is the Bot API long-poll timeout in seconds.
const pollTimeout = 30

// update is one entry from the getUpdates response.
type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From *struct {
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

// updates long-polls getUpdates and returns the batch after offset.
func (c *Client) updates(ctx context.Context, offset int64) ([]update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(pollTimeout))
	params.Set("allowed_updates", `["message"]`)

	endpoint := c.baseURL + "/bot" + c.token + "/getUpdates?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build getUpdates request: %w", err)
	}

	// Long poll: the request blocks up to pollTimeout server-side.
	client := &http.Client{Timeout: (pollTimeout + 10) * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("getUpdates returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded updatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode getUpdates response: %w", err)
	}
	if !decoded.OK {
		return nil, fmt.Errorf("getUpdates response not ok")
	}

	return decoded.Result, nil
}

// Listener long-polls the Bot API and routes inbound messages through
// the command registry. It implements suture.Service.
type Listener struct {
	client   *Client
	registry *chat.Registry
}

// NewListener creates the inbound message listener.
func NewListener(client *Client, registry *chat.Registry) *Listener {
	return &Listener{client: client, registry: registry}
}

// Serve implements suture.Service: poll, dispatch, advance the offset.
// Fetch errors back off briefly instead of crashing the service; the
// Bot API has transient outages.
func (l *Listener) Serve(ctx context.Context) error {
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := l.client.updates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logging.Warn().Err(err).Msg("Telegram update poll failed")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			l.handle(ctx, upd)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (l *Listener) String() string { return "telegram-listener" }

func (l *Listener) handle(ctx context.Context, upd update) {
	if upd.Message == nil || upd.Message.Text == "" {
		return
	}

	msg := chat.Message{
		Channel: chat.Channel(strconv.FormatInt(upd.Message.Chat.ID, 10)),
		Text:    upd.Message.Text,
	}
	if upd.Message.From != nil {
		msg.Author = upd.Message.From.Username
	}

	reply, ok := l.registry.Dispatch(ctx, msg)
	if !ok {
		return
	}

	if err := l.client.SendMessage(ctx, msg.Channel, reply); err != nil {
		logging.Err(err).Str("channel", msg.Channel.String()).Msg("Command reply failed")
	}
}
