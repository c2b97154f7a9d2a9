// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package github implements the GitHub REST API client used by the event
// watcher and the issue-linker plugin.
//
// The client is deliberately thin: one authenticated GET per call, a
// client-side token bucket to stay well inside GitHub's rate budget, and
// permissive JSON decoding. Resilience (circuit breaking) is layered on
// top in circuit_breaker.go rather than baked into the transport.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// ErrNotFound is returned for 404 responses on lookups where absence is an
// expected outcome (issue references in chat may simply not exist).
var ErrNotFound = errors.New("github: not found")

// RateLimit reports the API quota headers of the last response.
type RateLimit struct {
	Remaining string
	Limit     string
}

// EventSource fetches an organization's public event feed.
// Implemented by Client and by CircuitBreakerClient.
type EventSource interface {
	OrgEvents(ctx context.Context, org string) ([]Event, RateLimit, error)
}

// Client provides access to the GitHub REST API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

var _ EventSource = (*Client)(nil)

// NewClient creates a GitHub API client authenticating with Basic auth
// (OAuth app client id and secret).
//
// The token bucket allows a burst of 5 requests and refills at one request
// per second; the event watcher polls on the order of minutes, so the
// limiter only matters when many organizations are watched at once.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// OrgEvents fetches the organization's public event feed.
//
// The feed arrives newest-first; callers reverse it before applying the
// watermark. Any non-200 status is returned as an error: the poll cycle
// logs it and retries on the next tick with the watermark untouched.
func (c *Client) OrgEvents(ctx context.Context, org string) ([]Event, RateLimit, error) {
	endpoint := c.baseURL + "/orgs/" + url.PathEscape(org) + "/events"

	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, RateLimit{}, fmt.Errorf("org events request for %s: %w", org, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limits := RateLimit{
		Remaining: resp.Header.Get("x-ratelimit-remaining"),
		Limit:     resp.Header.Get("x-ratelimit-limit"),
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, limits, fmt.Errorf("org events for %s returned status %d: %s",
			org, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var events []Event
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, limits, fmt.Errorf("decode org events for %s: %w", org, err)
	}

	return events, limits, nil
}

// Issue fetches a single issue (or pull request) by number.
// Returns ErrNotFound on 404.
func (c *Client) Issue(ctx context.Context, owner, repo string, number int) (*Issue, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/issues/%d",
		c.baseURL, url.PathEscape(owner), url.PathEscape(repo), number)

	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("issue request %s/%s#%d: %w", owner, repo, number, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("issue %s/%s#%d returned status %d: %s",
			owner, repo, number, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var issue Issue
	if err := json.NewDecoder(resp.Body).Decode(&issue); err != nil {
		return nil, fmt.Errorf("decode issue %s/%s#%d: %w", owner, repo, number, err)
	}

	return &issue, nil
}

// doRequest waits for the rate limiter, then issues one authenticated GET.
func (c *Client) doRequest(ctx context.Context, endpoint string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "heliograph")
	if c.clientID != "" {
		req.SetBasicAuth(c.clientID, c.clientSecret)
	}

	return c.httpClient.Do(req)
}
