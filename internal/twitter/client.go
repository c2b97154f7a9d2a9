// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package twitter implements the social sink: OAuth1-signed media upload
// and status posting against the platform's v1.1 REST API.
package twitter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/heliograph/internal/oauth1"
)

// Default API endpoints. Overridable for tests.
const (
	DefaultUploadBaseURL = "https://upload.twitter.com"
	DefaultAPIBaseURL    = "https://api.twitter.com"
)

// Sink is the social-platform boundary the release pipeline talks to.
type Sink interface {
	// UploadImage uploads the file at path and returns a media id.
	UploadImage(ctx context.Context, path string) (string, error)

	// PostStatus posts text with zero or more attached media ids.
	PostStatus(ctx context.Context, text string, mediaIDs []string) error
}

// Client is the OAuth1-signed HTTP implementation of Sink.
type Client struct {
	uploadBaseURL string
	apiBaseURL    string
	signer        *oauth1.Signer
	httpClient    *http.Client
}

var _ Sink = (*Client)(nil)

// NewClient creates a social sink client.
// Empty base URLs fall back to the public endpoints.
func NewClient(uploadBaseURL, apiBaseURL string, signer *oauth1.Signer) *Client {
	if uploadBaseURL == "" {
		uploadBaseURL = DefaultUploadBaseURL
	}
	if apiBaseURL == "" {
		apiBaseURL = DefaultAPIBaseURL
	}

	return &Client{
		uploadBaseURL: strings.TrimSuffix(uploadBaseURL, "/"),
		apiBaseURL:    strings.TrimSuffix(apiBaseURL, "/"),
		signer:        signer,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// uploadResponse is the media upload result.
type uploadResponse struct {
	MediaIDString string `json:"media_id_string"`
}

// UploadImage uploads the image at path as multipart form data and
// returns the media id handle.
//
// Multipart bodies are excluded from the OAuth1 signature per RFC 5849;
// only the protocol parameters are signed.
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("media", "media")
	if err != nil {
		return "", fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy image into request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalize multipart body: %w", err)
	}

	endpoint := c.uploadBaseURL + "/1.1/media/upload.json"

	auth, err := c.signer.AuthorizationHeader(http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("media upload returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result uploadResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.MediaIDString == "" {
		return "", fmt.Errorf("upload response missing media id: %s", strings.TrimSpace(string(respBody)))
	}

	return result.MediaIDString, nil
}

// PostStatus posts a status update with the given media attachments.
// Form parameters participate in the OAuth1 signature.
func (c *Client) PostStatus(ctx context.Context, text string, mediaIDs []string) error {
	form := url.Values{
		"status":             {text},
		"enable_dm_commands": {"false"},
	}
	if len(mediaIDs) > 0 {
		form.Set("media_ids", strings.Join(mediaIDs, ","))
	}

	endpoint := c.apiBaseURL + "/1.1/statuses/update.json"

	auth, err := c.signer.AuthorizationHeader(http.MethodPost, endpoint, form)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post status: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("post status returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}
