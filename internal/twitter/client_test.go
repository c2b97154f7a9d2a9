// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package twitter

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/heliograph/internal/oauth1"
)

func testSigner() *oauth1.Signer {
	return oauth1.NewSignerForTest(oauth1.Credentials{
		ConsumerKey:       "ck",
		ConsumerSecret:    "cs",
		AccessToken:       "at",
		AccessTokenSecret: "ats",
	}, "deadbeef", time.Unix(1700000000, 0))
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	imagePath := filepath.Join(t.TempDir(), "release.png")
	if err := os.WriteFile(imagePath, []byte("png-bytes"), 0o600); err != nil {
		t.Fatalf("write test image: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.1/media/upload.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, _, err := r.FormFile("media")
		if err != nil {
			t.Fatalf("media field: %v", err)
		}
		defer func() { _ = file.Close() }()

		data, _ := io.ReadAll(file)
		if string(data) != "png-bytes" {
			t.Errorf("media bytes = %q", data)
		}

		_, _ = w.Write([]byte(`{"media_id":123,"media_id_string":"123"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testSigner())

	mediaID, err := client.UploadImage(context.Background(), imagePath)
	if err != nil {
		t.Fatalf("UploadImage() error = %v", err)
	}
	if mediaID != "123" {
		t.Errorf("media id = %q, want %q", mediaID, "123")
	}
}

func TestUploadImageNon2xx(t *testing.T) {
	t.Parallel()

	imagePath := filepath.Join(t.TempDir(), "release.png")
	if err := os.WriteFile(imagePath, []byte("x"), 0o600); err != nil {
		t.Fatalf("write test image: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"errors":[{"message":"over capacity"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testSigner())

	_, err := client.UploadImage(context.Background(), imagePath)
	if err == nil {
		t.Fatal("UploadImage() expected error for 503")
	}
	if !strings.Contains(err.Error(), "503") || !strings.Contains(err.Error(), "over capacity") {
		t.Errorf("error %v should carry status and body", err)
	}
}

func TestPostStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/1.1/statuses/update.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("status"); got != "amphp/amp v3.0.0 released. https://x/r/1" {
			t.Errorf("status = %q", got)
		}
		if got := r.PostForm.Get("media_ids"); got != "123" {
			t.Errorf("media_ids = %q", got)
		}
		if got := r.PostForm.Get("enable_dm_commands"); got != "false" {
			t.Errorf("enable_dm_commands = %q", got)
		}

		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testSigner())

	err := client.PostStatus(context.Background(),
		"amphp/amp v3.0.0 released. https://x/r/1", []string{"123"})
	if err != nil {
		t.Fatalf("PostStatus() error = %v", err)
	}
}

func TestPostStatusWithoutMedia(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if _, present := r.PostForm["media_ids"]; present {
			t.Error("media_ids sent for text-only status")
		}
		_, _ = w.Write([]byte(`{"id":2}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.URL, testSigner())

	if err := client.PostStatus(context.Background(), "hello", nil); err != nil {
		t.Fatalf("PostStatus() error = %v", err)
	}
}
