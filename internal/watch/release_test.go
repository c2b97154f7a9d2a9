// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeSocial records uploads and posts.
type fakeSocial struct {
	uploadedPath  string
	uploadedBytes []byte
	uploadErr     error

	postedText  string
	postedMedia []string
	postErr     error
}

func (f *fakeSocial) UploadImage(_ context.Context, path string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}

	f.uploadedPath = path
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	f.uploadedBytes = data

	return "media-123", nil
}

func (f *fakeSocial) PostStatus(_ context.Context, text string, mediaIDs []string) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.postedText = text
	f.postedMedia = mediaIDs
	return nil
}

// writeRendererScript writes an executable shell script into a temp dir.
func writeRendererScript(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("renderer tests need /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "generate-release")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write renderer script: %v", err)
	}

	return path
}

func TestPipelineRun(t *testing.T) {
	t.Parallel()

	// Interleave large writes on both streams; a capture that drains one
	// pipe at a time would deadlock long before the 128KiB mark.
	script := writeRendererScript(t, `
i=0
while [ $i -lt 2048 ]; do
  printf '%064d' $i
  printf '%064d' $i >&2
  i=$((i+1))
done`)

	social := &fakeSocial{}
	pipeline := NewPipeline(script, time.Minute, DefaultVariant, social)

	err := pipeline.Run(context.Background(), ReleaseAnnouncement{
		Job:        ImageJob{RepoName: "amphp/amp", TagName: "v3.0.0"},
		StatusText: "amphp/amp v3.0.0 released. https://x/r/1",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(social.uploadedBytes) != 2048*64 {
		t.Errorf("uploaded %d bytes, want %d", len(social.uploadedBytes), 2048*64)
	}
	if social.postedText != "amphp/amp v3.0.0 released. https://x/r/1" {
		t.Errorf("posted text = %q", social.postedText)
	}
	if len(social.postedMedia) != 1 || social.postedMedia[0] != "media-123" {
		t.Errorf("posted media = %v, want [media-123]", social.postedMedia)
	}

	// The temp image is removed once the job finishes.
	if _, err := os.Stat(social.uploadedPath); !os.IsNotExist(err) {
		t.Errorf("temp image %s still exists (stat err = %v)", social.uploadedPath, err)
	}
}

func TestPipelinePassesArguments(t *testing.T) {
	t.Parallel()

	script := writeRendererScript(t, `printf '%s,%s,%s' "$1" "$2" "$3"`)

	social := &fakeSocial{}
	variant := func(string, string) string { return "react" }
	pipeline := NewPipeline(script, time.Minute, variant, social)

	err := pipeline.Run(context.Background(), ReleaseAnnouncement{
		Job:        ImageJob{RepoName: "reactphp/http", TagName: "v1.9.0"},
		StatusText: "reactphp/http v1.9.0 released. https://x/r/2",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := string(social.uploadedBytes); got != "react,reactphp/http,v1.9.0" {
		t.Errorf("renderer args = %q, want %q", got, "react,reactphp/http,v1.9.0")
	}
}

func TestPipelineRendererFailure(t *testing.T) {
	t.Parallel()

	script := writeRendererScript(t, `echo "font cache missing" >&2; exit 1`)

	social := &fakeSocial{}
	pipeline := NewPipeline(script, time.Minute, DefaultVariant, social)

	err := pipeline.Run(context.Background(), ReleaseAnnouncement{
		Job: ImageJob{RepoName: "amphp/amp", TagName: "v3.0.0"},
	})
	if err == nil {
		t.Fatal("Run() expected error for failing renderer")
	}
	if !strings.Contains(err.Error(), "font cache missing") {
		t.Errorf("error %v does not carry stderr detail", err)
	}

	// Nothing was uploaded or posted.
	if social.uploadedPath != "" || social.postedText != "" {
		t.Errorf("social sink used despite render failure: %+v", social)
	}
}

func TestPipelineTimeout(t *testing.T) {
	t.Parallel()

	script := writeRendererScript(t, `sleep 30`)

	social := &fakeSocial{}
	pipeline := NewPipeline(script, 100*time.Millisecond, DefaultVariant, social)

	start := time.Now()
	err := pipeline.Run(context.Background(), ReleaseAnnouncement{
		Job: ImageJob{RepoName: "amphp/amp", TagName: "v3.0.0"},
	})
	if err == nil {
		t.Fatal("Run() expected error for hung renderer")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Run() took %s, timeout did not kill the renderer", elapsed)
	}
}

func TestPipelineTimeoutWithBackgroundChild(t *testing.T) {
	t.Parallel()

	// The backgrounded child inherits the stdout/stderr write ends; after
	// the shell is killed, Run must not wait for the grandchild's EOF.
	script := writeRendererScript(t, `sleep 5 & wait`)

	social := &fakeSocial{}
	pipeline := NewPipeline(script, 100*time.Millisecond, DefaultVariant, social)

	start := time.Now()
	err := pipeline.Run(context.Background(), ReleaseAnnouncement{
		Job: ImageJob{RepoName: "amphp/amp", TagName: "v3.0.0"},
	})
	if err == nil {
		t.Fatal("Run() expected error for hung renderer")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Run() took %s, blocked on the renderer's child", elapsed)
	}
}

func TestPipelineUploadFailureStopsJob(t *testing.T) {
	t.Parallel()

	script := writeRendererScript(t, `printf 'imagebytes'`)

	social := &fakeSocial{uploadErr: errors.New("media endpoint 503")}
	pipeline := NewPipeline(script, time.Minute, DefaultVariant, social)

	err := pipeline.Run(context.Background(), ReleaseAnnouncement{
		Job: ImageJob{RepoName: "amphp/amp", TagName: "v3.0.0"},
	})
	if err == nil {
		t.Fatal("Run() expected error for failing upload")
	}
	if social.postedText != "" {
		t.Errorf("status posted despite upload failure: %q", social.postedText)
	}
}
