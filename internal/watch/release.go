// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package watch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/tomtom215/heliograph/internal/logging"
	"github.com/tomtom215/heliograph/internal/metrics"
	"github.com/tomtom215/heliograph/internal/twitter"
)

// VariantFunc maps a release to a renderer variant tag. This is a
// business-rule lookup (typically inspecting the release's manifest for
// dependency markers), pluggable so tests and deployments can swap it.
type VariantFunc func(repoName, tagName string) string

// DefaultVariant renders every release with the "default" variant.
func DefaultVariant(string, string) string { return "default" }

// Pipeline turns a qualifying release into a social post with a rendered
// image: spawn the renderer subprocess, capture its output, upload the
// artifact, post the status, clean up.
type Pipeline struct {
	executable string
	timeout    time.Duration
	variant    VariantFunc
	sink       twitter.Sink
	tempDir    string
}

// NewPipeline creates a release image pipeline.
// A zero timeout defaults to two minutes; the subprocess is killed when
// the deadline passes.
func NewPipeline(executable string, timeout time.Duration, variant VariantFunc, sink twitter.Sink) *Pipeline {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	if variant == nil {
		variant = DefaultVariant
	}

	return &Pipeline{
		executable: executable,
		timeout:    timeout,
		variant:    variant,
		sink:       sink,
		tempDir:    os.TempDir(),
	}
}

// Run processes one release announcement end to end.
//
// A failure anywhere in the chain fails this job only; the plain-text
// chat announcement has already been delivered by the watcher and is
// unaffected. The temporary image file is removed on every exit path.
func (p *Pipeline) Run(ctx context.Context, ann ReleaseAnnouncement) error {
	start := time.Now()

	image, err := p.render(ctx, ann.Job)
	if err != nil {
		metrics.RendererJobs.WithLabelValues("exec_error").Inc()
		return err
	}
	metrics.RendererDuration.Observe(time.Since(start).Seconds())

	tmp, err := os.CreateTemp(p.tempDir, "heliograph-release-*.png")
	if err != nil {
		metrics.RendererJobs.WithLabelValues("upload_error").Inc()
		return fmt.Errorf("create temp image file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			logging.Err(err).Str("path", tmpPath).Msg("Failed to remove temp image")
		}
	}()

	if _, err := tmp.Write(image); err != nil {
		_ = tmp.Close()
		metrics.RendererJobs.WithLabelValues("upload_error").Inc()
		return fmt.Errorf("write temp image file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		metrics.RendererJobs.WithLabelValues("upload_error").Inc()
		return fmt.Errorf("close temp image file: %w", err)
	}

	mediaID, err := p.sink.UploadImage(ctx, tmpPath)
	if err != nil {
		metrics.RendererJobs.WithLabelValues("upload_error").Inc()
		return fmt.Errorf("upload release image for %s %s: %w", ann.Job.RepoName, ann.Job.TagName, err)
	}

	if err := p.sink.PostStatus(ctx, ann.StatusText, []string{mediaID}); err != nil {
		metrics.RendererJobs.WithLabelValues("post_error").Inc()
		return fmt.Errorf("post release status for %s %s: %w", ann.Job.RepoName, ann.Job.TagName, err)
	}

	metrics.RendererJobs.WithLabelValues("ok").Inc()
	logging.Info().
		Str("repo", ann.Job.RepoName).
		Str("tag", ann.Job.TagName).
		Msg("Release image posted")

	return nil
}

// render invokes the renderer subprocess and returns the image bytes it
// wrote to stdout.
//
// Stdout and stderr are captured into separate buffers; exec.Cmd drains
// each pipe in its own goroutine, so a renderer that fills one stream
// before the other cannot deadlock the capture.
func (p *Pipeline) render(ctx context.Context, job ImageJob) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	variant := p.variant(job.RepoName, job.TagName)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.executable, variant, job.RepoName, job.TagName)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// With buffer outputs exec copies through OS pipes, and Run waits for
	// pipe EOF. A killed renderer that left a child holding the write ends
	// would keep Run blocked past the deadline; WaitDelay closes the pipes
	// shortly after the kill instead.
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("renderer failed for %s %s: %s", job.RepoName, job.TagName, detail)
	}

	return stdout.Bytes(), nil
}
