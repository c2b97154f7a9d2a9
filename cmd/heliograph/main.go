// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Command heliograph runs the relay: per-organization GitHub event
// watchers, the chat command listener, the release image pipeline and
// the admin HTTP server, all under one supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/heliograph/internal/api"
	"github.com/tomtom215/heliograph/internal/chat"
	"github.com/tomtom215/heliograph/internal/config"
	"github.com/tomtom215/heliograph/internal/github"
	"github.com/tomtom215/heliograph/internal/logging"
	"github.com/tomtom215/heliograph/internal/oauth1"
	"github.com/tomtom215/heliograph/internal/plugins"
	"github.com/tomtom215/heliograph/internal/storage"
	"github.com/tomtom215/heliograph/internal/supervisor"
	"github.com/tomtom215/heliograph/internal/supervisor/services"
	"github.com/tomtom215/heliograph/internal/telegram"
	"github.com/tomtom215/heliograph/internal/twitter"
	"github.com/tomtom215/heliograph/internal/watch"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "heliograph: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("watches", len(cfg.GitHub.Watches)).
		Bool("social", cfg.Twitter.Enabled).
		Msg("Starting heliograph")

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Err(err).Msg("Failed to close store")
		}
	}()

	watermarks := storage.NewWatermarkStore(
		storage.NewPrefixStore(store, "github.events:"))

	ghClient := github.NewClient(cfg.GitHub.BaseURL, cfg.GitHub.ClientID, cfg.GitHub.ClientSecret)
	source := github.NewCircuitBreakerClient(ghClient)

	tg := telegram.NewClient(cfg.Telegram.BaseURL, cfg.Telegram.Token, cfg.Telegram.DisableURLPreview)

	registry := chat.NewRegistry()
	if err := plugins.NewCanon(store, cfg.Telegram.Admins).Register(registry); err != nil {
		return err
	}
	plugins.NewIssueLinker(ghClient, tg, cfg.GitHub.DefaultOwner).Register(registry)

	classifier := watch.NewClassifier(cfg.Renderer.Owners, cfg.Renderer.BlockedRepos)

	// The social path is optional; without credentials releases are
	// announced to chat only.
	var jobs watch.JobPublisher
	var jobBus *watch.JobBus
	if cfg.Twitter.Enabled {
		signer := oauth1.NewSigner(oauth1.Credentials{
			ConsumerKey:       cfg.Twitter.ConsumerKey,
			ConsumerSecret:    cfg.Twitter.ConsumerSecret,
			AccessToken:       cfg.Twitter.AccessToken,
			AccessTokenSecret: cfg.Twitter.AccessTokenSecret,
		})
		social := twitter.NewClient(cfg.Twitter.UploadBaseURL, cfg.Twitter.APIBaseURL, signer)
		pipeline := watch.NewPipeline(cfg.Renderer.Path, cfg.Renderer.Timeout, watch.DefaultVariant, social)

		jobBus, err = watch.NewJobBus(pipeline)
		if err != nil {
			return err
		}
		jobs = jobBus
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	if jobBus != nil {
		tree.AddRelayService(jobBus)
	}
	tree.AddRelayService(telegram.NewListener(tg, registry))

	for _, w := range cfg.GitHub.Watches {
		channels := make([]chat.Channel, 0, len(w.Channels))
		for _, ch := range w.Channels {
			channels = append(channels, chat.Channel(ch))
		}

		watcher := watch.NewWatcher(watch.WatcherConfig{
			Org:      w.Org,
			Channels: channels,
			Interval: w.PollInterval,
		}, source, classifier, tg, watermarks, jobs)

		tree.AddRelayService(watcher)
	}

	tree.AddAPIService(services.NewHTTPServerService(
		api.NewServer(cfg.Server.Host, cfg.Server.Port), 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor stopped: %w", err)
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
