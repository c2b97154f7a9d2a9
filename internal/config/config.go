// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package config defines and loads the Heliograph configuration.
//
// Configuration is layered with koanf: built-in defaults, then an
// optional YAML file, then environment variables. The loaded struct is
// validated before anything starts; a misconfigured relay fails fast at
// boot instead of half-running.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration.
type Config struct {
	Logging  LoggingConfig  `koanf:"logging"`
	Storage  StorageConfig  `koanf:"storage"`
	Server   ServerConfig   `koanf:"server"`
	GitHub   GitHubConfig   `koanf:"github"`
	Telegram TelegramConfig `koanf:"telegram"`
	Twitter  TwitterConfig  `koanf:"twitter"`
	Renderer RendererConfig `koanf:"renderer"`
}

// LoggingConfig configures the zerolog backend.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StorageConfig configures the shared BadgerDB store.
type StorageConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// ServerConfig configures the admin HTTP server (healthz, metrics).
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
}

// GitHubConfig configures the event source.
type GitHubConfig struct {
	// BaseURL overrides the API endpoint (tests, GitHub Enterprise).
	BaseURL string `koanf:"base_url"`

	// ClientID and ClientSecret authenticate feed requests (Basic auth)
	// for the higher rate budget. Both empty is valid: unauthenticated
	// polling works for low-volume watches.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`

	// PollInterval is the default interval for watches that do not set
	// their own.
	PollInterval time.Duration `koanf:"poll_interval" validate:"min=10s"`

	// DefaultOwner completes bare "#123" issue references in chat.
	DefaultOwner string `koanf:"default_owner"`

	// Watches lists the monitored organizations.
	Watches []WatchConfig `koanf:"watches" validate:"required,min=1,dive"`
}

// WatchConfig maps one organization to its announcement channels.
type WatchConfig struct {
	Org          string        `koanf:"org" validate:"required"`
	Channels     []string      `koanf:"channels" validate:"required,min=1"`
	PollInterval time.Duration `koanf:"poll_interval"`
}

// TelegramConfig configures the chat sink.
type TelegramConfig struct {
	BaseURL           string `koanf:"base_url"`
	Token             string `koanf:"token" validate:"required"`
	DisableURLPreview bool   `koanf:"disable_url_preview"`

	// Admins may use the mutating chat commands (canon add/remove),
	// identified by Telegram username.
	Admins []string `koanf:"admins"`
}

// TwitterConfig configures the optional social sink. When Enabled is
// false release events are announced to chat only.
type TwitterConfig struct {
	Enabled           bool   `koanf:"enabled"`
	UploadBaseURL     string `koanf:"upload_base_url"`
	APIBaseURL        string `koanf:"api_base_url"`
	ConsumerKey       string `koanf:"consumer_key" validate:"required_if=Enabled true"`
	ConsumerSecret    string `koanf:"consumer_secret" validate:"required_if=Enabled true"`
	AccessToken       string `koanf:"access_token" validate:"required_if=Enabled true"`
	AccessTokenSecret string `koanf:"access_token_secret" validate:"required_if=Enabled true"`
}

// RendererConfig configures the release image subprocess.
type RendererConfig struct {
	// Path is the renderer executable, invoked as
	// "generate-release <variant> <repo> <tag>".
	Path string `koanf:"path"`

	// Timeout kills a renderer that never exits.
	Timeout time.Duration `koanf:"timeout"`

	// Owners is the repo-owner allowlist for image rendering.
	Owners []string `koanf:"owners"`

	// BlockedRepos never get an image job (full "owner/name" form).
	BlockedRepos []string `koanf:"blocked_repos"`
}

// defaultConfig returns the built-in defaults, overridden by file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Path: "/data/heliograph",
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3858,
		},
		GitHub: GitHubConfig{
			BaseURL:      "https://api.github.com",
			PollInterval: 5 * time.Minute,
		},
		Telegram: TelegramConfig{
			DisableURLPreview: true,
		},
		Twitter: TwitterConfig{
			Enabled: false,
		},
		Renderer: RendererConfig{
			Path:    "/usr/local/bin/generate-release",
			Timeout: 2 * time.Minute,
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	for i := range c.GitHub.Watches {
		watch := &c.GitHub.Watches[i]
		if watch.PollInterval == 0 {
			watch.PollInterval = c.GitHub.PollInterval
		}
		if watch.PollInterval < 10*time.Second {
			return fmt.Errorf("watch %s: poll interval %s below 10s minimum",
				watch.Org, watch.PollInterval)
		}
	}

	return nil
}
