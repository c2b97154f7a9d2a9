// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/heliograph/internal/logging"
)

// topicReleaseJobs carries release announcements from the watchers to
// the image pipeline handler.
const topicReleaseJobs = "release.image_jobs"

// JobBus runs release image jobs through an in-process Pub/Sub with a
// Watermill router. Each job is handled in its own supervised handler
// invocation with retry and panic recovery, so a failing or slow job
// cannot abort a watcher's batch loop.
type JobBus struct {
	pubsub   *gochannel.GoChannel
	router   *message.Router
	pipeline *Pipeline
}

var _ JobPublisher = (*JobBus)(nil)

// NewJobBus creates the job bus and wires the pipeline handler.
func NewJobBus(pipeline *Pipeline) (*JobBus, error) {
	logger := newBusLogger()

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, logger)

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 30 * time.Second,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create job router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      2,
			InitialInterval: 5 * time.Second,
			MaxInterval:     time.Minute,
			Multiplier:      2.0,
			Logger:          logger,
		}.Middleware,
	)

	bus := &JobBus{
		pubsub:   pubsub,
		router:   router,
		pipeline: pipeline,
	}

	router.AddNoPublisherHandler(
		"release-image-pipeline",
		topicReleaseJobs,
		pubsub,
		bus.handleRelease,
	)

	return bus, nil
}

// PublishRelease enqueues one release announcement.
func (b *JobBus) PublishRelease(ann ReleaseAnnouncement) error {
	payload, err := json.Marshal(ann)
	if err != nil {
		return fmt.Errorf("marshal release announcement: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topicReleaseJobs, msg); err != nil {
		return fmt.Errorf("publish release announcement: %w", err)
	}

	return nil
}

// handleRelease decodes one announcement and runs the pipeline.
// A malformed payload is dropped rather than retried; it will never
// decode differently.
func (b *JobBus) handleRelease(msg *message.Message) error {
	var ann ReleaseAnnouncement
	if err := json.Unmarshal(msg.Payload, &ann); err != nil {
		logging.Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable release job")
		return nil
	}

	return b.pipeline.Run(msg.Context(), ann)
}

// Serve implements suture.Service: run the router until the context is
// canceled, then close the Pub/Sub.
func (b *JobBus) Serve(ctx context.Context) error {
	err := b.router.Run(ctx)
	if closeErr := b.pubsub.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("job bus stopped: %w", err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (b *JobBus) String() string { return "release-job-bus" }

// busLogger adapts zerolog to watermill.LoggerAdapter.
type busLogger struct {
	fields watermill.LogFields
}

func newBusLogger() *busLogger { return &busLogger{} }

func (l *busLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.event(logging.Err(err), fields).Msg(msg)
}

func (l *busLogger) Info(msg string, fields watermill.LogFields) {
	l.event(logging.Info(), fields).Msg(msg)
}

func (l *busLogger) Debug(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l *busLogger) Trace(msg string, fields watermill.LogFields) {
	l.event(logging.Debug(), fields).Msg(msg)
}

func (l *busLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &busLogger{fields: l.fields.Add(fields)}
}

func (l *busLogger) event(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		ev = ev.Interface(k, v)
	}
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}
