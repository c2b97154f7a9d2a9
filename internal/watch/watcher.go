// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package watch

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/heliograph/internal/chat"
	"github.com/tomtom215/heliograph/internal/github"
	"github.com/tomtom215/heliograph/internal/logging"
	"github.com/tomtom215/heliograph/internal/metrics"
	"github.com/tomtom215/heliograph/internal/storage"
)

// WatcherConfig describes one organization watch. Immutable after
// startup; one per monitored organization.
type WatcherConfig struct {
	// Org is the GitHub organization whose public feed is polled.
	Org string

	// Channels receive the formatted announcements.
	Channels []chat.Channel

	// Interval is the wall-clock poll interval.
	Interval time.Duration
}

// Watcher drives the fetch-classify-dispatch-persist cycle for one
// organization. It implements suture.Service; each organization's
// watcher is an independent service, so a stalled fetch for one
// organization never delays another's schedule.
type Watcher struct {
	cfg        WatcherConfig
	source     github.EventSource
	classifier *Classifier
	chatSink   chat.Sink
	watermarks *storage.WatermarkStore

	// jobs is nil when the social sink is disabled; release events then
	// announce to chat only.
	jobs JobPublisher

	logger zerolog.Logger
}

// NewWatcher creates a watcher for one organization.
func NewWatcher(
	cfg WatcherConfig,
	source github.EventSource,
	classifier *Classifier,
	chatSink chat.Sink,
	watermarks *storage.WatermarkStore,
	jobs JobPublisher,
) *Watcher {
	return &Watcher{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		chatSink:   chatSink,
		watermarks: watermarks,
		jobs:       jobs,
		logger:     logging.With().Str("component", "watch").Str("org", cfg.Org).Logger(),
	}
}

// Serve implements suture.Service: poll once immediately, then on every
// interval tick until the context is canceled.
func (w *Watcher) Serve(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.cfg.Interval).Msg("Watcher started")

	w.cycle(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Watcher stopped")
			return ctx.Err()
		case <-ticker.C:
			w.cycle(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (w *Watcher) String() string {
	return "watcher-" + w.cfg.Org
}

// cycle runs one fetch-classify-dispatch-persist pass.
//
// The watermark is read once at the start and persisted once at the end,
// after every event in the batch has been attempted. A crash in between
// re-delivers at most this batch on restart; that trade-off is
// documented in the package docs rather than hidden.
func (w *Watcher) cycle(ctx context.Context) {
	start := time.Now()
	logger := w.logger.With().Str("cycle_id", uuid.NewString()).Logger()

	before, err := w.watermarks.LastID(w.cfg.Org)
	if err != nil {
		logger.Err(err).Msg("Failed to read watermark")
		metrics.PollCycles.WithLabelValues(w.cfg.Org, "read_error").Inc()
		return
	}

	logger.Debug().Int64("watermark", before).Msg("Requesting recent events")

	events, limits, err := w.source.OrgEvents(ctx, w.cfg.Org)
	if err != nil {
		// Recoverable: nothing dispatched, watermark untouched, the
		// next tick retries.
		logger.Warn().Err(err).Msg("Event feed fetch failed")
		metrics.PollCycles.WithLabelValues(w.cfg.Org, "fetch_error").Inc()
		return
	}

	w.reportRateLimit(logger, limits)
	metrics.EventsFetched.WithLabelValues(w.cfg.Org).Add(float64(len(events)))

	newMax, pending := w.filterNew(events, before)

	if before == 0 {
		// Cold start: record the watermark without dispatching so the
		// organization's recent history is not replayed into chat.
		logger.Info().Int64("watermark", newMax).Int("suppressed", len(pending)).
			Msg("First poll, suppressing dispatch")
	} else {
		for _, ev := range pending {
			w.dispatch(ctx, logger, ev)
		}
	}

	if err := w.watermarks.SetLastID(w.cfg.Org, newMax); err != nil {
		logger.Err(err).Int64("watermark", newMax).Msg("Failed to persist watermark")
		metrics.PollCycles.WithLabelValues(w.cfg.Org, "persist_error").Inc()
		return
	}

	metrics.Watermark.WithLabelValues(w.cfg.Org).Set(float64(newMax))
	metrics.PollCycles.WithLabelValues(w.cfg.Org, "ok").Inc()
	metrics.PollCycleDuration.WithLabelValues(w.cfg.Org).Observe(time.Since(start).Seconds())
}

// filterNew reverses the newest-first feed, keeps events with id above
// the watermark in ascending id order, and computes the new watermark.
// Events with unparseable ids cannot be ordered and are skipped.
func (w *Watcher) filterNew(events []github.Event, watermark int64) (int64, []*github.Event) {
	type ordered struct {
		id int64
		ev *github.Event
	}

	newMax := watermark
	pending := make([]ordered, 0, len(events))

	// Iterate oldest-first.
	for i := len(events) - 1; i >= 0; i-- {
		ev := &events[i]

		id, ok := ev.NumericID()
		if !ok {
			w.logger.Warn().Str("event_id", ev.ID).Msg("Skipping event with unparseable id")
			continue
		}

		if id > newMax {
			newMax = id
		}
		if id > watermark {
			pending = append(pending, ordered{id: id, ev: ev})
		}
	}

	// The feed is normally already chronological after reversal, but the
	// dispatch order invariant is on ids, so sort by id.
	sort.Slice(pending, func(i, j int) bool { return pending[i].id < pending[j].id })

	result := make([]*github.Event, len(pending))
	for i, p := range pending {
		result[i] = p.ev
	}

	return newMax, result
}

// dispatch classifies one event and delivers its action. Failures are
// logged and do not abort the remaining events in the batch: each
// event's side effects are independent, delivery is best-effort.
func (w *Watcher) dispatch(ctx context.Context, logger zerolog.Logger, ev *github.Event) {
	logger.Debug().Str("event_id", ev.ID).Str("type", ev.Type).Msg("Processing event")

	action := w.classifier.Classify(ev)
	if action == nil {
		return
	}

	for _, channel := range w.cfg.Channels {
		if err := w.chatSink.SendMessage(ctx, channel, action.ChatText); err != nil {
			logger.Err(err).
				Str("event_id", ev.ID).
				Str("channel", channel.String()).
				Msg("Chat delivery failed")
			metrics.DispatchFailures.WithLabelValues(w.cfg.Org, "chat").Inc()
		}
	}

	if action.Kind == PublishSocial && action.Job != nil && w.jobs != nil {
		ann := ReleaseAnnouncement{
			Job:        *action.Job,
			StatusText: action.SocialText,
		}
		if err := w.jobs.PublishRelease(ann); err != nil {
			logger.Err(err).Str("event_id", ev.ID).Msg("Release job enqueue failed")
			metrics.DispatchFailures.WithLabelValues(w.cfg.Org, "social").Inc()
		}
	}

	metrics.EventsDispatched.WithLabelValues(w.cfg.Org, action.EventType).Inc()
}

// reportRateLimit logs the API quota headers and updates the gauge.
func (w *Watcher) reportRateLimit(logger zerolog.Logger, limits github.RateLimit) {
	if limits.Remaining == "" {
		return
	}

	logger.Info().
		Str("remaining", limits.Remaining).
		Str("limit", limits.Limit).
		Msg("GitHub API requests remaining")

	if remaining, err := strconv.ParseFloat(limits.Remaining, 64); err == nil {
		metrics.APIRateRemaining.WithLabelValues(w.cfg.Org).Set(remaining)
	}
}
