// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/heliograph/internal/logging"
	"github.com/tomtom215/heliograph/internal/metrics"
)

// orgEventsResult bundles the OrgEvents return values for the generic
// breaker.
type orgEventsResult struct {
	events []Event
	limits RateLimit
}

// CircuitBreakerClient wraps an EventSource with a circuit breaker so a
// struggling GitHub API stops being hammered by every watcher at once.
//
// The breaker uses real time for its interval and timeout; tests exercise
// the wrapped client directly.
type CircuitBreakerClient struct {
	source EventSource
	cb     *gobreaker.CircuitBreaker[orgEventsResult]
	name   string
}

var _ EventSource = (*CircuitBreakerClient)(nil)

// NewCircuitBreakerClient wraps source with a circuit breaker.
// The breaker opens after a 60% failure rate over at least 5 requests,
// and probes again after one minute.
func NewCircuitBreakerClient(source EventSource) *CircuitBreakerClient {
	const name = "github-api"

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[orgEventsResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRate >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &CircuitBreakerClient{source: source, cb: cb, name: name}
}

// OrgEvents delegates to the wrapped source through the breaker.
// An open breaker surfaces as a recoverable fetch failure; the poll cycle
// logs it and retries on the next tick.
func (c *CircuitBreakerClient) OrgEvents(ctx context.Context, org string) ([]Event, RateLimit, error) {
	result, err := c.cb.Execute(func() (orgEventsResult, error) {
		events, limits, err := c.source.OrgEvents(ctx, org)
		return orgEventsResult{events: events, limits: limits}, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, RateLimit{}, fmt.Errorf("github api circuit open: %w", err)
	}
	if err != nil {
		return nil, result.limits, err
	}

	return result.events, result.limits, nil
}

// stateToFloat maps breaker states to the metric encoding.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
