// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package github

import "strconv"

// Event is one entry of an organization's public event feed.
//
// Only the fields the relay consumes are decoded; everything else in the
// upstream payload is ignored. Optional payload sections are pointers so a
// missing section decodes to nil instead of a zero struct, which lets the
// classifier treat malformed events as non-matching rather than crash.
type Event struct {
	// ID is a string-encoded int64 assigned by GitHub, strictly
	// increasing over time.
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Actor   Actor   `json:"actor"`
	Repo    Repo    `json:"repo"`
	Payload Payload `json:"payload"`
}

// Actor identifies the user that triggered an event.
type Actor struct {
	Login string `json:"login"`
}

// Repo identifies the repository an event belongs to, as "owner/name".
type Repo struct {
	Name string `json:"name"`
}

// Payload carries the type-specific event sections.
type Payload struct {
	Action      string       `json:"action"`
	Release     *Release     `json:"release"`
	Issue       *Issue       `json:"issue"`
	PullRequest *PullRequest `json:"pull_request"`
}

// Release is the payload section of a ReleaseEvent.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Issue is the payload section of an IssuesEvent.
type Issue struct {
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
}

// PullRequest is the payload section of a PullRequestEvent.
type PullRequest struct {
	HTMLURL string `json:"html_url"`
	Title   string `json:"title"`
	Merged  bool   `json:"merged"`
}

// NumericID parses the event id. Events with unparseable ids are skipped
// by the watcher since they cannot be ordered against the watermark.
func (e *Event) NumericID() (int64, bool) {
	id, err := strconv.ParseInt(e.ID, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Event type names used by the classifier.
const (
	TypeRelease     = "ReleaseEvent"
	TypeIssues      = "IssuesEvent"
	TypePullRequest = "PullRequestEvent"
)
