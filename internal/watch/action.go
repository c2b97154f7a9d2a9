// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

// Package watch implements the event-watch pipeline: a recurring poll of
// an organization's event feed, watermark-based deduplication, and
// fan-out of classified events to the chat and social sinks.
package watch

// ActionKind tags the dispatch action variants.
type ActionKind int

const (
	// SendText delivers formatted text to the watch's chat channels.
	SendText ActionKind = iota

	// PublishSocial delivers chat text and additionally republishes the
	// event to the social platform, optionally with a rendered image.
	PublishSocial
)

// ImageJob describes one renderer subprocess invocation. Transient; it
// exists only for the duration of one release-announcement dispatch.
type ImageJob struct {
	RepoName string `json:"repo_name"`
	TagName  string `json:"tag_name"`
}

// Action is the classifier's verdict for one event: what to say, where,
// and which side effects to schedule. One per qualifying event.
type Action struct {
	Kind ActionKind

	// ChatText is delivered to every channel of the watch.
	ChatText string

	// SocialText is the status text for PublishSocial actions.
	SocialText string

	// Job is set when the release qualifies for an image render.
	Job *ImageJob

	// EventType labels metrics.
	EventType string
}

// ReleaseAnnouncement is the payload published on the job bus for one
// qualifying release. The pipeline renders the image, uploads it, and
// posts the status with the media attached.
type ReleaseAnnouncement struct {
	Job        ImageJob `json:"job"`
	StatusText string   `json:"status_text"`
}

// JobPublisher enqueues release announcements for asynchronous
// processing. Implemented by JobBus; nil when the social sink is
// disabled.
type JobPublisher interface {
	PublishRelease(ann ReleaseAnnouncement) error
}
