// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package plugins

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/tomtom215/heliograph/internal/chat"
	"github.com/tomtom215/heliograph/internal/github"
	"github.com/tomtom215/heliograph/internal/logging"
)

// issuePattern matches "owner/repo#123", "repo#123" and bare "#123"
// references in conversation.
var issuePattern = regexp.MustCompile(`(?:([A-Za-z0-9][A-Za-z0-9-]*)/)?([A-Za-z0-9][A-Za-z0-9_.-]*)?#([0-9]+)`)

// maxRefsPerMessage caps lookups for a single message so a pasted wall
// of references cannot burn the API quota.
const maxRefsPerMessage = 5

// IssueSource looks up a single issue. Satisfied by github.Client.
type IssueSource interface {
	Issue(ctx context.Context, owner, repo string, number int) (*github.Issue, error)
}

// IssueLinker is a passive listener that expands issue references in
// chat into their URL and title.
type IssueLinker struct {
	source       IssueSource
	sink         chat.Sink
	defaultOwner string
}

// NewIssueLinker creates the linker. defaultOwner completes "repo#123"
// references that carry no owner of their own.
func NewIssueLinker(source IssueSource, sink chat.Sink, defaultOwner string) *IssueLinker {
	return &IssueLinker{
		source:       source,
		sink:         sink,
		defaultOwner: defaultOwner,
	}
}

// Register wires the linker into the registry as a message listener.
func (l *IssueLinker) Register(registry *chat.Registry) {
	registry.RegisterListener(l.Scan)
}

// Scan inspects one message for issue references and replies with a
// "<url> – <title>" line per resolved reference. References that do not
// resolve (404) are skipped silently; people write "#1" in sentences
// that have nothing to do with issues.
func (l *IssueLinker) Scan(ctx context.Context, msg chat.Message) error {
	matches := issuePattern.FindAllStringSubmatch(msg.Text, -1)
	if len(matches) == 0 {
		return nil
	}
	if len(matches) > maxRefsPerMessage {
		matches = matches[:maxRefsPerMessage]
	}

	// A bare "#123" inherits the owner/repo of the previous reference in
	// the same message.
	lastOwner, lastRepo := "", ""

	for _, match := range matches {
		owner, repo := match[1], match[2]

		if owner == "" {
			owner = l.defaultOwner
		}
		if repo == "" {
			owner, repo = lastOwner, lastRepo
		}
		if owner == "" || repo == "" {
			continue
		}

		number, err := strconv.Atoi(match[3])
		if err != nil || number <= 0 {
			continue
		}

		issue, err := l.source.Issue(ctx, owner, repo, number)
		if errors.Is(err, github.ErrNotFound) {
			continue
		}
		if err != nil {
			logging.Err(err).
				Str("repo", owner+"/"+repo).
				Int("number", number).
				Msg("Issue lookup failed")
			continue
		}

		lastOwner, lastRepo = owner, repo

		reply := fmt.Sprintf("%s – %s", issue.HTMLURL, issue.Title)
		if err := l.sink.SendMessage(ctx, msg.Channel, reply); err != nil {
			return fmt.Errorf("send issue link reply: %w", err)
		}
	}

	return nil
}
