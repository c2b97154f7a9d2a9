// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package watch

import (
	"fmt"
	"strings"

	"github.com/tomtom215/heliograph/internal/github"
)

// Classifier maps raw events to dispatch actions.
//
// Classification is a pure function of the event and the classifier's
// static rules. Malformed events (missing payload sections, empty fields
// the text needs) yield nil: the upstream API's variability must never
// take the watcher down.
type Classifier struct {
	// releaseOwners is the repo-owner allowlist for image rendering.
	releaseOwners map[string]struct{}

	// blockedRepos are full "owner/name" repos that never get an image
	// job (bundled helper repos whose releases are not real releases).
	blockedRepos map[string]struct{}
}

// NewClassifier creates a classifier with the given image-render
// allowlist and blocklist.
func NewClassifier(releaseOwners, blockedRepos []string) *Classifier {
	c := &Classifier{
		releaseOwners: make(map[string]struct{}, len(releaseOwners)),
		blockedRepos:  make(map[string]struct{}, len(blockedRepos)),
	}
	for _, owner := range releaseOwners {
		c.releaseOwners[owner] = struct{}{}
	}
	for _, repo := range blockedRepos {
		c.blockedRepos[repo] = struct{}{}
	}
	return c
}

// Classify maps one event to zero-or-one dispatch actions.
// Unknown event types yield nil; that is the common case, not an error.
func (c *Classifier) Classify(ev *github.Event) *Action {
	switch ev.Type {
	case github.TypeRelease:
		return c.classifyRelease(ev)
	case github.TypeIssues:
		return classifyIssue(ev)
	case github.TypePullRequest:
		return classifyPullRequest(ev)
	default:
		return nil
	}
}

// classifyRelease handles ReleaseEvent. Only "published" actions are
// announced; edits and drafts stay silent.
func (c *Classifier) classifyRelease(ev *github.Event) *Action {
	release := ev.Payload.Release
	if release == nil || ev.Payload.Action != "published" {
		return nil
	}

	action := &Action{
		Kind:      PublishSocial,
		EventType: ev.Type,
		ChatText: fmt.Sprintf("%s released %s %s. %s",
			ev.Actor.Login, ev.Repo.Name, release.TagName, release.HTMLURL),
		SocialText: fmt.Sprintf("%s %s released. %s",
			ev.Repo.Name, release.TagName, release.HTMLURL),
	}

	if c.wantsImage(ev.Repo.Name) {
		action.Job = &ImageJob{
			RepoName: ev.Repo.Name,
			TagName:  release.TagName,
		}
	}

	return action
}

// wantsImage applies the owner allowlist and repo blocklist.
func (c *Classifier) wantsImage(repoName string) bool {
	owner, _, found := strings.Cut(repoName, "/")
	if !found {
		return false
	}
	if _, allowed := c.releaseOwners[owner]; !allowed {
		return false
	}
	if _, blocked := c.blockedRepos[repoName]; blocked {
		return false
	}
	return true
}

// classifyIssue handles IssuesEvent.
func classifyIssue(ev *github.Event) *Action {
	issue := ev.Payload.Issue
	if issue == nil || ev.Payload.Action == "" {
		return nil
	}

	return &Action{
		Kind:      SendText,
		EventType: ev.Type,
		ChatText: fmt.Sprintf("%s %s %s (%s).",
			ev.Actor.Login, ev.Payload.Action, issue.HTMLURL, issue.Title),
	}
}

// classifyPullRequest handles PullRequestEvent. A closed PR that was
// merged reads "merged"; a closed PR that was not merged reads "closed".
func classifyPullRequest(ev *github.Event) *Action {
	pr := ev.Payload.PullRequest
	if pr == nil || ev.Payload.Action == "" {
		return nil
	}

	action := ev.Payload.Action
	if action == "closed" && pr.Merged {
		action = "merged"
	}

	return &Action{
		Kind:      SendText,
		EventType: ev.Type,
		ChatText: fmt.Sprintf("%s %s %s (%s).",
			ev.Actor.Login, action, pr.HTMLURL, pr.Title),
	}
}
