// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package plugins

import (
	"context"
	"fmt"
	"testing"

	"github.com/tomtom215/heliograph/internal/chat"
	"github.com/tomtom215/heliograph/internal/github"
)

// mapIssueSource resolves issues from a fixed map keyed "owner/repo#n".
type mapIssueSource struct {
	issues  map[string]*github.Issue
	lookups []string
}

func (m *mapIssueSource) Issue(_ context.Context, owner, repo string, number int) (*github.Issue, error) {
	key := fmt.Sprintf("%s/%s#%d", owner, repo, number)
	m.lookups = append(m.lookups, key)

	issue, ok := m.issues[key]
	if !ok {
		return nil, github.ErrNotFound
	}
	return issue, nil
}

// captureSink records replies per channel.
type captureSink struct {
	sent []string
}

func (s *captureSink) SendMessage(_ context.Context, channel chat.Channel, text string) error {
	s.sent = append(s.sent, fmt.Sprintf("%s|%s", channel, text))
	return nil
}

func TestIssueLinkerScan(t *testing.T) {
	t.Parallel()

	source := &mapIssueSource{issues: map[string]*github.Issue{
		"amphp/amp#1":   {HTMLURL: "https://github.com/amphp/amp/issues/1", Title: "Leak"},
		"amphp/amp#2":   {HTMLURL: "https://github.com/amphp/amp/issues/2", Title: "Crash"},
		"amphp/http#5":  {HTMLURL: "https://github.com/amphp/http/issues/5", Title: "Headers"},
		"other/lib#9":   {HTMLURL: "https://github.com/other/lib/issues/9", Title: "Docs"},
		"amphp/byte#77": {HTMLURL: "https://github.com/amphp/byte/issues/77", Title: "Enc"},
	}}
	sink := &captureSink{}
	linker := NewIssueLinker(source, sink, "amphp")

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "full reference",
			text: "see other/lib#9 for details",
			want: []string{"42|https://github.com/other/lib/issues/9 – Docs"},
		},
		{
			name: "repo reference uses default owner",
			text: "amp#1 is still open",
			want: []string{"42|https://github.com/amphp/amp/issues/1 – Leak"},
		},
		{
			name: "bare reference carries the previous repo",
			text: "amp#1 relates to #2",
			want: []string{
				"42|https://github.com/amphp/amp/issues/1 – Leak",
				"42|https://github.com/amphp/amp/issues/2 – Crash",
			},
		},
		{
			name: "bare reference without context is skipped",
			text: "what about #2?",
			want: nil,
		},
		{
			name: "unresolved reference is silent",
			text: "amp#99999 was deleted",
			want: nil,
		},
		{
			name: "no references",
			text: "good morning everyone",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink.sent = nil

			err := linker.Scan(context.Background(), chat.Message{Channel: "42", Author: "alice", Text: tt.text})
			if err != nil {
				t.Fatalf("Scan() error = %v", err)
			}

			if len(sink.sent) != len(tt.want) {
				t.Fatalf("sent %v, want %v", sink.sent, tt.want)
			}
			for i := range tt.want {
				if sink.sent[i] != tt.want[i] {
					t.Errorf("sent[%d] = %q, want %q", i, sink.sent[i], tt.want[i])
				}
			}
		})
	}
}

func TestIssueLinkerCapsLookups(t *testing.T) {
	t.Parallel()

	source := &mapIssueSource{issues: map[string]*github.Issue{}}
	sink := &captureSink{}
	linker := NewIssueLinker(source, sink, "amphp")

	text := "amp#1 amp#2 amp#3 amp#4 amp#5 amp#6 amp#7 amp#8"
	if err := linker.Scan(context.Background(), chat.Message{Channel: "42", Text: text}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	if len(source.lookups) > maxRefsPerMessage {
		t.Errorf("performed %d lookups, cap is %d", len(source.lookups), maxRefsPerMessage)
	}
}
