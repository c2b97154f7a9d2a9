// Heliograph - GitHub Organization Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/heliograph

package watch

import (
	"testing"

	"github.com/tomtom215/heliograph/internal/github"
)

func TestClassifyRelease(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier([]string{"amphp"}, []string{"amphp/internal-tools"})

	tests := []struct {
		name     string
		event    github.Event
		wantNil  bool
		wantChat string
		wantJob  bool
	}{
		{
			name: "published release with image job",
			event: github.Event{
				Type:  github.TypeRelease,
				Actor: github.Actor{Login: "kelunik"},
				Repo:  github.Repo{Name: "amphp/amp"},
				Payload: github.Payload{
					Action: "published",
					Release: &github.Release{
						TagName: "v3.1.0",
						HTMLURL: "https://github.com/amphp/amp/releases/tag/v3.1.0",
					},
				},
			},
			wantChat: "kelunik released amphp/amp v3.1.0. https://github.com/amphp/amp/releases/tag/v3.1.0",
			wantJob:  true,
		},
		{
			name: "owner outside allowlist gets no job",
			event: github.Event{
				Type:  github.TypeRelease,
				Actor: github.Actor{Login: "alice"},
				Repo:  github.Repo{Name: "other/lib"},
				Payload: github.Payload{
					Action:  "published",
					Release: &github.Release{TagName: "v1.0.0", HTMLURL: "https://x/r/1"},
				},
			},
			wantChat: "alice released other/lib v1.0.0. https://x/r/1",
			wantJob:  false,
		},
		{
			name: "blocklisted repo gets no job",
			event: github.Event{
				Type:  github.TypeRelease,
				Actor: github.Actor{Login: "alice"},
				Repo:  github.Repo{Name: "amphp/internal-tools"},
				Payload: github.Payload{
					Action:  "published",
					Release: &github.Release{TagName: "v0.1.0", HTMLURL: "https://x/r/2"},
				},
			},
			wantChat: "alice released amphp/internal-tools v0.1.0. https://x/r/2",
			wantJob:  false,
		},
		{
			name: "edited release is silent",
			event: github.Event{
				Type: github.TypeRelease,
				Payload: github.Payload{
					Action:  "edited",
					Release: &github.Release{TagName: "v1.0.0", HTMLURL: "https://x/r/3"},
				},
			},
			wantNil: true,
		},
		{
			name: "missing release section",
			event: github.Event{
				Type:    github.TypeRelease,
				Payload: github.Payload{Action: "published"},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			action := classifier.Classify(&tt.event)
			if tt.wantNil {
				if action != nil {
					t.Fatalf("Classify() = %+v, want nil", action)
				}
				return
			}
			if action == nil {
				t.Fatal("Classify() = nil")
			}

			if action.Kind != PublishSocial {
				t.Errorf("Kind = %v, want PublishSocial", action.Kind)
			}
			if action.ChatText != tt.wantChat {
				t.Errorf("ChatText = %q, want %q", action.ChatText, tt.wantChat)
			}
			if (action.Job != nil) != tt.wantJob {
				t.Errorf("Job = %+v, wantJob = %v", action.Job, tt.wantJob)
			}
		})
	}
}

func TestClassifyReleaseSocialText(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier([]string{"amphp"}, nil)

	action := classifier.Classify(&github.Event{
		Type:  github.TypeRelease,
		Actor: github.Actor{Login: "kelunik"},
		Repo:  github.Repo{Name: "amphp/amp"},
		Payload: github.Payload{
			Action:  "published",
			Release: &github.Release{TagName: "v3.1.0", HTMLURL: "https://x/r/1"},
		},
	})
	if action == nil {
		t.Fatal("Classify() = nil")
	}

	want := "amphp/amp v3.1.0 released. https://x/r/1"
	if action.SocialText != want {
		t.Errorf("SocialText = %q, want %q", action.SocialText, want)
	}
}

func TestClassifyIssue(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier(nil, nil)

	tests := []struct {
		name     string
		event    github.Event
		wantNil  bool
		wantChat string
	}{
		{
			name: "opened issue",
			event: github.Event{
				Type:  github.TypeIssues,
				Actor: github.Actor{Login: "alice"},
				Payload: github.Payload{
					Action: "opened",
					Issue:  &github.Issue{HTMLURL: "https://x/1", Title: "Bug"},
				},
			},
			wantChat: "alice opened https://x/1 (Bug).",
		},
		{
			name: "closed issue",
			event: github.Event{
				Type:  github.TypeIssues,
				Actor: github.Actor{Login: "bob"},
				Payload: github.Payload{
					Action: "closed",
					Issue:  &github.Issue{HTMLURL: "https://x/2", Title: "Crash on start"},
				},
			},
			wantChat: "bob closed https://x/2 (Crash on start).",
		},
		{
			name: "missing issue section",
			event: github.Event{
				Type:    github.TypeIssues,
				Payload: github.Payload{Action: "opened"},
			},
			wantNil: true,
		},
		{
			name: "missing action",
			event: github.Event{
				Type: github.TypeIssues,
				Payload: github.Payload{
					Issue: &github.Issue{HTMLURL: "https://x/3", Title: "T"},
				},
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			action := classifier.Classify(&tt.event)
			if tt.wantNil {
				if action != nil {
					t.Fatalf("Classify() = %+v, want nil", action)
				}
				return
			}
			if action == nil {
				t.Fatal("Classify() = nil")
			}
			if action.Kind != SendText {
				t.Errorf("Kind = %v, want SendText", action.Kind)
			}
			if action.ChatText != tt.wantChat {
				t.Errorf("ChatText = %q, want %q", action.ChatText, tt.wantChat)
			}
		})
	}
}

func TestClassifyPullRequest(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier(nil, nil)

	tests := []struct {
		name     string
		action   string
		merged   bool
		wantChat string
	}{
		{
			name:     "merged substitution on closed",
			action:   "closed",
			merged:   true,
			wantChat: "alice merged https://x/pr/1 (Add retry).",
		},
		{
			name:     "closed without merge stays closed",
			action:   "closed",
			merged:   false,
			wantChat: "alice closed https://x/pr/1 (Add retry).",
		},
		{
			name:     "opened ignores merged flag",
			action:   "opened",
			merged:   true,
			wantChat: "alice opened https://x/pr/1 (Add retry).",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			action := classifier.Classify(&github.Event{
				Type:  github.TypePullRequest,
				Actor: github.Actor{Login: "alice"},
				Payload: github.Payload{
					Action: tt.action,
					PullRequest: &github.PullRequest{
						HTMLURL: "https://x/pr/1",
						Title:   "Add retry",
						Merged:  tt.merged,
					},
				},
			})
			if action == nil {
				t.Fatal("Classify() = nil")
			}
			if action.ChatText != tt.wantChat {
				t.Errorf("ChatText = %q, want %q", action.ChatText, tt.wantChat)
			}
		})
	}
}

func TestClassifyUnknownType(t *testing.T) {
	t.Parallel()

	classifier := NewClassifier(nil, nil)

	if action := classifier.Classify(&github.Event{Type: "WatchEvent"}); action != nil {
		t.Errorf("Classify(WatchEvent) = %+v, want nil", action)
	}
}
