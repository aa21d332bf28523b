// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/danielhkuo/munvote/metrics"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/testutil"
	"github.com/danielhkuo/munvote/voting"
)

var (
	chair        = voting.Actor{ID: "chair-1", Role: models.RoleChair, CommitteeID: testutil.TestCommitteeID}
	foreignChair = voting.Actor{ID: "chair-2", Role: models.RoleChair, CommitteeID: "other-committee"}
	admin        = voting.Actor{ID: "admin-1", Role: models.RoleAdmin}
	delegate     = voting.Actor{ID: "delegate-1", Role: models.RoleDelegate, CommitteeID: testutil.TestCommitteeID}
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 9, 30, 0, 123456789, time.UTC)
}

func TestSubmit(t *testing.T) {
	st := testutil.SetupTestStore(t)
	m := voting.NewManager(st, voting.WithClock(fixedClock), voting.WithIDGenerator(func() string { return "res-1" }))
	ctx := context.Background()

	res, err := m.Submit(ctx, delegate, models.SubmitResolutionRequest{
		Title:             "  Ocean plastics  ",
		EventID:           "1",
		SubmissionBlockID: "2",
		VotingType:        "Simple_Majority",
	})
	if err != nil {
		t.Fatalf("Failed to submit: %v", err)
	}
	if res.ID != "res-1" || res.Title != "Ocean plastics" {
		t.Errorf("Unexpected resolution %+v", res)
	}
	if res.Status != models.StatusPending || res.VotingType != models.VotingSimpleMajority {
		t.Errorf("Expected pending simple-majority, got %s %s", res.Status, res.VotingType)
	}
	wantSubmitted := fixedClock().Truncate(time.Millisecond)
	if !res.SubmittedAt.Equal(wantSubmitted) {
		t.Errorf("Expected submitted_at %v, got %v", wantSubmitted, res.SubmittedAt)
	}
	if !res.DueDate.Equal(wantSubmitted.Add(voting.ReviewWindow)) {
		t.Errorf("Expected due date a review window later, got %v", res.DueDate)
	}

	got, err := m.Get(ctx, "res-1")
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if got.AuthorID != delegate.ID {
		t.Errorf("Expected author %s, got %s", delegate.ID, got.AuthorID)
	}
}

func TestSubmitValidation(t *testing.T) {
	st := testutil.SetupTestStore(t)
	m := voting.NewManager(st)

	tests := []struct {
		name  string
		actor voting.Actor
		req   models.SubmitResolutionRequest
		want  error
	}{
		{"anonymous", voting.Actor{}, models.SubmitResolutionRequest{EventID: "1", SubmissionBlockID: "2", VotingType: "two-thirds"}, voting.ErrForbidden},
		{"no event", delegate, models.SubmitResolutionRequest{SubmissionBlockID: "2", VotingType: "two-thirds"}, voting.ErrInvalidInput},
		{"no block", delegate, models.SubmitResolutionRequest{EventID: "1", VotingType: "two-thirds"}, voting.ErrInvalidInput},
		{"no voting type", delegate, models.SubmitResolutionRequest{EventID: "1", SubmissionBlockID: "2"}, voting.ErrInvalidInput},
		{"bad voting type", delegate, models.SubmitResolutionRequest{EventID: "1", SubmissionBlockID: "2", VotingType: "consensus"}, voting.ErrInvalidVotingType},
		{"bad kind", delegate, models.SubmitResolutionRequest{Kind: "treaty", EventID: "1", SubmissionBlockID: "2", VotingType: "two-thirds"}, voting.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Submit(context.Background(), tt.actor, tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	list, err := m.List(context.Background(), models.ResolutionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no resolutions stored, got %d", len(list))
	}
}

func TestTransitionRules(t *testing.T) {
	tests := []struct {
		name  string
		from  models.Status
		actor voting.Actor
		to    string
		want  error
	}{
		{"chair starts pending", models.StatusPending, chair, "active", nil},
		{"admin cannot start", models.StatusPending, admin, "active", voting.ErrForbidden},
		{"delegate cannot start", models.StatusPending, delegate, "active", voting.ErrForbidden},
		{"start from active", models.StatusActive, chair, "active", voting.ErrInvalidTransition},
		{"complete from pending", models.StatusPending, chair, "completed", voting.ErrInvalidTransition},
		{"chair completes active", models.StatusActive, chair, "completed", nil},
		{"admin rejects pending", models.StatusPending, admin, "rejected", nil},
		{"chair rejects active", models.StatusActive, chair, "rejected", nil},
		{"delegate cannot reject", models.StatusActive, delegate, "rejected", voting.ErrForbidden},
		{"reject completed", models.StatusCompleted, chair, "rejected", voting.ErrInvalidTransition},
		{"nothing returns to pending", models.StatusRejected, admin, "pending", voting.ErrInvalidTransition},
		{"unknown status", models.StatusPending, chair, "Maybe", voting.ErrInvalidStatus},
		{"in progress alias", models.StatusPending, chair, "IN_PROGRESS", nil},
		{"chair of another committee cannot start", models.StatusPending, foreignChair, "active", voting.ErrForbidden},
		{"chair of another committee cannot end", models.StatusActive, foreignChair, "completed", voting.ErrForbidden},
		{"chair of another committee cannot reject", models.StatusActive, foreignChair, "rejected", voting.ErrForbidden},
		{"chair without a committee cannot start", models.StatusPending, voting.Actor{ID: "chair-3", Role: models.RoleChair}, "active", voting.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := testutil.SetupTestStore(t)
			m := voting.NewManager(st)
			res := testutil.CreateTestResolution(t, st, models.VotingSimpleMajority, tt.from)

			updated, err := m.UpdateStatus(context.Background(), tt.actor, res.ID, tt.to)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}

			stored, err := m.Get(context.Background(), res.ID)
			if err != nil {
				t.Fatal(err)
			}
			if tt.want != nil {
				if stored.Status != tt.from {
					t.Errorf("Expected status to stay %s, got %s", tt.from, stored.Status)
				}
				return
			}
			if stored.Status != updated.Status {
				t.Errorf("Stored status %s differs from returned %s", stored.Status, updated.Status)
			}
		})
	}
}

func TestStartAndEndVoting(t *testing.T) {
	st := testutil.SetupTestStore(t)
	reg := prometheus.NewRegistry()
	m := voting.NewManager(st, voting.WithMetrics(metrics.New(reg)))
	ctx := context.Background()
	res := testutil.CreateTestResolution(t, st, models.VotingTwoThirds, models.StatusPending)

	started, err := m.StartVoting(ctx, chair, res.ID)
	if err != nil {
		t.Fatalf("Failed to start voting: %v", err)
	}
	if started.VotingStartedAt == nil {
		t.Error("Expected voting_started_at to be set")
	}

	testutil.CastTestVote(t, st, res.ID, "d1", models.ChoiceYes)
	testutil.CastTestVote(t, st, res.ID, "d2", models.ChoiceYes)
	testutil.CastTestVote(t, st, res.ID, "d3", models.ChoiceNo)

	ended, err := m.EndVoting(ctx, chair, res.ID)
	if err != nil {
		t.Fatalf("Failed to end voting: %v", err)
	}
	if ended.Status != models.StatusCompleted || ended.Outcome != models.OutcomePassed {
		t.Errorf("Expected completed/passed, got %s/%s", ended.Status, ended.Outcome)
	}
	if ended.VotingEndedAt == nil {
		t.Error("Expected voting_ended_at to be set")
	}
	if ended.FinalTally == nil || ended.FinalTally.Yes != 2 || ended.FinalTally.No != 1 {
		t.Errorf("Unexpected final tally %+v", ended.FinalTally)
	}

	if _, err := m.EndVoting(ctx, chair, res.ID); !errors.Is(err, voting.ErrInvalidTransition) {
		t.Errorf("Expected ending twice to fail, got %v", err)
	}

	expected := `
# HELP munvote_status_transitions_total Resolution status changes, by target status
# TYPE munvote_status_transitions_total counter
munvote_status_transitions_total{to="active"} 1
munvote_status_transitions_total{to="completed"} 1
`
	if err := promtestutil.GatherAndCompare(reg, strings.NewReader(expected), "munvote_status_transitions_total"); err != nil {
		t.Errorf("Unexpected transition metrics: %v", err)
	}
}

func TestPassedRequiresThreshold(t *testing.T) {
	st := testutil.SetupTestStore(t)
	m := voting.NewManager(st)
	ctx := context.Background()
	res := testutil.CreateTestResolution(t, st, models.VotingSimpleMajority, models.StatusActive)
	testutil.CastTestVote(t, st, res.ID, "d1", models.ChoiceNo)

	if _, err := m.UpdateStatus(ctx, chair, res.ID, "passed"); !errors.Is(err, voting.ErrThresholdNotMet) {
		t.Fatalf("Expected ErrThresholdNotMet, got %v", err)
	}
	stored, err := m.Get(ctx, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != models.StatusActive || stored.FinalTally != nil {
		t.Errorf("Expected untouched active resolution, got %s with tally %+v", stored.Status, stored.FinalTally)
	}

	testutil.CastTestVote(t, st, res.ID, "d2", models.ChoiceYes)
	testutil.CastTestVote(t, st, res.ID, "d3", models.ChoiceYes)

	passed, err := m.UpdateStatus(ctx, chair, res.ID, "Passed")
	if err != nil {
		t.Fatalf("Failed to pass: %v", err)
	}
	if passed.Status != models.StatusPassed || passed.Outcome != models.OutcomePassed {
		t.Errorf("Expected passed/passed, got %s/%s", passed.Status, passed.Outcome)
	}
}

func TestDelete(t *testing.T) {
	st := testutil.SetupTestStore(t)
	m := voting.NewManager(st)
	ctx := context.Background()

	empty := testutil.CreateTestResolution(t, st, models.VotingSimpleMajority, models.StatusPending)
	voted := testutil.CreateTestResolution(t, st, models.VotingSimpleMajority, models.StatusActive)
	testutil.CastTestVote(t, st, voted.ID, "d1", models.ChoiceYes)

	if err := m.Delete(ctx, delegate, empty.ID); !errors.Is(err, voting.ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
	if err := m.Delete(ctx, foreignChair, empty.ID); !errors.Is(err, voting.ErrForbidden) {
		t.Errorf("Expected ErrForbidden for another committee's chair, got %v", err)
	}
	if err := m.Delete(ctx, admin, voted.ID); !errors.Is(err, voting.ErrConflict) {
		t.Errorf("Expected ErrConflict, got %v", err)
	}
	if err := m.Delete(ctx, admin, empty.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := m.Get(ctx, empty.ID); !errors.Is(err, voting.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestDeleteTrimsID(t *testing.T) {
	st := testutil.SetupTestStore(t)
	var logs bytes.Buffer
	m := voting.NewManager(st, voting.WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))
	res := testutil.CreateTestResolution(t, st, models.VotingSimpleMajority, models.StatusPending)

	if err := m.Delete(context.Background(), chair, "  "+res.ID+"\t"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	var entry struct {
		Msg          string `json:"msg"`
		ResolutionID string `json:"resolution_id"`
	}
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to decode log line %q: %v", logs.String(), err)
	}
	if entry.Msg != "resolution deleted" || entry.ResolutionID != res.ID {
		t.Errorf("Expected deletion of %s to be logged, got %+v", res.ID, entry)
	}
}
