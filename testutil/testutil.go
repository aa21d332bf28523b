// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/munvote/auth"
	"github.com/danielhkuo/munvote/cliparse"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/store/sqlite"
	"github.com/danielhkuo/munvote/voting"
)

// TestSessionSecret signs every token issued in tests
const TestSessionSecret = "test-session-secret"

// TestCommitteeID is the committee of every fixture resolution, delegate
// and token unless a test asks for another one
const TestCommitteeID = "test-committee"

// Fixture bundles the store and signer behind a test router
type Fixture struct {
	Store    *sqlite.Store
	Sessions *auth.Sessions
}

// SetupTestStore opens a private in-memory SQLite store with the full schema
func SetupTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseURL:   ":memory:",
		DatabaseType:  "sqlite",
		SessionSecret: TestSessionSecret,
		SessionTTL:    time.Hour,
	}
}

// TestSessions returns a session signer using the test secret
func TestSessions(t *testing.T) *auth.Sessions {
	t.Helper()

	sessions, err := auth.NewSessions(TestSessionSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create sessions: %v", err)
	}
	return sessions
}

// IssueToken signs a session token for subject with role in TestCommitteeID
func IssueToken(t *testing.T, sessions *auth.Sessions, subject string, role models.Role) string {
	t.Helper()
	return IssueCommitteeToken(t, sessions, subject, role, TestCommitteeID)
}

// IssueCommitteeToken signs a session token scoped to committeeID
func IssueCommitteeToken(t *testing.T, sessions *auth.Sessions, subject string, role models.Role, committeeID string) string {
	t.Helper()

	token, _, err := sessions.Issue(auth.Session{Subject: subject, Role: role, CommitteeID: committeeID})
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

// Bearer returns the Authorization header for token
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// CreateTestResolution stores a resolution with the given status and returns it.
// Active resolutions get a voting start time.
func CreateTestResolution(t *testing.T, st voting.ResolutionStore, votingType models.VotingType, status models.Status) models.Resolution {
	t.Helper()
	return CreateTestResolutionOfKind(t, st, models.KindResolution, votingType, status)
}

// CreateTestResolutionOfKind is CreateTestResolution for a given kind
func CreateTestResolutionOfKind(t *testing.T, st voting.ResolutionStore, kind models.Kind, votingType models.VotingType, status models.Status) models.Resolution {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Millisecond)
	res := models.Resolution{
		ID:                uuid.NewString(),
		Kind:              kind,
		Title:             "Test Resolution",
		Description:       "A test resolution",
		AuthorID:          "test-author",
		CountryID:         "test-country",
		CommitteeID:       TestCommitteeID,
		EventID:           "test-event",
		SubmissionBlockID: "test-block",
		VotingType:        votingType,
		Status:            status,
		SubmittedAt:       now,
		DueDate:           now.Add(voting.ReviewWindow),
	}
	if status == models.StatusActive {
		res.VotingStartedAt = &now
	}
	if err := st.CreateResolution(context.Background(), res); err != nil {
		t.Fatalf("Failed to create test resolution: %v", err)
	}
	return res
}

// CreateTestDelegate registers delegate ids in committeeID
func CreateTestDelegate(t *testing.T, st voting.DelegateStore, committeeID string, ids ...string) {
	t.Helper()

	for _, id := range ids {
		d := models.Delegate{
			ID:          id,
			Name:        "Delegate " + id,
			CountryID:   "test-country",
			CommitteeID: committeeID,
			CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
		}
		if err := st.CreateDelegate(context.Background(), d); err != nil {
			t.Fatalf("Failed to create test delegate: %v", err)
		}
	}
}

// CastTestVote records a vote directly in the ledger
func CastTestVote(t *testing.T, st voting.VoteLedger, resolutionID, voterID string, choice models.Choice) models.Vote {
	t.Helper()

	vote := models.Vote{
		ID:           uuid.NewString(),
		ResolutionID: resolutionID,
		VoterID:      voterID,
		Choice:       choice,
		CastAt:       time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := st.InsertVote(context.Background(), vote); err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
	return vote
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertErrorCode decodes an error body and checks its code
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, code string) {
	t.Helper()
	var resp models.ErrorResponse
	AssertJSON(t, w, &resp)
	if resp.Code != code {
		t.Errorf("Expected error code %q, got %q (message: %s)", code, resp.Code, resp.Message)
	}
}
