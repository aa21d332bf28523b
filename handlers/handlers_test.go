// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"testing"

	"github.com/danielhkuo/munvote/auth"
	"github.com/danielhkuo/munvote/middleware"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/store/sqlite"
	"github.com/danielhkuo/munvote/testutil"
	"github.com/danielhkuo/munvote/voting"
)

type testEnv struct {
	store       *sqlite.Store
	sessions    *auth.Sessions
	resolutions *ResolutionHandler
	votes       *VotingHandler
	delegates   *DelegateHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := testutil.SetupTestStore(t)
	sessions := testutil.TestSessions(t)
	return &testEnv{
		store:       st,
		sessions:    sessions,
		resolutions: NewResolutionHandler(voting.NewManager(st)),
		votes:       NewVotingHandler(voting.NewLedger(st)),
		delegates:   NewDelegateHandler(st, sessions),
	}
}

// as attaches a session for subject with role in the test committee, as
// WithSession would
func as(r *http.Request, subject string, role models.Role) *http.Request {
	return asIn(r, subject, role, testutil.TestCommitteeID)
}

func asIn(r *http.Request, subject string, role models.Role, committeeID string) *http.Request {
	sess := auth.Session{Subject: subject, Role: role, CommitteeID: committeeID}
	return r.WithContext(middleware.ContextWithSession(r.Context(), sess))
}

// seat registers delegates on the test committee so their votes count
func (env *testEnv) seat(t *testing.T, ids ...string) {
	t.Helper()
	testutil.CreateTestDelegate(t, env.store, testutil.TestCommitteeID, ids...)
}

func withID(r *http.Request, id string) *http.Request {
	r.SetPathValue("id", id)
	return r
}
