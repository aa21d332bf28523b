// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/munvote/auth"
	"github.com/danielhkuo/munvote/middleware"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/voting"
)

type DelegateHandler struct {
	store    voting.DelegateStore
	sessions *auth.Sessions
}

func NewDelegateHandler(store voting.DelegateStore, sessions *auth.Sessions) *DelegateHandler {
	return &DelegateHandler{store: store, sessions: sessions}
}

// Register handles POST /delegates/register
// Creates a delegate and returns a delegate session token for it
func (h *DelegateHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterDelegateRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || utf8.RuneCountInString(name) > 100 {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_input", "name must be 1-100 characters")
		return
	}
	if strings.TrimSpace(req.CountryID) == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_input", "country_id is required")
		return
	}
	if strings.TrimSpace(req.CommitteeID) == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_input", "committee_id is required")
		return
	}

	delegate := models.Delegate{
		ID:          uuid.NewString(),
		Name:        name,
		CountryID:   strings.TrimSpace(req.CountryID),
		CommitteeID: strings.TrimSpace(req.CommitteeID),
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := h.store.CreateDelegate(r.Context(), delegate); err != nil {
		writeError(w, err, "Failed to register delegate")
		return
	}

	token, _, err := h.sessions.Issue(auth.Session{
		Subject:     delegate.ID,
		Role:        models.RoleDelegate,
		CommitteeID: delegate.CommitteeID,
	})
	if err != nil {
		slog.Error("failed to issue session", "error", err, "delegate_id", delegate.ID)
		middleware.CodedErrorResponse(w, http.StatusInternalServerError, "internal", "Failed to issue session")
		return
	}

	slog.Info("delegate registered", "delegate_id", delegate.ID, "committee_id", delegate.CommitteeID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterDelegateResponse{
		Delegate:     delegate,
		SessionToken: token,
	})
}

// GetMe handles GET /delegates/me
// Returns the delegate record behind the session
func (h *DelegateHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		middleware.CodedErrorResponse(w, http.StatusUnauthorized, "unauthenticated", "Session token required")
		return
	}

	delegate, err := h.store.GetDelegate(r.Context(), sess.Subject)
	if err != nil {
		writeError(w, err, "Failed to load delegate")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, delegate)
}

// ListCommittee handles GET /committees/{id}/delegates
func (h *DelegateHandler) ListCommittee(w http.ResponseWriter, r *http.Request) {
	delegates, err := h.store.ListDelegates(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to list delegates")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, delegates)
}
