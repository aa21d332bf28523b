// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/munvote/middleware"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/voting"
)

type VotingHandler struct {
	ledger *voting.Ledger
}

func NewVotingHandler(ledger *voting.Ledger) *VotingHandler {
	return &VotingHandler{ledger: ledger}
}

// CastVote handles POST /resolutions/{id}/votes
// The voter is always the session subject.
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}
	req.ResolutionID = r.PathValue("id")
	req.DocumentID = ""
	h.cast(w, r, req)
}

// Cast handles POST /votes
// The body names the resolution_id (or document_id); a delegate_id, when
// given, must be the caller's own.
func (h *VotingHandler) Cast(w http.ResponseWriter, r *http.Request) {
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}
	h.cast(w, r, req)
}

func (h *VotingHandler) cast(w http.ResponseWriter, r *http.Request, req models.CastVoteRequest) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		middleware.CodedErrorResponse(w, http.StatusUnauthorized, "unauthenticated", "Session token required")
		return
	}

	target := strings.TrimSpace(req.ResolutionID)
	if doc := strings.TrimSpace(req.DocumentID); doc != "" {
		if target != "" && target != doc {
			middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_input", "resolution_id and document_id disagree")
			return
		}
		target = doc
	}
	if target == "" {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_input", "resolution_id is required")
		return
	}
	if d := strings.TrimSpace(req.DelegateID); d != "" && d != sess.Subject {
		middleware.CodedErrorResponse(w, http.StatusForbidden, "forbidden", "Cannot vote on behalf of another delegate")
		return
	}

	vote, err := h.ledger.CastVote(r.Context(), actorFrom(r), voting.VoteInput{
		ResolutionID: target,
		Choice:       req.Vote,
		Note:         req.Note,
	})
	if err != nil {
		writeError(w, err, "Failed to cast vote")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, vote)
}

// Subresource handles GET /resolutions/{id}/{view} for the votes, tally
// and has-voted views.
func (h *VotingHandler) Subresource(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("view") {
	case "votes":
		h.ListVotes(w, r)
	case "tally":
		h.Tally(w, r)
	case "has-voted":
		h.HasVoted(w, r)
	default:
		middleware.CodedErrorResponse(w, http.StatusNotFound, "not_found", "Unknown resolution view")
	}
}

// ListVotes handles GET /resolutions/{id}/votes
func (h *VotingHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	votes, err := h.ledger.ListVotes(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to list votes")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, votes)
}

// Tally handles GET /resolutions/{id}/tally
func (h *VotingHandler) Tally(w http.ResponseWriter, r *http.Request) {
	tally, res, err := h.ledger.Tally(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to compute tally")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.TallyResponse{
		ResolutionID: res.ID,
		Status:       res.Status,
		Tally:        tally,
		Percentages:  tally.Percentages(),
	})
}

// HasVoted handles GET /resolutions/{id}/has-voted
// Checks the voter_id query parameter, else the caller.
func (h *VotingHandler) HasVoted(w http.ResponseWriter, r *http.Request) {
	resolutionID := r.PathValue("id")
	voterID := strings.TrimSpace(r.URL.Query().Get("voter_id"))
	if voterID == "" {
		if sess, ok := middleware.SessionFrom(r.Context()); ok {
			voterID = sess.Subject
		}
	}

	voted, err := h.ledger.HasVoted(r.Context(), resolutionID, voterID)
	if err != nil {
		writeError(w, err, "Failed to check vote")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.HasVotedResponse{
		ResolutionID: resolutionID,
		VoterID:      voterID,
		HasVoted:     voted,
	})
}
