// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/munvote/middleware"
	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/voting"
)

type ResolutionHandler struct {
	manager *voting.Manager
}

func NewResolutionHandler(manager *voting.Manager) *ResolutionHandler {
	return &ResolutionHandler{manager: manager}
}

// actorFrom builds the lifecycle actor from the request session.
// Anonymous requests yield the zero Actor, which holds no role.
func actorFrom(r *http.Request) voting.Actor {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		return voting.Actor{}
	}
	return voting.Actor{ID: sess.Subject, Role: sess.Role, CommitteeID: sess.CommitteeID}
}

func resolutionView(res models.Resolution) models.ResolutionResponse {
	return models.ResolutionResponse{
		Resolution: res,
		DueIn:      humanize.Time(res.DueDate),
	}
}

func resolutionViews(list []models.Resolution) []models.ResolutionResponse {
	views := make([]models.ResolutionResponse, 0, len(list))
	for _, res := range list {
		views = append(views, resolutionView(res))
	}
	return views
}

// List handles GET /resolutions
func (h *ResolutionHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ResolutionFilter{})
}

// ListByEvent handles GET /resolutions/event/{eventId}
func (h *ResolutionHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ResolutionFilter{EventID: r.PathValue("eventId")})
}

// ListByBlock handles GET /resolutions/block/{blockId}
func (h *ResolutionHandler) ListByBlock(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ResolutionFilter{SubmissionBlockID: r.PathValue("blockId")})
}

// ListByCommittee handles GET /resolutions/committee/{committeeId}
func (h *ResolutionHandler) ListByCommittee(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, models.ResolutionFilter{CommitteeID: r.PathValue("committeeId")})
}

func (h *ResolutionHandler) list(w http.ResponseWriter, r *http.Request, filter models.ResolutionFilter) {
	list, err := h.manager.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to list resolutions")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resolutionViews(list))
}

// Get handles GET /resolutions/{id}
func (h *ResolutionHandler) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to load resolution")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resolutionView(res))
}

// Submit handles POST /resolutions
func (h *ResolutionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitResolutionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	res, err := h.manager.Submit(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, err, "Failed to submit resolution")
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, resolutionView(res))
}

// UpdateStatus handles PUT /resolutions/{id}/status
func (h *ResolutionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateStatusRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.CodedErrorResponse(w, http.StatusBadRequest, "invalid_json", "Invalid JSON")
		return
	}

	res, err := h.manager.UpdateStatus(r.Context(), actorFrom(r), r.PathValue("id"), req.Status)
	if err != nil {
		writeError(w, err, "Failed to update status")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resolutionView(res))
}

// Start handles POST /resolutions/{id}/start
func (h *ResolutionHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.StartVoting)
}

// End handles POST /resolutions/{id}/end
func (h *ResolutionHandler) End(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.EndVoting)
}

// Reject handles POST /resolutions/{id}/reject
func (h *ResolutionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.manager.Reject)
}

type transitionFunc func(ctx context.Context, actor voting.Actor, id string) (models.Resolution, error)

func (h *ResolutionHandler) transition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	res, err := apply(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to update status")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resolutionView(res))
}

// Delete handles DELETE /resolutions/{id}
func (h *ResolutionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.manager.Delete(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err, "Failed to delete resolution")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{ID: id, Deleted: true})
}
