// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/munvote/middleware"
	"github.com/danielhkuo/munvote/voting"
)

// errorCodes maps domain errors to a status and machine readable code.
// Order matters only for readability; the sentinels do not wrap each other.
var errorCodes = []struct {
	err    error
	status int
	code   string
}{
	{voting.ErrNotFound, http.StatusNotFound, "not_found"},
	{voting.ErrForbidden, http.StatusForbidden, "forbidden"},
	{voting.ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{voting.ErrInvalidChoice, http.StatusBadRequest, "invalid_choice"},
	{voting.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{voting.ErrInvalidVotingType, http.StatusBadRequest, "invalid_voting_type"},
	{voting.ErrAlreadyVoted, http.StatusBadRequest, "already_voted"},
	{voting.ErrResolutionNotActive, http.StatusBadRequest, "not_active"},
	{voting.ErrInvalidTransition, http.StatusBadRequest, "invalid_transition"},
	{voting.ErrThresholdNotMet, http.StatusBadRequest, "threshold_not_met"},
	{voting.ErrConflict, http.StatusBadRequest, "has_votes"},
}

// writeError answers with the status for a known domain error, or logs
// err and answers 500 with message.
func writeError(w http.ResponseWriter, err error, message string) {
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			middleware.CodedErrorResponse(w, e.status, e.code, err.Error())
			return
		}
	}
	slog.Error(message, "error", err)
	middleware.CodedErrorResponse(w, http.StatusInternalServerError, "internal", message)
}
