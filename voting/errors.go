// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidChoice       = errors.New("invalid vote choice")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidVotingType   = errors.New("invalid voting type")
	ErrAlreadyVoted        = errors.New("voter has already voted on this resolution")
	ErrResolutionNotActive = errors.New("resolution is not open for voting")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrThresholdNotMet     = errors.New("tally does not meet the voting threshold")
	ErrConflict            = errors.New("resolution has recorded votes")
	ErrForbidden           = errors.New("role not permitted")
)
