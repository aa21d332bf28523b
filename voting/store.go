// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"slices"
	"time"

	"github.com/danielhkuo/munvote/models"
)

// ResolutionStore persists resolutions. Implementations return ErrNotFound
// for unknown ids and never mutate status outside ApplyTransition.
type ResolutionStore interface {
	CreateResolution(ctx context.Context, res models.Resolution) error
	GetResolution(ctx context.Context, id string) (models.Resolution, error)
	ListResolutions(ctx context.Context, filter models.ResolutionFilter) ([]models.Resolution, error)
	// ApplyTransition changes status atomically: it fails with
	// ErrInvalidTransition unless the stored status is one of t.From.
	// Leaving StatusActive freezes the tally in the same transaction.
	ApplyTransition(ctx context.Context, id string, t Transition) (models.Resolution, error)
	// DeleteResolution fails with ErrConflict while any vote references id.
	DeleteResolution(ctx context.Context, id string) error
}

// VoteLedger persists votes. InsertVote must enforce uniqueness of
// (resolution, voter) and the Active precondition at write time.
type VoteLedger interface {
	InsertVote(ctx context.Context, vote models.Vote) error
	HasVoted(ctx context.Context, resolutionID, voterID string) (bool, error)
	// ListVotes is ordered by cast time, then insertion order.
	ListVotes(ctx context.Context, resolutionID string) ([]models.Vote, error)
}

type DelegateStore interface {
	CreateDelegate(ctx context.Context, d models.Delegate) error
	GetDelegate(ctx context.Context, id string) (models.Delegate, error)
	ListDelegates(ctx context.Context, committeeID string) ([]models.Delegate, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	ResolutionStore
	VoteLedger
	DelegateStore
	Close() error
}

// Transition describes one guarded status change.
type Transition struct {
	From []models.Status
	To   models.Status
	At   time.Time
	// Settle runs on the frozen tally inside the store transaction when the
	// resolution leaves StatusActive. A non-nil error aborts the change.
	Settle func(models.Tally) (models.Outcome, error)
}

// Allows reports whether the transition may start from s.
func (t Transition) Allows(s models.Status) bool {
	return slices.Contains(t.From, s)
}
