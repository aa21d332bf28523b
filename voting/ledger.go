// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/danielhkuo/munvote/models"
)

const maxNoteLength = 1000

// LedgerStore is the persistence the ledger reads and appends to.
type LedgerStore interface {
	GetResolution(ctx context.Context, id string) (models.Resolution, error)
	GetDelegate(ctx context.Context, id string) (models.Delegate, error)
	VoteLedger
}

// Ledger records delegate votes and derives tallies from them.
type Ledger struct {
	store LedgerStore
	opts  options
}

func NewLedger(store LedgerStore, opts ...Option) *Ledger {
	return &Ledger{store: store, opts: resolveOptions(opts)}
}

// VoteInput is one delegate's ballot. Choice is in the vocabulary of the
// resolution kind (yes/no/abstain or for/against/abstain).
type VoteInput struct {
	ResolutionID string
	Choice       string
	Note         string
}

// CastVote appends a vote by voter. Only registered delegates of the
// resolution's committee may vote; anyone else gets ErrForbidden. It fails
// with ErrInvalidChoice, ErrAlreadyVoted or ErrResolutionNotActive and
// leaves the ledger untouched in that case.
func (l *Ledger) CastVote(ctx context.Context, voter Actor, in VoteInput) (models.Vote, error) {
	resolutionID := strings.TrimSpace(in.ResolutionID)
	voterID := strings.TrimSpace(voter.ID)
	if resolutionID == "" {
		return models.Vote{}, fmt.Errorf("%w: resolution_id is required", ErrInvalidInput)
	}
	if voterID == "" {
		return models.Vote{}, fmt.Errorf("%w: voter is required", ErrInvalidInput)
	}
	note := strings.TrimSpace(in.Note)
	if utf8.RuneCountInString(note) > maxNoteLength {
		return models.Vote{}, fmt.Errorf("%w: note must be at most %d characters", ErrInvalidInput, maxNoteLength)
	}
	if !voter.Is(models.RoleDelegate) {
		l.opts.metrics.VoteRejected("forbidden")
		return models.Vote{}, fmt.Errorf("%w: only delegates vote, not %s", ErrForbidden, voter.Role)
	}

	res, err := l.store.GetResolution(ctx, resolutionID)
	if err != nil {
		return models.Vote{}, err
	}
	if err := l.eligible(ctx, voterID, res); err != nil {
		if errors.Is(err, ErrForbidden) {
			l.opts.metrics.VoteRejected("forbidden")
		}
		return models.Vote{}, err
	}

	choice, ok := models.ParseChoice(res.Kind, in.Choice)
	if !ok {
		l.opts.metrics.VoteRejected("invalid_choice")
		return models.Vote{}, fmt.Errorf("%w: %q is not a valid %s vote", ErrInvalidChoice, in.Choice, res.Kind)
	}

	vote := models.Vote{
		ID:           l.opts.newID(),
		ResolutionID: resolutionID,
		VoterID:      voterID,
		Choice:       choice,
		Note:         note,
		CastAt:       l.opts.timestamp(),
	}
	if err := l.store.InsertVote(ctx, vote); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyVoted):
			l.opts.metrics.VoteRejected("already_voted")
		case errors.Is(err, ErrResolutionNotActive):
			l.opts.metrics.VoteRejected("not_active")
		default:
			l.opts.logger.Error("vote insert failed",
				"resolution_id", resolutionID,
				"voter_id", voterID,
				"error", err,
			)
		}
		return models.Vote{}, err
	}
	vote.Label = choice.Label(res.Kind)

	l.opts.metrics.VoteCast(string(res.Kind), string(choice))
	l.opts.logger.Info("vote cast",
		"resolution_id", resolutionID,
		"vote_id", vote.ID,
		"voter_id", voterID,
		"choice", vote.Label,
	)
	return vote, nil
}

// eligible checks the delegate registry. The registered committee is
// authoritative over the one carried in the session.
func (l *Ledger) eligible(ctx context.Context, voterID string, res models.Resolution) error {
	d, err := l.store.GetDelegate(ctx, voterID)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %s is not a registered delegate", ErrForbidden, voterID)
	}
	if err != nil {
		return err
	}
	if res.CommitteeID != "" && d.CommitteeID != res.CommitteeID {
		return fmt.Errorf("%w: delegate %s sits on %s, not %s", ErrForbidden, voterID, d.CommitteeID, res.CommitteeID)
	}
	return nil
}

// HasVoted lets callers skip offering a ballot that would be refused.
// CastVote does not rely on it.
func (l *Ledger) HasVoted(ctx context.Context, resolutionID, voterID string) (bool, error) {
	if strings.TrimSpace(voterID) == "" {
		return false, fmt.Errorf("%w: voter_id is required", ErrInvalidInput)
	}
	if _, err := l.store.GetResolution(ctx, resolutionID); err != nil {
		return false, err
	}
	return l.store.HasVoted(ctx, resolutionID, strings.TrimSpace(voterID))
}

// ListVotes returns votes in cast order with labels for the resolution kind.
func (l *Ledger) ListVotes(ctx context.Context, resolutionID string) ([]models.Vote, error) {
	res, err := l.store.GetResolution(ctx, resolutionID)
	if err != nil {
		return nil, err
	}
	votes, err := l.store.ListVotes(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	for i := range votes {
		votes[i].Label = votes[i].Choice.Label(res.Kind)
	}
	return votes, nil
}

// Tally recomputes the counts from the ledger on every call.
func (l *Ledger) Tally(ctx context.Context, resolutionID string) (models.Tally, models.Resolution, error) {
	res, err := l.store.GetResolution(ctx, resolutionID)
	if err != nil {
		return models.Tally{}, models.Resolution{}, err
	}
	votes, err := l.store.ListVotes(ctx, res.ID)
	if err != nil {
		return models.Tally{}, models.Resolution{}, err
	}
	return Count(res.Kind, votes), res, nil
}
