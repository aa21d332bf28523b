// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/munvote/models"
)

// ReviewWindow is added to the submission time to give the due date.
// The due date is informational; nothing expires automatically.
const ReviewWindow = 7 * 24 * time.Hour

// Actor is the authenticated caller of a lifecycle or voting operation.
// CommitteeID scopes chairs and delegates; admins are not scoped.
type Actor struct {
	ID          string
	Role        models.Role
	CommitteeID string
}

// Is reports whether the actor holds one of roles.
func (a Actor) Is(roles ...models.Role) bool {
	return a.ID != "" && slices.Contains(roles, a.Role)
}

// Governs reports whether the actor may manage res. A resolution
// submitted without a committee is open to every chair.
func (a Actor) Governs(res models.Resolution) bool {
	if a.Role == models.RoleAdmin {
		return true
	}
	return res.CommitteeID == "" || res.CommitteeID == a.CommitteeID
}

type rule struct {
	from  []models.Status
	roles []models.Role
}

// lifecycle lists, per target status, the states it may be entered from
// and who may enter it. Nothing re-enters pending.
var lifecycle = map[models.Status]rule{
	models.StatusPending: {
		roles: []models.Role{models.RoleChair, models.RoleAdmin},
	},
	models.StatusActive: {
		from:  []models.Status{models.StatusPending},
		roles: []models.Role{models.RoleChair},
	},
	models.StatusCompleted: {
		from:  []models.Status{models.StatusActive},
		roles: []models.Role{models.RoleChair},
	},
	models.StatusPassed: {
		from:  []models.Status{models.StatusActive},
		roles: []models.Role{models.RoleChair},
	},
	models.StatusRejected: {
		from:  []models.Status{models.StatusPending, models.StatusActive},
		roles: []models.Role{models.RoleChair, models.RoleAdmin},
	},
}

// Manager owns the resolution status state machine.
type Manager struct {
	store ResolutionStore
	opts  options
}

func NewManager(store ResolutionStore, opts ...Option) *Manager {
	return &Manager{store: store, opts: resolveOptions(opts)}
}

// Submit creates a pending resolution authored by the actor.
func (m *Manager) Submit(ctx context.Context, actor Actor, req models.SubmitResolutionRequest) (models.Resolution, error) {
	if !actor.Is(models.RoleDelegate, models.RoleChair, models.RoleAdmin) {
		return models.Resolution{}, fmt.Errorf("%w: submitting requires a session", ErrForbidden)
	}
	required := []struct{ name, value string }{
		{"event_id", req.EventID},
		{"submission_block_id", req.SubmissionBlockID},
		{"voting_type", req.VotingType},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return models.Resolution{}, fmt.Errorf("%w: %s is required", ErrInvalidInput, f.name)
		}
	}
	votingType, ok := models.ParseVotingType(req.VotingType)
	if !ok {
		return models.Resolution{}, fmt.Errorf("%w: %q", ErrInvalidVotingType, req.VotingType)
	}
	kind, ok := models.ParseKind(req.Kind)
	if !ok {
		return models.Resolution{}, fmt.Errorf("%w: kind must be resolution or document", ErrInvalidInput)
	}

	now := m.opts.timestamp()
	res := models.Resolution{
		ID:                m.opts.newID(),
		Kind:              kind,
		Title:             strings.TrimSpace(req.Title),
		Description:       strings.TrimSpace(req.Description),
		AuthorID:          actor.ID,
		CountryID:         strings.TrimSpace(req.CountryID),
		CommitteeID:       strings.TrimSpace(req.CommitteeID),
		EventID:           strings.TrimSpace(req.EventID),
		SubmissionBlockID: strings.TrimSpace(req.SubmissionBlockID),
		VotingType:        votingType,
		Status:            models.StatusPending,
		SubmittedAt:       now,
		DueDate:           now.Add(ReviewWindow),
	}
	if err := m.store.CreateResolution(ctx, res); err != nil {
		m.opts.logger.Error("resolution insert failed", "error", err)
		return models.Resolution{}, err
	}

	m.opts.logger.Info("resolution submitted",
		"resolution_id", res.ID,
		"author_id", res.AuthorID,
		"event_id", res.EventID,
		"voting_type", string(res.VotingType),
	)
	return res, nil
}

func (m *Manager) Get(ctx context.Context, id string) (models.Resolution, error) {
	return m.store.GetResolution(ctx, strings.TrimSpace(id))
}

func (m *Manager) List(ctx context.Context, filter models.ResolutionFilter) ([]models.Resolution, error) {
	return m.store.ListResolutions(ctx, filter)
}

// StartVoting opens a pending resolution for votes.
func (m *Manager) StartVoting(ctx context.Context, actor Actor, id string) (models.Resolution, error) {
	return m.transition(ctx, actor, id, models.StatusActive)
}

// EndVoting closes voting, freezing the tally and recording the outcome.
func (m *Manager) EndVoting(ctx context.Context, actor Actor, id string) (models.Resolution, error) {
	return m.transition(ctx, actor, id, models.StatusCompleted)
}

// Reject aborts a pending or active resolution.
func (m *Manager) Reject(ctx context.Context, actor Actor, id string) (models.Resolution, error) {
	return m.transition(ctx, actor, id, models.StatusRejected)
}

// UpdateStatus validates raw against the status enum, then applies the
// same rules as the dedicated operations.
func (m *Manager) UpdateStatus(ctx context.Context, actor Actor, id, raw string) (models.Resolution, error) {
	to, ok := models.ParseStatus(raw)
	if !ok {
		return models.Resolution{}, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return m.transition(ctx, actor, id, to)
}

// Delete removes a resolution that has no votes.
func (m *Manager) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.Is(models.RoleChair, models.RoleAdmin) {
		return fmt.Errorf("%w: deleting requires chair or admin", ErrForbidden)
	}
	res, err := m.store.GetResolution(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !actor.Governs(res) {
		return fmt.Errorf("%w: resolution belongs to committee %s", ErrForbidden, res.CommitteeID)
	}
	if err := m.store.DeleteResolution(ctx, res.ID); err != nil {
		return err
	}
	m.opts.logger.Info("resolution deleted", "resolution_id", res.ID, "actor_id", actor.ID)
	return nil
}

func (m *Manager) transition(ctx context.Context, actor Actor, id string, to models.Status) (models.Resolution, error) {
	r := lifecycle[to]
	if !actor.Is(r.roles...) {
		return models.Resolution{}, fmt.Errorf("%w: %s cannot move a resolution to %s", ErrForbidden, actor.Role, to)
	}

	res, err := m.store.GetResolution(ctx, strings.TrimSpace(id))
	if err != nil {
		return models.Resolution{}, err
	}
	if !actor.Governs(res) {
		return models.Resolution{}, fmt.Errorf("%w: resolution belongs to committee %s", ErrForbidden, res.CommitteeID)
	}

	t := Transition{From: r.from, To: to, At: m.opts.timestamp()}
	if !t.Allows(res.Status) {
		return models.Resolution{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, res.Status, to)
	}
	switch to {
	case models.StatusCompleted:
		t.Settle = func(tally models.Tally) (models.Outcome, error) {
			return Evaluate(res.VotingType, tally), nil
		}
	case models.StatusPassed:
		t.Settle = func(tally models.Tally) (models.Outcome, error) {
			if !Passes(res.VotingType, tally) {
				return "", fmt.Errorf("%w: %s needs more votes in favour", ErrThresholdNotMet, res.VotingType)
			}
			return models.OutcomePassed, nil
		}
	}

	updated, err := m.store.ApplyTransition(ctx, res.ID, t)
	if err != nil {
		return models.Resolution{}, err
	}

	m.opts.metrics.Transition(string(to))
	m.opts.logger.Info("resolution status changed",
		"resolution_id", res.ID,
		"from", string(res.Status),
		"to", string(updated.Status),
		"outcome", string(updated.Outcome),
		"actor_id", actor.ID,
	)
	return updated, nil
}
