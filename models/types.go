// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"strings"
	"time"
)

// Resolution status constants
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusPassed    Status = "passed"
	StatusRejected  Status = "rejected"
)

// ParseStatus maps a caller-supplied status to the canonical enum.
// Matching is case-insensitive; in_progress and its spellings mean active.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending":
		return StatusPending, true
	case "active", "in_progress", "in-progress", "inprogress":
		return StatusActive, true
	case "completed":
		return StatusCompleted, true
	case "passed":
		return StatusPassed, true
	case "rejected":
		return StatusRejected, true
	}
	return "", false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusPassed || s == StatusRejected
}

// Kind tags what is being voted on and selects the vote vocabulary.
type Kind string

const (
	KindResolution Kind = "resolution"
	KindDocument   Kind = "document"
)

func ParseKind(raw string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "resolution":
		return KindResolution, true
	case "document":
		return KindDocument, true
	}
	return "", false
}

// Choice is the canonical vote value. Documents use the labels
// for/against/abstain for the same three values.
type Choice string

const (
	ChoiceYes     Choice = "yes"
	ChoiceNo      Choice = "no"
	ChoiceAbstain Choice = "abstain"
)

// ParseChoice accepts only the vocabulary of the given kind.
func ParseChoice(kind Kind, raw string) (Choice, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "abstain" {
		return ChoiceAbstain, true
	}
	if kind == KindDocument {
		switch v {
		case "for":
			return ChoiceYes, true
		case "against":
			return ChoiceNo, true
		}
		return "", false
	}
	switch v {
	case "yes":
		return ChoiceYes, true
	case "no":
		return ChoiceNo, true
	}
	return "", false
}

// Label renders c in the vocabulary of kind.
func (c Choice) Label(kind Kind) string {
	if kind == KindDocument {
		switch c {
		case ChoiceYes:
			return "for"
		case ChoiceNo:
			return "against"
		}
	}
	return string(c)
}

// VotingType is the threshold rule applied to a completed tally.
type VotingType string

const (
	VotingSimpleMajority VotingType = "simple-majority"
	VotingTwoThirds      VotingType = "two-thirds"
)

func ParseVotingType(raw string) (VotingType, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("_", "-", " ", "-").Replace(v)
	switch VotingType(v) {
	case VotingSimpleMajority:
		return VotingSimpleMajority, true
	case VotingTwoThirds:
		return VotingTwoThirds, true
	}
	return "", false
}

// Outcome of a completed vote
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
)

// Roles carried by session tokens
type Role string

const (
	RoleDelegate Role = "delegate"
	RoleChair    Role = "chair"
	RoleAdmin    Role = "admin"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleDelegate:
		return RoleDelegate, true
	case RoleChair:
		return RoleChair, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// Request types

type SubmitResolutionRequest struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Kind              string `json:"kind"`
	CountryID         string `json:"country_id"`
	CommitteeID       string `json:"committee_id"`
	EventID           string `json:"event_id"`
	SubmissionBlockID string `json:"submission_block_id"`
	VotingType        string `json:"voting_type"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type CastVoteRequest struct {
	ResolutionID string `json:"resolution_id,omitempty"`
	DocumentID   string `json:"document_id,omitempty"`
	DelegateID   string `json:"delegate_id,omitempty"`
	Vote         string `json:"vote"`
	Note         string `json:"note,omitempty"`
}

type RegisterDelegateRequest struct {
	Name        string `json:"name"`
	CountryID   string `json:"country_id"`
	CommitteeID string `json:"committee_id"`
}

// Response types

type ResolutionResponse struct {
	Resolution
	DueIn string `json:"due_in"`
}

type TallyResponse struct {
	ResolutionID string             `json:"resolution_id"`
	Status       Status             `json:"status"`
	Tally        Tally              `json:"tally"`
	Percentages  map[string]float64 `json:"percentages"`
}

type HasVotedResponse struct {
	ResolutionID string `json:"resolution_id"`
	VoterID      string `json:"voter_id"`
	HasVoted     bool   `json:"has_voted"`
}

type RegisterDelegateResponse struct {
	Delegate     Delegate `json:"delegate"`
	SessionToken string   `json:"session_token"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// Domain types

type Resolution struct {
	ID                string     `json:"id"`
	Kind              Kind       `json:"kind"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	AuthorID          string     `json:"author_id"`
	CountryID         string     `json:"country_id"`
	CommitteeID       string     `json:"committee_id"`
	EventID           string     `json:"event_id"`
	SubmissionBlockID string     `json:"submission_block_id"`
	VotingType        VotingType `json:"voting_type"`
	Status            Status     `json:"status"`
	SubmittedAt       time.Time  `json:"submitted_at"`
	DueDate           time.Time  `json:"due_date"`
	VotingStartedAt   *time.Time `json:"voting_started_at,omitempty"`
	VotingEndedAt     *time.Time `json:"voting_ended_at,omitempty"`
	FinalTally        *Tally     `json:"final_tally,omitempty"`
	Outcome           Outcome    `json:"outcome,omitempty"`
}

// ResolutionFilter narrows a listing; empty fields match everything.
type ResolutionFilter struct {
	EventID           string
	SubmissionBlockID string
	CommitteeID       string
}

type Vote struct {
	ID           string    `json:"id"`
	ResolutionID string    `json:"resolution_id"`
	VoterID      string    `json:"voter_id"`
	Choice       Choice    `json:"-"`
	Label        string    `json:"vote"`
	Note         string    `json:"note,omitempty"`
	CastAt       time.Time `json:"cast_at"`
}

type Delegate struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CountryID   string    `json:"country_id"`
	CommitteeID string    `json:"committee_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}
