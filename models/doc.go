// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - SubmitResolutionRequest: event_id, submission_block_id, voting_type, plus
    optional title, description, kind, country_id, committee_id
  - UpdateStatusRequest: status
  - CastVoteRequest: resolution_id or document_id, vote, note
  - RegisterDelegateRequest: name, country_id, committee_id

# Response Types

  - ResolutionResponse: resolution plus human-readable due_in
  - TallyResponse: tally and percentages
  - HasVotedResponse: has_voted
  - RegisterDelegateResponse: delegate, session_token
  - ErrorResponse: error, message, code

# Domain Types

  - Resolution: a proposal and its voting lifecycle state
  - Vote: one delegate's choice on one resolution
  - Tally: derived yes/no/abstain counts
  - Delegate: a registered conference participant

# Enumerations

Status values:

	StatusPending   = "pending"
	StatusActive    = "active"     (in_progress is accepted on input)
	StatusCompleted = "completed"
	StatusPassed    = "passed"
	StatusRejected  = "rejected"

Vote choices are stored canonically as yes/no/abstain. A resolution of
KindDocument renders and accepts them as for/against/abstain:

	ParseChoice(KindDocument, "for")  // ChoiceYes, true
	ParseChoice(KindDocument, "yes")  // "", false
	ChoiceNo.Label(KindDocument)      // "against"

Voting types:

	VotingSimpleMajority = "simple-majority"
	VotingTwoThirds      = "two-thirds"

Roles:

	RoleDelegate = "delegate"
	RoleChair    = "chair"
	RoleAdmin    = "admin"
*/
package models
