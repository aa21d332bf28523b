// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the munvote API.

# Handler Types

Each handler is a struct over one service from package voting:

  - ResolutionHandler: submission, listing and the status lifecycle
  - VotingHandler: casting votes, vote listing, tallies and has-voted
  - DelegateHandler: delegate registration and lookup

	resolutionHandler := handlers.NewResolutionHandler(voting.NewManager(st))

# Resolution Lifecycle

Resolutions move pending → active → completed, or are settled as passed
or rejected:

	POST /resolutions              → Submit (any session)
	POST /resolutions/{id}/start   → Start (chair)
	POST /resolutions/{id}/end     → End (chair, records the outcome)
	POST /resolutions/{id}/reject  → Reject (chair or admin)
	PUT  /resolutions/{id}/status  → UpdateStatus (same rules, by name)
	DELETE /resolutions/{id}       → Delete (chair or admin, no votes)

The caller comes from the session placed in the request context by
middleware.WithSession. A chair manages only resolutions of the committee
in its session; admins manage any.

# Voting

	POST /resolutions/{id}/votes   → CastVote
	POST /votes                    → Cast (resolution_id or document_id in body)
	GET  /resolutions/{id}/{view}  → Subresource (votes, tally, has-voted)

The voter is always the session subject and must be a delegate registered
on the resolution's committee, otherwise the vote is refused with 403
forbidden. A second vote by the same delegate is refused with already_voted.

# Errors

Domain errors are mapped by writeError to a status and a machine readable
code in the error body, for example 400 not_active or 403 forbidden.
*/
package handlers
