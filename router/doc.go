// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the munvote API.

# Route Registration

NewRouter returns the full handler chain (CORS, metrics, sessions, mux):

	handler := router.NewRouter(store, sessions, cfg, prometheus.NewRegistry())

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Resolutions (public reads):

	GET /resolutions                           - All resolutions
	GET /resolutions/{id}                      - One resolution
	GET /resolutions/event/{eventId}           - By event
	GET /resolutions/block/{blockId}           - By submission block
	GET /resolutions/committee/{committeeId}   - By committee

Lifecycle (bearer token required):

	POST   /resolutions              - Submit (any role)
	PUT    /resolutions/{id}/status  - Move to a named status
	POST   /resolutions/{id}/start   - Open voting (chair)
	POST   /resolutions/{id}/end     - Close voting and record the outcome (chair)
	POST   /resolutions/{id}/reject  - Reject (chair, admin)
	DELETE /resolutions/{id}         - Delete when no votes exist (chair, admin)

Voting:

	POST /resolutions/{id}/votes     - Cast the caller's vote
	POST /votes                      - Cast with resolution_id or document_id in the body
	GET  /resolutions/{id}/votes     - Ledger in cast order
	GET  /resolutions/{id}/tally     - Counts and percentages
	GET  /resolutions/{id}/has-voted - Whether voter_id (or the caller) voted

The three GET views share the pattern /resolutions/{id}/{view}.

Delegates:

	POST /delegates/register         - Register and receive a session token
	GET  /delegates/me               - The caller's delegate record
	GET  /committees/{id}/delegates  - Committee roster
*/
package router
