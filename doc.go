// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the munvote API server.

munvote tracks resolutions (and documents) submitted by delegates at a Model
United Nations conference through review and voting, and keeps a ledger of
one vote per delegate per resolution.

# Starting the Server

The server reads environment variables (or a .env file) and CLI flags:

	SESSION_SECRET=... DATABASE_URL=munvote.db munvote serve

Or with flags:

	munvote serve -p 3318 -d "postgres://..." -t postgres

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SESSION_SECRET (--session-secret): Secret for signing session tokens

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - SESSION_TTL (--session-ttl): Session lifetime (default: 12h)
  - ALLOWED_ORIGIN (--origin): CORS origin (default: echo the request)

# Commands

  - serve: run the HTTP API
  - schema: create the tables and exit
  - token: issue a session token for a chair, admin or delegate
  - tally: print the tally of one resolution

# Architecture

  - voting: lifecycle manager, vote ledger and tally rules
  - store: SQLite and PostgreSQL persistence behind voting.Store
  - handlers: HTTP request handlers (resolutions, votes, delegates)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, sessions, logging, metrics, JSON helpers
  - models: Request/response and domain types
  - auth: Session token signing and validation
  - metrics: Prometheus collectors
  - db: Schema creation
  - cliparse: Configuration parsing
  - cli: Subcommands

See package documentation for each component.
*/
package main
