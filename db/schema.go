// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// Supported database types
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	var ddl string
	switch dbType {
	case TypeSQLite:
		ddl = sqliteSchema
	case TypePostgres:
		ddl = postgresSchema
	default:
		return fmt.Errorf("unsupported database type %q", dbType)
	}

	_, err := db.Exec(ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SQLite keeps timestamps as unix milliseconds.
const sqliteSchema = `
-- Delegates
CREATE TABLE IF NOT EXISTS delegate (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    country_id TEXT NOT NULL,
    committee_id TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_delegate_committee_id ON delegate(committee_id);

-- Resolutions
CREATE TABLE IF NOT EXISTS resolution (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL DEFAULT 'resolution' CHECK (kind IN ('resolution', 'document')),
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    author_id TEXT NOT NULL,
    country_id TEXT NOT NULL DEFAULT '',
    committee_id TEXT NOT NULL DEFAULT '',
    event_id TEXT NOT NULL,
    submission_block_id TEXT NOT NULL,
    voting_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'completed', 'passed', 'rejected')),
    submitted_at INTEGER NOT NULL,
    due_date INTEGER NOT NULL,
    voting_started_at INTEGER,
    voting_ended_at INTEGER,
    final_yes INTEGER,
    final_no INTEGER,
    final_abstain INTEGER,
    outcome TEXT
);

CREATE INDEX IF NOT EXISTS idx_resolution_event_id ON resolution(event_id);
CREATE INDEX IF NOT EXISTS idx_resolution_block_id ON resolution(submission_block_id);
CREATE INDEX IF NOT EXISTS idx_resolution_committee_id ON resolution(committee_id);

-- Votes (one per resolution per voter)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    resolution_id TEXT NOT NULL REFERENCES resolution(id) ON DELETE RESTRICT,
    voter_id TEXT NOT NULL,
    choice TEXT NOT NULL CHECK (choice IN ('yes', 'no', 'abstain')),
    note TEXT NOT NULL DEFAULT '',
    cast_at INTEGER NOT NULL,
    UNIQUE (resolution_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_resolution_id ON vote(resolution_id);
`

const postgresSchema = `
-- Delegates
CREATE TABLE IF NOT EXISTS delegate (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    country_id TEXT NOT NULL,
    committee_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_delegate_committee_id ON delegate(committee_id);

-- Resolutions
CREATE TABLE IF NOT EXISTS resolution (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL DEFAULT 'resolution' CHECK (kind IN ('resolution', 'document')),
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    author_id TEXT NOT NULL,
    country_id TEXT NOT NULL DEFAULT '',
    committee_id TEXT NOT NULL DEFAULT '',
    event_id TEXT NOT NULL,
    submission_block_id TEXT NOT NULL,
    voting_type TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'active', 'completed', 'passed', 'rejected')),
    submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    due_date TIMESTAMPTZ NOT NULL,
    voting_started_at TIMESTAMPTZ,
    voting_ended_at TIMESTAMPTZ,
    final_yes INTEGER,
    final_no INTEGER,
    final_abstain INTEGER,
    outcome TEXT
);

CREATE INDEX IF NOT EXISTS idx_resolution_event_id ON resolution(event_id);
CREATE INDEX IF NOT EXISTS idx_resolution_block_id ON resolution(submission_block_id);
CREATE INDEX IF NOT EXISTS idx_resolution_committee_id ON resolution(committee_id);

-- Votes (one per resolution per voter)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL,
    resolution_id TEXT NOT NULL REFERENCES resolution(id) ON DELETE RESTRICT,
    voter_id TEXT NOT NULL,
    choice TEXT NOT NULL CHECK (choice IN ('yes', 'no', 'abstain')),
    note TEXT NOT NULL DEFAULT '',
    cast_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (resolution_id, voter_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_resolution_id ON vote(resolution_id);
`
