// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables for the given database type:

	if err := db.CreateSchema(conn, db.TypePostgres); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
SQLite stores timestamps as unix milliseconds; Postgres uses TIMESTAMPTZ.

# Tables

  - delegate: Registered conference participants
  - resolution: Resolutions and documents with their voting lifecycle state
  - vote: One vote per voter per resolution

# Relationships

	resolution 1──* vote

The vote foreign key uses ON DELETE RESTRICT so a resolution with votes
cannot be removed.

# Constraints

  - vote.(resolution_id, voter_id) is UNIQUE
  - resolution.status is one of pending, active, completed, passed, rejected
  - vote.choice is one of yes, no, abstain
*/
package db
