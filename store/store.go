// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package store opens the configured persistence backend.
package store

import (
	"fmt"

	dbschema "github.com/danielhkuo/munvote/db"
	"github.com/danielhkuo/munvote/store/postgres"
	"github.com/danielhkuo/munvote/store/sqlite"
	"github.com/danielhkuo/munvote/voting"
)

// Open returns the store for dbType, connected to dsn with the schema applied.
func Open(dbType, dsn string) (voting.Store, error) {
	switch dbType {
	case "", dbschema.TypeSQLite:
		return sqlite.Open(dsn)
	case dbschema.TypePostgres:
		return postgres.Open(dsn)
	}
	return nil, fmt.Errorf("unsupported database type %q", dbType)
}
