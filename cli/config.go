// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/munvote/cliparse"
)

// loadConfig reads .env and the environment without validating, for the
// commands that need only part of the configuration.
func loadConfig() (cliparse.Config, error) {
	if err := cliparse.LoadDotEnv(".env"); err != nil {
		return cliparse.Config{}, err
	}
	return cliparse.FromEnv()
}

// storeFlags are shared by the commands that open the database directly.
type storeFlags struct {
	url    string
	dbType string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.url, "database-url", "d", "", "Database URL or SQLite path (default $DATABASE_URL)")
	cmd.Flags().StringVarP(&f.dbType, "database-type", "t", "", "Database type, sqlite or postgres (default $DATABASE_TYPE)")
}

func (f storeFlags) config() (cliparse.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cliparse.Config{}, err
	}
	if f.url != "" {
		cfg.DatabaseURL = f.url
	}
	if f.dbType != "" {
		cfg.DatabaseType = f.dbType
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return cliparse.Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}
	return cfg, nil
}
