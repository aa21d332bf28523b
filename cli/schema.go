// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danielhkuo/munvote/store"
)

// SchemaCmd returns the schema command
func SchemaCmd() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Create the database tables and exit",
		Long: `Apply the schema to the configured database.
Safe to run repeatedly; existing tables are left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DatabaseType, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return fmt.Errorf("close store: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\n", cfg.DatabaseType)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
