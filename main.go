package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/danielhkuo/munvote/cli"
)

const programName = "munvote"

func main() {
	// Match GOMAXPROCS to the container CPU quota; the undo func is not needed
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		slog.Debug(fmt.Sprintf(format, v...), "component", programName)
	})); err != nil {
		slog.Error("maxprocs", "error", err)
	}

	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Resolution submission and voting service for MUN conferences",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(
		cli.ServeCmd(),
		cli.SchemaCmd(),
		cli.TokenCmd(),
		cli.TallyCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
