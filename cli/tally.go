// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/munvote/models"
	"github.com/danielhkuo/munvote/store"
	"github.com/danielhkuo/munvote/voting"
)

// TallyCmd returns the tally command
func TallyCmd() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "tally <resolution-id>",
		Short: "Print the current tally of a resolution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg.DatabaseType, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer st.Close()

			tally, res, err := voting.NewLedger(st).Tally(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTally(cmd.OutOrStdout(), res, tally)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printTally(w io.Writer, res models.Resolution, tally models.Tally) {
	title := res.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(w, "%s %s [%s]\n", res.ID, title, statusColor(res.Status))
	fmt.Fprintf(w, "  %s, due %s\n", res.VotingType, humanize.Time(res.DueDate))

	pct := tally.Percentages()
	rows := []struct {
		choice models.Choice
		count  int
	}{
		{models.ChoiceYes, tally.Yes},
		{models.ChoiceNo, tally.No},
		{models.ChoiceAbstain, tally.Abstain},
	}
	for _, row := range rows {
		label := row.choice.Label(tally.Kind)
		fmt.Fprintf(w, "  %-8s %4d  %5.1f%%\n", label, row.count, pct[label])
	}
	fmt.Fprintf(w, "  %-8s %4d\n", "total", tally.Total)

	if res.Outcome != "" {
		outcome := color.New(color.FgRed).Sprint(res.Outcome)
		if res.Outcome == models.OutcomePassed {
			outcome = color.New(color.FgGreen).Sprint(res.Outcome)
		}
		fmt.Fprintf(w, "  outcome: %s\n", outcome)
	}
}

func statusColor(s models.Status) string {
	switch s {
	case models.StatusActive:
		return color.New(color.FgYellow).Sprint(s)
	case models.StatusPassed, models.StatusCompleted:
		return color.New(color.FgGreen).Sprint(s)
	case models.StatusRejected:
		return color.New(color.FgRed).Sprint(s)
	}
	return color.New(color.FgBlue).Sprint(s)
}
