package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"github.com/spf13/cobra"
)

var (
	matchAsync   bool
	pollInterval time.Duration
	runsFoundID  string
	runsLimit    int
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the matching service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		health, err := newClient().Ping(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "status=%v oracle_configured=%v active_sessions=%v\n",
			health["status"], health["oracle_configured"], health["active_sessions"])
		return nil
	},
}

var matchCmd = &cobra.Command{
	Use:   "match <found-item-id>",
	Short: "Rank lost items against a found item",
	Long: `Ask the oracle which lost items may match the given found item.

With --async the match runs inside a session and matchctl polls until the
result is ready, the way an interactive client would.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		c := newClient()
		foundID := args[0]

		if !matchAsync {
			resp, err := c.Match(ctx, foundID)
			if err != nil {
				return err
			}
			return printMatches(cmd.OutOrStdout(), resp.Matches)
		}

		session, err := c.CreateSession(ctx)
		if err != nil {
			return err
		}
		state, err := c.Select(ctx, session.ID, foundID, false)
		if err != nil {
			return err
		}

		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for state.Loading {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			if state, err = c.GetSession(ctx, session.ID); err != nil {
				return err
			}
		}

		if state.Error != "" {
			return fmt.Errorf("%s", state.Error)
		}
		return printMatches(cmd.OutOrStdout(), state.Matches)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent match runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		runs, err := newClient().ListRuns(ctx, runsFoundID, runsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tFOUND ITEM\tSTATUS\tCANDIDATES\tMATCHES\tPROVIDER\tDURATION")
		for _, run := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%dms\n",
				run.StartedAt.Format(time.RFC3339), run.FoundItemID, run.Status,
				run.CandidateCount, run.MatchCount, run.Provider, run.DurationMillis)
		}
		return w.Flush()
	},
}

func printMatches(out io.Writer, matches []models.ScoredMatch) error {
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches found.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CONFIDENCE\tBAND\tID\tITEM\tOWNER\tREASONING")
	for _, m := range matches {
		fmt.Fprintf(w, "%.0f%%\t%s\t%s\t%s\t%s\t%s\n",
			m.Confidence, m.Band, m.ID, m.ItemName, m.Profile.FullName, m.Reasoning)
	}
	return w.Flush()
}

func init() {
	matchCmd.Flags().BoolVar(&matchAsync, "async", false, "run inside a session and poll for the result")
	matchCmd.Flags().DurationVar(&pollInterval, "poll", 500*time.Millisecond, "poll interval with --async")

	runsCmd.Flags().StringVar(&runsFoundID, "found", "", "only runs for this found item")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs")
}
