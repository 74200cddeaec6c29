package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/LdDl/mot-seqid/internal/reportstore"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var dbPath string

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored run reports",
	}
	runsCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Report database path (defaults to storage.database_path)")

	runsCmd.AddCommand(newRunsListCommand(ctx, &dbPath))
	runsCmd.AddCommand(newRunsShowCommand(ctx, &dbPath))
	runsCmd.AddCommand(newRunsDeleteCommand(ctx, &dbPath))
	return runsCmd
}

func newRunsListCommand(ctx *commandContext, dbPath *string) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var runs []reportstore.RunSummary
			err := ctx.withStore(cmd.Context(), *dbPath, func(store *reportstore.Store) error {
				var err error
				runs, err = store.ListRuns(cmd.Context(), limit)
				return err
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, runs)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs stored")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.RunID.String(),
					run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					run.Source,
					strconv.Itoa(run.Frames),
					strconv.Itoa(run.Minted),
					strconv.Itoa(run.FinalTracks),
					strconv.Itoa(run.Merges),
					fmt.Sprintf("%.1f", run.CompositeScore),
					string(run.Rating),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Created", "Source", "Frames", "Minted", "Final", "Merges", "Score", "Rating"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs (0 lists all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newRunsShowCommand(ctx *commandContext, dbPath *string) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show report of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), *dbPath, func(store *reportstore.Store) error {
				report, err := store.GetRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, report)
				}
				printReport(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output full report as JSON")
	return cmd
}

func newRunsDeleteCommand(ctx *commandContext, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runID, err := parseRunID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), *dbPath, func(store *reportstore.Store) error {
				if err := store.DeleteRun(cmd.Context(), runID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", runID)
				return nil
			})
		},
	}
}

func parseRunID(value string) (uuid.UUID, error) {
	runID, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", value, err)
	}
	return runID, nil
}
