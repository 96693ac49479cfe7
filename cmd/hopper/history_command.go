package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hopper/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past ingest runs",
	}

	historyCmd.AddCommand(newHistoryRunsCommand(ctx))
	historyCmd.AddCommand(newHistoryMovesCommand(ctx))

	return historyCmd
}

func (c *commandContext) openHistory() (*history.Store, error) {
	cfg := c.configValue()
	store, err := history.Open(filepath.Join(cfg.StateDir(), "history.db"))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	return store, nil
}

func newHistoryRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent ingest runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No ingest runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				finished := "-"
				if run.FinishedAt != nil {
					finished = run.FinishedAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					finished,
					run.SourcePath,
					strconv.Itoa(run.SuccessCount),
					strconv.Itoa(run.FailCount),
					humanize.IBytes(uint64(run.BytesMoved)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"RUN", "STARTED", "FINISHED", "SOURCE", "MOVED", "FAILED", "DATA"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newHistoryMovesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "moves <run-id>",
		Short: "List per-file outcomes for one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			moves, err := store.ListMoves(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(moves) == 0 {
				fmt.Fprintf(out, "No moves recorded for run %s\n", args[0])
				return nil
			}

			rows := make([][]string, 0, len(moves))
			for _, move := range moves {
				detail := move.DestPath
				if move.Outcome == history.OutcomeFailed {
					detail = move.Detail
				}
				rows = append(rows, []string{
					string(move.Outcome),
					move.SourcePath,
					detail,
					humanize.IBytes(uint64(move.Bytes)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"OUTCOME", "SOURCE", "DESTINATION / DETAIL", "SIZE"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
