package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"appshelf/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past fetch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := "done"
				if run.Cancelled {
					status = "interrupted"
				}
				rows = append(rows, []string{
					shortRunID(run.RunID),
					humanize.Time(run.StartedAt),
					run.Duration().Round(time.Second).String(),
					strconv.Itoa(run.Total),
					strconv.Itoa(run.Cached),
					strconv.Itoa(run.Fetched),
					strconv.Itoa(run.Failed),
					status,
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				textColumn("Run", 0),
				textColumn("Started", 0),
				numberColumn("Duration"),
				numberColumn("Total"),
				numberColumn("Cached"),
				numberColumn("Fetched"),
				numberColumn("Failed"),
				textColumn("Status", 0),
			}, rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show (0 for all)")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-app outcomes of a run (run id prefix accepted)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			runID, err := resolveRunID(cmd, store, args[0])
			if err != nil {
				return err
			}
			outcomes, err := store.Outcomes(cmd.Context(), runID)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(outcomes))
			for _, o := range outcomes {
				if failedOnly && o.ErrorKind == "" {
					continue
				}
				result := "fetched"
				switch {
				case o.ErrorKind != "":
					result = o.ErrorKind
				case o.Cached:
					result = "cached"
				}
				rows = append(rows, []string{
					strconv.FormatUint(o.AppID, 10),
					o.Name,
					result,
					o.Error,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s\n", runID)
			fmt.Fprintln(out, renderTable([]column{
				numberColumn("App"),
				textColumn("Name", 40),
				textColumn("Result", 0),
				textColumn("Error", 60),
			}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed apps")
	return cmd
}

func openHistory(ctx *commandContext) (*history.Store, error) {
	root, err := ctx.cacheRoot()
	if err != nil {
		return nil, err
	}
	return history.Open(root)
}

func resolveRunID(cmd *cobra.Command, store *history.Store, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", errors.New("run id is required")
	}
	runs, err := store.Recent(cmd.Context(), 0)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, run := range runs {
		if run.RunID == prefix {
			return run.RunID, nil
		}
		if strings.HasPrefix(run.RunID, prefix) {
			matches = append(matches, run.RunID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no run matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous (%d matches)", prefix, len(matches))
	}
}
