package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"appshelf/internal/cachestore"
	"appshelf/internal/history"
	"appshelf/internal/logging"
	"appshelf/internal/manifest"
	"appshelf/internal/pipeline"
	"appshelf/internal/preflight"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var manifestFlag string
	var limit int
	var seed uint64
	var verbose bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch store metadata for every app in the Steam library",
		Long: "Reads the library manifest, visits each installed app id once in random order " +
			"and fetches store metadata for ids not already cached. Failures are reported and skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			root, err := ctx.cacheRoot()
			if err != nil {
				return err
			}
			if check := preflight.CheckCacheDirectory("Cache directory", root); !check.Passed {
				return fmt.Errorf("cache directory not usable: %s", check.Detail)
			}

			lock, err := cachestore.AcquireLock(root)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			path, err := ctx.manifestPath(manifestFlag)
			if err != nil {
				return fmt.Errorf("resolve library manifest: %w", err)
			}
			lib, err := manifest.Load(path)
			if err != nil {
				return err
			}
			if lib.Skipped > 0 {
				logging.WarnWithContext(logger, "manifest lists non-numeric app keys",
					"manifest_keys_skipped",
					logging.Int("skipped", lib.Skipped),
					logging.String("path", path),
					logging.String(logging.FieldErrorHint, "the manifest may be hand-edited or from a newer client"),
					logging.String(logging.FieldImpact, "those entries are ignored"))
			}

			var rng *rand.Rand
			if cmd.Flags().Changed("seed") {
				rng = pipeline.NewSeededRand(seed)
			}
			ids := pipeline.Plan(lib, rng, limit)

			store, err := ctx.loadStore()
			if err != nil {
				return err
			}
			resolver, err := ctx.newResolver(store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			status := newStatusWriter(out)
			fmt.Fprintf(out, "Resolving %d apps from %s (%d cached)\n", len(ids), path, store.Len())

			opts := []pipeline.Option{pipeline.WithLogger(logger)}
			if verbose {
				opts = append(opts, pipeline.WithObserver(func(o pipeline.Outcome) {
					printOutcome(status, o)
				}))
			}
			report, runErr := pipeline.Run(cmd.Context(), pipeline.Sequence(ids), resolver, opts...)

			flushErr := resolver.Flush()
			if flushErr != nil {
				logging.WarnWithContext(logger, "final cache save failed", "cache_save_failed",
					logging.Error(flushErr),
					logging.String("path", store.Path()),
					logging.String(logging.FieldErrorHint, "check free space and permissions of the cache directory"),
					logging.String(logging.FieldImpact, "records fetched since the last save will be fetched again"))
			}

			if err := recordHistory(root, report); err != nil {
				logging.WarnWithContext(logger, "failed to record run history", "history_record_failed",
					logging.Error(err),
					logging.String(logging.FieldRunID, report.RunID),
					logging.String(logging.FieldImpact, "run is missing from appshelf history"))
			}

			printRunSummary(out, status, report)

			if runErr != nil {
				return runErr
			}
			return flushErr
		},
	}

	cmd.Flags().StringVarP(&manifestFlag, "manifest", "m", "", "Library manifest path (default: platform Steam location)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Resolve at most N apps (0 for all)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible visiting order")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print one line per app")
	return cmd
}

// recordHistory stores the report. The run itself already succeeded, so the
// caller only warns on failure.
func recordHistory(root string, report pipeline.Report) error {
	store, err := history.Open(root)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return store.Record(ctx, report)
}

func printOutcome(status statusWriter, o pipeline.Outcome) {
	label := "App " + strconv.FormatUint(o.ID, 10)
	switch {
	case o.Err == nil && o.Cached:
		status.print(label, severityInfo, "cached · "+o.Name)
	case o.Err == nil:
		status.print(label, severityOK, "fetched · "+o.Name)
	case errors.Is(o.Err, cachestore.ErrPersistence):
		status.print(label, severityWarn, "fetched, not saved · "+o.Name)
	default:
		status.print(label, severityError, pipeline.Classify(o.Err))
	}
}

func printRunSummary(out io.Writer, status statusWriter, report pipeline.Report) {
	stats := report.Stats()
	sev := severityOK
	if report.Cancelled || stats.Failed > 0 || stats.Unsaved > 0 {
		sev = severityWarn
	}

	message := fmt.Sprintf("%d apps: %d cached, %d fetched, %d failed in %s",
		stats.Total, stats.Cached, stats.Fetched, stats.Failed, stats.Duration.Round(time.Millisecond))
	if report.Cancelled {
		message += " (interrupted)"
	}
	status.print("Run "+shortRunID(report.RunID), sev, message)
	if stats.Unsaved > 0 {
		status.print("Cache", severityWarn,
			fmt.Sprintf("%s not saved to disk", humanize.Comma(int64(stats.Unsaved))))
	}

	failures := report.Failures()
	if len(failures) == 0 {
		return
	}
	rows := make([][]string, 0, len(failures))
	for _, o := range failures {
		rows = append(rows, []string{
			strconv.FormatUint(o.ID, 10),
			pipeline.Classify(o.Err),
			o.Err.Error(),
		})
	}
	fmt.Fprintln(out, renderTable([]column{numberColumn("App"), textColumn("Kind", 0), textColumn("Error", 80)}, rows))
}

func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
