package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"appshelf/internal/cachestore"
	"appshelf/internal/catalog"
	"appshelf/internal/history"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local record cache",
	}

	cacheCmd.AddCommand(newCachePathCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))

	return cacheCmd
}

func newCachePathCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := ctx.cacheRoot()
			if err != nil {
				return err
			}
			format, err := ctx.cacheFormat()
			if err != nil {
				return err
			}
			store := cachestore.New(root, format, nil)
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and entry count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.loadStore()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Directory: %s\n", store.Root())
			fmt.Fprintf(out, "File:      %s\n", store.Path())
			fmt.Fprintf(out, "Format:    %s\n", store.Format())
			fmt.Fprintf(out, "Entries:   %s\n", humanize.Comma(int64(store.Len())))

			info, err := os.Stat(store.Path())
			switch {
			case err == nil:
				fmt.Fprintf(out, "Size:      %s\n", humanize.IBytes(uint64(info.Size())))
				fmt.Fprintf(out, "Updated:   %s\n", humanize.Time(info.ModTime()))
			case errors.Is(err, fs.ErrNotExist):
				fmt.Fprintln(out, "Size:      (not written yet)")
			default:
				return fmt.Errorf("stat cache file: %w", err)
			}

			if _, err := os.Stat(store.Root()); err == nil {
				lock, err := cachestore.AcquireLock(store.Root())
				if errors.Is(err, cachestore.ErrCacheBusy) {
					fmt.Fprintln(out, "Locked:    yes (a run is in progress)")
				} else if err == nil {
					_ = lock.Release()
					fmt.Fprintln(out, "Locked:    no")
				}
			}

			if info, err := os.Stat(filepath.Join(store.Root(), history.FileName)); err == nil {
				fmt.Fprintf(out, "History:   %s\n", humanize.IBytes(uint64(info.Size())))
			}
			return nil
		},
	}
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var showImages bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.loadStore()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ids := store.IDs()
			if len(ids) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			if limit > 0 && limit < len(ids) {
				ids = ids[:limit]
			}

			cols := []column{
				numberColumn("App"),
				textColumn("Name", 40),
				textColumn("Type", 0),
				textColumn("Released", 0),
				textColumn("Platforms", 0),
			}
			if showImages {
				cols = append(cols, textColumn("Header", 80))
			}

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				record, _ := store.Lookup(id)
				row := []string{
					strconv.FormatUint(id, 10),
					record.Name,
					record.Type,
					record.ReleaseDate.Date,
					platformSummary(record.Platforms),
				}
				if showImages {
					row = append(row, catalog.HeaderImageURL(cfg.Catalog.CDNURL, id))
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(out, renderTable(cols, rows))
			if len(ids) < store.Len() {
				fmt.Fprintf(out, "Showing %d of %s entries\n", len(ids), humanize.Comma(int64(store.Len())))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most N entries (0 for all)")
	cmd.Flags().BoolVar(&showImages, "images", false, "Include header image URLs")
	return cmd
}

func platformSummary(p catalog.Platforms) string {
	var parts []string
	if p.Windows {
		parts = append(parts, "win")
	}
	if p.Mac {
		parts = append(parts, "mac")
	}
	if p.Linux {
		parts = append(parts, "linux")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, "/")
}
