package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"appshelf/internal/cachestore"
	"appshelf/internal/catalog"
	"appshelf/internal/logging"
)

func newGetCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get <app-id>...",
		Short: "Resolve specific app ids through the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseAppIDs(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			root, err := ctx.cacheRoot()
			if err != nil {
				return err
			}
			lock, err := cachestore.AcquireLock(root)
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			store, err := ctx.loadStore()
			if err != nil {
				return err
			}
			resolver, err := ctx.newResolver(store)
			if err != nil {
				return err
			}

			records := make([]catalog.Record, 0, len(ids))
			rows := make([][]string, 0, len(ids))
			failed := 0
			for _, id := range ids {
				source := "cache"
				if !resolver.Cached(id) {
					source = "store"
				}
				record, err := resolver.Resolve(cmd.Context(), id)
				switch {
				case err == nil:
				case errors.Is(err, cachestore.ErrPersistence):
					source = "store (unsaved)"
					logging.WarnWithContext(logger, "record fetched but cache not saved", "cache_save_failed",
						logging.Uint64(logging.FieldAppID, id),
						logging.Error(err))
				default:
					if ctxErr := cmd.Context().Err(); ctxErr != nil {
						return errors.Join(ctxErr, resolver.Flush())
					}
					failed++
					rows = append(rows, []string{strconv.FormatUint(id, 10), "", "error", err.Error()})
					continue
				}
				records = append(records, record)
				rows = append(rows, []string{
					strconv.FormatUint(id, 10),
					record.Name,
					source,
					catalog.HeaderImageURL(cfg.Catalog.CDNURL, id),
				})
			}
			if err := resolver.Flush(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(records); err != nil {
					return fmt.Errorf("encode records: %w", err)
				}
			} else {
				fmt.Fprintln(out, renderTable([]column{
					numberColumn("App"),
					textColumn("Name", 40),
					textColumn("Source", 0),
					textColumn("Header", 80),
				}, rows))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d app ids could not be resolved", failed, len(ids))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resolved records as JSON")
	return cmd
}

func parseAppIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid app id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
