package main

import (
	"errors"

	"github.com/spf13/cobra"

	"appshelf/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify cache directory, library manifest and store connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status := newStatusWriter(cmd.OutOrStdout())

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				sev := severityOK
				if !result.Passed {
					sev = severityError
				}
				status.print(result.Name, sev, result.Detail)
			}
			if preflight.Failed(results) {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
