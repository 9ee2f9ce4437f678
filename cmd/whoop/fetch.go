// ABOUTME: CLI command for fetching the latest WHOOP records.
// ABOUTME: Fetches each requested variant once and prints the stored record.
package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/ingest"
	"github.com/harperreed/whoop/internal/storage"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [variant...]",
	Short: "Fetch the latest records",
	Long: `Fetch the most recent record of each variant from the WHOOP API.

VARIANTS:

  recovery, sleep, cycle, workout (default: all four)

When the access token has expired the first request refreshes it and
the fetch is tried once more.

EXAMPLES:

  whoop fetch                  # Fetch everything
  whoop fetch recovery         # Fetch today's recovery
  whoop fetch sleep workout    # Fetch two variants`,
	ValidArgs: []string{"recovery", "sleep", "cycle", "workout"},
	RunE: func(cmd *cobra.Command, args []string) error {
		variants, err := parseVariants(args)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, v := range variants {
			outcome, err := fetchOnce(cmd.Context(), a.client, v)
			if outcome != client.OK || (err != nil && !errors.Is(err, ingest.ErrNotScored)) {
				failed++
				if err == nil {
					err = fmt.Errorf("outcome %s", outcome)
				}
				fmt.Fprintln(out, color.RedString("✗ %s: %v", v, err))
				continue
			}
			if err != nil {
				fmt.Fprintln(out, color.YellowString("! %s is not scored yet", v))
			}

			rec, err := storage.Lookup(a.store, v, 0)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", v, err)
			}
			printRecord(out, rec)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d fetches failed", failed, len(variants))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
