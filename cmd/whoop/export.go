// ABOUTME: CLI command for exporting the record cache.
// ABOUTME: Fetches every variant, then writes JSON, YAML, or Markdown.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/harperreed/whoop/internal/models"
	"github.com/spf13/cobra"
)

var (
	exportOutput  string
	exportVariant string
)

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export the latest records",
	Long: `Fetch every variant and export the cache.

FORMATS:

  json       Full JSON export
  yaml       YAML export (human-readable)
  markdown   Markdown tables, one per variant

OPTIONS:

  --output, -o    Write to file instead of stdout
  --variant, -v   Only export one variant (markdown only)

EXAMPLES:

  whoop export json                        # Export as JSON
  whoop export yaml -o whoop.yaml          # Save YAML to a file
  whoop export markdown --variant sleep    # Sleep table only`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"json", "yaml", "markdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		format := args[0]

		var variant *models.Variant
		if exportVariant != "" {
			v, err := models.ParseVariant(exportVariant)
			if err != nil {
				return err
			}
			variant = &v
		}

		for _, v := range models.AllVariants {
			if _, err := fetchOnce(cmd.Context(), a.client, v); err != nil {
				a.logger.Warn("fetch before export", "variant", v.String(), "error", err)
			}
		}

		var data []byte
		var err error

		switch format {
		case "json":
			data, err = a.store.ExportJSON()
		case "yaml":
			data, err = a.store.ExportYAML()
		case "markdown":
			data = []byte(a.store.ExportMarkdown(variant))
		default:
			return fmt.Errorf("unknown format: %s (use json, yaml, or markdown)", format)
		}

		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		if exportOutput != "" {
			if err := os.WriteFile(exportOutput, data, 0600); err != nil {
				return fmt.Errorf("failed to write file: %w", err)
			}
			color.Green("✓ Exported to %s", exportOutput)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}

		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default: stdout)")
	exportCmd.Flags().StringVarP(&exportVariant, "variant", "v", "", "only export one variant (markdown only)")

	rootCmd.AddCommand(exportCmd)
}
