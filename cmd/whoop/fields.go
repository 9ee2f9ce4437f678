// ABOUTME: CLI command for listing field option codes.
// ABOUTME: Prints code, kind, path and unit for each field of a variant.
package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/harperreed/whoop/internal/models"
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields [variant...]",
	Short: "List field option codes",
	Long: `List the option code, kind, JSON path and unit of every stored field.

The option code packs the variant bit (recovery 8, workout 4, cycle 2,
sleep 1) in the top nibble, the kind (0 int, 1 float) in the next one,
and the field offset in the low byte.

EXAMPLES:

  whoop fields            # All variants
  whoop fields recovery   # Recovery fields only`,
	ValidArgs: []string{"recovery", "sleep", "cycle", "workout"},
	RunE: func(cmd *cobra.Command, args []string) error {
		variants, err := parseVariants(args)
		if err != nil {
			return err
		}
		for _, v := range variants {
			printFields(cmd.OutOrStdout(), v)
		}
		return nil
	},
}

func printFields(w io.Writer, v models.Variant) {
	faint := color.New(color.Faint)
	fmt.Fprintln(w, color.New(color.Bold).Sprint(v.String()))
	for _, f := range models.Fields(v) {
		opt := ""
		if f.Optional {
			opt = faint.Sprint(" (optional)")
		}
		fmt.Fprintf(w, "  %s %s %s %s%s\n",
			faint.Sprintf("%#04x", uint16(f.Option)),
			padRight(f.Kind.String(), 5),
			padRight(truncate(f.Key(), 44), 44),
			f.Unit,
			opt)
	}
}

func init() {
	rootCmd.AddCommand(fieldsCmd)
}
