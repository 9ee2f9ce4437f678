// ABOUTME: Output helpers shared by the whoop subcommands.
// ABOUTME: Formats records and fields for the terminal and parses variant arguments.
package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/whoop/internal/client"
	"github.com/harperreed/whoop/internal/display"
	"github.com/harperreed/whoop/internal/models"
	"github.com/harperreed/whoop/internal/storage"
)

type fetcher interface {
	Fetch(ctx context.Context, v models.Variant) (client.Outcome, error)
}

// fetchOnce fetches v and, when the first attempt was deferred by a token
// refresh, tries once more.
func fetchOnce(ctx context.Context, f fetcher, v models.Variant) (client.Outcome, error) {
	outcome, err := f.Fetch(ctx, v)
	if outcome != client.Deferred || err != nil {
		return outcome, err
	}
	return f.Fetch(ctx, v)
}

// parseVariants maps args to variants. No args means all of them.
func parseVariants(args []string) ([]models.Variant, error) {
	if len(args) == 0 {
		return models.AllVariants, nil
	}
	out := make([]models.Variant, 0, len(args))
	for _, arg := range args {
		v, err := models.ParseVariant(arg)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func formatValue(f models.Field, v storage.Value) string {
	switch {
	case f.Role == models.RoleState:
		return models.ScoreState(v.Int).String()
	case f.Kind == models.KindFloat:
		return fmt.Sprintf("%.2f", v.Float)
	default:
		return v.String()
	}
}

// printRecord writes a header line and one line per field.
func printRecord(w io.Writer, rec *storage.Record) {
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	headline, _ := rec.Value(models.HeadlineField(rec.Variant))
	swatch := faint.Sprint("○")
	if rec.ScoreState() == models.ScoreScored {
		c := display.ColorFor(rec.Variant, headline.Number())
		swatch = color.RGB(int(c.R), int(c.G), int(c.B)).Sprint("●")
	}

	fmt.Fprintf(w, "%s %s %d %s %s\n",
		swatch,
		bold.Sprint(rec.Variant.String()),
		rec.ID(),
		rec.ScoreState(),
		faint.Sprint(rec.FetchedAt.Format("2006-01-02 15:04")))

	for _, fv := range rec.Fields {
		if fv.Field.Role == models.RoleIdentity || fv.Field.Role == models.RoleState {
			continue
		}
		fmt.Fprintf(w, "  %s %s %s\n",
			padRight(fv.Field.Key(), 44),
			formatValue(fv.Field, fv.Value),
			faint.Sprint(fv.Field.Unit))
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
