package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/roombook/internal/domain/booking"
)

var markerGlyph = map[booking.Marker]string{
	booking.Free:      ".",
	booking.AdHoc:     "#",
	booking.Recurring: "=",
}

func writeWeek(w io.Writer, g booking.WeekGrid) {
	var b strings.Builder
	b.WriteString("       ")
	for _, d := range g.Days {
		fmt.Fprintf(&b, " %s(%s)", d.Format("01/02"), booking.WeekdayToken(d.Weekday()))
	}
	b.WriteString("\n")
	for h := 0; h < 24; h++ {
		fmt.Fprintf(&b, "%02d:00  ", h)
		for d := range g.Days {
			fmt.Fprintf(&b, " %-8s", markerGlyph[g.Cells[d][h]])
		}
		b.WriteString("\n")
	}
	b.WriteString("# booked  = recurring  . free\n")
	_, _ = io.WriteString(w, b.String())
}

func newWeekCmd() *cobra.Command {
	var offset int

	c := &cobra.Command{
		Use:   "week",
		Short: "Print the weekly occupancy grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			writeWeek(cmd.OutOrStdout(), a.svc.Week(ctx, offset))
			return nil
		},
	}
	c.Flags().IntVar(&offset, "offset", 0, "weeks from the current one (negative for past weeks)")
	return c
}
