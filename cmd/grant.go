package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/sheet"
)

func newGrantCmd() *cobra.Command {
	var (
		group, representative, contact string
		from, to, weekdays             string
		start, end, purpose            string
	)

	c := &cobra.Command{
		Use:     "grant",
		Short:   "File a recurring grant request",
		Example: `  roombook grant --group "Chess Club" --from 2025-06-01 --to 2025-06-30 --weekdays "화, 목" --start 18:00 --end 19:00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := booking.GrantRequest{
				GroupName:      group,
				Representative: representative,
				Contact:        contact,
				Purpose:        purpose,
			}
			var err error
			if req.From, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if req.To, err = parseDateFlag("to", to); err != nil {
				return err
			}
			if weekdays != "" {
				if req.Weekdays, err = sheet.ParseWeekdays(weekdays); err != nil {
					return fmt.Errorf("invalid --weekdays: %w", err)
				}
			}
			if req.Start, err = parseClockFlag("start", start); err != nil {
				return err
			}
			if req.End, err = parseClockFlag("end", end); err != nil {
				return err
			}

			ctx := context.Background()
			a, err := openApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			g, err := a.svc.RequestGrant(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "grant requested for %s: %s %s ~ %s (%s ~ %s)\n",
				g.GroupName, g.Weekdays, booking.FormatClock(g.Start), booking.FormatClock(g.End),
				g.From.Format(booking.DateLayout), g.To.Format(booking.DateLayout))
			return nil
		},
	}

	c.Flags().StringVar(&group, "group", "", "group name")
	c.Flags().StringVar(&representative, "representative", "", "representative name")
	c.Flags().StringVar(&contact, "contact", "", "contact number")
	c.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD)")
	c.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD)")
	c.Flags().StringVar(&weekdays, "weekdays", "", `weekdays, e.g. "월, 수"`)
	c.Flags().StringVar(&start, "start", "", "start time (HH:MM)")
	c.Flags().StringVar(&end, "end", "", "end time (HH:MM)")
	c.Flags().StringVar(&purpose, "purpose", "", "purpose of use")
	return c
}
