package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/sheet"
)

func parseParticipant(v string) (booking.Participant, error) {
	name, id, ok := strings.Cut(v, ":")
	if !ok {
		return booking.Participant{}, fmt.Errorf("participant %q: want NAME:ID", v)
	}
	return booking.Participant{Name: strings.TrimSpace(name), ID: strings.TrimSpace(id)}, nil
}

func parseDateFlag(flag, v string) (time.Time, error) {
	d, err := booking.ParseDate(sheet.NormalizeDate(v))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s (want YYYY-MM-DD)", flag)
	}
	return d, nil
}

func parseClockFlag(flag, v string) (int, error) {
	m, err := booking.ParseClock(v)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s (want HH:MM)", flag)
	}
	return m, nil
}

func newBookCmd() *cobra.Command {
	var (
		date         string
		start        string
		end          string
		participants []string
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Validate and book an ad-hoc slot",
		Example: `  roombook book --date 2025-06-10 --start 10:00 --end 11:00 \
    --participant "Alice:2021001" --participant "Bob:2021002"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := booking.Request{}
			var err error
			if req.Date, err = parseDateFlag("date", date); err != nil {
				return err
			}
			if req.Start, err = parseClockFlag("start", start); err != nil {
				return err
			}
			if req.End, err = parseClockFlag("end", end); err != nil {
				return err
			}
			for _, p := range participants {
				pp, err := parseParticipant(p)
				if err != nil {
					return err
				}
				req.Participants = append(req.Participants, pp)
			}

			ctx := context.Background()
			a, err := openApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := a.svc.Book(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "booked %s %s ~ %s for %s (companions: %s)\n",
				b.Date.Format(booking.DateLayout), booking.FormatClock(b.Start), booking.FormatClock(b.End),
				b.Representative, b.Companions)
			return nil
		},
	}

	c.Flags().StringVar(&date, "date", "", "booking date (YYYY-MM-DD)")
	c.Flags().StringVar(&start, "start", "", "start time (HH:MM)")
	c.Flags().StringVar(&end, "end", "", "end time (HH:MM); earlier than start means overnight")
	c.Flags().StringArrayVar(&participants, "participant", nil, "participant as NAME:ID, repeatable; the first is the representative")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("start")
	_ = c.MarkFlagRequired("end")
	return c
}
