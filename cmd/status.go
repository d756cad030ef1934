package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/example/roombook/internal/application/usecases"
)

func writeStatus(w io.Writer, board usecases.StatusBoard) {
	if board.Degraded {
		fmt.Fprintln(w, "warning: booking data could not be fully loaded")
	}
	fmt.Fprintln(w, "Upcoming bookings:")
	if len(board.Upcoming) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, u := range board.Upcoming {
		fmt.Fprintf(w, "  %s (%s) %s ~ %s  %s\n", u.Date, u.Weekday, u.Start, u.End, u.Name)
	}
	fmt.Fprintln(w, "Recurring grants:")
	if len(board.Grants) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, g := range board.Grants {
		fmt.Fprintf(w, "  %s  %s  %s  (%s)\n", g.GroupName, g.Weekdays, g.TimeRange, g.DateRange)
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List upcoming bookings and recurring grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			board, err := a.svc.Status(ctx)
			if err != nil {
				return err
			}
			writeStatus(cmd.OutOrStdout(), board)
			return nil
		},
	}
}
