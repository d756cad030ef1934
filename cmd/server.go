package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/roombook/internal/refresher"
	"github.com/example/roombook/internal/web"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the booking form UI and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := openApp(ctx, migrateUp)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.RefreshInterval > 0 {
				r := &refresher.Refresher{
					Source:   a.svc,
					Interval: a.cfg.RefreshInterval,
					Log:      a.log.WithField("component", "refresher"),
				}
				go func() { _ = r.Run(ctx) }()
			}

			ws := &web.Server{
				Bookings:    a.svc,
				Flash:       web.NewFlashStore(a.cfg.CookieHashKey, a.cfg.CookieBlockKey),
				Log:         a.log.WithField("component", "web"),
				HorizonDays: a.cfg.BookingHorizonDays,
				BaseURL:     a.cfg.BaseURL,
			}
			return web.Start(ctx, a.cfg.ListenAddr, ws.Routes(), a.log)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}
