package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/example/roombook/internal/application/usecases"
	"github.com/example/roombook/internal/cache"
	"github.com/example/roombook/internal/config"
	"github.com/example/roombook/internal/crypto"
	"github.com/example/roombook/internal/db"
	"github.com/example/roombook/internal/events"
	"github.com/example/roombook/internal/migrate"
	"github.com/example/roombook/internal/store"
	"github.com/example/roombook/internal/store/postgres"
)

// app is the wired object graph shared by the server and the CLI commands.
type app struct {
	cfg     config.Config
	log     *logrus.Logger
	svc     *usecases.BookingService
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func openApp(ctx context.Context, migrateUp bool) (*app, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: cfg.Logger()}

	var (
		st     store.Store
		locker store.DateLocker
	)
	if cfg.DatabaseURL == "" {
		a.log.Warn("DATABASE_URL not set, bookings are kept in memory only")
		mem := store.NewMemory()
		st, locker = mem, mem
	} else {
		d, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, d.Close)
		if err := d.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("db ping: %w", err)
		}
		if migrateUp {
			applied, err := migrate.Up(ctx, d)
			if err != nil {
				a.Close()
				return nil, err
			}
			for _, name := range applied {
				a.log.WithField("migration", name).Info("applied migration")
			}
		}
		pg := postgres.New(d)
		if len(cfg.ContactKey) > 0 {
			aead, err := crypto.New(cfg.ContactKey)
			if err != nil {
				a.Close()
				return nil, fmt.Errorf("CONTACT_KEY: %w", err)
			}
			pg.WithContactSealer(aead)
		}
		st, locker = pg, pg
	}

	if cfg.RedisURL != "" {
		client, err := cache.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			a.log.WithError(err).Warn("redis unavailable, running without snapshot cache")
		} else {
			a.closers = append(a.closers, func() { _ = client.Close() })
			st = cache.New(st, cache.NewRedis(client), cfg.CacheTTL, a.log)
		}
	}

	a.svc = usecases.NewBookingService(st, cfg.Policy(), usecases.Options{
		HorizonDays:     cfg.BookingHorizonDays,
		SerializeWrites: cfg.SerializeWrites,
		FailClosedReads: cfg.FailClosedReads,
	}, a.log)
	a.svc.Locker = locker

	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL, a.log)
		if err != nil {
			a.log.WithError(err).Warn("nats unavailable, events disabled")
		} else {
			a.closers = append(a.closers, func() { _ = pub.Close() })
			a.svc.Events = pub
		}
	}

	return a, nil
}
