package refresher

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/roombook/internal/domain/booking"
)

// Source is read on every tick. When it sits on top of the cache decorator a read
// repopulates any expired entry.
type Source interface {
	Snapshot(ctx context.Context) (booking.Snapshot, error)
}

// Refresher keeps the snapshot cache warm so form renders rarely hit the store.
type Refresher struct {
	Source   Source
	Interval time.Duration
	Timeout  time.Duration
	Log      logrus.FieldLogger
}

func (r *Refresher) Run(ctx context.Context) error {
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// kick immediately
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	snap, err := r.Source.Snapshot(ctx)
	if err != nil {
		r.Log.WithError(err).Warn("refresher: snapshot read failed")
		return
	}
	r.Log.WithFields(logrus.Fields{
		"bookings": len(snap.Bookings),
		"grants":   len(snap.Grants),
		"took":     time.Since(started),
	}).Debug("refresher: snapshot warmed")
}
