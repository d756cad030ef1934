// Package store defines the booking store contract: read-all and append-row primitives
// over the ad-hoc and recurring grant sheets.
package store

import (
	"context"

	"github.com/example/roombook/internal/sheet"
)

type Store interface {
	ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error)
	ListRecurringGrants(ctx context.Context) ([]sheet.GrantRow, error)
	AppendAdHocBooking(ctx context.Context, row sheet.AdHocRow) error
	AppendRecurringGrant(ctx context.Context, row sheet.GrantRow) error
}

// DateLocker serializes writers per calendar date. dates are YYYY-MM-DD keys and are
// acquired in the order given; callers pass them sorted.
//
// The returned context is scoped to the held locks: the holder must make its reads and
// its append through it, and must not use it after calling unlock.
type DateLocker interface {
	LockDates(ctx context.Context, dates []string) (locked context.Context, unlock func(), err error)
}

type dateLocksKey struct{}

// WithDateLocks marks ctx as belonging to a writer that holds its date locks.
// Reads made under such a context are served by the backing store, never a cache.
func WithDateLocks(ctx context.Context) context.Context {
	return context.WithValue(ctx, dateLocksKey{}, true)
}

func HoldsDateLocks(ctx context.Context) bool {
	v, _ := ctx.Value(dateLocksKey{}).(bool)
	return v
}
