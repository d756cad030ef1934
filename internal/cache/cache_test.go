package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roombook/internal/sheet"
	"github.com/example/roombook/internal/store"
)

type mapBackend struct {
	data   map[string][]byte
	getErr error
}

func newMapBackend() *mapBackend { return &mapBackend{data: map[string][]byte{}} }

func (m *mapBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	return b, nil
}

func (m *mapBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	m.data[key] = val
	return nil
}

func (m *mapBackend) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

type countingStore struct {
	*store.Memory
	adhocReads int
}

func (c *countingStore) ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error) {
	c.adhocReads++
	return c.Memory.ListAdHocBookings(ctx)
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestCacheServesReadsUntilAppend(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{Memory: store.NewMemory()}
	require.NoError(t, next.Memory.AppendAdHocBooking(ctx, sheet.AdHocRow{Date: "2025-06-10"}))
	c := New(next, newMapBackend(), 15*time.Second, quietLogger())

	rows, err := c.ListAdHocBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	_, err = c.ListAdHocBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next.adhocReads)

	require.NoError(t, c.AppendAdHocBooking(ctx, sheet.AdHocRow{Date: "2025-06-11"}))
	rows, err = c.ListAdHocBookings(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, 2, next.adhocReads)
}

func TestCacheFallsThroughOnBackendError(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{Memory: store.NewMemory()}
	b := newMapBackend()
	b.getErr = errors.New("redis down")
	c := New(next, b, time.Second, quietLogger())

	_, err := c.ListAdHocBookings(ctx)
	require.NoError(t, err)
	_, err = c.ListAdHocBookings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, next.adhocReads)
}

func TestGrantAppendInvalidatesBothSheets(t *testing.T) {
	ctx := context.Background()
	b := newMapBackend()
	c := New(store.NewMemory(), b, time.Second, quietLogger())

	_, err := c.ListAdHocBookings(ctx)
	require.NoError(t, err)
	_, err = c.ListRecurringGrants(ctx)
	require.NoError(t, err)
	assert.Len(t, b.data, 2)

	require.NoError(t, c.AppendRecurringGrant(ctx, sheet.GrantRow{GroupName: "g"}))
	assert.Empty(t, b.data)

	grants, err := c.ListRecurringGrants(ctx)
	require.NoError(t, err)
	assert.Len(t, grants, 1)
}

func TestLockedReadsBypassCache(t *testing.T) {
	ctx := context.Background()
	next := &countingStore{Memory: store.NewMemory()}
	b := newMapBackend()
	c := New(next, b, time.Minute, quietLogger())

	stale, err := json.Marshal([]sheet.AdHocRow{})
	require.NoError(t, err)
	b.data[adhocKey] = stale
	require.NoError(t, next.Memory.AppendAdHocBooking(ctx, sheet.AdHocRow{Date: "2025-06-10"}))

	rows, err := c.ListAdHocBookings(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows, "unlocked reads are served from the cache")

	rows, err = c.ListAdHocBookings(store.WithDateLocks(ctx))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, next.adhocReads)
	assert.Equal(t, stale, b.data[adhocKey], "locked reads do not write the cache")
}
