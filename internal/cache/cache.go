// Package cache wraps a store.Store with a short-lived shared snapshot cache.
// Reads are served from the cache for TTL; every append clears both keys.
// A reader holding date locks always goes to the backing store: an unlocked reader
// can put rows back into the cache that predate an append made while it was reading.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/example/roombook/internal/sheet"
	"github.com/example/roombook/internal/store"
)

// ErrMiss is returned by a Backend when the key is absent.
var ErrMiss = errors.New("cache miss")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

const (
	adhocKey = "roombook:sheet:adhoc"
	grantKey = "roombook:sheet:grants"
)

type Store struct {
	next    store.Store
	backend Backend
	ttl     time.Duration
	log     logrus.FieldLogger
}

func New(next store.Store, b Backend, ttl time.Duration, log logrus.FieldLogger) *Store {
	return &Store{next: next, backend: b, ttl: ttl, log: log.WithField("component", "cache")}
}

func (s *Store) ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error) {
	if store.HoldsDateLocks(ctx) {
		return s.next.ListAdHocBookings(ctx)
	}
	var rows []sheet.AdHocRow
	if s.load(ctx, adhocKey, &rows) {
		return rows, nil
	}
	rows, err := s.next.ListAdHocBookings(ctx)
	if err != nil {
		return nil, err
	}
	s.save(ctx, adhocKey, rows)
	return rows, nil
}

func (s *Store) ListRecurringGrants(ctx context.Context) ([]sheet.GrantRow, error) {
	if store.HoldsDateLocks(ctx) {
		return s.next.ListRecurringGrants(ctx)
	}
	var rows []sheet.GrantRow
	if s.load(ctx, grantKey, &rows) {
		return rows, nil
	}
	rows, err := s.next.ListRecurringGrants(ctx)
	if err != nil {
		return nil, err
	}
	s.save(ctx, grantKey, rows)
	return rows, nil
}

func (s *Store) AppendAdHocBooking(ctx context.Context, row sheet.AdHocRow) error {
	err := s.next.AppendAdHocBooking(ctx, row)
	s.Invalidate(ctx)
	return err
}

func (s *Store) AppendRecurringGrant(ctx context.Context, row sheet.GrantRow) error {
	err := s.next.AppendRecurringGrant(ctx, row)
	s.Invalidate(ctx)
	return err
}

// Invalidate drops both cached sheets.
func (s *Store) Invalidate(ctx context.Context) {
	if err := s.backend.Del(ctx, adhocKey, grantKey); err != nil {
		s.log.WithError(err).Error("invalidate failed")
	}
}

func (s *Store) load(ctx context.Context, key string, dst any) bool {
	b, err := s.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			s.log.WithError(err).WithField("key", key).Warn("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache entry corrupt")
		return false
	}
	return true
}

func (s *Store) save(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.backend.Set(ctx, key, b, s.ttl); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

// Redis adapts a go-redis client to Backend.
type Redis struct{ client *redis.Client }

func NewRedis(client *redis.Client) *Redis { return &Redis{client: client} }

// DialRedis parses a redis:// URL and returns a connected client.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, val, ttl).Err()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

var _ store.Store = (*Store)(nil)
