package postgres

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/roombook/internal/db"
	"github.com/example/roombook/internal/sheet"
	"github.com/example/roombook/internal/store"
)

const (
	queryTimeout = 3 * time.Second
	// lockWait bounds how long a writer queues behind another writer on the same date.
	lockWait = 10 * time.Second
)

// Sealer encrypts the grant contact column.
type Sealer interface {
	EncryptToString(plaintext string) (string, error)
	DecryptString(ciphertext string) (string, error)
}

// Store keeps both sheets as append-only tables.
type Store struct {
	db      *db.DB
	contact Sealer
}

func New(d *db.DB) *Store { return &Store{db: d} }

// WithContactSealer encrypts grant contacts on append and decrypts them on read.
func (s *Store) WithContactSealer(c Sealer) *Store {
	s.contact = c
	return s
}

func (s *Store) sealContact(v string) (string, error) {
	if s.contact == nil || v == "" {
		return v, nil
	}
	return s.contact.EncryptToString(v)
}

// openContact leaves values that do not decrypt untouched; rows written before a key
// was configured are plaintext.
func (s *Store) openContact(v string) string {
	if s.contact == nil || v == "" {
		return v
	}
	if pt, err := s.contact.DecryptString(v); err == nil {
		return pt
	}
	return v
}

func (s *Store) ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, done, err := s.query(ctx, `
SELECT booking_date,start_time,end_time,representative_name,representative_id,companions
FROM adhoc_bookings
ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list adhoc bookings: %w", err)
	}
	defer done()
	defer rows.Close()

	var out []sheet.AdHocRow
	for rows.Next() {
		var r sheet.AdHocRow
		if err := rows.Scan(&r.Date, &r.StartTime, &r.EndTime, &r.RepresentativeName, &r.RepresentativeID, &r.Companions); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListRecurringGrants(ctx context.Context) ([]sheet.GrantRow, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, done, err := s.query(ctx, `
SELECT created_date,group_name,representative,contact,date_range,weekdays,time_range,purpose
FROM recurring_grants
ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list recurring grants: %w", err)
	}
	defer done()
	defer rows.Close()

	var out []sheet.GrantRow
	for rows.Next() {
		var r sheet.GrantRow
		if err := rows.Scan(&r.CreatedDate, &r.GroupName, &r.Representative, &r.Contact, &r.DateRange, &r.Weekdays, &r.TimeRange, &r.Purpose); err != nil {
			return nil, err
		}
		r.Contact = s.openContact(r.Contact)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AppendAdHocBooking(ctx context.Context, r sheet.AdHocRow) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err := s.exec(ctx, `
INSERT INTO adhoc_bookings(id,booking_date,start_time,end_time,representative_name,representative_id,companions)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.New(), r.Date, r.StartTime, r.EndTime, r.RepresentativeName, r.RepresentativeID, r.Companions)
	if err != nil {
		return fmt.Errorf("append adhoc booking: %w", err)
	}
	return nil
}

func (s *Store) AppendRecurringGrant(ctx context.Context, r sheet.GrantRow) error {
	contact, err := s.sealContact(r.Contact)
	if err != nil {
		return fmt.Errorf("seal contact: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	err = s.exec(ctx, `
INSERT INTO recurring_grants(id,created_date,group_name,representative,contact,date_range,weekdays,time_range,purpose)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		uuid.New(), r.CreatedDate, r.GroupName, r.Representative, contact, r.DateRange, r.Weekdays, r.TimeRange, r.Purpose)
	if err != nil {
		return fmt.Errorf("append recurring grant: %w", err)
	}
	return nil
}

// pinned is the connection holding a writer's advisory locks. The holder's queries run
// on it so they never wait for a pool slot behind writers queued on the same dates.
// A pgx connection serves one query at a time.
type pinned struct {
	mu   sync.Mutex
	conn *pgxpool.Conn
}

type pinnedKey struct{}

func pinnedFrom(ctx context.Context) (*pinned, bool) {
	p, ok := ctx.Value(pinnedKey{}).(*pinned)
	return p, ok
}

// query returns rows from the caller's pinned connection when it has one, else the pool.
// done must be called after rows are closed.
func (s *Store) query(ctx context.Context, sql string, args ...any) (db.Rows, func(), error) {
	if p, ok := pinnedFrom(ctx); ok {
		p.mu.Lock()
		rows, err := p.conn.Query(ctx, sql, args...)
		if err != nil {
			p.mu.Unlock()
			return nil, nil, err
		}
		return rows, p.mu.Unlock, nil
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, nil, err
	}
	return rows, func() {}, nil
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) error {
	if p, ok := pinnedFrom(ctx); ok {
		p.mu.Lock()
		defer p.mu.Unlock()
		_, err := p.conn.Exec(ctx, sql, args...)
		return err
	}
	return s.db.Exec(ctx, sql, args...)
}

// LockDates takes one session advisory lock per date on a pinned connection, so writers
// in other processes serialize too. The returned context routes the holder's reads and
// append through that connection. Waiting for the locks is bounded by lockWait.
func (s *Store) LockDates(ctx context.Context, dates []string) (context.Context, func(), error) {
	wctx, cancel := context.WithTimeout(ctx, lockWait)
	defer cancel()

	conn, err := s.db.Acquire(wctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire lock conn: %w", err)
	}
	p := &pinned{conn: conn}

	var held []string
	release := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		// unlock must run even if the request context is done
		uctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_, _ = conn.Exec(uctx, `SELECT pg_advisory_unlock(hashtext($1))`, lockKey(held[i]))
		}
		conn.Release()
	}

	for _, d := range dates {
		if _, err := conn.Exec(wctx, `SELECT pg_advisory_lock(hashtext($1))`, lockKey(d)); err != nil {
			release()
			return nil, nil, fmt.Errorf("lock %s: %w", d, err)
		}
		held = append(held, d)
	}
	return context.WithValue(store.WithDateLocks(ctx), pinnedKey{}, p), release, nil
}

func lockKey(date string) string { return "roombook:adhoc:" + date }

var (
	_ store.Store      = (*Store)(nil)
	_ store.DateLocker = (*Store)(nil)
)
