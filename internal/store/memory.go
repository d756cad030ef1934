package store

import (
	"context"
	"sync"

	"github.com/example/roombook/internal/sheet"
)

// Memory is an in-process Store and DateLocker.
type Memory struct {
	mu     sync.RWMutex
	adhoc  []sheet.AdHocRow
	grants []sheet.GrantRow

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*sync.Mutex)}
}

func (m *Memory) ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]sheet.AdHocRow, len(m.adhoc))
	copy(out, m.adhoc)
	return out, nil
}

func (m *Memory) ListRecurringGrants(ctx context.Context) ([]sheet.GrantRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]sheet.GrantRow, len(m.grants))
	copy(out, m.grants)
	return out, nil
}

func (m *Memory) AppendAdHocBooking(ctx context.Context, row sheet.AdHocRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adhoc = append(m.adhoc, row)
	return nil
}

func (m *Memory) AppendRecurringGrant(ctx context.Context, row sheet.GrantRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grants = append(m.grants, row)
	return nil
}

func (m *Memory) dateLock(date string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()
	l, ok := m.locks[date]
	if !ok {
		l = &sync.Mutex{}
		m.locks[date] = l
	}
	return l
}

func (m *Memory) LockDates(ctx context.Context, dates []string) (context.Context, func(), error) {
	held := make([]*sync.Mutex, 0, len(dates))
	for _, d := range dates {
		l := m.dateLock(d)
		l.Lock()
		held = append(held, l)
	}
	return WithDateLocks(ctx), func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}, nil
}

var (
	_ Store      = (*Memory)(nil)
	_ DateLocker = (*Memory)(nil)
)
