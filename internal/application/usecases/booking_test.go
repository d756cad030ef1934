package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roombook/internal/cache"
	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/events"
	"github.com/example/roombook/internal/internaltypes"
	"github.com/example/roombook/internal/sheet"
	"github.com/example/roombook/internal/store"
)

var (
	alice = booking.Participant{Name: "Alice", ID: "2021001"}
	bob   = booking.Participant{Name: "Bob", ID: "2021002"}
)

// Monday 2025-06-09, 09:00 UTC.
var fixedNow = time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newService(st store.Store) *BookingService {
	svc := NewBookingService(st, booking.DefaultPolicy(), Options{HorizonDays: 21}, quietLogger())
	svc.Now = func() time.Time { return fixedNow }
	return svc
}

func request(t *testing.T, date, start, end string) booking.Request {
	t.Helper()
	d, err := booking.ParseDate(date)
	require.NoError(t, err)
	return booking.Request{
		Date:         d,
		Start:        booking.ToMinutes(start),
		End:          booking.ToMinutes(end),
		Participants: []booking.Participant{alice, bob},
	}
}

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []any
}

func (r *recordingPublisher) Publish(ctx context.Context, subject string, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

func (r *recordingPublisher) Close() error { return nil }

type faultyStore struct {
	*store.Memory
	readErr   error
	appendErr error
}

func (f *faultyStore) ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.Memory.ListAdHocBookings(ctx)
}

func (f *faultyStore) ListRecurringGrants(ctx context.Context) ([]sheet.GrantRow, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.Memory.ListRecurringGrants(ctx)
}

func (f *faultyStore) AppendAdHocBooking(ctx context.Context, row sheet.AdHocRow) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Memory.AppendAdHocBooking(ctx, row)
}

// rendezvousStore holds each ad-hoc read until n readers have arrived or the
// timeout passes, forcing concurrent bookings to validate against the same snapshot.
type rendezvousStore struct {
	*store.Memory
	wg      sync.WaitGroup
	timeout time.Duration
}

func newRendezvousStore(n int) *rendezvousStore {
	s := &rendezvousStore{Memory: store.NewMemory(), timeout: 200 * time.Millisecond}
	s.wg.Add(n)
	return s
}

func (s *rendezvousStore) ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error) {
	s.wg.Done()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(s.timeout):
	}
	return s.Memory.ListAdHocBookings(ctx)
}

func TestBookAppendsRowAndPublishes(t *testing.T) {
	mem := store.NewMemory()
	pub := &recordingPublisher{}
	svc := newService(mem)
	svc.Events = pub

	b, err := svc.Book(context.Background(), request(t, "2025-06-10", "10:00", "11:00"))
	require.NoError(t, err)
	assert.Equal(t, alice, b.Representative)
	assert.Equal(t, "Bob(2021002)", b.Companions)

	rows, err := mem.ListAdHocBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, sheet.AdHocRow{
		Date:               "2025-06-10",
		StartTime:          "10:00",
		EndTime:            "11:00",
		RepresentativeName: "Alice",
		RepresentativeID:   "2021001",
		Companions:         "Bob(2021002)",
	}, rows[0])

	require.Len(t, pub.subjects, 1)
	assert.Equal(t, events.SubjectBookingCreated, pub.subjects[0])
	created, ok := pub.payloads[0].(events.BookingCreated)
	require.True(t, ok)
	assert.Equal(t, 2, created.Participants)
}

func TestBookRejectsConflictAgainstStoredRows(t *testing.T) {
	svc := newService(store.NewMemory())
	ctx := context.Background()

	_, err := svc.Book(ctx, request(t, "2025-06-10", "10:00", "11:00"))
	require.NoError(t, err)

	_, err = svc.Book(ctx, request(t, "2025-06-10", "10:30", "11:30"))
	assert.True(t, booking.IsReason(err, booking.ReasonSlotOverlap), "got %v", err)

	_, err = svc.Book(ctx, request(t, "2025-06-10", "11:00", "12:00"))
	assert.NoError(t, err)
}

func TestBookingWindow(t *testing.T) {
	svc := newService(store.NewMemory())
	ctx := context.Background()

	_, err := svc.Book(ctx, request(t, "2025-06-08", "10:00", "11:00"))
	assert.True(t, booking.IsReason(err, booking.ReasonDateOutOfWindow))

	_, err = svc.Book(ctx, request(t, "2025-06-30", "10:00", "11:00"))
	assert.NoError(t, err, "today+21 is still bookable")

	_, err = svc.Book(ctx, request(t, "2025-07-01", "10:00", "11:00"))
	assert.True(t, booking.IsReason(err, booking.ReasonDateOutOfWindow))
}

func TestBookSkipsMalformedRows(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.AppendAdHocBooking(ctx, sheet.AdHocRow{Date: "2025-06-10", StartTime: "ten", EndTime: "11:00", RepresentativeName: "X", RepresentativeID: "1"}))
	require.NoError(t, mem.AppendAdHocBooking(ctx, sheet.AdHocRow{Date: "2025.06.10", StartTime: "12:00", EndTime: "13:00", RepresentativeName: "Y", RepresentativeID: "2"}))

	svc := newService(mem)
	_, err := svc.Book(ctx, request(t, "2025-06-10", "10:00", "11:00"))
	assert.NoError(t, err)

	_, err = svc.Book(ctx, request(t, "2025-06-10", "12:30", "13:30"))
	assert.True(t, booking.IsReason(err, booking.ReasonSlotOverlap))
}

func TestReadFailureDegradesToEmpty(t *testing.T) {
	st := &faultyStore{Memory: store.NewMemory(), readErr: errors.New("quota")}
	svc := newService(st)

	_, err := svc.Book(context.Background(), request(t, "2025-06-10", "10:00", "11:00"))
	assert.NoError(t, err)
}

func TestReadFailureFailsClosed(t *testing.T) {
	st := &faultyStore{Memory: store.NewMemory(), readErr: errors.New("quota")}
	svc := newService(st)
	svc.Options.FailClosedReads = true

	_, err := svc.Book(context.Background(), request(t, "2025-06-10", "10:00", "11:00"))
	assert.ErrorIs(t, err, internaltypes.ErrStoreUnavailable)

	rows, _ := st.Memory.ListAdHocBookings(context.Background())
	assert.Empty(t, rows)
}

func TestAppendFailureReportsStoreUnavailable(t *testing.T) {
	st := &faultyStore{Memory: store.NewMemory(), appendErr: errors.New("503")}
	pub := &recordingPublisher{}
	svc := newService(st)
	svc.Events = pub

	_, err := svc.Book(context.Background(), request(t, "2025-06-10", "10:00", "11:00"))
	assert.ErrorIs(t, err, internaltypes.ErrStoreUnavailable)
	_, isRejection := booking.AsRejection(err)
	assert.False(t, isRejection)
	assert.Empty(t, pub.subjects)
}

func TestConcurrentBookingsWithoutLockingBothSucceed(t *testing.T) {
	st := newRendezvousStore(2)
	svc := newService(st)

	errs := bookConcurrently(t, svc, 2)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	rows, _ := st.Memory.ListAdHocBookings(context.Background())
	assert.Len(t, rows, 2, "both writers validated against the same snapshot")
}

func TestConcurrentBookingsSerializedPerDate(t *testing.T) {
	st := newRendezvousStore(2)
	svc := newService(st)
	svc.Locker = st.Memory
	svc.Options.SerializeWrites = true

	errs := bookConcurrently(t, svc, 2)
	var ok, overlap int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case booking.IsReason(err, booking.ReasonSlotOverlap):
			overlap++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, overlap)
	rows, _ := st.Memory.ListAdHocBookings(context.Background())
	assert.Len(t, rows, 1)
}

func TestReadFailureUnderDateLocksFailsClosed(t *testing.T) {
	st := &faultyStore{Memory: store.NewMemory(), readErr: errors.New("quota")}
	svc := newService(st)
	svc.Locker = st.Memory
	svc.Options.SerializeWrites = true

	_, err := svc.Book(context.Background(), request(t, "2025-06-10", "10:00", "11:00"))
	assert.ErrorIs(t, err, internaltypes.ErrStoreUnavailable)
	rows, _ := st.Memory.ListAdHocBookings(context.Background())
	assert.Empty(t, rows)
}

// stallingStore parks its first ad-hoc read after the rows were read, until release is closed.
type stallingStore struct {
	*store.Memory
	stalled atomic.Bool
	reached chan struct{}
	release chan struct{}
}

func (s *stallingStore) ListAdHocBookings(ctx context.Context) ([]sheet.AdHocRow, error) {
	rows, err := s.Memory.ListAdHocBookings(ctx)
	if s.stalled.CompareAndSwap(false, true) {
		close(s.reached)
		<-s.release
	}
	return rows, err
}

type syncBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (b *syncBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (b *syncBackend) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = val
	return nil
}

func (b *syncBackend) Del(ctx context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.data, k)
	}
	return nil
}

func TestSerializedBookIgnoresStaleCache(t *testing.T) {
	ctx := context.Background()
	inner := &stallingStore{Memory: store.NewMemory(), reached: make(chan struct{}), release: make(chan struct{})}
	cached := cache.New(inner, &syncBackend{data: map[string][]byte{}}, time.Minute, quietLogger())
	svc := newService(cached)
	svc.Locker = inner.Memory
	svc.Options.SerializeWrites = true

	// an unlocked reader misses the cache and stalls holding the empty sheet
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		_, _ = svc.Snapshot(ctx)
	}()
	<-inner.reached

	_, err := svc.Book(ctx, request(t, "2025-06-10", "14:00", "15:00"))
	require.NoError(t, err)

	close(inner.release)
	<-readerDone

	stale, err := cached.ListAdHocBookings(ctx)
	require.NoError(t, err)
	require.Empty(t, stale, "the stalled reader cached rows from before the append")

	_, err = svc.Book(ctx, request(t, "2025-06-10", "14:30", "15:30"))
	assert.True(t, booking.IsReason(err, booking.ReasonSlotOverlap), "got %v", err)

	rows, _ := inner.Memory.ListAdHocBookings(ctx)
	assert.Len(t, rows, 1)
}

func bookConcurrently(t *testing.T, svc *BookingService, n int) []error {
	t.Helper()
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Book(context.Background(), request(t, "2025-06-10", "10:00", "11:00"))
		}(i)
	}
	wg.Wait()
	return errs
}

func TestRequestGrant(t *testing.T) {
	mem := store.NewMemory()
	pub := &recordingPublisher{}
	svc := newService(mem)
	svc.Events = pub

	from, _ := booking.ParseDate("2025-06-01")
	to, _ := booking.ParseDate("2025-06-30")
	g, err := svc.RequestGrant(context.Background(), booking.GrantRequest{
		GroupName:      "Chess Club",
		Representative: "Alice",
		Contact:        "010-0000-0000",
		From:           from,
		To:             to,
		Weekdays:       booking.NewWeekdaySet(time.Tuesday, time.Thursday),
		Start:          booking.ToMinutes("18:00"),
		End:            booking.ToMinutes("19:00"),
	})
	require.NoError(t, err)
	assert.True(t, g.ActiveOn(fixedNow.AddDate(0, 0, 1)))

	rows, _ := mem.ListRecurringGrants(context.Background())
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-06-09", rows[0].CreatedDate)
	assert.Equal(t, "화, 목", rows[0].Weekdays)
	assert.Equal(t, []string{events.SubjectGrantRequested}, pub.subjects)

	_, err = svc.RequestGrant(context.Background(), booking.GrantRequest{GroupName: "X", From: from, To: to})
	assert.True(t, booking.IsReason(err, booking.ReasonMissingWeekdays))
}

func TestGrantBlocksLaterBooking(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(mem)
	require.NoError(t, mem.AppendRecurringGrant(context.Background(), sheet.GrantRow{
		GroupName: "Chess", DateRange: "2025-06-01 ~ 2025-06-30", Weekdays: "화", TimeRange: "18:00 ~ 19:00",
	}))

	_, err := svc.Book(context.Background(), request(t, "2025-06-10", "18:30", "19:30"))
	r, ok := booking.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, booking.ReasonSlotOverlap, r.Reason)
	require.NotNil(t, r.Grant)
	assert.Equal(t, "Chess", r.Grant.GroupName)
}

func TestWeek(t *testing.T) {
	mem := store.NewMemory()
	svc := newService(mem)
	ctx := context.Background()
	_, err := svc.Book(ctx, request(t, "2025-06-10", "10:00", "11:00"))
	require.NoError(t, err)

	grid := svc.Week(ctx, 0)
	assert.Equal(t, "2025-06-09", grid.Days[0].Format(booking.DateLayout))
	assert.Equal(t, booking.AdHoc, grid.Cells[1][10])
	assert.Equal(t, booking.Free, grid.Cells[1][11])

	next := svc.Week(ctx, 1)
	assert.Equal(t, "2025-06-16", next.Days[0].Format(booking.DateLayout))
	assert.Equal(t, booking.Free, next.Cells[1][10])
}

func TestStatus(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.AppendAdHocBooking(ctx, sheet.AdHocRow{Date: "2025-06-01", StartTime: "10:00", EndTime: "11:00", RepresentativeName: "Past", RepresentativeID: "0"}))
	for i := 12; i > 0; i-- {
		require.NoError(t, mem.AppendAdHocBooking(ctx, sheet.AdHocRow{
			Date:               fmt.Sprintf("2025-06-%02d", 9+i),
			StartTime:          "10:00",
			EndTime:            "11:00",
			RepresentativeName: "김중앙",
			RepresentativeID:   "1",
		}))
	}
	require.NoError(t, mem.AppendRecurringGrant(ctx, sheet.GrantRow{
		GroupName: "Chess", DateRange: "2025-06-01 ~ 2025-06-30", Weekdays: "화, 목", TimeRange: "18:00 ~ 19:00",
	}))

	board, err := newService(mem).Status(ctx)
	require.NoError(t, err)
	assert.False(t, board.Degraded)
	require.Len(t, board.Upcoming, UpcomingLimit)
	assert.Equal(t, "2025-06-10", board.Upcoming[0].Date)
	assert.Equal(t, "화", board.Upcoming[0].Weekday)
	assert.Equal(t, "김**", board.Upcoming[0].Name)
	require.Len(t, board.Grants, 1)
	assert.Equal(t, "화, 목", board.Grants[0].Weekdays)
	assert.Equal(t, "18:00 ~ 19:00", board.Grants[0].TimeRange)
}

func TestStatusDegraded(t *testing.T) {
	st := &faultyStore{Memory: store.NewMemory(), readErr: errors.New("quota")}
	board, err := newService(st).Status(context.Background())
	require.NoError(t, err)
	assert.True(t, board.Degraded)
	assert.Empty(t, board.Upcoming)
}
