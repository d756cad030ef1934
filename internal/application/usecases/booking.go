package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/events"
	"github.com/example/roombook/internal/internaltypes"
	"github.com/example/roombook/internal/sheet"
	"github.com/example/roombook/internal/store"
)

type Options struct {
	// HorizonDays bounds how far ahead a booking may be made. Zero means no upper bound.
	HorizonDays int
	// SerializeWrites holds per-date locks from snapshot read until append.
	SerializeWrites bool
	// FailClosedReads turns a failed store read into an error instead of an empty sheet.
	FailClosedReads bool
}

// BookingService is the entry point the form layer and CLI call into.
type BookingService struct {
	Store     store.Store
	Locker    store.DateLocker
	Events    events.Publisher
	Validator booking.Validator
	Options   Options
	Now       func() time.Time
	Log       logrus.FieldLogger
}

func NewBookingService(st store.Store, policy booking.Policy, opts Options, log logrus.FieldLogger) *BookingService {
	return &BookingService{
		Store:     st,
		Events:    events.Nop{},
		Validator: booking.NewValidator(policy),
		Options:   opts,
		Now:       time.Now,
		Log:       log,
	}
}

func (s *BookingService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *BookingService) today() time.Time { return booking.Day(s.now()) }

func (s *BookingService) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// Snapshot reads and parses both sheets. Malformed rows are logged and skipped.
func (s *BookingService) Snapshot(ctx context.Context) (booking.Snapshot, error) {
	snap, _, err := s.snapshot(ctx, s.Options.FailClosedReads)
	return snap, err
}

func (s *BookingService) snapshot(ctx context.Context, failClosed bool) (booking.Snapshot, bool, error) {
	var (
		snap           booking.Snapshot
		adhocDegraded  bool
		grantsDegraded bool
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := s.Store.ListAdHocBookings(gctx)
		if err != nil {
			adhocDegraded = true
			return s.readFailed(sheet.AdHocSheet, err, failClosed)
		}
		var bad []sheet.RowError
		snap.Bookings, bad = sheet.ParseAdHocRows(rows)
		s.logSkipped(bad)
		return nil
	})
	g.Go(func() error {
		rows, err := s.Store.ListRecurringGrants(gctx)
		if err != nil {
			grantsDegraded = true
			return s.readFailed(sheet.GrantSheet, err, failClosed)
		}
		var bad []sheet.RowError
		snap.Grants, bad = sheet.ParseGrantRows(rows)
		s.logSkipped(bad)
		return nil
	})

	if err := g.Wait(); err != nil {
		return booking.Snapshot{}, true, err
	}
	return snap, adhocDegraded || grantsDegraded, nil
}

func (s *BookingService) readFailed(name string, err error, failClosed bool) error {
	s.logger().WithError(err).WithField("sheet", name).Warn("store read failed")
	if failClosed {
		return fmt.Errorf("%w: read %s: %v", internaltypes.ErrStoreUnavailable, name, err)
	}
	return nil
}

func (s *BookingService) logSkipped(bad []sheet.RowError) {
	for _, e := range bad {
		s.logger().WithFields(logrus.Fields{"sheet": e.Sheet, "row": e.Index}).WithError(e.Err).Warn("skipping malformed row")
	}
}

func (s *BookingService) checkWindow(date time.Time) error {
	today := s.today()
	d := booking.Day(date)
	if d.Before(today) {
		return &booking.Rejection{Reason: booking.ReasonDateOutOfWindow, Detail: fmt.Sprintf("%s is in the past", d.Format(booking.DateLayout))}
	}
	if h := s.Options.HorizonDays; h > 0 && d.After(today.AddDate(0, 0, h)) {
		return &booking.Rejection{Reason: booking.ReasonDateOutOfWindow, Detail: fmt.Sprintf("bookings open at most %d days ahead", h)}
	}
	return nil
}

// Book validates req against a fresh snapshot and appends it when accepted.
// It returns a *booking.Rejection for validation failures and wraps
// internaltypes.ErrStoreUnavailable when the append fails; in that case nothing was booked.
func (s *BookingService) Book(ctx context.Context, req booking.Request) (booking.AdHocBooking, error) {
	if err := s.checkWindow(req.Date); err != nil {
		return booking.AdHocBooking{}, err
	}

	failClosed := s.Options.FailClosedReads
	if s.Options.SerializeWrites && s.Locker != nil {
		locked, unlock, err := s.Locker.LockDates(ctx, s.Validator.LockDates(req))
		if err != nil {
			return booking.AdHocBooking{}, fmt.Errorf("%w: %v", internaltypes.ErrStoreUnavailable, err)
		}
		defer unlock()
		ctx = store.WithDateLocks(locked)
		// an empty snapshot under the lock would let this writer past the one it queued behind
		failClosed = true
	}

	snap, _, err := s.snapshot(ctx, failClosed)
	if err != nil {
		return booking.AdHocBooking{}, err
	}
	if err := s.Validator.Validate(snap, req); err != nil {
		return booking.AdHocBooking{}, err
	}

	row := sheet.AdHocFromRequest(req)
	log := s.logger().WithFields(logrus.Fields{"date": row.Date, "start": row.StartTime, "end": row.EndTime})
	if err := s.Store.AppendAdHocBooking(ctx, row); err != nil {
		log.WithError(err).Error("append booking failed")
		return booking.AdHocBooking{}, fmt.Errorf("%w: %v", internaltypes.ErrStoreUnavailable, err)
	}
	log.Info("booking created")

	people := req.ValidParticipants()
	s.publish(ctx, events.SubjectBookingCreated, events.BookingCreated{
		Date:           row.Date,
		StartTime:      row.StartTime,
		EndTime:        row.EndTime,
		Representative: row.RepresentativeName,
		Participants:   len(people),
		CreatedAt:      s.now().UTC(),
	})

	return booking.AdHocBooking{
		Date:           booking.Day(req.Date),
		Start:          req.Start,
		End:            req.End,
		Representative: booking.Participant{Name: row.RepresentativeName, ID: row.RepresentativeID},
		Companions:     row.Companions,
	}, nil
}

// RequestGrant files a recurring grant application. It becomes effective once an
// administrator keeps the stored row; the application itself is appended immediately.
func (s *BookingService) RequestGrant(ctx context.Context, req booking.GrantRequest) (booking.RecurringGrant, error) {
	if err := s.Validator.ValidateGrant(req); err != nil {
		return booking.RecurringGrant{}, err
	}
	row := sheet.GrantFromRequest(req, s.today())
	log := s.logger().WithFields(logrus.Fields{"group": row.GroupName, "weekdays": row.Weekdays, "time": row.TimeRange})
	if err := s.Store.AppendRecurringGrant(ctx, row); err != nil {
		log.WithError(err).Error("append grant failed")
		return booking.RecurringGrant{}, fmt.Errorf("%w: %v", internaltypes.ErrStoreUnavailable, err)
	}
	log.Info("grant requested")

	s.publish(ctx, events.SubjectGrantRequested, events.GrantRequested{
		GroupName:      row.GroupName,
		Representative: row.Representative,
		Contact:        row.Contact,
		DateRange:      row.DateRange,
		Weekdays:       row.Weekdays,
		TimeRange:      row.TimeRange,
		Purpose:        row.Purpose,
		RequestedAt:    s.now().UTC(),
	})

	return sheet.ParseGrant(row)
}

func (s *BookingService) publish(ctx context.Context, subject string, data any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, subject, data); err != nil {
		s.logger().WithError(err).WithField("subject", subject).Warn("publish failed")
	}
}

// Week projects occupancy for the week offset weeks from the current one.
// Read failures always degrade to an empty grid since the projection is display-only.
func (s *BookingService) Week(ctx context.Context, offset int) booking.WeekGrid {
	snap, _, err := s.snapshot(ctx, s.Options.FailClosedReads)
	if err != nil {
		snap = booking.Snapshot{}
	}
	return booking.ProjectWeek(booking.WeekStart(s.today(), offset), snap)
}

// UpcomingLimit caps the status board list.
const UpcomingLimit = 10

type UpcomingBooking struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Name    string `json:"name"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type GrantSummary struct {
	GroupName string `json:"group_name"`
	Weekdays  string `json:"weekdays"`
	TimeRange string `json:"time_range"`
	DateRange string `json:"date_range"`
}

type StatusBoard struct {
	Upcoming []UpcomingBooking `json:"upcoming"`
	Grants   []GrantSummary    `json:"grants"`
	// Degraded is set when a sheet could not be read.
	Degraded bool `json:"degraded"`
}

// Status lists upcoming bookings with masked names and the recurring grants.
func (s *BookingService) Status(ctx context.Context) (StatusBoard, error) {
	snap, degraded, err := s.snapshot(ctx, s.Options.FailClosedReads)
	if err != nil && !errors.Is(err, internaltypes.ErrStoreUnavailable) {
		return StatusBoard{}, err
	}
	board := StatusBoard{Degraded: degraded}

	today := s.today()
	var upcoming []booking.AdHocBooking
	for _, b := range snap.Bookings {
		if !booking.Day(b.Date).Before(today) {
			upcoming = append(upcoming, b)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		if !upcoming[i].Date.Equal(upcoming[j].Date) {
			return upcoming[i].Date.Before(upcoming[j].Date)
		}
		return upcoming[i].Start < upcoming[j].Start
	})
	if len(upcoming) > UpcomingLimit {
		upcoming = upcoming[:UpcomingLimit]
	}
	for _, b := range upcoming {
		name := sheet.MaskName(b.Representative.Name)
		if name == "" {
			name = "예약자"
		}
		board.Upcoming = append(board.Upcoming, UpcomingBooking{
			Date:    b.Date.Format(booking.DateLayout),
			Weekday: booking.WeekdayToken(b.Date.Weekday()),
			Name:    name,
			Start:   booking.FormatClock(b.Start),
			End:     booking.FormatClock(b.End),
		})
	}

	for _, g := range snap.Grants {
		board.Grants = append(board.Grants, GrantSummary{
			GroupName: g.GroupName,
			Weekdays:  g.Weekdays.String(),
			TimeRange: booking.FormatClock(g.Start) + " ~ " + booking.FormatClock(g.End),
			DateRange: g.From.Format(booking.DateLayout) + " ~ " + g.To.Format(booking.DateLayout),
		})
	}
	return board, nil
}
