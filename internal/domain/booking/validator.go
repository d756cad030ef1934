package booking

import (
	"sort"
	"strings"
	"time"
)

// Validator decides whether a Request may be booked against a Snapshot.
// It holds no state beyond its Policy.
type Validator struct {
	Policy Policy
}

func NewValidator(p Policy) Validator { return Validator{Policy: p} }

// Validate returns nil when req is acceptable, or a *Rejection.
// Checks run in a fixed order: time of day range, participants, duration, per-person daily usage, then
// overlap against ad-hoc bookings followed by recurring grants.
func (v Validator) Validate(snap Snapshot, req Request) error {
	if err := checkClocks(req.Start, req.End); err != nil {
		return err
	}
	people := req.ValidParticipants()
	if err := v.checkParticipants(req, people); err != nil {
		return err
	}
	if err := v.checkDuration(req.Duration()); err != nil {
		return err
	}
	if err := v.checkDailyUsage(snap.Bookings, req, people); err != nil {
		return err
	}
	if err := v.checkOverlap(snap, req); err != nil {
		return err
	}
	return nil
}

// checkClocks keeps the validated span identical to the stored one: FormatClock wraps
// anything outside a single day.
func checkClocks(start, end int) *Rejection {
	if !ValidClock(start) || !ValidClock(end) {
		return reject(ReasonInvalidTime, "start and end must be between 00:00 and 23:59")
	}
	return nil
}

func (v Validator) checkParticipants(req Request, people []Participant) *Rejection {
	need := v.Policy.MinParticipants
	if need < 1 {
		need = 1
	}
	if len(people) >= need {
		return nil
	}
	if len(people) == 1 && v.soloAllowed(req) {
		return nil
	}
	return reject(ReasonTooFewParticipants, "at least %d participant(s) with name and id required, got %d", need, len(people))
}

func (v Validator) soloAllowed(req Request) bool {
	if v.Policy.SoloWindowEnd <= 0 {
		return false
	}
	s, e := NormalizeSpan(req.Start, req.End)
	return s >= 0 && e <= v.Policy.SoloWindowEnd
}

func (v Validator) checkDuration(d int) *Rejection {
	if d > v.Policy.MaxDuration {
		return reject(ReasonDurationTooLong, "%d minutes exceeds the %d minute maximum", d, v.Policy.MaxDuration)
	}
	if d < v.Policy.MinDuration {
		return reject(ReasonDurationTooShort, "%d minutes is below the %d minute minimum", d, v.Policy.MinDuration)
	}
	return nil
}

// UsageOn sums the minutes p already holds on date across existing bookings.
func UsageOn(bookings []AdHocBooking, date time.Time, p Participant) int {
	d := Day(date)
	total := 0
	for _, b := range bookings {
		if !Day(b.Date).Equal(d) {
			continue
		}
		if b.Includes(p) {
			total += b.Duration()
		}
	}
	return total
}

func (v Validator) checkDailyUsage(bookings []AdHocBooking, req Request, people []Participant) *Rejection {
	requested := req.Duration()
	for _, p := range people {
		existing := UsageOn(bookings, req.Date, p)
		if existing+requested > v.Policy.DailyCap {
			r := reject(ReasonDailyCapExceeded, "%s already has %d minutes on %s, %d more exceeds the %d minute daily cap",
				p.String(), existing, Day(req.Date).Format(DateLayout), requested, v.Policy.DailyCap)
			r.Participant = &p
			r.Existing = existing
			r.Requested = requested
			return r
		}
	}
	return nil
}

// candidateDates lists the row dates whose spans can reach the request span.
func (v Validator) candidateDates(req Request) []time.Time {
	d := Day(req.Date)
	dates := []time.Time{d}
	if Overnight(req.Start, req.End) {
		dates = append(dates, d.AddDate(0, 0, 1))
	}
	if v.Policy.CheckPreviousDay {
		dates = append(dates, d.AddDate(0, 0, -1))
	}
	return dates
}

// LockDates returns the YYYY-MM-DD keys a writer must hold to validate req, sorted.
func (v Validator) LockDates(req Request) []string {
	var out []string
	for _, d := range v.candidateDates(req) {
		out = append(out, d.Format(DateLayout))
	}
	sort.Strings(out)
	return out
}

func (v Validator) checkOverlap(snap Snapshot, req Request) *Rejection {
	span := req.Span()
	dates := v.candidateDates(req)

	for i := range snap.Bookings {
		b := snap.Bookings[i]
		if !containsDay(dates, b.Date) {
			continue
		}
		if Overlaps(span, b.Span()) {
			r := reject(ReasonSlotOverlap, "overlaps booking %s %s~%s by %s",
				Day(b.Date).Format(DateLayout), FormatClock(b.Start), FormatClock(b.End), b.Representative.Trimmed().Name)
			r.Booking = &b
			return r
		}
	}

	for i := range snap.Grants {
		g := snap.Grants[i]
		for _, d := range dates {
			if !g.ActiveOn(d) {
				continue
			}
			if Overlaps(span, g.SpanOn(d)) {
				r := reject(ReasonSlotOverlap, "overlaps recurring grant %q (%s %s~%s)",
					g.GroupName, WeekdayToken(d.Weekday()), FormatClock(g.Start), FormatClock(g.End))
				r.Grant = &g
				return r
			}
		}
	}
	return nil
}

func containsDay(days []time.Time, t time.Time) bool {
	d := Day(t)
	for _, x := range days {
		if x.Equal(d) {
			return true
		}
	}
	return false
}

// ValidateGrant checks a recurring grant application.
func (v Validator) ValidateGrant(req GrantRequest) error {
	if strings.TrimSpace(req.GroupName) == "" {
		return reject(ReasonMissingGroupName, "group name is required")
	}
	if req.Weekdays.Len() == 0 {
		return reject(ReasonMissingWeekdays, "at least one weekday is required")
	}
	if err := checkClocks(req.Start, req.End); err != nil {
		return err
	}
	if req.From.IsZero() || req.To.IsZero() || Day(req.To).Before(Day(req.From)) {
		return reject(ReasonInvalidDateRange, "end date must not be before start date")
	}
	d := req.Duration()
	if d < v.Policy.MinDuration {
		return reject(ReasonDurationTooShort, "%d minutes is below the %d minute minimum", d, v.Policy.MinDuration)
	}
	if weekly := d * req.Weekdays.Len(); v.Policy.WeeklyGrantCap > 0 && weekly > v.Policy.WeeklyGrantCap {
		return reject(ReasonWeeklyCapExceeded, "%d minutes per week exceeds the %d minute weekly cap", weekly, v.Policy.WeeklyGrantCap)
	}
	return nil
}
