package sheet

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/internaltypes"
)

// RowError reports a row that was skipped.
type RowError struct {
	Sheet string
	Index int
	Err   error
}

func (e RowError) Error() string { return fmt.Sprintf("%s row %d: %v", e.Sheet, e.Index, e.Err) }
func (e RowError) Unwrap() error { return e.Err }

const (
	AdHocSheet = "adhoc"
	GrantSheet = "grants"
)

func parseErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", internaltypes.ErrParse, fmt.Sprintf(format, args...))
}

// NormalizeDate accepts "2025.06.10" and "2025/06/10" spellings.
func NormalizeDate(v string) string {
	v = strings.ReplaceAll(v, ".", "-")
	v = strings.ReplaceAll(v, "/", "-")
	return strings.TrimSpace(v)
}

func parseDate(v string) (time.Time, error) {
	d, err := booking.ParseDate(NormalizeDate(v))
	if err != nil {
		return time.Time{}, parseErr("date %q", v)
	}
	return d, nil
}

func parseClock(v string) (int, error) {
	m, err := booking.ParseClock(v)
	if err != nil {
		return 0, parseErr("time %q", v)
	}
	return m, nil
}

// ParseAdHoc converts a stored row into a booking. Errors wrap internaltypes.ErrParse.
func ParseAdHoc(r AdHocRow) (booking.AdHocBooking, error) {
	d, err := parseDate(r.Date)
	if err != nil {
		return booking.AdHocBooking{}, err
	}
	start, err := parseClock(r.StartTime)
	if err != nil {
		return booking.AdHocBooking{}, err
	}
	end, err := parseClock(r.EndTime)
	if err != nil {
		return booking.AdHocBooking{}, err
	}
	return booking.AdHocBooking{
		Date:  d,
		Start: start,
		End:   end,
		Representative: booking.Participant{
			Name: strings.TrimSpace(r.RepresentativeName),
			ID:   strings.TrimSpace(r.RepresentativeID),
		},
		Companions: strings.TrimSpace(r.Companions),
	}, nil
}

func splitPair(v string) (string, string, bool) {
	a, b, ok := strings.Cut(v, "~")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(a), strings.TrimSpace(b), true
}

// ParseGrant converts a stored grant row. Errors wrap internaltypes.ErrParse.
func ParseGrant(r GrantRow) (booking.RecurringGrant, error) {
	fromS, toS, ok := splitPair(r.DateRange)
	if !ok {
		return booking.RecurringGrant{}, parseErr("date range %q", r.DateRange)
	}
	from, err := parseDate(fromS)
	if err != nil {
		return booking.RecurringGrant{}, err
	}
	to, err := parseDate(toS)
	if err != nil {
		return booking.RecurringGrant{}, err
	}

	days, err := ParseWeekdays(r.Weekdays)
	if err != nil {
		return booking.RecurringGrant{}, err
	}

	ts, te, ok := splitPair(r.TimeRange)
	if !ok {
		return booking.RecurringGrant{}, parseErr("time range %q", r.TimeRange)
	}
	start, err := parseClock(ts)
	if err != nil {
		return booking.RecurringGrant{}, err
	}
	end, err := parseClock(te)
	if err != nil {
		return booking.RecurringGrant{}, err
	}

	// created date is informational only
	created, _ := parseDate(r.CreatedDate)

	return booking.RecurringGrant{
		CreatedDate:    created,
		GroupName:      strings.TrimSpace(r.GroupName),
		Representative: strings.TrimSpace(r.Representative),
		Contact:        strings.TrimSpace(r.Contact),
		From:           from,
		To:             to,
		Weekdays:       days,
		Start:          start,
		End:            end,
		Purpose:        strings.TrimSpace(r.Purpose),
	}, nil
}

// ParseWeekdays reads "월, 화" (separators may be commas or spaces).
func ParseWeekdays(v string) (booking.WeekdaySet, error) {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	var days []time.Weekday
	for _, f := range fields {
		d, err := booking.ParseWeekday(f)
		if err != nil {
			return 0, parseErr("weekday %q", f)
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0, parseErr("no weekdays in %q", v)
	}
	return booking.NewWeekdaySet(days...), nil
}

// ParseAdHocRows parses every row, returning the good ones and one RowError per skipped row.
func ParseAdHocRows(rows []AdHocRow) ([]booking.AdHocBooking, []RowError) {
	out := make([]booking.AdHocBooking, 0, len(rows))
	var bad []RowError
	for i, r := range rows {
		b, err := ParseAdHoc(r)
		if err != nil {
			bad = append(bad, RowError{Sheet: AdHocSheet, Index: i, Err: err})
			continue
		}
		out = append(out, b)
	}
	return out, bad
}

func ParseGrantRows(rows []GrantRow) ([]booking.RecurringGrant, []RowError) {
	out := make([]booking.RecurringGrant, 0, len(rows))
	var bad []RowError
	for i, r := range rows {
		g, err := ParseGrant(r)
		if err != nil {
			bad = append(bad, RowError{Sheet: GrantSheet, Index: i, Err: err})
			continue
		}
		out = append(out, g)
	}
	return out, bad
}
