package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the wire format for time-of-day values.
	ClockLayout = "15:04"

	MinutesPerDay = 24 * 60
)

// ParseClock converts "H:MM", "HH:MM" or a bare hour token ("14") into minutes since midnight.
// Hours run 0-23; midnight is "00:00", so a span ending at midnight is written 23:00~00:00.
func ParseClock(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, fmt.Errorf("empty time")
	}
	if h, m, ok := strings.Cut(v, ":"); ok {
		hh, err := strconv.Atoi(strings.TrimSpace(h))
		if err != nil {
			return 0, fmt.Errorf("invalid hour in %q", v)
		}
		// tolerate a trailing seconds component ("18:15:00")
		m, _, _ = strings.Cut(m, ":")
		mm, err := strconv.Atoi(strings.TrimSpace(m))
		if err != nil {
			return 0, fmt.Errorf("invalid minute in %q", v)
		}
		if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
			return 0, fmt.Errorf("time out of range: %q", v)
		}
		return hh*60 + mm, nil
	}
	hh, err := strconv.Atoi(v)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid time %q", v)
	}
	return hh * 60, nil
}

// ToMinutes is the lenient form of ParseClock: malformed input yields 0.
func ToMinutes(v string) int {
	m, err := ParseClock(v)
	if err != nil {
		return 0
	}
	return m
}

// FormatClock renders minutes since midnight as HH:MM, wrapping past midnight.
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// NormalizeSpan returns the end of a span in minutes relative to the start day.
// An end earlier than the start means the span crosses midnight.
func NormalizeSpan(start, end int) (int, int) {
	if end < start {
		end += MinutesPerDay
	}
	return start, end
}

// ValidClock reports whether m is a time of day in [00:00, 24:00).
func ValidClock(m int) bool {
	return m >= 0 && m < MinutesPerDay
}

// Overnight reports whether the span ends on the following calendar date.
func Overnight(start, end int) bool {
	return end < start
}

// ParseDate parses a YYYY-MM-DD date as a UTC calendar day.
func ParseDate(v string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(v))
}

// Day truncates t to its calendar date, dropping the clock and location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Span is a half-open interval of absolute instants.
type Span struct {
	Start time.Time
	End   time.Time
}

// Anchor pins a time-of-day span to a concrete date. Overnight spans end on date+1.
func Anchor(date time.Time, start, end int) Span {
	s, e := NormalizeSpan(start, end)
	d := Day(date)
	return Span{
		Start: d.Add(time.Duration(s) * time.Minute),
		End:   d.Add(time.Duration(e) * time.Minute),
	}
}

// Overlaps is the half-open intersection test: touching endpoints do not overlap.
func Overlaps(a, b Span) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

func (s Span) Minutes() int {
	return int(s.End.Sub(s.Start) / time.Minute)
}
