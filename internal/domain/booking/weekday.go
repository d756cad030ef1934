package booking

import (
	"fmt"
	"strings"
	"time"
)

// WeekdayTokens are the single-character weekday labels, Monday first.
var WeekdayTokens = [7]string{"월", "화", "수", "목", "금", "토", "일"}

// WeekdayToken returns the localized label for d.
func WeekdayToken(d time.Weekday) string {
	return WeekdayTokens[(int(d)+6)%7]
}

// ParseWeekday maps a localized label back to a time.Weekday.
func ParseWeekday(tok string) (time.Weekday, error) {
	tok = strings.TrimSpace(tok)
	for i, t := range WeekdayTokens {
		if t == tok {
			return time.Weekday((i + 1) % 7), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", tok)
}

// WeekdaySet is a subset of the seven days of the week.
type WeekdaySet uint8

func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s |= 1 << uint(d)
	}
	return s
}

func (s WeekdaySet) Has(d time.Weekday) bool { return s&(1<<uint(d)) != 0 }

func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days lists the members Monday first, matching the display order of WeekdayTokens.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for i := range WeekdayTokens {
		d := time.Weekday((i + 1) % 7)
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// String renders the set as "월, 화".
func (s WeekdaySet) String() string {
	var toks []string
	for _, d := range s.Days() {
		toks = append(toks, WeekdayToken(d))
	}
	return strings.Join(toks, ", ")
}
