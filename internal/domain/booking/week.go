package booking

import "time"

// Marker is the occupancy state of one hour bucket.
type Marker uint8

const (
	Free Marker = iota
	AdHoc
	Recurring
)

func (m Marker) String() string {
	switch m {
	case AdHoc:
		return "adhoc"
	case Recurring:
		return "recurring"
	default:
		return "free"
	}
}

func (m Marker) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// WeekGrid is a 7 day by 24 hour occupancy projection, Monday first.
type WeekGrid struct {
	Days  [7]time.Time
	Cells [7][24]Marker
}

// WeekStart returns the Monday of the week containing today, shifted by offset weeks.
func WeekStart(today time.Time, offset int) time.Time {
	d := Day(today)
	back := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -back+7*offset)
}

// ProjectWeek marks each hour bucket of the week starting at monday. Ad-hoc bookings take
// precedence over recurring grants. Rows without a date or with an empty span are skipped.
// The grid is display-only and has no bearing on acceptance.
func ProjectWeek(monday time.Time, snap Snapshot) WeekGrid {
	var g WeekGrid
	start := Day(monday)
	for i := range g.Days {
		g.Days[i] = start.AddDate(0, 0, i)
	}

	var adhoc []Span
	for _, b := range snap.Bookings {
		if b.Date.IsZero() || b.Duration() <= 0 {
			continue
		}
		adhoc = append(adhoc, b.Span())
	}

	// grants anchored on the day before the week can spill into Monday morning
	var recurring []Span
	for _, gr := range snap.Grants {
		if gr.Duration() <= 0 {
			continue
		}
		for i := -1; i < 7; i++ {
			d := start.AddDate(0, 0, i)
			if gr.ActiveOn(d) {
				recurring = append(recurring, gr.SpanOn(d))
			}
		}
	}

	for di, day := range g.Days {
		for h := 0; h < 24; h++ {
			bucket := Span{
				Start: day.Add(time.Duration(h) * time.Hour),
				End:   day.Add(time.Duration(h+1) * time.Hour),
			}
			if anyOverlap(bucket, adhoc) {
				g.Cells[di][h] = AdHoc
				continue
			}
			if anyOverlap(bucket, recurring) {
				g.Cells[di][h] = Recurring
			}
		}
	}
	return g
}

func anyOverlap(s Span, spans []Span) bool {
	for _, o := range spans {
		if Overlaps(s, o) {
			return true
		}
	}
	return false
}
