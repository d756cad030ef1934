package sheet

import (
	"strings"
	"time"

	"github.com/example/roombook/internal/domain/booking"
)

// FormatCompanions renders companions as "name1(id1), name2(id2)", or the empty marker.
func FormatCompanions(ps []booking.Participant) string {
	if len(ps) == 0 {
		return booking.NoCompanions
	}
	toks := make([]string, 0, len(ps))
	for _, p := range ps {
		toks = append(toks, p.Token())
	}
	return strings.Join(toks, ", ")
}

// AdHocFromRequest builds the row appended for an accepted request.
// The first valid participant is the representative.
func AdHocFromRequest(r booking.Request) AdHocRow {
	people := r.ValidParticipants()
	var rep booking.Participant
	if len(people) > 0 {
		rep = people[0]
		people = people[1:]
	}
	return AdHocRow{
		Date:               booking.Day(r.Date).Format(booking.DateLayout),
		StartTime:          booking.FormatClock(r.Start),
		EndTime:            booking.FormatClock(r.End),
		RepresentativeName: rep.Name,
		RepresentativeID:   rep.ID,
		Companions:         FormatCompanions(people),
	}
}

// GrantFromRequest builds the row appended for a grant application filed on created.
func GrantFromRequest(g booking.GrantRequest, created time.Time) GrantRow {
	return GrantRow{
		CreatedDate:    booking.Day(created).Format(booking.DateLayout),
		GroupName:      strings.TrimSpace(g.GroupName),
		Representative: strings.TrimSpace(g.Representative),
		Contact:        strings.TrimSpace(g.Contact),
		DateRange:      booking.Day(g.From).Format(booking.DateLayout) + " ~ " + booking.Day(g.To).Format(booking.DateLayout),
		Weekdays:       g.Weekdays.String(),
		TimeRange:      booking.FormatClock(g.Start) + " ~ " + booking.FormatClock(g.End),
		Purpose:        strings.TrimSpace(g.Purpose),
	}
}

// MaskName keeps the first character and hides the rest ("김중앙" -> "김**").
func MaskName(name string) string {
	name = strings.TrimSpace(name)
	r := []rune(name)
	if len(r) > 1 {
		return string(r[0]) + "**"
	}
	return name
}
