package booking

import (
	"fmt"
	"strings"
	"time"
)

// Participant is a person identified by the exact (name, id) pair.
type Participant struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

func (p Participant) Trimmed() Participant {
	return Participant{Name: strings.TrimSpace(p.Name), ID: strings.TrimSpace(p.ID)}
}

// Valid reports whether both name and id are present.
func (p Participant) Valid() bool {
	t := p.Trimmed()
	return t.Name != "" && t.ID != ""
}

// Token is the "name(id)" form used in the stored companions field.
func (p Participant) Token() string {
	t := p.Trimmed()
	return fmt.Sprintf("%s(%s)", t.Name, t.ID)
}

func (p Participant) String() string {
	t := p.Trimmed()
	return t.Name + " " + t.ID
}

// AdHocBooking is a single-occurrence reservation read from the store.
type AdHocBooking struct {
	Date           time.Time
	Start          int
	End            int
	Representative Participant
	// Companions is the stored "name1(id1), name2(id2)" field, or NoCompanions.
	Companions string
}

func (b AdHocBooking) Span() Span { return Anchor(b.Date, b.Start, b.End) }

func (b AdHocBooking) Duration() int {
	s, e := NormalizeSpan(b.Start, b.End)
	return e - s
}

// Includes reports whether p is the representative or appears in the companions field.
// Companion membership is a substring match on p.Token(), so "Kim(1)" also matches
// inside "Jong Kim(1)".
func (b AdHocBooking) Includes(p Participant) bool {
	p = p.Trimmed()
	if b.Representative.Trimmed() == p {
		return true
	}
	return strings.Contains(b.Companions, p.Token())
}

// RecurringGrant is a standing weekly reservation approved out of band.
type RecurringGrant struct {
	CreatedDate    time.Time
	GroupName      string
	Representative string
	Contact        string
	From           time.Time
	To             time.Time
	Weekdays       WeekdaySet
	Start          int
	End            int
	Purpose        string
}

// ActiveOn reports whether the grant recurs on date.
func (g RecurringGrant) ActiveOn(date time.Time) bool {
	d := Day(date)
	if d.Before(Day(g.From)) || d.After(Day(g.To)) {
		return false
	}
	return g.Weekdays.Has(d.Weekday())
}

// SpanOn anchors the grant's daily time span to date.
func (g RecurringGrant) SpanOn(date time.Time) Span { return Anchor(date, g.Start, g.End) }

func (g RecurringGrant) Duration() int {
	s, e := NormalizeSpan(g.Start, g.End)
	return e - s
}

// Request is a candidate ad-hoc booking. Participants[0] is the representative.
type Request struct {
	Date         time.Time
	Start        int
	End          int
	Participants []Participant
}

func (r Request) Span() Span { return Anchor(r.Date, r.Start, r.End) }

func (r Request) Duration() int {
	s, e := NormalizeSpan(r.Start, r.End)
	return e - s
}

// ValidParticipants drops rows missing a name or id and trims the rest, keeping order.
func (r Request) ValidParticipants() []Participant {
	var out []Participant
	for _, p := range r.Participants {
		if p.Valid() {
			out = append(out, p.Trimmed())
		}
	}
	return out
}

// GrantRequest is an application for a recurring grant.
type GrantRequest struct {
	GroupName      string
	Representative string
	Contact        string
	From           time.Time
	To             time.Time
	Weekdays       WeekdaySet
	Start          int
	End            int
	Purpose        string
}

func (g GrantRequest) Duration() int {
	s, e := NormalizeSpan(g.Start, g.End)
	return e - s
}

// Snapshot is the pair of read-only collections a validation runs against.
type Snapshot struct {
	Bookings []AdHocBooking
	Grants   []RecurringGrant
}

// NoCompanions is stored in place of an empty companions list.
const NoCompanions = "없음"
