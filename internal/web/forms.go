package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/internaltypes"
	"github.com/example/roombook/internal/sheet"
)

// maxParticipantRows bounds the add-row button, not the validator.
const maxParticipantRows = 10

type participantRow struct {
	Name string
	ID   string
}

// bookingForm is the booking form state. It lives only for one request: added or removed
// participant rows are echoed back through the next render.
type bookingForm struct {
	Date  string
	Start string
	End   string
	Rows  []participantRow
}

func newBookingForm(today time.Time) bookingForm {
	return bookingForm{
		Date:  today.Format(booking.DateLayout),
		Start: "09:00",
		End:   "10:00",
		// a representative and one companion
		Rows: []participantRow{{}, {}},
	}
}

func parseBookingForm(r *http.Request) bookingForm {
	f := bookingForm{
		Date:  strings.TrimSpace(r.PostFormValue("date")),
		Start: strings.TrimSpace(r.PostFormValue("start")),
		End:   strings.TrimSpace(r.PostFormValue("end")),
	}
	names, ids := r.PostForm["name"], r.PostForm["id"]
	n := max(len(names), len(ids))
	for i := 0; i < n && i < maxParticipantRows; i++ {
		var row participantRow
		if i < len(names) {
			row.Name = names[i]
		}
		if i < len(ids) {
			row.ID = ids[i]
		}
		f.Rows = append(f.Rows, row)
	}
	if len(f.Rows) == 0 {
		f.Rows = []participantRow{{}}
	}
	return f
}

func (f *bookingForm) addRow() {
	if len(f.Rows) < maxParticipantRows {
		f.Rows = append(f.Rows, participantRow{})
	}
}

func (f *bookingForm) removeRow() {
	if len(f.Rows) > 1 {
		f.Rows = f.Rows[:len(f.Rows)-1]
	}
}

func (f bookingForm) participants() []booking.Participant {
	out := make([]booking.Participant, 0, len(f.Rows))
	for _, r := range f.Rows {
		out = append(out, booking.Participant{Name: r.Name, ID: r.ID})
	}
	return out
}

func (f bookingForm) request() (booking.Request, error) {
	return buildRequest(f.Date, f.Start, f.End, f.participants())
}

func inputErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", internaltypes.ErrParse, fmt.Sprintf(format, args...))
}

func parseDateInput(field, v string) (time.Time, error) {
	d, err := booking.ParseDate(sheet.NormalizeDate(v))
	if err != nil {
		return time.Time{}, inputErr("%s: %q is not a YYYY-MM-DD date", field, v)
	}
	return d, nil
}

func parseClockInput(field, v string) (int, error) {
	m, err := booking.ParseClock(v)
	if err != nil {
		return 0, inputErr("%s: %q is not an HH:MM time", field, v)
	}
	return m, nil
}

func buildRequest(date, start, end string, people []booking.Participant) (booking.Request, error) {
	d, err := parseDateInput("date", date)
	if err != nil {
		return booking.Request{}, err
	}
	s, err := parseClockInput("start", start)
	if err != nil {
		return booking.Request{}, err
	}
	e, err := parseClockInput("end", end)
	if err != nil {
		return booking.Request{}, err
	}
	return booking.Request{Date: d, Start: s, End: e, Participants: people}, nil
}

type grantForm struct {
	GroupName      string
	Representative string
	Contact        string
	From           string
	To             string
	Weekdays       []string
	Start          string
	End            string
	Purpose        string
}

func parseGrantForm(r *http.Request) grantForm {
	return grantForm{
		GroupName:      strings.TrimSpace(r.PostFormValue("group_name")),
		Representative: strings.TrimSpace(r.PostFormValue("representative")),
		Contact:        strings.TrimSpace(r.PostFormValue("contact")),
		From:           strings.TrimSpace(r.PostFormValue("from")),
		To:             strings.TrimSpace(r.PostFormValue("to")),
		Weekdays:       r.PostForm["weekday"],
		Start:          strings.TrimSpace(r.PostFormValue("start")),
		End:            strings.TrimSpace(r.PostFormValue("end")),
		Purpose:        strings.TrimSpace(r.PostFormValue("purpose")),
	}
}

// Checked reports whether the weekday checkbox tok was ticked.
func (g grantForm) Checked(tok string) bool {
	for _, w := range g.Weekdays {
		if w == tok {
			return true
		}
	}
	return false
}

func (g grantForm) request() (booking.GrantRequest, error) {
	from, err := parseDateInput("from", g.From)
	if err != nil {
		return booking.GrantRequest{}, err
	}
	to, err := parseDateInput("to", g.To)
	if err != nil {
		return booking.GrantRequest{}, err
	}
	var days []time.Weekday
	for _, tok := range g.Weekdays {
		d, err := booking.ParseWeekday(tok)
		if err != nil {
			return booking.GrantRequest{}, inputErr("weekday: %q", tok)
		}
		days = append(days, d)
	}
	start, err := parseClockInput("start", g.Start)
	if err != nil {
		return booking.GrantRequest{}, err
	}
	end, err := parseClockInput("end", g.End)
	if err != nil {
		return booking.GrantRequest{}, err
	}
	return booking.GrantRequest{
		GroupName:      g.GroupName,
		Representative: g.Representative,
		Contact:        g.Contact,
		From:           from,
		To:             to,
		Weekdays:       booking.NewWeekdaySet(days...),
		Start:          start,
		End:            end,
		Purpose:        g.Purpose,
	}, nil
}

// message turns a service error into text for the form page.
func message(err error) string {
	if r, ok := booking.AsRejection(err); ok {
		switch r.Reason {
		case booking.ReasonTooFewParticipants:
			return "Not enough participants: " + r.Detail
		case booking.ReasonDurationTooLong, booking.ReasonDurationTooShort:
			return "Invalid duration: " + r.Detail
		case booking.ReasonDailyCapExceeded:
			return "Daily limit reached: " + r.Detail
		case booking.ReasonSlotOverlap:
			return "That time is taken: " + r.Detail
		case booking.ReasonDateOutOfWindow:
			return "Date not bookable: " + r.Detail
		case booking.ReasonInvalidTime:
			return "Invalid time: " + r.Detail
		default:
			return r.Detail
		}
	}
	switch {
	case errors.Is(err, internaltypes.ErrParse):
		return err.Error()
	case errors.Is(err, internaltypes.ErrStoreUnavailable):
		return "The booking store is unavailable and nothing was saved. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
