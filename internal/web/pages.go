package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/example/roombook/internal/application/usecases"
	"github.com/example/roombook/internal/domain/booking"
)

type pageData struct {
	Title string
	Flash *Flash
	Error string

	Board usecases.StatusBoard
	Week  weekView

	Form     bookingForm
	Grant    grantForm
	Weekdays []string
	MinDate  string
	MaxDate  string
}

type hourRow struct {
	Label string
	Cells []string
}

type weekView struct {
	Offset int
	Prev   int
	Next   int
	Days   []string
	Hours  []hourRow
}

func newWeekView(g booking.WeekGrid, offset int) weekView {
	v := weekView{Offset: offset, Prev: offset - 1, Next: offset + 1}
	for _, d := range g.Days {
		v.Days = append(v.Days, fmt.Sprintf("%s (%s)", d.Format("01/02"), booking.WeekdayToken(d.Weekday())))
	}
	for h := 0; h < 24; h++ {
		row := hourRow{Label: fmt.Sprintf("%02d:00", h)}
		for d := range g.Days {
			row.Cells = append(row.Cells, g.Cells[d][h].String())
		}
		v.Hours = append(v.Hours, row)
	}
	return v
}

func (s *Server) page(ctx context.Context, offset int) pageData {
	today := s.today()
	data := pageData{
		Title:    "Room booking",
		Week:     newWeekView(s.Bookings.Week(ctx, offset), offset),
		Form:     newBookingForm(today),
		Weekdays: booking.WeekdayTokens[:],
		MinDate:  today.Format(booking.DateLayout),
	}
	if s.HorizonDays > 0 {
		data.MaxDate = today.AddDate(0, 0, s.HorizonDays).Format(booking.DateLayout)
	}
	board, err := s.Bookings.Status(ctx)
	if err != nil {
		s.logFor(ctx).WithError(err).Warn("status board unavailable")
		board.Degraded = true
	}
	data.Board = board
	return data
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("week"))
	data := s.page(r.Context(), offset)
	if fl, ok := s.Flash.Pop(w, r); ok {
		data.Flash = &fl
	}
	s.render(w, http.StatusOK, "templates/index.html", data)
}

func (s *Server) handleBookingCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := parseBookingForm(r)

	switch r.PostFormValue("action") {
	case "add":
		form.addRow()
		s.rerender(w, r, http.StatusOK, func(d *pageData) { d.Form = form })
		return
	case "remove":
		form.removeRow()
		s.rerender(w, r, http.StatusOK, func(d *pageData) { d.Form = form })
		return
	}

	req, err := form.request()
	if err == nil {
		var b booking.AdHocBooking
		b, err = s.Bookings.Book(r.Context(), req)
		if err == nil {
			s.redirectWithFlash(w, r, Flash{
				Kind: "success",
				Message: fmt.Sprintf("Booked %s %s ~ %s.",
					b.Date.Format(booking.DateLayout), booking.FormatClock(b.Start), booking.FormatClock(b.End)),
			})
			return
		}
	}
	s.rerender(w, r, statusFor(err), func(d *pageData) {
		d.Form = form
		d.Error = message(err)
	})
}

func (s *Server) handleGrantCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := parseGrantForm(r)

	req, err := form.request()
	if err == nil {
		var g booking.RecurringGrant
		g, err = s.Bookings.RequestGrant(r.Context(), req)
		if err == nil {
			s.redirectWithFlash(w, r, Flash{
				Kind:    "success",
				Message: fmt.Sprintf("Grant request for %s submitted. It takes effect once approved.", g.GroupName),
			})
			return
		}
	}
	s.rerender(w, r, statusFor(err), func(d *pageData) {
		d.Grant = form
		d.Error = message(err)
	})
}

func (s *Server) rerender(w http.ResponseWriter, r *http.Request, status int, edit func(*pageData)) {
	data := s.page(r.Context(), 0)
	edit(&data)
	s.render(w, status, "templates/index.html", data)
}

func (s *Server) redirectWithFlash(w http.ResponseWriter, r *http.Request, fl Flash) {
	if err := s.Flash.Set(w, r, fl); err != nil {
		s.logFor(r.Context()).WithError(err).Warn("set flash failed")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
