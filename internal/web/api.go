package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/internaltypes"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

type bookingPayload struct {
	Date         string                `json:"date"`
	Start        string                `json:"start"`
	End          string                `json:"end"`
	Participants []booking.Participant `json:"participants"`
}

type bookingResponse struct {
	Date           string              `json:"date"`
	Start          string              `json:"start"`
	End            string              `json:"end"`
	Representative booking.Participant `json:"representative"`
	Companions     string              `json:"companions"`
}

type grantPayload struct {
	GroupName      string   `json:"group_name"`
	Representative string   `json:"representative"`
	Contact        string   `json:"contact"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	Weekdays       []string `json:"weekdays"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Purpose        string   `json:"purpose"`
}

type grantResponse struct {
	GroupName string `json:"group_name"`
	From      string `json:"from"`
	To        string `json:"to"`
	Weekdays  string `json:"weekdays"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

type weekResponse struct {
	Offset int                   `json:"offset"`
	Days   []string              `json:"days"`
	Cells  [7][24]booking.Marker `json:"cells"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return inputErr("body: %v", err)
	}
	return nil
}

func statusFor(err error) int {
	if _, ok := booking.AsRejection(err); ok {
		return http.StatusUnprocessableEntity
	}
	switch {
	case errors.Is(err, internaltypes.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, internaltypes.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	switch status {
	case http.StatusUnprocessableEntity:
		rej, _ := booking.AsRejection(err)
		body.Code = string(rej.Reason)
		body.Error = rej.Detail
		body.Details = rejectionDetails(rej)
	case http.StatusBadRequest:
		body.Code = "invalid_input"
	case http.StatusServiceUnavailable:
		s.logFor(r.Context()).WithError(err).Warn("api request hit unavailable store")
		body.Code = "store_unavailable"
	default:
		s.logFor(r.Context()).WithError(err).Error("api request failed")
		body.Code = "internal"
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func rejectionDetails(r *booking.Rejection) map[string]any {
	switch {
	case r.Participant != nil:
		return map[string]any{
			"participant": r.Participant.String(),
			"existing":    r.Existing,
			"requested":   r.Requested,
		}
	case r.Booking != nil:
		return map[string]any{
			"date":  r.Booking.Date.Format(booking.DateLayout),
			"start": booking.FormatClock(r.Booking.Start),
			"end":   booking.FormatClock(r.Booking.End),
		}
	case r.Grant != nil:
		return map[string]any{
			"group_name": r.Grant.GroupName,
			"weekdays":   r.Grant.Weekdays.String(),
			"start":      booking.FormatClock(r.Grant.Start),
			"end":        booking.FormatClock(r.Grant.End),
		}
	}
	return nil
}

func (s *Server) apiBook(w http.ResponseWriter, r *http.Request) {
	var p bookingPayload
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := buildRequest(p.Date, p.Start, p.End, p.Participants)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.Bookings.Book(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, bookingResponse{
		Date:           b.Date.Format(booking.DateLayout),
		Start:          booking.FormatClock(b.Start),
		End:            booking.FormatClock(b.End),
		Representative: b.Representative,
		Companions:     b.Companions,
	})
}

func (s *Server) apiGrant(w http.ResponseWriter, r *http.Request) {
	var p grantPayload
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	form := grantForm{
		GroupName:      strings.TrimSpace(p.GroupName),
		Representative: strings.TrimSpace(p.Representative),
		Contact:        strings.TrimSpace(p.Contact),
		From:           strings.TrimSpace(p.From),
		To:             strings.TrimSpace(p.To),
		Weekdays:       p.Weekdays,
		Start:          strings.TrimSpace(p.Start),
		End:            strings.TrimSpace(p.End),
		Purpose:        strings.TrimSpace(p.Purpose),
	}
	req, err := form.request()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	g, err := s.Bookings.RequestGrant(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, grantResponse{
		GroupName: g.GroupName,
		From:      g.From.Format(booking.DateLayout),
		To:        g.To.Format(booking.DateLayout),
		Weekdays:  g.Weekdays.String(),
		Start:     booking.FormatClock(g.Start),
		End:       booking.FormatClock(g.End),
	})
}

func (s *Server) apiWeek(w http.ResponseWriter, r *http.Request) {
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, inputErr("offset: %q is not an integer", v))
			return
		}
		offset = n
	}
	g := s.Bookings.Week(r.Context(), offset)
	resp := weekResponse{Offset: offset, Cells: g.Cells}
	for _, d := range g.Days {
		resp.Days = append(resp.Days, d.Format(booking.DateLayout))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) apiStatus(w http.ResponseWriter, r *http.Request) {
	board, err := s.Bookings.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
