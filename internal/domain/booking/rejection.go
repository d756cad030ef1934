package booking

import (
	"errors"
	"fmt"
)

type Reason string

const (
	ReasonTooFewParticipants Reason = "too_few_participants"
	ReasonDurationTooLong    Reason = "duration_too_long"
	ReasonDurationTooShort   Reason = "duration_too_short"
	ReasonDailyCapExceeded   Reason = "daily_cap_exceeded"
	ReasonSlotOverlap        Reason = "slot_overlap"
	ReasonDateOutOfWindow    Reason = "date_out_of_window"
	ReasonInvalidTime        Reason = "invalid_time"

	ReasonMissingGroupName  Reason = "missing_group_name"
	ReasonMissingWeekdays   Reason = "missing_weekdays"
	ReasonInvalidDateRange  Reason = "invalid_date_range"
	ReasonWeeklyCapExceeded Reason = "weekly_cap_exceeded"
)

// Rejection is a validation failure surfaced verbatim to the caller.
type Rejection struct {
	Reason Reason
	Detail string

	// set for ReasonDailyCapExceeded
	Participant *Participant
	Existing    int
	Requested   int

	// set for ReasonSlotOverlap, exactly one of the two
	Booking *AdHocBooking
	Grant   *RecurringGrant
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// IsReason reports whether err is a Rejection with the given reason.
func IsReason(err error, reason Reason) bool {
	r, ok := AsRejection(err)
	return ok && r.Reason == reason
}
