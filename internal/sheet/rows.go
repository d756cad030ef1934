// Package sheet holds the row shapes exchanged with the booking store and the
// parse/format step between those rows and the booking domain.
package sheet

// AdHocRow mirrors one line of the ad-hoc bookings sheet.
type AdHocRow struct {
	Date               string `json:"date"`
	StartTime          string `json:"start_time"`
	EndTime            string `json:"end_time"`
	RepresentativeName string `json:"representative_name"`
	RepresentativeID   string `json:"representative_id"`
	Companions         string `json:"companions"`
}

// GrantRow mirrors one line of the recurring grant sheet.
type GrantRow struct {
	CreatedDate    string `json:"created_date"`
	GroupName      string `json:"group_name"`
	Representative string `json:"representative"`
	Contact        string `json:"contact"`
	DateRange      string `json:"date_range"` // "YYYY-MM-DD ~ YYYY-MM-DD"
	Weekdays       string `json:"weekdays"`   // "월, 화"
	TimeRange      string `json:"time_range"` // "HH:MM ~ HH:MM"
	Purpose        string `json:"purpose"`
}

// Values returns the row in sheet column order.
func (r AdHocRow) Values() []string {
	return []string{r.Date, r.StartTime, r.EndTime, r.RepresentativeName, r.RepresentativeID, r.Companions}
}

func (r GrantRow) Values() []string {
	return []string{r.CreatedDate, r.GroupName, r.Representative, r.Contact, r.DateRange, r.Weekdays, r.TimeRange, r.Purpose}
}

// GrantRowFromValues builds a GrantRow from positional columns. ok is false when fewer
// than the seven required columns are present.
func GrantRowFromValues(v []string) (GrantRow, bool) {
	if len(v) < 7 {
		return GrantRow{}, false
	}
	r := GrantRow{
		CreatedDate:    v[0],
		GroupName:      v[1],
		Representative: v[2],
		Contact:        v[3],
		DateRange:      v[4],
		Weekdays:       v[5],
		TimeRange:      v[6],
	}
	if len(v) > 7 {
		r.Purpose = v[7]
	}
	return r, true
}
