package sheet

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/roombook/internal/domain/booking"
	"github.com/example/roombook/internal/internaltypes"
)

func TestParseAdHocNormalizesDate(t *testing.T) {
	b, err := ParseAdHoc(AdHocRow{
		Date: " 2025.06.10 ", StartTime: "14:00", EndTime: "16:00",
		RepresentativeName: " 김중앙 ", RepresentativeID: "2021001", Companions: "Lee(2021002)",
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", b.Date.Format(booking.DateLayout))
	assert.Equal(t, 840, b.Start)
	assert.Equal(t, 960, b.End)
	assert.Equal(t, "김중앙", b.Representative.Name)

	b, err = ParseAdHoc(AdHocRow{Date: "2025/06/10", StartTime: "9", EndTime: "10"})
	require.NoError(t, err)
	assert.Equal(t, 540, b.Start)
}

func TestParseAdHocRowsSkipsMalformed(t *testing.T) {
	rows := []AdHocRow{
		{Date: "2025-06-10", StartTime: "14:00", EndTime: "16:00", RepresentativeName: "A", RepresentativeID: "1"},
		{Date: "next tuesday", StartTime: "14:00", EndTime: "16:00"},
		{Date: "2025-06-11", StartTime: "", EndTime: "16:00"},
	}
	got, bad := ParseAdHocRows(rows)
	require.Len(t, got, 1)
	require.Len(t, bad, 2)
	assert.Equal(t, 1, bad[0].Index)
	assert.Equal(t, 2, bad[1].Index)
	assert.True(t, errors.Is(bad[0], internaltypes.ErrParse))
}

func TestParseGrant(t *testing.T) {
	g, err := ParseGrant(GrantRow{
		CreatedDate: "2025-05-28", GroupName: "독서모임", Representative: "Kim", Contact: "010",
		DateRange: "2025-06-01 ~ 2025-06-30", Weekdays: "화, 목", TimeRange: "18:00 ~ 21:00", Purpose: "study",
	})
	require.NoError(t, err)
	assert.Equal(t, "독서모임", g.GroupName)
	assert.True(t, g.Weekdays.Has(time.Tuesday))
	assert.True(t, g.Weekdays.Has(time.Thursday))
	assert.False(t, g.Weekdays.Has(time.Wednesday))
	assert.Equal(t, 1080, g.Start)
	assert.Equal(t, 1260, g.End)
	assert.Equal(t, "2025-06-30", g.To.Format(booking.DateLayout))
}

func TestParseGrantRowsSkipsMalformed(t *testing.T) {
	rows := []GrantRow{
		{DateRange: "2025-06-01", Weekdays: "화", TimeRange: "18:00 ~ 21:00"},
		{DateRange: "2025-06-01 ~ 2025-06-30", Weekdays: "Tue", TimeRange: "18:00 ~ 21:00"},
		{DateRange: "2025-06-01 ~ 2025-06-30", Weekdays: "화", TimeRange: "18:00"},
		{DateRange: "2025-06-01 ~ 2025-06-30", Weekdays: "화", TimeRange: "18:00~21:00"},
	}
	got, bad := ParseGrantRows(rows)
	assert.Len(t, got, 1)
	assert.Len(t, bad, 3)
	for _, e := range bad {
		assert.ErrorIs(t, e, internaltypes.ErrParse)
	}
}

func TestGrantRowFromValues(t *testing.T) {
	_, ok := GrantRowFromValues([]string{"a", "b"})
	assert.False(t, ok)
	r, ok := GrantRowFromValues([]string{"2025-05-28", "g", "rep", "c", "2025-06-01 ~ 2025-06-30", "화", "18:00 ~ 21:00"})
	require.True(t, ok)
	assert.Equal(t, "", r.Purpose)
	assert.Equal(t, "화", r.Weekdays)
}

func TestAdHocFromRequest(t *testing.T) {
	d, _ := booking.ParseDate("2025-06-10")
	row := AdHocFromRequest(booking.Request{
		Date: d, Start: 1410, End: 30,
		Participants: []booking.Participant{
			{Name: " Alice ", ID: "1"},
			{Name: "", ID: "9"},
			{Name: "Bob", ID: "2"},
			{Name: "Carol", ID: "3"},
		},
	})
	assert.Equal(t, []string{"2025-06-10", "23:30", "00:30", "Alice", "1", "Bob(2), Carol(3)"}, row.Values())

	solo := AdHocFromRequest(booking.Request{Date: d, Start: 600, End: 660, Participants: []booking.Participant{{Name: "A", ID: "1"}}})
	assert.Equal(t, booking.NoCompanions, solo.Companions)

	// a formatted row parses back to the same span
	b, err := ParseAdHoc(row)
	require.NoError(t, err)
	assert.Equal(t, 60, b.Duration())
}

func TestGrantFromRequest(t *testing.T) {
	from, _ := booking.ParseDate("2025-06-01")
	to, _ := booking.ParseDate("2025-06-30")
	created, _ := booking.ParseDate("2025-05-28")
	row := GrantFromRequest(booking.GrantRequest{
		GroupName: "g", From: from, To: to,
		Weekdays: booking.NewWeekdaySet(time.Thursday, time.Tuesday),
		Start:    1080, End: 1260,
	}, created)
	assert.Equal(t, "2025-05-28", row.CreatedDate)
	assert.Equal(t, "2025-06-01 ~ 2025-06-30", row.DateRange)
	assert.Equal(t, "화, 목", row.Weekdays)
	assert.Equal(t, "18:00 ~ 21:00", row.TimeRange)
}

func TestMaskName(t *testing.T) {
	assert.Equal(t, "김**", MaskName("김중앙"))
	assert.Equal(t, "A**", MaskName(" Alice "))
	assert.Equal(t, "X", MaskName("X"))
	assert.Equal(t, "", MaskName(""))
}
