package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func at(y int, m time.Month, d, hour, min int) time.Time {
	return time.Date(y, m, d, hour, min, 0, 0, time.UTC)
}

func TestOverlaps_HalfOpen(t *testing.T) {
	a := Interval{Start: at(2024, 6, 1, 1, 0), End: at(2024, 6, 1, 5, 0)}
	b := Interval{Start: at(2024, 6, 1, 5, 0), End: at(2024, 6, 1, 9, 0)}

	// Touching boundaries never conflict.
	assert.False(t, a.Overlaps(b))
	assert.False(t, b.Overlaps(a))
}

func TestOverlaps_Symmetry(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"disjoint", Interval{at(2024, 6, 1, 8, 0), at(2024, 6, 1, 10, 0)},
			Interval{at(2024, 6, 1, 12, 0), at(2024, 6, 1, 14, 0)}, false},
		{"partial", Interval{at(2024, 6, 1, 8, 0), at(2024, 6, 1, 11, 0)},
			Interval{at(2024, 6, 1, 10, 0), at(2024, 6, 1, 14, 0)}, true},
		{"contained", Interval{at(2024, 6, 1, 1, 0), at(2024, 6, 1, 10, 0)},
			Interval{at(2024, 6, 1, 3, 0), at(2024, 6, 1, 5, 0)}, true},
		{"identical", Interval{at(2024, 6, 1, 9, 0), at(2024, 6, 1, 10, 0)},
			Interval{at(2024, 6, 1, 9, 0), at(2024, 6, 1, 10, 0)}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

func TestEffectiveInterval_MultiDay(t *testing.T) {
	iv, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 3), "", 0)
	require.NoError(t, err)
	assert.Equal(t, at(2024, 6, 1, 0, 0), iv.Start)
	assert.Equal(t, at(2024, 6, 3, 0, 0), iv.End)
}

func TestEffectiveInterval_SameDay(t *testing.T) {
	iv, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)
	require.NoError(t, err)
	assert.Equal(t, at(2024, 6, 1, 10, 0), iv.Start)
	assert.Equal(t, at(2024, 6, 1, 12, 0), iv.End)
}

func TestEffectiveInterval_FullDay(t *testing.T) {
	iv, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "", FullDayDuration)
	require.NoError(t, err)
	assert.Equal(t, at(2024, 6, 1, 0, 0), iv.Start)
	assert.Equal(t, at(2024, 6, 2, 0, 0), iv.End)
}

func TestEffectiveInterval_Invalid(t *testing.T) {
	_, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "10:00", 0)
	assert.Error(t, err)

	_, err = EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "10:00", 9)
	assert.Error(t, err)

	_, err = EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "bogus", 2)
	assert.Error(t, err)

	_, err = EffectiveInterval(date(2024, 6, 3), date(2024, 6, 1), "", 0)
	assert.Error(t, err)
}

func confirmed(id string, startDate, endDate Date, startTime string, duration int) Reservation {
	return Reservation{
		ID:        id,
		RoomID:    "room-1",
		GuestName: "guest",
		StartDate: startDate,
		EndDate:   endDate,
		StartTime: startTime,
		Duration:  duration,
		Status:    StatusConfirmed,
	}
}

func TestFindConflict_SubDayOverlap(t *testing.T) {
	// Existing 2024-06-01 10:00 +2h blocks [10:00, 12:00).
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)}

	candidate, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "10:00", 1)
	require.NoError(t, err)
	got, err := FindConflict(candidate, existing, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.ID)
}

func TestFindConflict_BoundaryTouch(t *testing.T) {
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)}

	candidate, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "12:00", 1)
	require.NoError(t, err)
	got, err := FindConflict(candidate, existing, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindConflict_CancelledExcluded(t *testing.T) {
	cancelled := confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)
	cancelled.Status = StatusCancelled

	candidate, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)
	require.NoError(t, err)
	got, err := FindConflict(candidate, []Reservation{cancelled}, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindConflict_ExcludesEditedReservation(t *testing.T) {
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)}

	candidate, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "11:00", 2)
	require.NoError(t, err)
	got, err := FindConflict(candidate, existing, "r1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindConflict_MultiDayContainment(t *testing.T) {
	// Existing multi-day stay fully contains the candidate day.
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 5), "", 0)}

	candidate, err := EffectiveInterval(date(2024, 6, 2), date(2024, 6, 2), "10:00", 2)
	require.NoError(t, err)
	got, err := FindConflict(candidate, existing, "")
	require.NoError(t, err)
	require.NotNil(t, got)

	// And the reverse: a multi-day candidate containing an existing same-day
	// booking.
	candidate, err = EffectiveInterval(date(2024, 5, 30), date(2024, 6, 10), "", 0)
	require.NoError(t, err)
	got, err = FindConflict(candidate, []Reservation{confirmed("r2", date(2024, 6, 2), date(2024, 6, 2), "10:00", 1)}, "")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestFindConflict_CheckoutDayReusable(t *testing.T) {
	// endDate is exclusive: a stay ending on the 3rd leaves the 3rd free.
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 3), "", 0)}

	candidate, err := EffectiveInterval(date(2024, 6, 3), date(2024, 6, 5), "", 0)
	require.NoError(t, err)
	got, err := FindConflict(candidate, existing, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindConflict_ReturnsFirst(t *testing.T) {
	existing := []Reservation{
		confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "09:00", 2),
		confirmed("r2", date(2024, 6, 1), date(2024, 6, 1), "13:00", 2),
	}
	candidate, err := EffectiveInterval(date(2024, 6, 1), date(2024, 6, 1), "09:00", 8)
	require.NoError(t, err)
	got, err := FindConflict(candidate, existing, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r1", got.ID)
}
