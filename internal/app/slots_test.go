package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSlots = SlotConfig{OpenHour: 9, CloseHour: 18, IncrementMins: 30}

func TestCatalog(t *testing.T) {
	catalog := testSlots.Catalog(date(2024, 6, 1))
	require.Len(t, catalog, 18) // 09:00..17:30 at 30 min
	assert.Equal(t, at(2024, 6, 1, 9, 0), catalog[0])
	assert.Equal(t, at(2024, 6, 1, 17, 30), catalog[len(catalog)-1])
}

func TestAvailableSlots_RemovesBlockedStarts(t *testing.T) {
	// Existing reservation 10:00 +2h blocks [10:00, 12:00).
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)}

	slots, err := AvailableSlots(testSlots, date(2024, 6, 1), 1, existing)
	require.NoError(t, err)

	assert.NotContains(t, slots, "11:30") // would run into the blocked range
	assert.NotContains(t, slots, "10:00")
	assert.NotContains(t, slots, "09:30") // 1h from 09:30 overlaps 10:00
	assert.Contains(t, slots, "12:00")    // boundary touch is allowed
	assert.Contains(t, slots, "09:00")
}

func TestAvailableSlots_FitsOpeningHours(t *testing.T) {
	slots, err := AvailableSlots(testSlots, date(2024, 6, 1), 2, nil)
	require.NoError(t, err)

	assert.Contains(t, slots, "16:00") // ends exactly at close
	assert.NotContains(t, slots, "16:30")
	assert.NotContains(t, slots, "17:30")
}

func TestAvailableSlots_CancelledIgnored(t *testing.T) {
	r := confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "10:00", 2)
	r.Status = StatusCancelled

	slots, err := AvailableSlots(testSlots, date(2024, 6, 1), 1, []Reservation{r})
	require.NoError(t, err)
	assert.Contains(t, slots, "10:00")
}

func TestAvailableSlots_FullDayRequest(t *testing.T) {
	free, err := AvailableSlots(testSlots, date(2024, 6, 1), FullDayDuration, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, free)

	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "10:00", 1)}
	blocked, err := AvailableSlots(testSlots, date(2024, 6, 1), FullDayDuration, existing)
	require.NoError(t, err)
	assert.Empty(t, blocked)
}

func TestAvailableSlots_FullDayReservationBlocksEverything(t *testing.T) {
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "", FullDayDuration)}

	slots, err := AvailableSlots(testSlots, date(2024, 6, 1), 1, existing)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlots_MultiDayBlocksWholeDays(t *testing.T) {
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 3), "", 0)}

	slots, err := AvailableSlots(testSlots, date(2024, 6, 2), 1, existing)
	require.NoError(t, err)
	assert.Empty(t, slots)

	// Checkout day is free (half-open end date).
	slots, err = AvailableSlots(testSlots, date(2024, 6, 3), 1, existing)
	require.NoError(t, err)
	assert.NotEmpty(t, slots)
}

func TestAvailableSlots_Deterministic(t *testing.T) {
	existing := []Reservation{confirmed("r1", date(2024, 6, 1), date(2024, 6, 1), "13:00", 3)}

	first, err := AvailableSlots(testSlots, date(2024, 6, 1), 2, existing)
	require.NoError(t, err)
	second, err := AvailableSlots(testSlots, date(2024, 6, 1), 2, existing)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAvailableSlots_InvalidDuration(t *testing.T) {
	_, err := AvailableSlots(testSlots, date(2024, 6, 1), 0, nil)
	assert.Error(t, err)
	_, err = AvailableSlots(testSlots, date(2024, 6, 1), 9, nil)
	assert.Error(t, err)
}

func TestAvailableDates_ExcludesFullyReserved(t *testing.T) {
	// June 10 is taken whole-day, June 11 only partially.
	existing := []Reservation{
		confirmed("r1", date(2024, 6, 10), date(2024, 6, 10), "", FullDayDuration),
		confirmed("r2", date(2024, 6, 11), date(2024, 6, 11), "10:00", 2),
	}

	dates, err := AvailableDates(testSlots, 2024, time.June, 1, existing)
	require.NoError(t, err)

	var got []string
	for _, d := range dates {
		got = append(got, d.String())
	}
	assert.NotContains(t, got, "2024-06-10")
	assert.Contains(t, got, "2024-06-11")
	assert.Contains(t, got, "2024-06-01")
	assert.Len(t, dates, 29) // June has 30 days, one fully reserved
}
