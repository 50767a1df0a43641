package app

import (
	"fmt"
	"time"
)

// FullDayDuration is the sentinel duration meaning "full day" on a same-day
// reservation.
const FullDayDuration = 8

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect. Touching
// boundaries ([1,5) vs [5,9)) do not overlap.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// EffectiveInterval derives the time range a reservation actually occupies:
//
//   - multi-day: [startDate 00:00, endDate 00:00)
//   - same-day, duration = 8: the whole calendar day
//   - same-day, duration 1..7: [startTime, startTime+duration)
//
// startTime/duration are ignored on multi-day reservations.
func EffectiveInterval(startDate, endDate Date, startTime string, duration int) (Interval, error) {
	if endDate.Before(startDate.Time) {
		return Interval{}, fmt.Errorf("end date %s before start date %s", endDate, startDate)
	}
	if !startDate.Equal(endDate.Time) {
		return Interval{Start: startDate.Time, End: endDate.Time}, nil
	}

	if duration < 1 || duration > FullDayDuration {
		return Interval{}, fmt.Errorf("duration must be between 1 and %d hours", FullDayDuration)
	}
	if duration == FullDayDuration {
		return Interval{Start: startDate.Time, End: startDate.AddDate(0, 0, 1)}, nil
	}

	hour, min, err := parseHHMM(startTime)
	if err != nil {
		return Interval{}, err
	}
	start := startDate.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
	return Interval{Start: start, End: start.Add(time.Duration(duration) * time.Hour)}, nil
}

// Effective returns the interval this reservation occupies.
func (r *Reservation) Effective() (Interval, error) {
	return EffectiveInterval(r.StartDate, r.EndDate, r.StartTime, r.Duration)
}

// FindConflict returns the first non-cancelled reservation whose effective
// interval overlaps the candidate, or nil. excludeID skips the reservation
// being edited.
func FindConflict(candidate Interval, existing []Reservation, excludeID string) (*Reservation, error) {
	for i := range existing {
		e := &existing[i]
		if e.Status == StatusCancelled || e.ID == excludeID {
			continue
		}
		iv, err := e.Effective()
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", e.ID, err)
		}
		if candidate.Overlaps(iv) {
			return e, nil
		}
	}
	return nil, nil
}

func parseHHMM(s string) (hour, min int, err error) {
	if len(s) > 5 {
		s = s[:5] // tolerate "09:00:00" style values
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	return t.Hour(), t.Minute(), nil
}
