package app

import (
	"fmt"
	"time"
)

// Catalog returns the fixed slot starts for one calendar day, between the
// configured opening and closing hours at the configured increment.
func (c SlotConfig) Catalog(date Date) []time.Time {
	var out []time.Time
	step := time.Duration(c.IncrementMins) * time.Minute
	open := date.Add(time.Duration(c.OpenHour) * time.Hour)
	closeAt := date.Add(time.Duration(c.CloseHour) * time.Hour)
	for s := open; s.Before(closeAt); s = s.Add(step) {
		out = append(out, s)
	}
	return out
}

// AvailableSlots computes the ordered bookable start-times ("HH:MM") on a
// date for a requested duration, given the room's non-cancelled
// reservations. A start S is bookable iff [S, S+duration) fits inside
// opening hours and overlaps no existing effective interval. The result is
// deterministic and recomputed per call; an empty result means the date is
// fully reserved for that duration.
func AvailableSlots(cfg SlotConfig, date Date, durationHours int, existing []Reservation) ([]string, error) {
	if durationHours < 1 || durationHours > FullDayDuration {
		return nil, fmt.Errorf("duration must be between 1 and %d hours", FullDayDuration)
	}

	day := Interval{Start: date.Time, End: date.AddDate(0, 0, 1)}
	var blocked []Interval
	for i := range existing {
		e := &existing[i]
		if e.Status == StatusCancelled {
			continue
		}
		iv, err := e.Effective()
		if err != nil {
			return nil, fmt.Errorf("reservation %s: %w", e.ID, err)
		}
		if iv.Overlaps(day) {
			blocked = append(blocked, iv)
		}
	}

	// Full day occupies the whole catalog; it is bookable only when the day
	// is completely free, and then starts at opening time.
	if durationHours == FullDayDuration {
		if len(blocked) > 0 {
			return nil, nil
		}
		open := date.Add(time.Duration(cfg.OpenHour) * time.Hour)
		return []string{open.Format("15:04")}, nil
	}

	want := time.Duration(durationHours) * time.Hour
	closeAt := date.Add(time.Duration(cfg.CloseHour) * time.Hour)

	var out []string
	for _, s := range cfg.Catalog(date) {
		candidate := Interval{Start: s, End: s.Add(want)}
		if candidate.End.After(closeAt) {
			break
		}
		free := true
		for _, b := range blocked {
			if candidate.Overlaps(b) {
				free = false
				break
			}
		}
		if free {
			out = append(out, s.Format("15:04"))
		}
	}
	return out, nil
}

// AvailableDates returns the dates of a month that still have at least one
// bookable slot for the requested duration. Dates with no remaining slot are
// excluded (fully reserved).
func AvailableDates(cfg SlotConfig, year int, month time.Month, durationHours int, existing []Reservation) ([]Date, error) {
	first := Date{time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)}
	var out []Date
	for d := first; d.Month() == month; d = (Date{d.AddDate(0, 0, 1)}) {
		slots, err := AvailableSlots(cfg, d, durationHours, existing)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			out = append(out, d)
		}
	}
	return out, nil
}
