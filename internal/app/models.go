package app

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date (no time-of-day component). It marshals as
// "YYYY-MM-DD" and always carries a UTC midnight timestamp internally.
type Date struct {
	time.Time
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return Date{t.UTC()}, nil
}

func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// PricingType is the per-room billing unit.
type PricingType string

const (
	PricingHour  PricingType = "hour"
	PricingDay   PricingType = "day"
	PricingNight PricingType = "night"
)

func ParsePricingType(s string) (PricingType, error) {
	switch PricingType(strings.ToLower(s)) {
	case PricingHour:
		return PricingHour, nil
	case PricingDay:
		return PricingDay, nil
	case PricingNight:
		return PricingNight, nil
	}
	return "", fmt.Errorf("invalid pricing type %q (want hour, day or night)", s)
}

// ReservationStatus is a closed enum. Anything outside the four values below
// is rejected at parse time so every consumer sees the same vocabulary.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "PENDING"
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
	StatusCompleted ReservationStatus = "COMPLETED"
)

func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch ReservationStatus(strings.ToUpper(s)) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("invalid reservation status %q", s)
}

func (s *ReservationStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseReservationStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Reservation sources.
const (
	SourceInternal = "internal"
	SourceWidget   = "widget"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type Organisation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type Membership struct {
	UserID         string `json:"user_id"`
	OrganisationID string `json:"organisation_id"`
	Role           string `json:"role"`
}

type Property struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Name           string    `json:"name"`
	Address        string    `json:"address,omitempty"`
	Timezone       string    `json:"timezone,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

type Room struct {
	ID            string      `json:"id"`
	PropertyID    string      `json:"property_id"`
	Name          string      `json:"name"`
	Capacity      int         `json:"capacity"`
	PricePerNight float64     `json:"price_per_night"`
	PricingType   PricingType `json:"pricing_type"`
	CreatedAt     time.Time   `json:"created_at,omitempty"`
}

type Equipment struct {
	ID       string `json:"id"`
	RoomID   string `json:"room_id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type Reservation struct {
	ID         string            `json:"id"`
	RoomID     string            `json:"room_id"`
	GuestName  string            `json:"guest_name"`
	GuestEmail string            `json:"guest_email,omitempty"`
	StartDate  Date              `json:"start_date"`
	EndDate    Date              `json:"end_date"`
	StartTime  string            `json:"start_time,omitempty"` // "HH:MM", same-day only
	Duration   int               `json:"duration,omitempty"`   // hours 1..8, 8 = full day
	Status     ReservationStatus `json:"status"`
	TotalPrice float64           `json:"total_price"`
	Notes      string            `json:"notes,omitempty"`
	Source     string            `json:"source,omitempty"`
	CreatedAt  time.Time         `json:"created_at,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
}

// IsSameDay reports whether the reservation occupies a single calendar day.
func (r *Reservation) IsSameDay() bool {
	return r.StartDate.Equal(r.EndDate.Time)
}

type Integration struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Provider       string    `json:"provider"`
	CalendarID     string    `json:"calendar_id,omitempty"`
	TokenJSON      string    `json:"-"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// ExternalEvent is a cached read-only event from an external calendar. It is
// merged with reservations for display and never feeds conflict detection.
type ExternalEvent struct {
	ID             string    `json:"id"`
	OrganisationID string    `json:"organisation_id"`
	Provider       string    `json:"provider"`
	EventID        string    `json:"event_id"`
	Summary        string    `json:"summary"`
	Location       string    `json:"location,omitempty"`
	StartAt        time.Time `json:"start_at"`
	EndAt          time.Time `json:"end_at"`
	Status         string    `json:"status,omitempty"`
}

type UserPreferences struct {
	UserID         string  `json:"user_id"`
	LastPropertyID *string `json:"last_property_id"`
}
