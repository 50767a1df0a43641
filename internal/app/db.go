package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the reservation
// reads can run inside the booking transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ---- users ----

func (a *App) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.NewString()
	q := `INSERT INTO users (id, email, name, password_hash) VALUES ($1,$2,$3,$4)
	      RETURNING created_at`
	return a.DB.QueryRow(ctx, q, u.ID, u.Email, u.Name, u.PasswordHash).Scan(&u.CreatedAt)
}

func (a *App) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	q := `SELECT id, email, name, password_hash, created_at FROM users WHERE email=$1`
	var u User
	err := a.DB.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ---- organisations ----

func (a *App) CreateOrganisation(ctx context.Context, o *Organisation, ownerID string) error {
	tx, err := a.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	o.ID = uuid.NewString()
	q := `INSERT INTO organisations (id, name, contact_email) VALUES ($1,$2,$3) RETURNING created_at`
	if err := tx.QueryRow(ctx, q, o.ID, o.Name, o.ContactEmail).Scan(&o.CreatedAt); err != nil {
		return err
	}
	mq := `INSERT INTO memberships (user_id, organisation_id, role) VALUES ($1,$2,'owner')`
	if _, err := tx.Exec(ctx, mq, ownerID, o.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (a *App) ListOrganisations(ctx context.Context, userID string) ([]Organisation, error) {
	q := `SELECT o.id, o.name, o.contact_email, o.created_at
	      FROM organisations o
	      JOIN memberships m ON m.organisation_id = o.id
	      WHERE m.user_id = $1 ORDER BY o.name`
	rows, err := a.DB.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Organisation
	for rows.Next() {
		var o Organisation
		if err := rows.Scan(&o.ID, &o.Name, &o.ContactEmail, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// IsMember re-derives the caller's membership on every request; authorization
// context is never cached.
func (a *App) IsMember(ctx context.Context, userID, orgID string) (bool, error) {
	q := `SELECT 1 FROM memberships WHERE user_id=$1 AND organisation_id=$2`
	var one int
	err := a.DB.QueryRow(ctx, q, userID, orgID).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ---- properties ----

func (a *App) CreateProperty(ctx context.Context, p *Property) error {
	p.ID = uuid.NewString()
	if p.Timezone == "" {
		p.Timezone = "UTC"
	}
	q := `INSERT INTO properties (id, organisation_id, name, address, timezone)
	      VALUES ($1,$2,$3,$4,$5) RETURNING created_at`
	return a.DB.QueryRow(ctx, q, p.ID, p.OrganisationID, p.Name, p.Address, p.Timezone).Scan(&p.CreatedAt)
}

func (a *App) ListProperties(ctx context.Context, orgID string) ([]Property, error) {
	q := `SELECT id, organisation_id, name, address, timezone, created_at
	      FROM properties WHERE organisation_id=$1 ORDER BY name`
	rows, err := a.DB.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.ID, &p.OrganisationID, &p.Name, &p.Address, &p.Timezone, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (a *App) GetProperty(ctx context.Context, id string) (*Property, error) {
	q := `SELECT id, organisation_id, name, address, timezone, created_at
	      FROM properties WHERE id=$1`
	var p Property
	err := a.DB.QueryRow(ctx, q, id).Scan(&p.ID, &p.OrganisationID, &p.Name, &p.Address, &p.Timezone, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *App) DeleteProperty(ctx context.Context, id string) (bool, error) {
	res, err := a.DB.Exec(ctx, `DELETE FROM properties WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// ---- rooms ----

func (a *App) CreateRoom(ctx context.Context, r *Room) error {
	r.ID = uuid.NewString()
	q := `INSERT INTO rooms (id, property_id, name, capacity, price_per_night, pricing_type)
	      VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at`
	return a.DB.QueryRow(ctx, q, r.ID, r.PropertyID, r.Name, r.Capacity, r.PricePerNight, string(r.PricingType)).Scan(&r.CreatedAt)
}

func scanRoom(row pgx.Row) (*Room, error) {
	var r Room
	var pt string
	if err := row.Scan(&r.ID, &r.PropertyID, &r.Name, &r.Capacity, &r.PricePerNight, &pt, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.PricingType = PricingType(pt)
	return &r, nil
}

const roomCols = `id, property_id, name, capacity, price_per_night, pricing_type, created_at`

func (a *App) GetRoom(ctx context.Context, id string) (*Room, error) {
	return scanRoom(a.DB.QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id=$1`, id))
}

func (a *App) ListRooms(ctx context.Context, propertyID string) ([]Room, error) {
	rows, err := a.DB.Query(ctx, `SELECT `+roomCols+` FROM rooms WHERE property_id=$1 ORDER BY name`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (a *App) ListRoomsByOrganisation(ctx context.Context, orgID string) ([]Room, error) {
	q := `SELECT r.id, r.property_id, r.name, r.capacity, r.price_per_night, r.pricing_type, r.created_at
	      FROM rooms r JOIN properties p ON p.id = r.property_id
	      WHERE p.organisation_id=$1 ORDER BY r.name`
	rows, err := a.DB.Query(ctx, q, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (a *App) DeleteRoom(ctx context.Context, id string) (bool, error) {
	res, err := a.DB.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// RoomOrganisation resolves which organisation a room belongs to.
func (a *App) RoomOrganisation(ctx context.Context, roomID string) (string, error) {
	q := `SELECT p.organisation_id FROM rooms r JOIN properties p ON p.id = r.property_id WHERE r.id=$1`
	var orgID string
	if err := a.DB.QueryRow(ctx, q, roomID).Scan(&orgID); err != nil {
		return "", err
	}
	return orgID, nil
}

// ---- equipment ----

func (a *App) CreateEquipment(ctx context.Context, e *Equipment) error {
	e.ID = uuid.NewString()
	if e.Quantity <= 0 {
		e.Quantity = 1
	}
	q := `INSERT INTO equipment (id, room_id, name, quantity) VALUES ($1,$2,$3,$4)`
	_, err := a.DB.Exec(ctx, q, e.ID, e.RoomID, e.Name, e.Quantity)
	return err
}

func (a *App) ListEquipment(ctx context.Context, roomID string) ([]Equipment, error) {
	q := `SELECT id, room_id, name, quantity FROM equipment WHERE room_id=$1 ORDER BY name`
	rows, err := a.DB.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Equipment
	for rows.Next() {
		var e Equipment
		if err := rows.Scan(&e.ID, &e.RoomID, &e.Name, &e.Quantity); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (a *App) DeleteEquipment(ctx context.Context, id string) (bool, error) {
	res, err := a.DB.Exec(ctx, `DELETE FROM equipment WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// ---- reservations ----

const reservationCols = `id, room_id, guest_name, guest_email, start_date, end_date,
	start_time, duration, status, total_price, notes, source, created_at, updated_at`

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var start, end time.Time
	var status string
	if err := row.Scan(&r.ID, &r.RoomID, &r.GuestName, &r.GuestEmail, &start, &end,
		&r.StartTime, &r.Duration, &status, &r.TotalPrice, &r.Notes, &r.Source,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.StartDate = DateOf(start)
	r.EndDate = DateOf(end)
	r.Status = ReservationStatus(status)
	return &r, nil
}

func (a *App) GetReservation(ctx context.Context, id string) (*Reservation, error) {
	return scanReservation(a.DB.QueryRow(ctx, `SELECT `+reservationCols+` FROM reservations WHERE id=$1`, id))
}

// ListRoomReservations returns a room's non-cancelled reservations, the input
// set for conflict and availability checks. It accepts a querier so the
// booking transaction sees a consistent snapshot after locking the room row.
func (a *App) ListRoomReservations(ctx context.Context, db querier, roomID string) ([]Reservation, error) {
	q := `SELECT ` + reservationCols + ` FROM reservations
	      WHERE room_id=$1 AND status <> 'CANCELLED' ORDER BY effective_start`
	rows, err := db.Query(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ReservationFilter narrows ListReservations. Zero values mean "no filter".
type ReservationFilter struct {
	OrganisationID string
	PropertyID     string
	RoomID         string
	Status         ReservationStatus
	From           time.Time
	To             time.Time
}

func (a *App) ListReservations(ctx context.Context, f ReservationFilter) ([]Reservation, error) {
	q := `SELECT res.id, res.room_id, res.guest_name, res.guest_email, res.start_date, res.end_date,
	             res.start_time, res.duration, res.status, res.total_price, res.notes, res.source,
	             res.created_at, res.updated_at
	      FROM reservations res
	      JOIN rooms r ON r.id = res.room_id
	      JOIN properties p ON p.id = r.property_id
	      WHERE p.organisation_id = $1`
	args := []any{f.OrganisationID}

	if f.PropertyID != "" {
		args = append(args, f.PropertyID)
		q += fmt.Sprintf(" AND p.id = $%d", len(args))
	}
	if f.RoomID != "" {
		args = append(args, f.RoomID)
		q += fmt.Sprintf(" AND res.room_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		q += fmt.Sprintf(" AND res.status = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		q += fmt.Sprintf(" AND res.effective_end > $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		q += fmt.Sprintf(" AND res.effective_start < $%d", len(args))
	}
	q += " ORDER BY res.effective_start"

	rows, err := a.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ---- integrations ----

func (a *App) UpsertIntegration(ctx context.Context, in *Integration) error {
	q := `INSERT INTO integrations (id, organisation_id, provider, calendar_id, token_json)
	      VALUES ($1,$2,$3,$4,$5)
	      ON CONFLICT (organisation_id, provider)
	      DO UPDATE SET token_json = EXCLUDED.token_json,
	                    calendar_id = EXCLUDED.calendar_id,
	                    updated_at = now()
	      RETURNING id, created_at, updated_at`
	return a.DB.QueryRow(ctx, q, uuid.NewString(), in.OrganisationID, in.Provider,
		in.CalendarID, in.TokenJSON).Scan(&in.ID, &in.CreatedAt, &in.UpdatedAt)
}

func (a *App) GetIntegration(ctx context.Context, orgID, provider string) (*Integration, error) {
	q := `SELECT id, organisation_id, provider, calendar_id, token_json, created_at, updated_at
	      FROM integrations WHERE organisation_id=$1 AND provider=$2`
	var in Integration
	err := a.DB.QueryRow(ctx, q, orgID, provider).Scan(&in.ID, &in.OrganisationID,
		&in.Provider, &in.CalendarID, &in.TokenJSON, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &in, nil
}

func (a *App) ListIntegrations(ctx context.Context, provider string) ([]Integration, error) {
	q := `SELECT id, organisation_id, provider, calendar_id, token_json, created_at, updated_at
	      FROM integrations WHERE provider=$1`
	rows, err := a.DB.Query(ctx, q, provider)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Integration
	for rows.Next() {
		var in Integration
		if err := rows.Scan(&in.ID, &in.OrganisationID, &in.Provider, &in.CalendarID,
			&in.TokenJSON, &in.CreatedAt, &in.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// ---- external events ----

// ReplaceExternalEvents swaps the cached event window for one integration in
// a single transaction so readers never see a half-refreshed cache.
func (a *App) ReplaceExternalEvents(ctx context.Context, orgID, provider string, events []ExternalEvent) error {
	tx, err := a.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM external_events WHERE organisation_id=$1 AND provider=$2`, orgID, provider); err != nil {
		return err
	}
	q := `INSERT INTO external_events (id, organisation_id, provider, event_id, summary, location, start_at, end_at, status)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	for _, e := range events {
		if _, err := tx.Exec(ctx, q, uuid.NewString(), orgID, provider,
			e.EventID, e.Summary, e.Location, e.StartAt, e.EndAt, e.Status); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (a *App) ListExternalEvents(ctx context.Context, orgID string, from, to time.Time) ([]ExternalEvent, error) {
	q := `SELECT id, organisation_id, provider, event_id, summary, location, start_at, end_at, status
	      FROM external_events
	      WHERE organisation_id=$1 AND end_at > $2 AND start_at < $3
	      ORDER BY start_at`
	rows, err := a.DB.Query(ctx, q, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExternalEvent
	for rows.Next() {
		var e ExternalEvent
		if err := rows.Scan(&e.ID, &e.OrganisationID, &e.Provider, &e.EventID,
			&e.Summary, &e.Location, &e.StartAt, &e.EndAt, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- user preferences ----

// GetPreferences returns the caller's preferences. A stored last-active
// property is validated on read: if it no longer exists or the caller lost
// membership of its organisation, the preference is cleared.
func (a *App) GetPreferences(ctx context.Context, userID string) (*UserPreferences, error) {
	p := &UserPreferences{UserID: userID}
	q := `SELECT last_property_id FROM user_preferences WHERE user_id=$1`
	err := a.DB.QueryRow(ctx, q, userID).Scan(&p.LastPropertyID)
	if err == pgx.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return nil, err
	}
	if p.LastPropertyID == nil {
		return p, nil
	}

	prop, err := a.GetProperty(ctx, *p.LastPropertyID)
	if err == pgx.ErrNoRows {
		prop = nil
	} else if err != nil {
		return nil, err
	}
	valid := false
	if prop != nil {
		valid, err = a.IsMember(ctx, userID, prop.OrganisationID)
		if err != nil {
			return nil, err
		}
	}
	if !valid {
		p.LastPropertyID = nil
		if _, err := a.DB.Exec(ctx,
			`UPDATE user_preferences SET last_property_id = NULL WHERE user_id=$1`, userID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (a *App) SetPreferences(ctx context.Context, p *UserPreferences) error {
	q := `INSERT INTO user_preferences (user_id, last_property_id) VALUES ($1,$2)
	      ON CONFLICT (user_id) DO UPDATE SET last_property_id = EXCLUDED.last_property_id`
	_, err := a.DB.Exec(ctx, q, p.UserID, p.LastPropertyID)
	return err
}
