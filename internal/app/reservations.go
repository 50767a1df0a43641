package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// errBookingConflict is returned by the transactional booking path whichever
// layer detects the overlap (advisory check or exclusion constraint), so
// callers always surface the same 409.
var errBookingConflict = errors.New("reservation conflict")

const conflictMessage = "the selected time slot is no longer available, please pick a different slot"

type reservationReq struct {
	RoomID     string   `json:"room_id" binding:"required"`
	GuestName  string   `json:"guest_name" binding:"required"`
	GuestEmail string   `json:"guest_email" binding:"omitempty,email"`
	StartDate  string   `json:"start_date" binding:"required"`
	EndDate    string   `json:"end_date" binding:"required"`
	StartTime  string   `json:"start_time"`
	Duration   int      `json:"duration"`
	Status     string   `json:"status"`
	TotalPrice *float64 `json:"total_price"`
	Notes      string   `json:"notes"`
}

// validate applies the semantic checks after binding: date parsing and
// ordering, then the same-day time requirements. Room scoping happens in the
// handlers before this runs.
func (req *reservationReq) validate() (start, end Date, err error) {
	start, err = ParseDate(req.StartDate)
	if err != nil {
		return Date{}, Date{}, err
	}
	end, err = ParseDate(req.EndDate)
	if err != nil {
		return Date{}, Date{}, err
	}
	if end.Before(start.Time) {
		return Date{}, Date{}, fmt.Errorf("start_date must not be after end_date")
	}
	if start.Equal(end.Time) {
		if req.StartTime == "" || req.Duration == 0 {
			return Date{}, Date{}, fmt.Errorf("same-day bookings require start_time and duration")
		}
		if req.Duration < 1 || req.Duration > FullDayDuration {
			return Date{}, Date{}, fmt.Errorf("duration must be between 1 and %d hours", FullDayDuration)
		}
		if _, _, err := parseHHMM(req.StartTime); err != nil {
			return Date{}, Date{}, err
		}
	}
	return start, end, nil
}

// resolvePrice picks the total for a create or update: an explicit
// total_price wins, otherwise the price is quoted from the room's pricing
// and the requested interval. Updates go through here too so that changing
// dates or duration without resending total_price reprices instead of
// carrying a stale total forward.
func resolvePrice(room *Room, start, end Date, duration int, override *float64) (float64, error) {
	if override != nil {
		return *override, nil
	}
	return Quote(room.PricePerNight, room.PricingType, start, end, duration)
}

// insertReservation runs the transactional check-and-insert: the room row is
// locked to serialize concurrent bookings, the conflict predicate runs over
// a consistent snapshot, and the exclusion constraint backs the insert up at
// commit time.
func (a *App) insertReservation(ctx context.Context, r *Reservation) error {
	iv, err := r.Effective()
	if err != nil {
		return err
	}

	tx, err := a.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id=$1 FOR UPDATE`, r.RoomID).Scan(&locked); err != nil {
		return err
	}

	existing, err := a.ListRoomReservations(ctx, tx, r.RoomID)
	if err != nil {
		return err
	}
	conflict, err := FindConflict(iv, existing, "")
	if err != nil {
		return err
	}
	if conflict != nil {
		return errBookingConflict
	}

	r.ID = uuid.NewString()
	q := `INSERT INTO reservations
	      (id, room_id, guest_name, guest_email, start_date, end_date, start_time, duration,
	       status, total_price, notes, source, effective_start, effective_end)
	      VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	      RETURNING created_at, updated_at`
	err = tx.QueryRow(ctx, q, r.ID, r.RoomID, r.GuestName, r.GuestEmail,
		r.StartDate.Time, r.EndDate.Time, r.StartTime, r.Duration,
		string(r.Status), r.TotalPrice, r.Notes, r.Source, iv.Start, iv.End,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if isOverlapViolation(err) {
			return errBookingConflict
		}
		return err
	}
	return tx.Commit(ctx)
}

func (a *App) updateReservation(ctx context.Context, r *Reservation) error {
	iv, err := r.Effective()
	if err != nil {
		return err
	}

	tx, err := a.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var locked string
	if err := tx.QueryRow(ctx, `SELECT id FROM rooms WHERE id=$1 FOR UPDATE`, r.RoomID).Scan(&locked); err != nil {
		return err
	}

	// A cancelled reservation never conflicts, so skip the check when the
	// update itself cancels.
	if r.Status != StatusCancelled {
		existing, err := a.ListRoomReservations(ctx, tx, r.RoomID)
		if err != nil {
			return err
		}
		conflict, err := FindConflict(iv, existing, r.ID)
		if err != nil {
			return err
		}
		if conflict != nil {
			return errBookingConflict
		}
	}

	q := `UPDATE reservations
	      SET room_id=$1, guest_name=$2, guest_email=$3, start_date=$4, end_date=$5,
	          start_time=$6, duration=$7, status=$8, total_price=$9, notes=$10,
	          effective_start=$11, effective_end=$12, updated_at=now()
	      WHERE id=$13
	      RETURNING updated_at`
	err = tx.QueryRow(ctx, q, r.RoomID, r.GuestName, r.GuestEmail,
		r.StartDate.Time, r.EndDate.Time, r.StartTime, r.Duration,
		string(r.Status), r.TotalPrice, r.Notes, iv.Start, iv.End, r.ID,
	).Scan(&r.UpdatedAt)
	if err != nil {
		if isOverlapViolation(err) {
			return errBookingConflict
		}
		return err
	}
	return tx.Commit(ctx)
}

// POST /api/reservations
func (a *App) CreateReservationHandler(c *gin.Context) {
	var req reservationReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, ok := a.requireRoom(c, req.RoomID)
	if !ok {
		return
	}

	start, end, err := req.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := StatusPending
	if req.Status != "" {
		status, err = ParseReservationStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	r := &Reservation{
		RoomID:     room.ID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		StartDate:  start,
		EndDate:    end,
		StartTime:  req.StartTime,
		Duration:   req.Duration,
		Status:     status,
		Notes:      req.Notes,
		Source:     SourceInternal,
	}
	r.TotalPrice, err = resolvePrice(room, start, end, req.Duration, req.TotalPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.insertReservation(c.Request.Context(), r); err != nil {
		if errors.Is(err, errBookingConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": conflictMessage})
			return
		}
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// PUT /api/reservations/:id
func (a *App) UpdateReservationHandler(c *gin.Context) {
	id := c.Param("id")
	var req reservationReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing, err := a.GetReservation(c.Request.Context(), id)
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}
	// The caller must own both the current room and, when moving the
	// reservation, the target room.
	room, ok := a.requireRoom(c, existing.RoomID)
	if !ok {
		return
	}
	if req.RoomID != existing.RoomID {
		if room, ok = a.requireRoom(c, req.RoomID); !ok {
			return
		}
	}

	start, end, err := req.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := existing.Status
	if req.Status != "" {
		status, err = ParseReservationStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	r := &Reservation{
		ID:         existing.ID,
		RoomID:     room.ID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		StartDate:  start,
		EndDate:    end,
		StartTime:  req.StartTime,
		Duration:   req.Duration,
		Status:     status,
		Notes:      req.Notes,
		Source:     existing.Source,
		CreatedAt:  existing.CreatedAt,
	}
	r.TotalPrice, err = resolvePrice(room, start, end, req.Duration, req.TotalPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := a.updateReservation(c.Request.Context(), r); err != nil {
		if errors.Is(err, errBookingConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": conflictMessage})
			return
		}
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// GET /api/reservations?organisation_id=&property_id=&room_id=&status=&from=&to=
func (a *App) ListReservationsHandler(c *gin.Context) {
	orgID := c.Query("organisation_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organisation_id required"})
		return
	}
	if !a.requireOrgAccess(c, orgID) {
		return
	}

	f := ReservationFilter{
		OrganisationID: orgID,
		PropertyID:     c.Query("property_id"),
		RoomID:         c.Query("room_id"),
	}
	if s := c.Query("status"); s != "" {
		status, err := ParseReservationStatus(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.Status = status
	}
	if s := c.Query("from"); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.From = d.Time
	}
	if s := c.Query("to"); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.To = d.AddDate(0, 0, 1)
	}

	out, err := a.ListReservations(c.Request.Context(), f)
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DELETE /api/reservations/:id cancels the reservation. The time slot
// becomes reusable immediately; the row is kept for history.
func (a *App) CancelReservationHandler(c *gin.Context) {
	id := c.Param("id")

	existing, err := a.GetReservation(c.Request.Context(), id)
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "reservation not found"})
		return
	}
	if err != nil {
		a.serverError(c, err)
		return
	}
	if _, ok := a.requireRoom(c, existing.RoomID); !ok {
		return
	}
	if existing.Status == StatusCancelled {
		c.JSON(http.StatusConflict, gin.H{"error": "reservation already cancelled"})
		return
	}

	res, err := a.DB.Exec(c.Request.Context(),
		`UPDATE reservations SET status='CANCELLED', updated_at=now() WHERE id=$1 AND status <> 'CANCELLED'`, id)
	if err != nil {
		a.serverError(c, err)
		return
	}
	if res.RowsAffected() == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "reservation already cancelled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// parseMonth reads a "YYYY-MM" query value.
func parseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q (want YYYY-MM)", s)
	}
	return t.Year(), t.Month(), nil
}
