package app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// The widget endpoints are public: they carry no session and are scoped to
// one organisation by an explicit organisation_id parameter. Whatever the
// embedded widget filtered client-side is advisory only; everything is
// re-validated here.

// widgetRoom resolves a room and verifies it belongs to the given
// organisation.
func (a *App) widgetRoom(c *gin.Context, roomID, orgID string) (*Room, bool) {
	if roomID == "" || orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id and organisation_id required"})
		return nil, false
	}
	room, err := a.GetRoom(c.Request.Context(), roomID)
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	if err != nil {
		a.serverError(c, err)
		return nil, false
	}
	roomOrg, err := a.RoomOrganisation(c.Request.Context(), room.ID)
	if err != nil {
		a.serverError(c, err)
		return nil, false
	}
	if roomOrg != orgID {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	return room, true
}

// GET /widget/rooms?organisation_id=
func (a *App) WidgetRoomsHandler(c *gin.Context) {
	orgID := c.Query("organisation_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organisation_id required"})
		return
	}
	rooms, err := a.ListRoomsByOrganisation(c.Request.Context(), orgID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GET /widget/availability?organisation_id=&room_id=&date=&duration=
func (a *App) WidgetAvailabilityHandler(c *gin.Context) {
	room, ok := a.widgetRoom(c, c.Query("room_id"), c.Query("organisation_id"))
	if !ok {
		return
	}
	date, err := ParseDate(c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		return
	}

	existing, err := a.ListRoomReservations(c.Request.Context(), a.DB, room.ID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	slots, err := AvailableSlots(a.Cfg.Slots, date, duration, existing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"date":           date,
		"duration":       duration,
		"slots":          slots,
		"fully_reserved": len(slots) == 0,
	})
}

// GET /widget/dates?organisation_id=&room_id=&month=YYYY-MM&duration=
func (a *App) WidgetDatesHandler(c *gin.Context) {
	room, ok := a.widgetRoom(c, c.Query("room_id"), c.Query("organisation_id"))
	if !ok {
		return
	}
	year, month, err := parseMonth(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	duration, err := strconv.Atoi(c.DefaultQuery("duration", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
		return
	}

	existing, err := a.ListRoomReservations(c.Request.Context(), a.DB, room.ID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	dates, err := AvailableDates(a.Cfg.Slots, year, month, duration, existing)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": dates})
}

// GET /widget/quote?organisation_id=&room_id=&start_date=&end_date=&duration=
func (a *App) WidgetQuoteHandler(c *gin.Context) {
	room, ok := a.widgetRoom(c, c.Query("room_id"), c.Query("organisation_id"))
	if !ok {
		return
	}
	start, err := ParseDate(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	end, err := ParseDate(c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	duration := 0
	if s := c.Query("duration"); s != "" {
		duration, err = strconv.Atoi(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration"})
			return
		}
	}
	if start.Equal(end.Time) && duration == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration required for same-day quotes"})
		return
	}

	total, err := Quote(room.PricePerNight, room.PricingType, start, end, duration)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room_id":      room.ID,
		"pricing_type": room.PricingType,
		"total_price":  total,
	})
}

type widgetBookingReq struct {
	OrganisationID string `json:"organisation_id" binding:"required"`
	RoomID         string `json:"room_id" binding:"required"`
	GuestName      string `json:"guest_name" binding:"required"`
	GuestEmail     string `json:"guest_email" binding:"omitempty,email"`
	StartDate      string `json:"start_date" binding:"required"`
	EndDate        string `json:"end_date" binding:"required"`
	StartTime      string `json:"start_time"`
	Duration       int    `json:"duration"`
	Notes          string `json:"notes"`
}

// POST /widget/booking — same validation shape and conflict path as the
// internal routes. Created PENDING with source "widget".
func (a *App) WidgetBookingHandler(c *gin.Context) {
	var req widgetBookingReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, ok := a.widgetRoom(c, req.RoomID, req.OrganisationID)
	if !ok {
		return
	}

	inner := reservationReq{
		RoomID:    req.RoomID,
		GuestName: req.GuestName,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		StartTime: req.StartTime,
		Duration:  req.Duration,
	}
	start, end, err := inner.validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	total, err := Quote(room.PricePerNight, room.PricingType, start, end, req.Duration)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r := &Reservation{
		RoomID:     room.ID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
		StartDate:  start,
		EndDate:    end,
		StartTime:  req.StartTime,
		Duration:   req.Duration,
		Status:     StatusPending,
		TotalPrice: total,
		Notes:      req.Notes,
		Source:     SourceWidget,
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
