package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type roomReq struct {
	Name          string  `json:"name" binding:"required"`
	Capacity      int     `json:"capacity"`
	PricePerNight float64 `json:"price_per_night" binding:"gte=0"`
	PricingType   string  `json:"pricing_type" binding:"required"`
}

// POST /api/properties/:id/rooms
func (a *App) CreateRoomHandler(c *gin.Context) {
	p, ok := a.requireProperty(c, c.Param("id"))
	if !ok {
		return
	}
	var req roomReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pt, err := ParsePricingType(req.PricingType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	r := &Room{
		PropertyID:    p.ID,
		Name:          req.Name,
		Capacity:      req.Capacity,
		PricePerNight: req.PricePerNight,
		PricingType:   pt,
	}
	if r.Capacity <= 0 {
		r.Capacity = 1
	}
	if err := a.CreateRoom(c.Request.Context(), r); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

// GET /api/properties/:id/rooms
func (a *App) ListRoomsHandler(c *gin.Context) {
	p, ok := a.requireProperty(c, c.Param("id"))
	if !ok {
		return
	}
	out, err := a.ListRooms(c.Request.Context(), p.ID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/rooms/:id
func (a *App) GetRoomHandler(c *gin.Context) {
	room, ok := a.requireRoom(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, room)
}

// DELETE /api/rooms/:id
func (a *App) DeleteRoomHandler(c *gin.Context) {
	room, ok := a.requireRoom(c, c.Param("id"))
	if !ok {
		return
	}
	if _, err := a.DeleteRoom(c.Request.Context(), room.ID); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
