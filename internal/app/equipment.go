package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type equipmentReq struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"gte=0"`
}

// POST /api/rooms/:id/equipment
func (a *App) CreateEquipmentHandler(c *gin.Context) {
	room, ok := a.requireRoom(c, c.Param("id"))
	if !ok {
		return
	}
	var req equipmentReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	e := &Equipment{RoomID: room.ID, Name: req.Name, Quantity: req.Quantity}
	if err := a.CreateEquipment(c.Request.Context(), e); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

// GET /api/rooms/:id/equipment
func (a *App) ListEquipmentHandler(c *gin.Context) {
	room, ok := a.requireRoom(c, c.Param("id"))
	if !ok {
		return
	}
	out, err := a.ListEquipment(c.Request.Context(), room.ID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// DELETE /api/rooms/:id/equipment/:equipment_id
func (a *App) DeleteEquipmentHandler(c *gin.Context) {
	if _, ok := a.requireRoom(c, c.Param("id")); !ok {
		return
	}
	deleted, err := a.DeleteEquipment(c.Request.Context(), c.Param("equipment_id"))
	if err != nil {
		a.serverError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "equipment not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
