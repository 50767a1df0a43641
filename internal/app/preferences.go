package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

// GET /api/preferences — the stored last-active property is validated on
// read and cleared when it no longer resolves for the caller.
func (a *App) GetPreferencesHandler(c *gin.Context) {
	p, err := a.GetPreferences(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type preferencesReq struct {
	LastPropertyID *string `json:"last_property_id"`
}

// PUT /api/preferences
func (a *App) SetPreferencesHandler(c *gin.Context) {
	var req preferencesReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.LastPropertyID != nil {
		prop, err := a.GetProperty(c.Request.Context(), *req.LastPropertyID)
		if err == pgx.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
			return
		}
		if err != nil {
			a.serverError(c, err)
			return
		}
		if !a.requireOrgAccess(c, prop.OrganisationID) {
			return
		}
	}
	p := &UserPreferences{UserID: currentUserID(c), LastPropertyID: req.LastPropertyID}
	if err := a.SetPreferences(c.Request.Context(), p); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
