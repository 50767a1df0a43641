package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type propertyReq struct {
	OrganisationID string `json:"organisation_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Address        string `json:"address"`
	Timezone       string `json:"timezone"`
}

// POST /api/properties
func (a *App) CreatePropertyHandler(c *gin.Context) {
	var req propertyReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !a.requireOrgAccess(c, req.OrganisationID) {
		return
	}
	p := &Property{
		OrganisationID: req.OrganisationID,
		Name:           req.Name,
		Address:        req.Address,
		Timezone:       req.Timezone,
	}
	if err := a.CreateProperty(c.Request.Context(), p); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/properties?organisation_id=
func (a *App) ListPropertiesHandler(c *gin.Context) {
	orgID := c.Query("organisation_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organisation_id required"})
		return
	}
	if !a.requireOrgAccess(c, orgID) {
		return
	}
	out, err := a.ListProperties(c.Request.Context(), orgID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// requireProperty resolves a property and checks caller access.
func (a *App) requireProperty(c *gin.Context, id string) (*Property, bool) {
	p, err := a.GetProperty(c.Request.Context(), id)
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return nil, false
	}
	if err != nil {
		a.serverError(c, err)
		return nil, false
	}
	if !a.requireOrgAccess(c, p.OrganisationID) {
		return nil, false
	}
	return p, true
}

// GET /api/properties/:id
func (a *App) GetPropertyHandler(c *gin.Context) {
	p, ok := a.requireProperty(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// DELETE /api/properties/:id
func (a *App) DeletePropertyHandler(c *gin.Context) {
	p, ok := a.requireProperty(c, c.Param("id"))
	if !ok {
		return
	}
	if _, err := a.DeleteProperty(c.Request.Context(), p.ID); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
