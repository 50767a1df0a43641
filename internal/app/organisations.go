package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type organisationReq struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

// POST /api/organisations — the creator becomes the owner.
func (a *App) CreateOrganisationHandler(c *gin.Context) {
	var req organisationReq
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	o := &Organisation{Name: req.Name, ContactEmail: req.ContactEmail}
	if err := a.CreateOrganisation(c.Request.Context(), o, currentUserID(c)); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

// GET /api/organisations — the caller's organisations.
func (a *App) ListOrganisationsHandler(c *gin.Context) {
	out, err := a.ListOrganisations(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
