package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// GET /api/reservations/export?organisation_id=&property_id=&room_id= —
// XLSX dump of the organisation's reservations.
func (a *App) ExportReservationsHandler(c *gin.Context) {
	orgID := c.Query("organisation_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organisation_id required"})
		return
	}
	if !a.requireOrgAccess(c, orgID) {
		return
	}

	reservations, err := a.ListReservations(c.Request.Context(), ReservationFilter{
		OrganisationID: orgID,
		PropertyID:     c.Query("property_id"),
		RoomID:         c.Query("room_id"),
	})
	if err != nil {
		a.serverError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Reservations"
	index, err := f.NewSheet(sheet)
	if err != nil {
		a.serverError(c, err)
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"ID", "RoomID", "GuestName", "GuestEmail", "StartDate", "EndDate",
		"StartTime", "Duration", "Status", "TotalPrice", "Source", "Notes",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for i, r := range reservations {
		row := i + 2
		values := []any{
			r.ID, r.RoomID, r.GuestName, r.GuestEmail, r.StartDate.String(), r.EndDate.String(),
			r.StartTime, r.Duration, string(r.Status), r.TotalPrice, r.Source, r.Notes,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="reservations.xlsx"`)
	if err := f.Write(c.Writer); err != nil {
		a.Log.Error().Err(err).Msg("xlsx stream failed")
	}
}
