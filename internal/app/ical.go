package app

import (
	"net/http"

	ics "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"
)

// GET /api/rooms/:id/calendar.ics — ICS feed of the room's non-cancelled
// reservations, importable into any external calendar client.
func (a *App) RoomICalHandler(c *gin.Context) {
	room, ok := a.requireRoom(c, c.Param("id"))
	if !ok {
		return
	}
	reservations, err := a.ListRoomReservations(c.Request.Context(), a.DB, room.ID)
	if err != nil {
		a.serverError(c, err)
		return
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//channel-manager//room feed//EN")
	cal.SetXWRCalName(room.Name)

	for i := range reservations {
		r := &reservations[i]
		iv, err := r.Effective()
		if err != nil {
			a.serverError(c, err)
			return
		}
		ev := cal.AddEvent(r.ID)
		ev.SetCreatedTime(r.CreatedAt)
		ev.SetModifiedAt(r.UpdatedAt)
		ev.SetStartAt(iv.Start)
		ev.SetEndAt(iv.End)
		ev.SetSummary("Reserved: " + r.GuestName)
		if r.Notes != "" {
			ev.SetDescription(r.Notes)
		}
		ev.SetLocation(room.Name)
	}

	c.Header("Content-Disposition", `attachment; filename="`+room.Name+`.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(cal.Serialize()))
}
