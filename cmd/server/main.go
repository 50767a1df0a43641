package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"channel-manager/internal/app"
	"channel-manager/internal/server"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer pool.Close()

	a := &app.App{DB: pool, Cfg: cfg, Log: log}
	if err := a.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema migration failed")
	}

	sync, err := a.StartSync()
	if err != nil {
		log.Fatal().Err(err).Msg("sync scheduler failed to start")
	}
	defer sync.Stop()

	router := gin.Default()

	// Public surface: auth, OAuth callback and the embeddable widget.
	router.POST("/api/auth/register", a.RegisterHandler)
	router.POST("/api/auth/login", a.LoginHandler)
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	widget := router.Group("/widget")
	{
		widget.GET("/rooms", a.WidgetRoomsHandler)
		widget.GET("/availability", a.WidgetAvailabilityHandler)
		widget.GET("/dates", a.WidgetDatesHandler)
		widget.GET("/quote", a.WidgetQuoteHandler)
		widget.POST("/booking", a.WidgetBookingHandler)
	}

	api := router.Group("/api")
	api.Use(a.AuthMiddleware())
	{
		api.POST("/organisations", a.CreateOrganisationHandler)
		api.GET("/organisations", a.ListOrganisationsHandler)

		api.POST("/properties", a.CreatePropertyHandler)
		api.GET("/properties", a.ListPropertiesHandler)
		api.GET("/properties/:id", a.GetPropertyHandler)
		api.DELETE("/properties/:id", a.DeletePropertyHandler)
		api.POST("/properties/:id/rooms", a.CreateRoomHandler)
		api.GET("/properties/:id/rooms", a.ListRoomsHandler)

		api.GET("/rooms/:id", a.GetRoomHandler)
		api.DELETE("/rooms/:id", a.DeleteRoomHandler)
		api.POST("/rooms/:id/equipment", a.CreateEquipmentHandler)
		api.GET("/rooms/:id/equipment", a.ListEquipmentHandler)
		api.DELETE("/rooms/:id/equipment/:equipment_id", a.DeleteEquipmentHandler)
		api.GET("/rooms/:id/calendar.ics", a.RoomICalHandler)

		api.POST("/reservations", a.CreateReservationHandler)
		api.GET("/reservations", a.ListReservationsHandler)
		api.GET("/reservations/export", a.ExportReservationsHandler)
		api.PUT("/reservations/:id", a.UpdateReservationHandler)
		api.DELETE("/reservations/:id", a.CancelReservationHandler)

		api.GET("/preferences", a.GetPreferencesHandler)
		api.PUT("/preferences", a.SetPreferencesHandler)

		calendarRoutes := api.Group("/calendar")
		{
			calendarRoutes.GET("/auth", a.GoogleAuthHandler)
			calendarRoutes.GET("/events", a.GetGoogleCalendarEvents)
			calendarRoutes.GET("/calendars", a.GetGoogleCalendarList)
			calendarRoutes.GET("/merged", a.GetMergedCalendarHandler)
		}
	}

	if err := server.Run(router, cfg.Server.Port, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
