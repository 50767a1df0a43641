package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const ProviderGoogle = "google"

// CalendarEvent is the normalized shape of an external calendar event.
type CalendarEvent struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Location    string    `json:"location,omitempty"`
	Status      string    `json:"status"`
	Creator     string    `json:"creator,omitempty"`
}

func (a *App) googleOAuthConfig() *oauth2.Config {
	g := a.Cfg.Google
	if g.ClientID == "" || g.ClientSecret == "" || g.RedirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     g.ClientID,
		ClientSecret: g.ClientSecret,
		RedirectURL:  g.RedirectURL,
		Scopes:       []string{calendar.CalendarReadonlyScope},
		Endpoint:     google.Endpoint,
	}
}

const oauthStateAudience = "google-oauth-state"

// signOAuthState issues a short-lived signed state token carrying the
// organisation ID. The callback is public, so the state is the only thing
// binding the exchanged token to an organisation; an unsigned state would
// let anyone attach their own Google account to a victim tenant.
func (a *App) signOAuthState(orgID string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   orgID,
		Audience:  jwt.ClaimStrings{oauthStateAudience},
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.Cfg.Auth.JWTSecret))
}

// verifyOAuthState checks the state signature and returns the organisation
// ID it was issued for.
func (a *App) verifyOAuthState(state string) (string, error) {
	token, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenMalformed
		}
		return []byte(a.Cfg.Auth.JWTSecret), nil
	}, jwt.WithAudience(oauthStateAudience), jwt.WithLeeway(5*time.Second))
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid oauth state")
	}
	claims := token.Claims.(*jwt.RegisteredClaims)
	if claims.Subject == "" {
		return "", fmt.Errorf("invalid oauth state")
	}
	return claims.Subject, nil
}

// GET /api/calendar/auth?organisation_id= — returns the consent URL. The
// organisation ID travels in the signed OAuth state so the callback can
// attach the token to the right integration.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	conf := a.googleOAuthConfig()
	if conf == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}
	orgID := c.Query("organisation_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organisation_id required"})
		return
	}
	if !a.requireOrgAccess(c, orgID) {
		return
	}

	state, err := a.signOAuthState(orgID)
	if err != nil {
		a.serverError(c, err)
		return
	}
	url := conf.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.JSON(http.StatusOK, gin.H{"auth_url": url, "state": state})
}

// GET /oauth2callback — public OAuth redirect target. Exchanges the code and
// persists the token on the organisation's integration.
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	conf := a.googleOAuthConfig()
	if conf == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Google Calendar not configured"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	orgID, err := a.verifyOAuthState(c.Query("state"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := conf.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		a.serverError(c, err)
		return
	}

	in := &Integration{
		OrganisationID: orgID,
		Provider:       ProviderGoogle,
		CalendarID:     "primary",
		TokenJSON:      string(tokenJSON),
	}
	if err := a.UpsertIntegration(c.Request.Context(), in); err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "authorization successful", "integration_id": in.ID})
}

// calendarService builds an authenticated Calendar client from a stored
// integration. Refreshed tokens are written back so the refresh token keeps
// working across restarts.
func (a *App) calendarService(ctx context.Context, in *Integration) (*calendar.Service, error) {
	conf := a.googleOAuthConfig()
	if conf == nil {
		return nil, fmt.Errorf("google calendar not configured")
	}
	var token oauth2.Token
	if err := json.Unmarshal([]byte(in.TokenJSON), &token); err != nil {
		return nil, fmt.Errorf("stored token invalid: %w", err)
	}

	ts := conf.TokenSource(ctx, &token)
	fresh, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if fresh.AccessToken != token.AccessToken {
		if raw, err := json.Marshal(fresh); err == nil {
			in.TokenJSON = string(raw)
			if err := a.UpsertIntegration(ctx, in); err != nil {
				a.Log.Warn().Err(err).Str("organisation_id", in.OrganisationID).Msg("persist refreshed token failed")
			}
		}
	}

	return calendar.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(fresh)))
}

func (a *App) requireIntegration(c *gin.Context) (*Integration, bool) {
	orgID := c.Query("organisation_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organisation_id required"})
		return nil, false
	}
	if !a.requireOrgAccess(c, orgID) {
		return nil, false
	}
	in, err := a.GetIntegration(c.Request.Context(), orgID, ProviderGoogle)
	if err == pgx.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "google calendar not connected for this organisation"})
		return nil, false
	}
	if err != nil {
		a.serverError(c, err)
		return nil, false
	}
	return in, true
}

// fetchGoogleEvents pulls events from the integration's calendar between
// timeMin and timeMax (RFC3339, either may be empty).
func (a *App) fetchGoogleEvents(ctx context.Context, in *Integration, timeMin, timeMax string) ([]CalendarEvent, error) {
	srv, err := a.calendarService(ctx, in)
	if err != nil {
		return nil, err
	}

	calendarID := in.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	call := srv.Events.List(calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)
	if timeMin != "" {
		call = call.TimeMin(timeMin)
	}
	if timeMax != "" {
		call = call.TimeMax(timeMax)
	}

	events, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	out := make([]CalendarEvent, 0, len(events.Items))
	for _, item := range events.Items {
		ev := CalendarEvent{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Location:    item.Location,
			Status:      item.Status,
		}
		if item.Creator != nil {
			ev.Creator = item.Creator.Email
		}
		ev.StartTime = parseEventTime(item.Start)
		ev.EndTime = parseEventTime(item.End)
		out = append(out, ev)
	}
	return out, nil
}

func parseEventTime(t *calendar.EventDateTime) time.Time {
	if t == nil {
		return time.Time{}
	}
	if t.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			return parsed
		}
	}
	if t.Date != "" {
		if parsed, err := time.Parse(dateLayout, t.Date); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// GET /api/calendar/events?organisation_id=&time_min=&time_max=
func (a *App) GetGoogleCalendarEvents(c *gin.Context) {
	in, ok := a.requireIntegration(c)
	if !ok {
		return
	}
	events, err := a.fetchGoogleEvents(c.Request.Context(), in, c.Query("time_min"), c.Query("time_max"))
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GET /api/calendar/calendars?organisation_id=
func (a *App) GetGoogleCalendarList(c *gin.Context) {
	in, ok := a.requireIntegration(c)
	if !ok {
		return
	}
	srv, err := a.calendarService(c.Request.Context(), in)
	if err != nil {
		a.serverError(c, err)
		return
	}
	list, err := srv.CalendarList.List().Do()
	if err != nil {
		a.serverError(c, err)
		return
	}

	type calendarInfo struct {
		ID          string `json:"id"`
		Summary     string `json:"summary"`
		Description string `json:"description,omitempty"`
		Primary     bool   `json:"primary"`
		AccessRole  string `json:"access_role"`
	}
	var calendars []calendarInfo
	for _, item := range list.Items {
		calendars = append(calendars, calendarInfo{
			ID:          item.Id,
			Summary:     item.Summary,
			Description: item.Description,
			Primary:     item.Primary,
			AccessRole:  item.AccessRole,
		})
	}
	c.JSON(http.StatusOK, gin.H{"calendars": calendars, "count": len(calendars)})
}

// GET /api/calendar/merged?organisation_id=&from=&to= — internal
// reservations plus cached external events for the display merge. External
// events never feed conflict detection.
func (a *App) GetMergedCalendarHandler(c *gin.Context) {
	orgID := c.Query("organisation_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organisation_id required"})
		return
	}
	if !a.requireOrgAccess(c, orgID) {
		return
	}

	from, err := ParseDate(c.DefaultQuery("from", DateOf(time.Now()).String()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	to, err := ParseDate(c.DefaultQuery("to", DateOf(time.Now().AddDate(0, 1, 0)).String()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reservations, err := a.ListReservations(c.Request.Context(), ReservationFilter{
		OrganisationID: orgID,
		From:           from.Time,
		To:             to.AddDate(0, 0, 1),
	})
	if err != nil {
		a.serverError(c, err)
		return
	}
	external, err := a.ListExternalEvents(c.Request.Context(), orgID, from.Time, to.AddDate(0, 0, 1))
	if err != nil {
		a.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reservations":    reservations,
		"external_events": external,
	})
}
