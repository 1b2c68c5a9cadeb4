package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"agency-scheduler/internal/config"
)

// GoogleCalendar is the external calendar collaborator: the free/busy source
// feeding slot computation and the event creator mirroring bookings. Tokens
// are stored per user after the OAuth2 consent flow.
type GoogleCalendar struct {
	Config *oauth2.Config
	Tokens TokenStore
	Logger *zerolog.Logger
}

// NewGoogleCalendar returns nil when the integration is not configured;
// callers treat a nil client as "no calendar" and degrade.
func NewGoogleCalendar(cfg config.GoogleConfig, tokens TokenStore, logger *zerolog.Logger) *GoogleCalendar {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil
	}
	return &GoogleCalendar{
		Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				calendar.CalendarReadonlyScope,
				calendar.CalendarEventsScope,
			},
			Endpoint: google.Endpoint,
		},
		Tokens: tokens,
		Logger: logger,
	}
}

func (g *GoogleCalendar) service(ctx context.Context, userID string) (*calendar.Service, error) {
	raw, err := g.Tokens.GoogleToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load google token: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("user %s has no google calendar connected", userID)
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode google token: %w", err)
	}
	return calendar.NewService(ctx, option.WithTokenSource(g.Config.TokenSource(ctx, &token)))
}

// FreeBusy queries the user's primary calendar for busy intervals.
func (g *GoogleCalendar) FreeBusy(ctx context.Context, userID string, from, to time.Time) ([]Interval, error) {
	srv, err := g.service(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp, err := srv.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: from.UTC().Format(time.RFC3339),
		TimeMax: to.UTC().Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: "primary"}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("freebusy query: %w", err)
	}

	var busy []Interval
	for _, cal := range resp.Calendars {
		for _, period := range cal.Busy {
			start, err := time.Parse(time.RFC3339, period.Start)
			if err != nil {
				continue
			}
			end, err := time.Parse(time.RFC3339, period.End)
			if err != nil {
				continue
			}
			busy = append(busy, Interval{Start: start, End: end})
		}
	}
	return busy, nil
}

// CreateEvent inserts the meeting into the user's primary calendar and
// returns the event id.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, userID, title, description string, start, end time.Time, attendeeEmail string) (string, error) {
	srv, err := g.service(ctx, userID)
	if err != nil {
		return "", err
	}
	event := &calendar.Event{
		Summary:     title,
		Description: description,
		Start:       &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)},
		Attendees:   []*calendar.EventAttendee{{Email: attendeeEmail}},
	}
	created, err := srv.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

// GoogleAuthHandler starts the OAuth2 consent flow for a user.
// GET /api/calendar/auth?user_id=...
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google calendar not configured"})
		return
	}
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}
	state := fmt.Sprintf("user_%s_%d", userID, time.Now().Unix())
	c.JSON(http.StatusOK, gin.H{
		"auth_url": a.Calendar.Config.AuthCodeURL(state, oauth2.AccessTypeOffline),
		"state":    state,
	})
}

// GoogleOAuth2CallbackHandler exchanges the authorization code and stores the
// token against the user encoded in the state parameter.
// GET /oauth2callback?code=...&state=user_<id>_<ts>
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.Calendar == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google calendar not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}
	userID := userIDFromState(c.Query("state"))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state"})
		return
	}

	token, err := a.Calendar.Config.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}
	raw, err := json.Marshal(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := a.Store.SaveGoogleToken(c.Request.Context(), userID, raw); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	a.Logger.Info().Str("user_id", userID).Msg("google calendar connected")
	c.JSON(http.StatusOK, gin.H{"message": "authorization successful", "user_id": userID})
}

func userIDFromState(state string) string {
	if !strings.HasPrefix(state, "user_") {
		return ""
	}
	rest := strings.TrimPrefix(state, "user_")
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 {
		return ""
	}
	return rest[:idx]
}
