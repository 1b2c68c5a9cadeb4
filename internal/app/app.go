package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AvailabilityStore persists one weekly availability rule per user.
type AvailabilityStore interface {
	// GetRule returns nil, nil when the user never configured availability;
	// callers fall back to DefaultRule.
	GetRule(ctx context.Context, userID string) (*AvailabilityRule, error)
	// SetRule validates and upserts the full rule (no partial updates).
	SetRule(ctx context.Context, rule AvailabilityRule) error
}

// MeetingStore persists booked meetings. Meetings are append-only; the store
// is the authoritative conflict guard, so CreateMeeting must reject an
// overlapping meeting with ErrSlotTaken even under concurrent callers.
type MeetingStore interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	// ListMeetings returns meetings whose [StartTime, EndTime) intersects
	// [from, to), ordered by start time.
	ListMeetings(ctx context.Context, userID string, from, to time.Time) ([]Meeting, error)
	CreateMeeting(ctx context.Context, m *Meeting) error
	// SetGoogleEventID records the external calendar event after the fact.
	SetGoogleEventID(ctx context.Context, meetingID, eventID string) error
}

// TokenStore keeps per-user Google OAuth tokens as opaque JSON blobs.
type TokenStore interface {
	SaveGoogleToken(ctx context.Context, userID string, token []byte) error
	// GoogleToken returns nil, nil when the user never connected a calendar.
	GoogleToken(ctx context.Context, userID string) ([]byte, error)
}

// Store is what a backing implementation (Postgres or in-memory) provides.
type Store interface {
	AvailabilityStore
	MeetingStore
	TokenStore
}

// FreeBusySource reports externally-busy intervals for a user. Implementations
// may fail; BusySource absorbs the failure.
type FreeBusySource interface {
	FreeBusy(ctx context.Context, userID string, from, to time.Time) ([]Interval, error)
}

// EventCreator mirrors a meeting into an external calendar. Best effort only.
type EventCreator interface {
	CreateEvent(ctx context.Context, userID, title, description string, start, end time.Time, attendeeEmail string) (string, error)
}

// App wires the scheduler core behind the HTTP handlers.
type App struct {
	Store    Store
	Busy     *BusySource
	Booking  *BookingService
	Calendar *GoogleCalendar // nil when Google integration is not configured
	Logger   *zerolog.Logger
}
