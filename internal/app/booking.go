package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingRequest struct {
	UserID     string
	GuestName  string
	GuestEmail string
	GuestNotes string
	Start      time.Time
	End        time.Time
}

// BookingService lets a guest claim a slot. Validation and the slot re-check
// happen before anything is written; the meeting row is committed before the
// external calendar event is attempted, so a booking can be local-only but
// never calendar-only.
type BookingService struct {
	Rules    AvailabilityStore
	Meetings MeetingStore
	Busy     *BusySource
	Events   EventCreator // nil when no calendar integration is configured
	Logger   *zerolog.Logger
}

func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*Meeting, error) {
	if req.UserID == "" || strings.TrimSpace(req.GuestName) == "" ||
		strings.TrimSpace(req.GuestEmail) == "" || req.Start.IsZero() || req.End.IsZero() {
		return nil, validationErrf("user_id, guest_name, guest_email, start_time and end_time are required")
	}
	if !req.Start.Before(req.End) {
		return nil, validationErrf("start_time must be before end_time")
	}

	exists, err := s.Meetings.UserExists(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, req.UserID)
	}

	rule, err := s.Rules.GetRule(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if rule == nil {
		def := DefaultRule(req.UserID)
		rule = &def
	}

	// Re-derive the day's slots against the current busy state. A stale
	// client or a lost race shows up here as the requested pair not being
	// offered any more.
	date := req.Start.In(ruleLocation(*rule))
	winStart, winEnd := dayWindow(*rule, date)
	busy, err := s.Busy.BusyIntervals(ctx, req.UserID, winStart, winEnd)
	if err != nil {
		return nil, err
	}
	slots, err := ComputeSlots(*rule, date, busy)
	if err != nil {
		return nil, err
	}
	if !containsSlot(slots, req.Start, req.End) {
		return nil, fmt.Errorf("%w: [%s, %s) is not an open slot", ErrSlotTaken,
			req.Start.UTC().Format(time.RFC3339), req.End.UTC().Format(time.RFC3339))
	}

	meeting := &Meeting{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		GuestName:  strings.TrimSpace(req.GuestName),
		GuestEmail: strings.TrimSpace(req.GuestEmail),
		GuestNotes: req.GuestNotes,
		StartTime:  req.Start.UTC(),
		EndTime:    req.End.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
	// The store is the conflict authority: two racing bookings for the same
	// interval both pass the re-check above, but only one insert commits.
	if err := s.Meetings.CreateMeeting(ctx, meeting); err != nil {
		return nil, err
	}

	s.createCalendarEvent(ctx, meeting)
	return meeting, nil
}

// createCalendarEvent mirrors the meeting into the owner's calendar. Failure
// is logged and absorbed: the meeting row is already the source of truth.
func (s *BookingService) createCalendarEvent(ctx context.Context, meeting *Meeting) {
	if s.Events == nil {
		return
	}
	title := "Meeting with " + meeting.GuestName
	eventID, err := s.Events.CreateEvent(ctx, meeting.UserID, title, meeting.GuestNotes,
		meeting.StartTime, meeting.EndTime, meeting.GuestEmail)
	if err != nil {
		s.Logger.Warn().Err(err).Str("meeting_id", meeting.ID).
			Msg("calendar event creation failed, meeting kept without external event")
		return
	}
	if eventID == "" {
		return
	}
	meeting.GoogleEventID = &eventID
	if err := s.Meetings.SetGoogleEventID(ctx, meeting.ID, eventID); err != nil {
		s.Logger.Warn().Err(err).Str("meeting_id", meeting.ID).
			Msg("failed to persist google event id")
	}
}

func containsSlot(slots []Interval, start, end time.Time) bool {
	for _, sl := range slots {
		if sl.Start.Equal(start) && sl.End.Equal(end) {
			return true
		}
	}
	return false
}
