package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// BusySource merges the two things that make a user's time busy: external
// calendar free/busy data and meetings already booked locally. The merged
// view may contain overlapping intervals; ComputeSlots tolerates that.
//
// A failing calendar fetch is absorbed: a degraded schedule beats an unusable
// one, and locally-booked meetings are still authoritative.
type BusySource struct {
	Calendar FreeBusySource // nil when no calendar integration is configured
	Meetings MeetingStore
	Logger   *zerolog.Logger
}

func (s *BusySource) BusyIntervals(ctx context.Context, userID string, from, to time.Time) ([]Interval, error) {
	var busy []Interval

	if s.Calendar != nil {
		external, err := s.Calendar.FreeBusy(ctx, userID, from, to)
		if err != nil {
			s.Logger.Warn().Err(err).Str("user_id", userID).
				Msg("free/busy fetch failed, continuing without calendar data")
		} else {
			busy = append(busy, external...)
		}
	}

	meetings, err := s.Meetings.ListMeetings(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	for _, m := range meetings {
		busy = append(busy, Interval{Start: m.StartTime, End: m.EndTime})
	}
	return busy, nil
}
