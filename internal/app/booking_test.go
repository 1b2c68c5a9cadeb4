package app

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingEventCreator struct{}

func (failingEventCreator) CreateEvent(context.Context, string, string, string, time.Time, time.Time, string) (string, error) {
	return "", errors.New("calendar is down")
}

type stubEventCreator struct {
	eventID string
	calls   int
}

func (s *stubEventCreator) CreateEvent(context.Context, string, string, string, time.Time, time.Time, string) (string, error) {
	s.calls++
	return s.eventID, nil
}

func newBookingFixture(t *testing.T) (*BookingService, *MemoryStore) {
	t.Helper()
	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	store := NewMemoryStore()
	store.AddUser("u1")
	require.NoError(t, store.SetRule(context.Background(), weekdayRule("09:00", "17:00")))

	svc := &BookingService{
		Rules:    store,
		Meetings: store,
		Busy:     &BusySource{Meetings: store, Logger: &logger},
		Logger:   &logger,
	}
	return svc, store
}

func bookingReq(t *testing.T, start, end string) BookingRequest {
	return BookingRequest{
		UserID:     "u1",
		GuestName:  "Ada Lovelace",
		GuestEmail: "ada@example.com",
		GuestNotes: "intro call",
		Start:      utc(t, start),
		End:        utc(t, end),
	}
}

func TestBookValidation(t *testing.T) {
	svc, _ := newBookingFixture(t)
	ctx := context.Background()

	base := bookingReq(t, "2026-01-05T09:00:00Z", "2026-01-05T09:30:00Z")

	cases := []struct {
		name   string
		mutate func(*BookingRequest)
	}{
		{"missing user", func(r *BookingRequest) { r.UserID = "" }},
		{"missing guest name", func(r *BookingRequest) { r.GuestName = "  " }},
		{"missing guest email", func(r *BookingRequest) { r.GuestEmail = "" }},
		{"zero start", func(r *BookingRequest) { r.Start = time.Time{} }},
		{"zero end", func(r *BookingRequest) { r.End = time.Time{} }},
		{"start after end", func(r *BookingRequest) { r.Start, r.End = r.End, r.Start }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := svc.Book(ctx, req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestBookUnknownUser(t *testing.T) {
	svc, _ := newBookingFixture(t)
	req := bookingReq(t, "2026-01-05T09:00:00Z", "2026-01-05T09:30:00Z")
	req.UserID = "nobody"
	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookOutsideWorkingHours(t *testing.T) {
	svc, _ := newBookingFixture(t)
	_, err := svc.Book(context.Background(), bookingReq(t, "2026-01-05T20:00:00Z", "2026-01-05T20:30:00Z"))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookOffGridSlot(t *testing.T) {
	svc, _ := newBookingFixture(t)
	// within working hours but not aligned to the 30-minute grid
	_, err := svc.Book(context.Background(), bookingReq(t, "2026-01-05T09:10:00Z", "2026-01-05T09:40:00Z"))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookSuccess(t *testing.T) {
	svc, store := newBookingFixture(t)
	ctx := context.Background()

	meeting, err := svc.Book(ctx, bookingReq(t, "2026-01-05T09:00:00Z", "2026-01-05T09:30:00Z"))
	require.NoError(t, err)
	assert.NotEmpty(t, meeting.ID)
	assert.Equal(t, "u1", meeting.UserID)
	assert.Equal(t, "Ada Lovelace", meeting.GuestName)
	assert.Nil(t, meeting.GoogleEventID)

	persisted, err := store.ListMeetings(ctx, "u1",
		utc(t, "2026-01-05T00:00:00Z"), utc(t, "2026-01-06T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, meeting.ID, persisted[0].ID)
}

func TestBookDefaultRuleApplies(t *testing.T) {
	// a user who never configured availability is bookable Mon-Fri 09:00-17:00 UTC
	svc, store := newBookingFixture(t)
	store.AddUser("fresh")
	req := bookingReq(t, "2026-01-05T09:00:00Z", "2026-01-05T09:30:00Z")
	req.UserID = "fresh"
	_, err := svc.Book(context.Background(), req)
	assert.NoError(t, err)
}

func TestBookSecondBookingConflicts(t *testing.T) {
	svc, _ := newBookingFixture(t)
	ctx := context.Background()
	req := bookingReq(t, "2026-01-05T10:00:00Z", "2026-01-05T10:30:00Z")

	_, err := svc.Book(ctx, req)
	require.NoError(t, err)
	_, err = svc.Book(ctx, req)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestBookBookedSlotDisappearsFromSlots(t *testing.T) {
	svc, store := newBookingFixture(t)
	ctx := context.Background()

	_, err := svc.Book(ctx, bookingReq(t, "2026-01-05T10:00:00Z", "2026-01-05T10:30:00Z"))
	require.NoError(t, err)

	rule, err := store.GetRule(ctx, "u1")
	require.NoError(t, err)
	winStart, winEnd := dayWindow(*rule, monday)
	busy, err := svc.Busy.BusyIntervals(ctx, "u1", winStart, winEnd)
	require.NoError(t, err)
	slots, err := ComputeSlots(*rule, monday, busy)
	require.NoError(t, err)
	assert.Len(t, slots, 15)
	assert.False(t, containsSlot(slots, utc(t, "2026-01-05T10:00:00Z"), utc(t, "2026-01-05T10:30:00Z")))
}

func TestBookConcurrentSameSlot(t *testing.T) {
	svc, _ := newBookingFixture(t)
	ctx := context.Background()

	const goroutines = 10
	req := bookingReq(t, "2026-01-05T11:00:00Z", "2026-01-05T11:30:00Z")

	var wg sync.WaitGroup
	wg.Add(goroutines)
	results := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Book(ctx, req)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var booked, conflicts int
	for err := range results {
		switch {
		case err == nil:
			booked++
		case errors.Is(err, ErrSlotTaken):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, booked, "exactly one booking must win")
	assert.Equal(t, goroutines-1, conflicts)
}

func TestBookSucceedsWhenEventCreationFails(t *testing.T) {
	svc, store := newBookingFixture(t)
	svc.Events = failingEventCreator{}
	ctx := context.Background()

	meeting, err := svc.Book(ctx, bookingReq(t, "2026-01-05T14:00:00Z", "2026-01-05T14:30:00Z"))
	require.NoError(t, err)
	assert.Nil(t, meeting.GoogleEventID)

	persisted, err := store.ListMeetings(ctx, "u1",
		utc(t, "2026-01-05T00:00:00Z"), utc(t, "2026-01-06T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Nil(t, persisted[0].GoogleEventID)
}

func TestBookRecordsEventID(t *testing.T) {
	svc, store := newBookingFixture(t)
	creator := &stubEventCreator{eventID: "evt-123"}
	svc.Events = creator
	ctx := context.Background()

	meeting, err := svc.Book(ctx, bookingReq(t, "2026-01-05T15:00:00Z", "2026-01-05T15:30:00Z"))
	require.NoError(t, err)
	require.NotNil(t, meeting.GoogleEventID)
	assert.Equal(t, "evt-123", *meeting.GoogleEventID)
	assert.Equal(t, 1, creator.calls)

	persisted, err := store.ListMeetings(ctx, "u1",
		utc(t, "2026-01-05T00:00:00Z"), utc(t, "2026-01-06T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	require.NotNil(t, persisted[0].GoogleEventID)
	assert.Equal(t, "evt-123", *persisted[0].GoogleEventID)
}
