package app

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded Store for development runs without a
// database and for tests. It enforces the same overlap semantics as the
// Postgres exclusion constraint, just under a process-local lock.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]struct{}
	rules    map[string]AvailabilityRule
	meetings map[string][]Meeting // keyed by user id
	tokens   map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]struct{}),
		rules:    make(map[string]AvailabilityRule),
		meetings: make(map[string][]Meeting),
		tokens:   make(map[string][]byte),
	}
}

// AddUser registers a bookable user. The core has no user-management surface;
// users come from elsewhere in the application.
func (s *MemoryStore) AddUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = struct{}{}
}

func (s *MemoryStore) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *MemoryStore) GetRule(_ context.Context, userID string) (*AvailabilityRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[userID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemoryStore) SetRule(_ context.Context, rule AvailabilityRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	rule.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.UserID] = rule
	return nil
}

func (s *MemoryStore) ListMeetings(_ context.Context, userID string, from, to time.Time) ([]Meeting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	window := Interval{Start: from, End: to}
	var out []Meeting
	for _, m := range s.meetings[userID] {
		if window.Overlaps(Interval{Start: m.StartTime, End: m.EndTime}) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *MemoryStore) CreateMeeting(_ context.Context, m *Meeting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	requested := Interval{Start: m.StartTime, End: m.EndTime}
	for _, existing := range s.meetings[m.UserID] {
		if requested.Overlaps(Interval{Start: existing.StartTime, End: existing.EndTime}) {
			return fmt.Errorf("%w: [%s, %s)", ErrSlotTaken,
				m.StartTime.Format(time.RFC3339), m.EndTime.Format(time.RFC3339))
		}
	}
	s.meetings[m.UserID] = append(s.meetings[m.UserID], *m)
	return nil
}

func (s *MemoryStore) SetGoogleEventID(_ context.Context, meetingID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, list := range s.meetings {
		for i := range list {
			if list[i].ID == meetingID {
				id := eventID
				s.meetings[userID][i].GoogleEventID = &id
				return nil
			}
		}
	}
	return fmt.Errorf("%w: meeting %s", ErrNotFound, meetingID)
}

func (s *MemoryStore) SaveGoogleToken(_ context.Context, userID string, token []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = append([]byte(nil), token...)
	return nil
}

func (s *MemoryStore) GoogleToken(_ context.Context, userID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tok, ok := s.tokens[userID]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), tok...), nil
}
