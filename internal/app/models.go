package app

import "time"

// SlotDuration is the fixed length of every bookable slot.
const SlotDuration = 30 * time.Minute

// AvailabilityRule is a user's weekly bookable window: the weekdays they take
// meetings on and the wall-clock start/end of their working day. One rule per
// user; updates replace the whole rule.
type AvailabilityRule struct {
	UserID    string    `json:"user_id"`
	Days      []int     `json:"days"` // 0 = Sunday .. 6 = Saturday
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	TimeZone  string    `json:"time_zone"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DefaultRule is the schedule assumed for users who never configured one.
func DefaultRule(userID string) AvailabilityRule {
	return AvailabilityRule{
		UserID:    userID,
		Days:      []int{1, 2, 3, 4, 5},
		StartTime: "09:00",
		EndTime:   "17:00",
		TimeZone:  "UTC",
	}
}

// Interval is a half-open [Start, End) span of absolute time. Slots and busy
// blocks are both intervals; slots are transient and never persisted.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals share any time. Touching
// boundaries do not count.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

type Meeting struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	GuestName     string    `json:"guest_name"`
	GuestEmail    string    `json:"guest_email"`
	GuestNotes    string    `json:"guest_notes,omitempty"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	GoogleEventID *string   `json:"google_event_id"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}
