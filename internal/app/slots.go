package app

import (
	"fmt"
	"time"
)

// ComputeSlots expands an availability rule into the bookable slots on a
// calendar date, removing anything that collides with a busy interval. Pure:
// no I/O, no clock, same inputs always give the same output.
//
// The date argument carries only its year/month/day; day boundaries are built
// from the rule's wall-clock times interpreted in the rule's stored time zone
// (UTC when the zone is empty or unknown). Returned instants are UTC.
//
// The walk is a fixed 30-minute grid from dayStart: a candidate is kept only
// if it ends on or before dayEnd and does not strictly overlap any busy
// interval. The cursor always advances by one slot, so slots stay aligned to
// the grid even around busy blocks, and a slot that merely touches a busy
// boundary stays bookable.
func ComputeSlots(rule AvailabilityRule, date time.Time, busy []Interval) ([]Interval, error) {
	if !ruleDaysContain(rule.Days, weekdayOf(rule, date)) {
		return nil, nil
	}

	startTOD, err := parseHHMM(rule.StartTime)
	if err != nil {
		return nil, validationErrf("invalid start_time %q", rule.StartTime)
	}
	endTOD, err := parseHHMM(rule.EndTime)
	if err != nil {
		return nil, validationErrf("invalid end_time %q", rule.EndTime)
	}

	loc := ruleLocation(rule)
	year, month, day := date.Date()
	dayStart := time.Date(year, month, day, startTOD.Hour(), startTOD.Minute(), 0, 0, loc)
	dayEnd := time.Date(year, month, day, endTOD.Hour(), endTOD.Minute(), 0, 0, loc)

	var slots []Interval
	for cur := dayStart; !cur.Add(SlotDuration).After(dayEnd); cur = cur.Add(SlotDuration) {
		candidate := Interval{Start: cur.UTC(), End: cur.Add(SlotDuration).UTC()}
		if overlapsAny(candidate, busy) {
			continue
		}
		slots = append(slots, candidate)
	}
	return slots, nil
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// dayWindow is the full calendar day containing the rule's slots, used to
// bound the busy-interval fetch.
func dayWindow(rule AvailabilityRule, date time.Time) (time.Time, time.Time) {
	year, month, day := date.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, ruleLocation(rule))
	return start, start.Add(24 * time.Hour)
}

func weekdayOf(rule AvailabilityRule, date time.Time) int {
	year, month, day := date.Date()
	return int(time.Date(year, month, day, 0, 0, 0, 0, ruleLocation(rule)).Weekday())
}

func ruleDaysContain(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// ruleLocation resolves the rule's stored zone. Working hours are interpreted
// in the owner's zone; an empty or unknown zone falls back to UTC.
func ruleLocation(rule AvailabilityRule) *time.Location {
	if rule.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(rule.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseHHMM(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("invalid time string: %s", s)
	}
	s = s[:5] // "09:00:00" -> "09:00"
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, err
	}
	return tt, nil
}

// validateRule is shared by every AvailabilityStore implementation so the
// persisted shape is the same regardless of backend.
func validateRule(rule AvailabilityRule) error {
	if rule.UserID == "" {
		return validationErrf("user_id is required")
	}
	// an empty days set is legal: the user is simply never bookable
	for _, d := range rule.Days {
		if d < 0 || d > 6 {
			return validationErrf("day %d out of range 0..6", d)
		}
	}
	if _, err := parseHHMM(rule.StartTime); err != nil {
		return validationErrf("invalid start_time %q", rule.StartTime)
	}
	if _, err := parseHHMM(rule.EndTime); err != nil {
		return validationErrf("invalid end_time %q", rule.EndTime)
	}
	// zero-padded HH:MM compares correctly as a string
	if rule.StartTime >= rule.EndTime {
		return validationErrf("start_time must be before end_time")
	}
	return nil
}
