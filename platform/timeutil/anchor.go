// Package timeutil provides time anchoring utilities for the scheduling engine.
// This is part of the platform layer and contains no business logic.
package timeutil

import (
	"fmt"
	"time"
)

// AsAbsoluteInstant normalizes a timestamp to UTC. The instant is preserved
// regardless of the carried location; database scans hand back correct
// instants in the process-local zone. Naive string input is resolved by
// ParseInstant before it ever reaches here.
func AsAbsoluteInstant(t time.Time) time.Time {
	return t.UTC()
}

// AsZonedInstant reinterprets the wall-clock digits of t as civil time in the
// given fixed-offset zone and returns the corresponding absolute instant.
// The business zone has no daylight-saving transitions, so this is a constant
// offset shift, never a calendar-aware conversion.
func AsZonedInstant(t time.Time, zone *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), zone).UTC()
}

// CivilDate truncates t to its civil date in t's own location.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NoonOn returns the absolute instant of 12:00 civil time in zone on the civil
// date carried by day.
func NoonOn(day time.Time, zone *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, zone).UTC()
}

// ParseInstant parses an RFC3339 timestamp, falling back to a naive wall-clock
// form whose digits are interpreted as UTC.
func ParseInstant(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), nil
}

// FixedZone builds the constant-offset business zone from an offset in
// minutes east of UTC.
func FixedZone(offsetMinutes int) *time.Location {
	name := fmt.Sprintf("UTC%+03d:%02d", offsetMinutes/60, abs(offsetMinutes%60))
	return time.FixedZone(name, offsetMinutes*60)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
