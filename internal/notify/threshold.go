package notify

import (
	"math"
	"time"
)

// Threshold describes a reminder lead time before an event.
type Threshold struct {
	ID      string
	Minutes int
}

// TaskThresholds are the fixed reminder lead times for tasks.
var TaskThresholds = []Threshold{
	{ID: "1day", Minutes: 24 * 60},
	{ID: "1hour", Minutes: 60},
	{ID: "15min", Minutes: 15},
	{ID: "due", Minutes: 0},
}

// PrayerThresholds are the fixed reminder lead times for prayers.
var PrayerThresholds = []Threshold{
	{ID: "15min", Minutes: 15},
	{ID: "5min", Minutes: 5},
}

// Tolerance windows after a threshold's ideal instant during which a
// delayed sweep may still fire it. Both exceed the one-minute sweep
// period; the already-sent gate keeps delivery at-most-once.
const (
	TaskWindowMinutes   = 5
	PrayerWindowMinutes = 2
)

// MinutesUntil returns the whole minutes from now until eventTime,
// rounded down (negative once the event has passed).
func MinutesUntil(now, eventTime time.Time) int {
	return int(math.Floor(eventTime.Sub(now).Seconds() / 60))
}

// ShouldFire reports whether a reminder for the given threshold is due.
// It fires when the reminder has not been sent yet and the remaining
// minutes lie in the half-open window (threshold-window, threshold].
// A sweep delayed past the window misses the threshold for good.
func ShouldFire(now, eventTime time.Time, thresholdMinutes, windowMinutes int, alreadySent bool) bool {
	if alreadySent {
		return false
	}

	minutesUntil := MinutesUntil(now, eventTime)
	return minutesUntil <= thresholdMinutes && minutesUntil > thresholdMinutes-windowMinutes
}
