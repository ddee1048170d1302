package handlers

import (
	"strings"
	"testing"
	"time"

	"github.com/bekzod-dev/vaqtbot/internal/prayer"
)

var todayTimes = prayer.Times{
	prayer.Fajr:    "05:12",
	prayer.Dhuhr:   "12:28",
	prayer.Asr:     "15:47",
	prayer.Maghrib: "18:19",
	prayer.Isha:    "19:38",
}

func TestNextPrayer(t *testing.T) {
	t.Parallel()

	day := func(hour, minute int) time.Time {
		return time.Date(2026, time.March, 10, hour, minute, 0, 0, time.UTC)
	}

	testCases := []struct {
		name string
		now  time.Time
		want prayer.Name
	}{
		{name: "before dawn", now: day(4, 0), want: prayer.Fajr},
		{name: "mid-morning", now: day(9, 0), want: prayer.Dhuhr},
		{name: "exactly at Dhuhr", now: day(12, 28), want: prayer.Asr},
		{name: "afternoon", now: day(16, 0), want: prayer.Maghrib},
		{name: "evening", now: day(19, 0), want: prayer.Isha},
		{name: "after Isha wraps to Fajr", now: day(23, 0), want: prayer.Fajr},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := nextPrayer(todayTimes, tc.now); got != tc.want {
				t.Errorf("nextPrayer(%s) = %s, want %s", tc.now.Format("15:04"), got, tc.want)
			}
		})
	}
}

func TestFormatPrayerTimes(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	text := formatPrayerTimes(todayTimes, "Toshkent", now)

	if !strings.Contains(text, "Toshkent") {
		t.Error("rendered text does not mention the region")
	}
	for _, name := range prayer.All {
		if !strings.Contains(text, todayTimes[name]) {
			t.Errorf("rendered text is missing the %s time %q", name, todayTimes[name])
		}
	}

	// Dhuhr is next at 09:00 and gets the highlight marker.
	if !strings.Contains(text, "▶️ *🌞 Peshin*") {
		t.Errorf("next prayer not highlighted:\n%s", text)
	}
	// 09:00 to 12:28 is 3 hours 28 minutes.
	if !strings.Contains(text, "3 soat 28 daqiqa") {
		t.Errorf("remaining time not rendered:\n%s", text)
	}
}

func TestFormatPrayerTimesAfterIsha(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.March, 10, 23, 0, 0, 0, time.UTC)

	text := formatPrayerTimes(todayTimes, "Toshkent", now)

	// After Isha the next prayer is tomorrow's Fajr; 23:00 to 05:12 is
	// 6 hours 12 minutes.
	if !strings.Contains(text, "▶️ *🌅 Bomdod*") {
		t.Errorf("Fajr not highlighted after Isha:\n%s", text)
	}
	if !strings.Contains(text, "6 soat 12 daqiqa") {
		t.Errorf("wrap-around remaining time not rendered:\n%s", text)
	}
}
