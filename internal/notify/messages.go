package notify

import (
	"fmt"
	"time"

	"github.com/bekzod-dev/vaqtbot/internal/database"
	"github.com/bekzod-dev/vaqtbot/internal/prayer"
)

// Button is a transport-neutral inline button. The dispatcher maps it to
// the messaging platform's keyboard type.
type Button struct {
	Text string
	Data string
}

var priorityEmoji = map[string]string{
	"high":   "🔴",
	"medium": "🟡",
	"low":    "🟢",
}

// PriorityEmoji returns the marker for a task priority.
func PriorityEmoji(priority string) string {
	if e, ok := priorityEmoji[priority]; ok {
		return e
	}
	return "⚪"
}

// taskMessage renders the reminder text for a task threshold.
func taskMessage(task *database.Task, thresholdID string, minutesUntil int) string {
	emoji := PriorityEmoji(task.Priority)
	category := task.Category
	if category == "" {
		category = "Umumiy"
	}

	if thresholdID == "due" {
		return fmt.Sprintf(
			"⏰ *VAZIFA VAQTI KELDI!*\n\n"+
				"%s *%s*\n\n"+
				"📅 *Sana:* %s\n"+
				"📁 *Kategoriya:* %s\n\n"+
				"🎯 Hozir bajarish vaqti!",
			emoji, task.Name, FormatDate(task.DueAt), category)
	}

	remaining := minutesUntil
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf(
		"⏰ *VAZIFA ESLATMASI*\n\n"+
			"%s *%s*\n\n"+
			"📅 *Sana:* %s\n"+
			"⏳ *Qolgan vaqt:* %s\n"+
			"📁 *Kategoriya:* %s\n\n"+
			"💡 Tayyorgarlik ko'ring!",
		emoji, task.Name, FormatDate(task.DueAt), FormatTimeRemaining(remaining), category)
}

// prayerMessage renders the reminder text for an upcoming prayer.
func prayerMessage(name prayer.Name, prayerTime string, minutes int, region string) string {
	return fmt.Sprintf(
		"🕌 *NAMAZ VAQTI ESLATMASI*\n\n"+
			"%s namazi %d daqiqadan keyin\n\n"+
			"⏰ *Vaqt:* %s\n"+
			"📍 *Hudud:* %s\n\n"+
			"🤲 Tahorat oling va tayyorgarlik ko'ring!",
		name.DisplayName(), minutes, prayerTime, region)
}

func taskButtons(taskID int64) [][]Button {
	return [][]Button{{
		{Text: "✅ Bajarildi", Data: fmt.Sprintf("complete_task_%d", taskID)},
		{Text: "📋 Vazifalar", Data: "show_tasks"},
	}}
}

func prayerButtons() [][]Button {
	return [][]Button{{
		{Text: "🕌 Namaz vaqtlari", Data: "show_prayer_times"},
		{Text: "🔕 O'chirish", Data: "disable_prayer_notifications"},
	}}
}

// FormatTimeRemaining renders a minute count as a readable Uzbek duration.
func FormatTimeRemaining(minutes int) string {
	if minutes <= 0 {
		return "Vaqt tugadi"
	}
	if minutes < 60 {
		return fmt.Sprintf("%d daqiqa", minutes)
	}

	hours := minutes / 60
	rem := minutes % 60

	if hours < 24 {
		if rem > 0 {
			return fmt.Sprintf("%d soat %d daqiqa", hours, rem)
		}
		return fmt.Sprintf("%d soat", hours)
	}

	days := hours / 24
	remHours := hours % 24
	if remHours > 0 {
		return fmt.Sprintf("%d kun %d soat", days, remHours)
	}
	return fmt.Sprintf("%d kun", days)
}

// FormatDate renders a timestamp for user-facing messages.
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}
