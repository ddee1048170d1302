package database

import (
	"database/sql"
	"time"
)

// User represents a Telegram user known to the bot, along with their
// notification preferences and reachability state. The primary key is
// the Telegram chat ID.
type User struct {
	ID        int64  `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Username  string `db:"username"`

	Region                     string `db:"region"`
	TaskNotificationsEnabled   bool   `db:"task_notifications_enabled"`
	PrayerNotificationsEnabled bool   `db:"prayer_notifications_enabled"`

	RegisteredAt      time.Time `db:"registered_at"`
	LastActivity      time.Time `db:"last_activity"`
	TotalTasksCreated int       `db:"total_tasks_created"`

	// Unreachable is set once delivery fails with a blocked/deactivated
	// class error. It is never reset by the engine.
	Unreachable   bool         `db:"unreachable"`
	UnreachableAt sql.NullTime `db:"unreachable_at"`
}

// FullName returns the user's first and last name joined for display.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Task represents a user's task with a due time and one sent-flag per
// reminder threshold. Each flag transitions false→true at most once.
type Task struct {
	ID     int64 `db:"id"`
	UserID int64 `db:"user_id"`

	Name     string `db:"name"`
	Notes    string `db:"notes"`
	Category string `db:"category"`
	Priority string `db:"priority"` // low, medium, high

	DueAt       time.Time    `db:"due_at"`
	CreatedAt   time.Time    `db:"created_at"`
	Completed   bool         `db:"completed"`
	CompletedAt sql.NullTime `db:"completed_at"`

	Sent1Day  bool `db:"sent_1day"`
	Sent1Hour bool `db:"sent_1hour"`
	Sent15Min bool `db:"sent_15min"`
	SentDue   bool `db:"sent_due"`
}

// taskSentColumns maps a threshold identifier to its sent-flag column.
// Column names come from this table only, never from string interpolation
// of caller input.
var taskSentColumns = map[string]string{
	"1day":  "sent_1day",
	"1hour": "sent_1hour",
	"15min": "sent_15min",
	"due":   "sent_due",
}

// SentFlag reports whether the reminder for the given threshold ID has
// already been sent. Unknown IDs report true so callers never fire a
// threshold the schema cannot record.
func (t *Task) SentFlag(thresholdID string) bool {
	switch thresholdID {
	case "1day":
		return t.Sent1Day
	case "1hour":
		return t.Sent1Hour
	case "15min":
		return t.Sent15Min
	case "due":
		return t.SentDue
	default:
		return true
	}
}

// PrayerNotification records that a prayer reminder was delivered.
// Existence of a row is the sole "already sent" signal for prayer
// reminders; rows are insert-only.
type PrayerNotification struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	Date   string `db:"date"`   // YYYY-MM-DD
	Prayer string `db:"prayer"` // Fajr, Dhuhr, Asr, Maghrib, Isha
	Kind   string `db:"kind"`   // 15min, 5min

	SentAt time.Time `db:"sent_at"`
}
