package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// NotificationStats summarizes user reachability and notification toggles
// for the operational /stats command.
type NotificationStats struct {
	TotalUsers        int `db:"total_users"`
	UnreachableUsers  int `db:"unreachable_users"`
	TaskNotifyUsers   int `db:"task_notify_users"`
	PrayerNotifyUsers int `db:"prayer_notify_users"`
}

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetOrCreateUser fetches the user with the given Telegram ID, creating
	// it on first contact and refreshing name/activity fields otherwise.
	GetOrCreateUser(ctx context.Context, id int64, firstName, lastName, username string) (*User, error)

	// GetUser retrieves a user by ID. Returns nil, nil if not found.
	GetUser(ctx context.Context, id int64) (*User, error)

	// GetActiveUsers retrieves all users that are still reachable.
	GetActiveUsers(ctx context.Context) ([]User, error)

	// UpdateUserRegion sets the user's prayer region.
	UpdateUserRegion(ctx context.Context, userID int64, region string) error

	// SetTaskNotifications toggles task reminders for a user.
	SetTaskNotifications(ctx context.Context, userID int64, enabled bool) error

	// SetPrayerNotifications toggles prayer reminders for a user.
	SetPrayerNotifications(ctx context.Context, userID int64, enabled bool) error

	// MarkUserUnreachable flags a user as unreachable and force-disables
	// both notification toggles. One-way transition.
	MarkUserUnreachable(ctx context.Context, userID int64, at time.Time) error

	// CreateTask inserts a new task and increments the owner's task counter.
	CreateTask(ctx context.Context, task *Task) error

	// GetTask retrieves a task by ID. Returns nil, nil if not found.
	GetTask(ctx context.Context, taskID int64) (*Task, error)

	// GetIncompleteTasks retrieves a user's open tasks ordered by due time.
	GetIncompleteTasks(ctx context.Context, userID int64) ([]Task, error)

	// CompleteTask marks a task as completed.
	CompleteTask(ctx context.Context, taskID int64, at time.Time) error

	// MarkTaskNotificationSent sets the sent-flag for the given threshold ID.
	MarkTaskNotificationSent(ctx context.Context, taskID int64, thresholdID string) error

	// HasPrayerNotification reports whether a reminder was already recorded
	// for (user, date, prayer, kind).
	HasPrayerNotification(ctx context.Context, userID int64, date, prayer, kind string) (bool, error)

	// RecordPrayerNotification inserts a prayer notification record.
	RecordPrayerNotification(ctx context.Context, rec *PrayerNotification) error

	// GetNotificationStats returns aggregate user/toggle counts.
	GetNotificationStats(ctx context.Context) (*NotificationStats, error)
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetOrCreateUser fetches or registers a user in a single transaction.
func (s *sqlxStore) GetOrCreateUser(ctx context.Context, id int64, firstName, lastName, username string) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user id cannot be zero")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	now := time.Now().UTC()

	var user User
	err = tx.GetContext(ctx, &user, userSelectColumns+` FROM users WHERE id = ?`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		user = User{
			ID:                         id,
			FirstName:                  firstName,
			LastName:                   lastName,
			Username:                   username,
			Region:                     "Toshkent",
			TaskNotificationsEnabled:   true,
			PrayerNotificationsEnabled: true,
			RegisteredAt:               now,
			LastActivity:               now,
		}
		_, err = tx.NamedExecContext(ctx, `
            INSERT INTO users (
                id, first_name, last_name, username, region,
                task_notifications_enabled, prayer_notifications_enabled,
                registered_at, last_activity, total_tasks_created,
                unreachable, unreachable_at
            ) VALUES (
                :id, :first_name, :last_name, :username, :region,
                :task_notifications_enabled, :prayer_notifications_enabled,
                :registered_at, :last_activity, :total_tasks_created,
                :unreachable, :unreachable_at
            )`, &user)
		if err != nil {
			return nil, fmt.Errorf("failed to create user %d: %w", id, err)
		}
		s.logger.InfoContext(ctx, "Registered new user", "user_id", id)

	case err != nil:
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)

	default:
		user.FirstName = firstName
		user.LastName = lastName
		user.Username = username
		user.LastActivity = now
		_, err = tx.ExecContext(ctx, `
            UPDATE users SET first_name = ?, last_name = ?, username = ?, last_activity = ?
            WHERE id = ?`, firstName, lastName, username, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update user %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	return &user, nil
}

const userSelectColumns = `
    SELECT id, first_name, last_name, username, region,
           task_notifications_enabled, prayer_notifications_enabled,
           registered_at, last_activity, total_tasks_created,
           unreachable, unreachable_at`

// GetUser retrieves a user by ID. Returns nil, nil if not found.
func (s *sqlxStore) GetUser(ctx context.Context, id int64) (*User, error) {
	if id == 0 {
		return nil, fmt.Errorf("user id cannot be zero")
	}

	var user User
	err := s.db.GetContext(ctx, &user, userSelectColumns+` FROM users WHERE id = ?`, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", "user_id", id)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}

	return &user, nil
}

// GetActiveUsers retrieves all users that are still reachable.
func (s *sqlxStore) GetActiveUsers(ctx context.Context) ([]User, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var users []User
	err := s.db.SelectContext(ctx, &users, userSelectColumns+` FROM users WHERE unreachable = 0`)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting active users", "error", err)
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched active users", "count", len(users))
	return users, nil
}

// UpdateUserRegion sets the user's prayer region.
func (s *sqlxStore) UpdateUserRegion(ctx context.Context, userID int64, region string) error {
	if region == "" {
		return fmt.Errorf("region cannot be empty")
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET region = ? WHERE id = ?`, region, userID)
	if err != nil {
		return fmt.Errorf("failed to update region for user %d: %w", userID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("user %d not found", userID)
	}

	s.logger.DebugContext(ctx, "Updated user region", "user_id", userID, "region", region)
	return nil
}

// SetTaskNotifications toggles task reminders for a user.
func (s *sqlxStore) SetTaskNotifications(ctx context.Context, userID int64, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET task_notifications_enabled = ? WHERE id = ?`, enabled, userID)
	if err != nil {
		return fmt.Errorf("failed to set task notifications for user %d: %w", userID, err)
	}
	return nil
}

// SetPrayerNotifications toggles prayer reminders for a user.
func (s *sqlxStore) SetPrayerNotifications(ctx context.Context, userID int64, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET prayer_notifications_enabled = ? WHERE id = ?`, enabled, userID)
	if err != nil {
		return fmt.Errorf("failed to set prayer notifications for user %d: %w", userID, err)
	}
	return nil
}

// MarkUserUnreachable flags a user as unreachable and disables both toggles.
func (s *sqlxStore) MarkUserUnreachable(ctx context.Context, userID int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
        UPDATE users SET
            unreachable = 1,
            unreachable_at = ?,
            task_notifications_enabled = 0,
            prayer_notifications_enabled = 0
        WHERE id = ?`, at.UTC(), userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking user unreachable", "user_id", userID, "error", err)
		return fmt.Errorf("failed to mark user %d unreachable: %w", userID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("user %d not found", userID)
	}

	s.logger.InfoContext(ctx, "User marked unreachable", "user_id", userID)
	return nil
}

// CreateTask inserts a task and bumps the owner's counter in one transaction.
func (s *sqlxStore) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return fmt.Errorf("cannot save nil task")
	}
	if task.UserID == 0 {
		return fmt.Errorf("task must have a non-zero user_id")
	}
	if task.Name == "" {
		return fmt.Errorf("task must have a non-empty name")
	}
	if task.DueAt.IsZero() {
		return fmt.Errorf("task must have a due time")
	}

	if task.Category == "" {
		task.Category = "personal"
	}
	if task.Priority == "" {
		task.Priority = "medium"
	}
	task.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	result, err := tx.NamedExecContext(ctx, `
        INSERT INTO tasks (
            user_id, name, notes, category, priority, due_at, created_at,
            completed, completed_at, sent_1day, sent_1hour, sent_15min, sent_due
        ) VALUES (
            :user_id, :name, :notes, :category, :priority, :due_at, :created_at,
            :completed, :completed_at, :sent_1day, :sent_1hour, :sent_15min, :sent_due
        )`, task)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error saving task", "user_id", task.UserID, "error", err)
		return fmt.Errorf("failed to save task for user %d: %w", task.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		task.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after saving task",
			"user_id", task.UserID, "error", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET total_tasks_created = total_tasks_created + 1 WHERE id = ?`,
		task.UserID); err != nil {
		return fmt.Errorf("failed to increment task counter for user %d: %w", task.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Task saved successfully", "user_id", task.UserID, "task_id", task.ID)
	return nil
}

const taskSelectColumns = `
    SELECT id, user_id, name, notes, category, priority, due_at, created_at,
           completed, completed_at, sent_1day, sent_1hour, sent_15min, sent_due`

// GetTask retrieves a task by ID. Returns nil, nil if not found.
func (s *sqlxStore) GetTask(ctx context.Context, taskID int64) (*Task, error) {
	var task Task
	err := s.db.GetContext(ctx, &task, taskSelectColumns+` FROM tasks WHERE id = ?`, taskID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to get task %d: %w", taskID, err)
	}
	return &task, nil
}

// GetIncompleteTasks retrieves a user's open tasks ordered by due time.
func (s *sqlxStore) GetIncompleteTasks(ctx context.Context, userID int64) ([]Task, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user_id cannot be zero")
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var tasks []Task
	err := s.db.SelectContext(ctx, &tasks,
		taskSelectColumns+` FROM tasks WHERE user_id = ? AND completed = 0 ORDER BY due_at ASC`,
		userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error getting incomplete tasks", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get incomplete tasks for user %d: %w", userID, err)
	}

	return tasks, nil
}

// CompleteTask marks a task as completed.
func (s *sqlxStore) CompleteTask(ctx context.Context, taskID int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET completed = 1, completed_at = ? WHERE id = ? AND completed = 0`,
		at.UTC(), taskID)
	if err != nil {
		return fmt.Errorf("failed to complete task %d: %w", taskID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		s.logger.DebugContext(ctx, "Task already completed or missing", "task_id", taskID)
	}
	return nil
}

// MarkTaskNotificationSent sets the sent-flag for the given threshold ID.
// The column name comes from the taskSentColumns lookup table.
func (s *sqlxStore) MarkTaskNotificationSent(ctx context.Context, taskID int64, thresholdID string) error {
	column, ok := taskSentColumns[thresholdID]
	if !ok {
		return fmt.Errorf("unknown notification threshold %q", thresholdID)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+column+` = 1 WHERE id = ?`, taskID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error marking task notification sent",
			"task_id", taskID, "threshold", thresholdID, "error", err)
		return fmt.Errorf("failed to mark %s notification sent for task %d: %w", thresholdID, taskID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("task %d not found", taskID)
	}

	s.logger.DebugContext(ctx, "Task notification flag set", "task_id", taskID, "threshold", thresholdID)
	return nil
}

// HasPrayerNotification reports whether a reminder record exists for
// (user, date, prayer, kind).
func (s *sqlxStore) HasPrayerNotification(ctx context.Context, userID int64, date, prayer, kind string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
        SELECT EXISTS (
            SELECT 1 FROM prayer_notifications
            WHERE user_id = ? AND date = ? AND prayer = ? AND kind = ?
        )`, userID, date, prayer, kind)
	if err != nil {
		return false, fmt.Errorf("failed to check prayer notification for user %d: %w", userID, err)
	}
	return exists, nil
}

// RecordPrayerNotification inserts a prayer notification record.
func (s *sqlxStore) RecordPrayerNotification(ctx context.Context, rec *PrayerNotification) error {
	if rec == nil {
		return fmt.Errorf("cannot save nil prayer notification")
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now().UTC()
	}

	result, err := s.db.NamedExecContext(ctx, `
        INSERT INTO prayer_notifications (user_id, date, prayer, kind, sent_at)
        VALUES (:user_id, :date, :prayer, :kind, :sent_at)`, rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error recording prayer notification",
			"user_id", rec.UserID, "prayer", rec.Prayer, "kind", rec.Kind, "error", err)
		return fmt.Errorf("failed to record %s/%s prayer notification for user %d: %w",
			rec.Prayer, rec.Kind, rec.UserID, err)
	}

	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}

	s.logger.DebugContext(ctx, "Prayer notification recorded",
		"user_id", rec.UserID, "date", rec.Date, "prayer", rec.Prayer, "kind", rec.Kind)
	return nil
}

// GetNotificationStats returns aggregate user/toggle counts.
func (s *sqlxStore) GetNotificationStats(ctx context.Context) (*NotificationStats, error) {
	var stats NotificationStats
	err := s.db.GetContext(ctx, &stats, `
        SELECT
            COUNT(*) AS total_users,
            COALESCE(SUM(unreachable), 0) AS unreachable_users,
            COALESCE(SUM(task_notifications_enabled), 0) AS task_notify_users,
            COALESCE(SUM(prayer_notifications_enabled), 0) AS prayer_notify_users
        FROM users`)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification stats: %w", err)
	}
	return &stats, nil
}
