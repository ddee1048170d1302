// Package notify implements the notification scheduling and delivery engine:
// a per-minute sweep over all reachable users that fires task and prayer
// reminders exactly once per threshold crossing.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/bekzod-dev/vaqtbot/internal/database"
	"github.com/bekzod-dev/vaqtbot/internal/prayer"
)

// Store is the subset of database.Store the engine needs.
type Store interface {
	GetActiveUsers(ctx context.Context) ([]database.User, error)
	GetIncompleteTasks(ctx context.Context, userID int64) ([]database.Task, error)
	MarkTaskNotificationSent(ctx context.Context, taskID int64, thresholdID string) error
	HasPrayerNotification(ctx context.Context, userID int64, date, prayer, kind string) (bool, error)
	RecordPrayerNotification(ctx context.Context, rec *database.PrayerNotification) error
	MarkUserUnreachable(ctx context.Context, userID int64, at time.Time) error
}

// Dispatcher delivers a reminder to a user. An error whose message matches
// one of the unreachable indicators marks the user unreachable.
type Dispatcher interface {
	Send(ctx context.Context, chatID int64, text string, buttons [][]Button) error
}

// unreachableIndicators are the Telegram API error fragments that identify
// a user who can no longer receive messages.
var unreachableIndicators = []string{
	"bot was blocked by the user",
	"user is deactivated",
	"chat not found",
	"bot is not a member",
}

// IsUnreachable reports whether a delivery error means the user is gone
// for good, as opposed to a transient failure.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range unreachableIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

// Engine runs the per-minute notification sweep. It is either idle or
// running; Start and Stop are idempotent.
type Engine struct {
	logger        *slog.Logger
	store         Store
	dispatcher    Dispatcher
	prayers       prayer.Client
	prayerTimeout time.Duration

	// now is the clock used by the sweep; tests substitute a fixed one.
	now func() time.Time

	mu        sync.Mutex
	scheduler gocron.Scheduler
	running   bool
}

// NewEngine creates an idle notification engine.
func NewEngine(logger *slog.Logger, store Store, dispatcher Dispatcher, prayers prayer.Client, prayerTimeout time.Duration) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if prayerTimeout <= 0 {
		prayerTimeout = 10 * time.Second
	}
	return &Engine{
		logger:        logger.With("component", "notify_engine"),
		store:         store,
		dispatcher:    dispatcher,
		prayers:       prayers,
		prayerTimeout: prayerTimeout,
		now:           time.Now,
	}
}

// Start schedules the sweep on wall-clock minute boundaries and begins
// ticking. Calling Start on a running engine logs and no-ops.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.logger.Warn("Notification engine is already running")
		return nil
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.CronJob("* * * * *", false), // every minute, at second 0
		gocron.NewTask(func(ctx context.Context) {
			e.Sweep(ctx, e.now().UTC())
		}, context.Background()),
		gocron.WithName("notification_sweep"),
		// A tick that would overlap a still-running sweep is skipped,
		// not queued, so cycles never double-send.
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		if shutdownErr := s.Shutdown(); shutdownErr != nil {
			e.logger.Error("Error shutting down scheduler after job setup failure", "error", shutdownErr)
		}
		return fmt.Errorf("failed to schedule notification sweep: %w", err)
	}

	s.Start()
	e.scheduler = s
	e.running = true
	e.logger.Info("Notification engine started")
	return nil
}

// Stop disposes the recurring job, waiting for an in-flight sweep to
// finish. Calling Stop on an idle engine is a no-op.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		e.logger.Info("Notification engine is not running, nothing to stop.")
		return nil
	}

	err := e.scheduler.Shutdown() // waits for the running sweep
	if err != nil {
		e.logger.Error("Error during notification engine shutdown", "error", err)
	} else {
		e.logger.Info("Notification engine stopped")
	}

	e.scheduler = nil
	e.running = false
	return err
}

// Running reports whether the engine's sweep job is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Sweep runs one notification cycle over all reachable users. Failures
// are logged and isolated per user; the sweep itself never fails.
func (e *Engine) Sweep(ctx context.Context, now time.Time) {
	e.logger.DebugContext(ctx, "Checking notifications", "now", now)

	users, err := e.store.GetActiveUsers(ctx)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load users for notification sweep", "error", err)
		return
	}

	total := 0
	for i := range users {
		total += e.processUser(ctx, &users[i], now)
	}

	if total > 0 {
		e.logger.InfoContext(ctx, "Sent notifications", "count", total)
	}
}

// processUser evaluates one user's task and prayer reminders. A panic in
// one user's processing never aborts the rest of the sweep.
func (e *Engine) processUser(ctx context.Context, user *database.User, now time.Time) (sent int) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "Panic while processing user notifications",
				"user_id", user.ID, "panic", r)
		}
	}()

	taskSent, unreachable := e.checkTaskNotifications(ctx, user, now)
	sent += taskSent
	if unreachable {
		return sent
	}

	prayerSent, _ := e.checkPrayerNotifications(ctx, user, now)
	sent += prayerSent
	return sent
}

// checkTaskNotifications fires due task thresholds for one user. It reports
// how many reminders were delivered and whether the user became unreachable,
// in which case the caller stops processing the user for this cycle.
func (e *Engine) checkTaskNotifications(ctx context.Context, user *database.User, now time.Time) (int, bool) {
	if !user.TaskNotificationsEnabled {
		return 0, false
	}

	tasks, err := e.store.GetIncompleteTasks(ctx, user.ID)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to load tasks", "user_id", user.ID, "error", err)
		return 0, false
	}

	sent := 0
	for i := range tasks {
		task := &tasks[i]
		minutesUntil := MinutesUntil(now, task.DueAt)

		for _, th := range TaskThresholds {
			if !ShouldFire(now, task.DueAt, th.Minutes, TaskWindowMinutes, task.SentFlag(th.ID)) {
				continue
			}

			text := taskMessage(task, th.ID, minutesUntil)
			if err := e.dispatcher.Send(ctx, user.ID, text, taskButtons(task.ID)); err != nil {
				if IsUnreachable(err) {
					e.markUnreachable(ctx, user.ID, now, err)
					return sent, true
				}
				e.logger.ErrorContext(ctx, "Failed to send task notification",
					"user_id", user.ID, "task_id", task.ID, "threshold", th.ID, "error", err)
				continue
			}

			// Flag is written only after a successful delivery; a failed
			// write means a possible duplicate next cycle, never a miss.
			if err := e.store.MarkTaskNotificationSent(ctx, task.ID, th.ID); err != nil {
				e.logger.ErrorContext(ctx, "Failed to persist task sent-flag",
					"task_id", task.ID, "threshold", th.ID, "error", err)
				continue
			}

			sent++
			e.logger.InfoContext(ctx, "Task notification sent",
				"user_id", user.ID, "task_id", task.ID, "task", task.Name, "threshold", th.ID)
		}
	}

	return sent, false
}

// checkPrayerNotifications fires due prayer thresholds for one user.
func (e *Engine) checkPrayerNotifications(ctx context.Context, user *database.User, now time.Time) (int, bool) {
	if !user.PrayerNotificationsEnabled || user.Region == "" {
		return 0, false
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.prayerTimeout)
	defer cancel()

	times, err := e.prayers.Times(fetchCtx, user.Region)
	if err != nil {
		// Provider trouble degrades this user's prayer check for one
		// cycle only; no retry within the cycle.
		e.logger.WarnContext(ctx, "Skipping prayer check, provider fetch failed",
			"user_id", user.ID, "region", user.Region, "error", err)
		return 0, false
	}

	date := now.Format("2006-01-02")
	sent := 0

	for _, name := range prayer.All {
		prayerAt, err := times.At(name, now)
		if err != nil {
			e.logger.WarnContext(ctx, "Skipping prayer with unparseable time",
				"user_id", user.ID, "prayer", name, "error", err)
			continue
		}

		for _, th := range PrayerThresholds {
			if !ShouldFire(now, prayerAt, th.Minutes, PrayerWindowMinutes, false) {
				continue
			}

			already, err := e.store.HasPrayerNotification(ctx, user.ID, date, string(name), th.ID)
			if err != nil {
				e.logger.ErrorContext(ctx, "Failed to check prayer notification record",
					"user_id", user.ID, "prayer", name, "kind", th.ID, "error", err)
				continue
			}
			if already {
				continue
			}

			text := prayerMessage(name, times[name], th.Minutes, user.Region)
			if err := e.dispatcher.Send(ctx, user.ID, text, prayerButtons()); err != nil {
				if IsUnreachable(err) {
					e.markUnreachable(ctx, user.ID, now, err)
					return sent, true
				}
				e.logger.ErrorContext(ctx, "Failed to send prayer notification",
					"user_id", user.ID, "prayer", name, "kind", th.ID, "error", err)
				continue
			}

			rec := &database.PrayerNotification{
				UserID: user.ID,
				Date:   date,
				Prayer: string(name),
				Kind:   th.ID,
				SentAt: now.UTC(),
			}
			if err := e.store.RecordPrayerNotification(ctx, rec); err != nil {
				e.logger.ErrorContext(ctx, "Failed to record prayer notification",
					"user_id", user.ID, "prayer", name, "kind", th.ID, "error", err)
				continue
			}

			sent++
			e.logger.InfoContext(ctx, "Prayer notification sent",
				"user_id", user.ID, "prayer", name, "kind", th.ID)
		}
	}

	return sent, false
}

// markUnreachable records the one-way unreachable transition for a user.
func (e *Engine) markUnreachable(ctx context.Context, userID int64, now time.Time, cause error) {
	e.logger.InfoContext(ctx, "Delivery failed, marking user unreachable",
		"user_id", userID, "cause", cause)

	if err := e.store.MarkUserUnreachable(ctx, userID, now); err != nil &&
		!errors.Is(err, context.Canceled) {
		e.logger.ErrorContext(ctx, "Failed to mark user unreachable",
			"user_id", userID, "error", err)
	}
}
