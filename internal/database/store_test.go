package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bekzod-dev/vaqtbot/internal/database"
)

// newTestStore opens a throwaway SQLite database with migrations applied.
func newTestStore(t *testing.T) database.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	return database.NewStore(db, nil)
}

func TestGetOrCreateUser(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	user, err := store.GetOrCreateUser(ctx, 100, "Aziz", "Karimov", "aziz")
	if err != nil {
		t.Fatalf("GetOrCreateUser (create): %v", err)
	}
	if user.ID != 100 {
		t.Errorf("user ID = %d, want 100", user.ID)
	}
	if user.Region != "Toshkent" {
		t.Errorf("default region = %q, want Toshkent", user.Region)
	}
	if !user.TaskNotificationsEnabled || !user.PrayerNotificationsEnabled {
		t.Error("new user must have both notification toggles on")
	}
	if user.Unreachable {
		t.Error("new user must be reachable")
	}

	// Second contact refreshes name fields without re-registering.
	again, err := store.GetOrCreateUser(ctx, 100, "Azizbek", "", "azizbek")
	if err != nil {
		t.Fatalf("GetOrCreateUser (update): %v", err)
	}
	if again.FirstName != "Azizbek" || again.Username != "azizbek" {
		t.Errorf("name fields not refreshed: %+v", again)
	}
	if drift := again.RegisteredAt.Sub(user.RegisteredAt); drift < -time.Second || drift > time.Second {
		t.Errorf("registered_at changed on repeat contact: %v -> %v",
			user.RegisteredAt, again.RegisteredAt)
	}

	if _, err := store.GetOrCreateUser(ctx, 0, "x", "", ""); err == nil {
		t.Error("expected error for zero user id, got nil")
	}
}

func TestGetUserMissingReturnsNilNil(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	user, err := store.GetUser(context.Background(), 404)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for missing user, got %+v", user)
	}
}

func TestUpdateUserRegion(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetOrCreateUser(ctx, 100, "Aziz", "", ""); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	if err := store.UpdateUserRegion(ctx, 100, "Samarqand"); err != nil {
		t.Fatalf("UpdateUserRegion: %v", err)
	}

	user, err := store.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.Region != "Samarqand" {
		t.Errorf("region = %q, want Samarqand", user.Region)
	}

	if err := store.UpdateUserRegion(ctx, 404, "Buxoro"); err == nil {
		t.Error("expected error for missing user, got nil")
	}
	if err := store.UpdateUserRegion(ctx, 100, ""); err == nil {
		t.Error("expected error for empty region, got nil")
	}
}

func TestMarkUserUnreachable(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetOrCreateUser(ctx, 100, "Aziz", "", ""); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	at := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	if err := store.MarkUserUnreachable(ctx, 100, at); err != nil {
		t.Fatalf("MarkUserUnreachable: %v", err)
	}

	user, err := store.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !user.Unreachable {
		t.Error("user not flagged unreachable")
	}
	if !user.UnreachableAt.Valid {
		t.Error("unreachable_at not set")
	}
	if user.TaskNotificationsEnabled || user.PrayerNotificationsEnabled {
		t.Error("notification toggles not force-disabled")
	}

	// Unreachable users drop out of the sweep population.
	active, err := store.GetActiveUsers(ctx)
	if err != nil {
		t.Fatalf("GetActiveUsers: %v", err)
	}
	for _, u := range active {
		if u.ID == 100 {
			t.Error("unreachable user still listed as active")
		}
	}

	if err := store.MarkUserUnreachable(ctx, 404, at); err == nil {
		t.Error("expected error for missing user, got nil")
	}
}

func TestCreateTaskIncrementsCounter(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetOrCreateUser(ctx, 100, "Aziz", "", ""); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	task := &database.Task{
		UserID:   100,
		Name:     "Hisobot yozish",
		Priority: "high",
		DueAt:    time.Date(2026, time.March, 11, 18, 0, 0, 0, time.UTC),
	}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == 0 {
		t.Error("task ID not populated after insert")
	}
	if task.Category != "personal" {
		t.Errorf("default category = %q, want personal", task.Category)
	}

	user, err := store.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.TotalTasksCreated != 1 {
		t.Errorf("total_tasks_created = %d, want 1", user.TotalTasksCreated)
	}

	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got == nil || got.Name != "Hisobot yozish" {
		t.Errorf("reloaded task = %+v", got)
	}
	if got.Sent1Day || got.Sent1Hour || got.Sent15Min || got.SentDue {
		t.Error("new task must have all sent-flags off")
	}

	if err := store.CreateTask(ctx, nil); err == nil {
		t.Error("expected error for nil task, got nil")
	}
	if err := store.CreateTask(ctx, &database.Task{UserID: 100, Name: "No due"}); err == nil {
		t.Error("expected error for task without due time, got nil")
	}
}

func TestIncompleteTasksOrderingAndCompletion(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetOrCreateUser(ctx, 100, "Aziz", "", ""); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	base := time.Date(2026, time.March, 11, 9, 0, 0, 0, time.UTC)
	later := &database.Task{UserID: 100, Name: "Keyinroq", DueAt: base.Add(2 * time.Hour)}
	sooner := &database.Task{UserID: 100, Name: "Avval", DueAt: base}
	for _, task := range []*database.Task{later, sooner} {
		if err := store.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask(%s): %v", task.Name, err)
		}
	}

	open, err := store.GetIncompleteTasks(ctx, 100)
	if err != nil {
		t.Fatalf("GetIncompleteTasks: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("open tasks = %d, want 2", len(open))
	}
	if open[0].Name != "Avval" {
		t.Errorf("tasks not ordered by due time: first is %q", open[0].Name)
	}

	if err := store.CompleteTask(ctx, sooner.ID, base.Add(time.Hour)); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	open, err = store.GetIncompleteTasks(ctx, 100)
	if err != nil {
		t.Fatalf("GetIncompleteTasks: %v", err)
	}
	if len(open) != 1 || open[0].ID != later.ID {
		t.Errorf("completed task still listed: %+v", open)
	}

	done, err := store.GetTask(ctx, sooner.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if !done.Completed || !done.CompletedAt.Valid {
		t.Errorf("completion not persisted: %+v", done)
	}
}

func TestMarkTaskNotificationSent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetOrCreateUser(ctx, 100, "Aziz", "", ""); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}
	task := &database.Task{
		UserID: 100, Name: "Hisobot",
		DueAt: time.Date(2026, time.March, 11, 18, 0, 0, 0, time.UTC),
	}
	if err := store.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	for _, threshold := range []string{"1day", "1hour", "15min", "due"} {
		if err := store.MarkTaskNotificationSent(ctx, task.ID, threshold); err != nil {
			t.Fatalf("MarkTaskNotificationSent(%s): %v", threshold, err)
		}
	}

	got, err := store.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	for _, threshold := range []string{"1day", "1hour", "15min", "due"} {
		if !got.SentFlag(threshold) {
			t.Errorf("sent-flag %s not set", threshold)
		}
	}

	if err := store.MarkTaskNotificationSent(ctx, task.ID, "2days"); err == nil {
		t.Error("expected error for unknown threshold, got nil")
	}
	if err := store.MarkTaskNotificationSent(ctx, 9999, "due"); err == nil {
		t.Error("expected error for missing task, got nil")
	}
}

func TestPrayerNotificationRecords(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.GetOrCreateUser(ctx, 100, "Aziz", "", ""); err != nil {
		t.Fatalf("GetOrCreateUser: %v", err)
	}

	has, err := store.HasPrayerNotification(ctx, 100, "2026-03-10", "Fajr", "15min")
	if err != nil {
		t.Fatalf("HasPrayerNotification: %v", err)
	}
	if has {
		t.Error("record reported before any insert")
	}

	rec := &database.PrayerNotification{
		UserID: 100,
		Date:   "2026-03-10",
		Prayer: "Fajr",
		Kind:   "15min",
		SentAt: time.Date(2026, time.March, 10, 4, 46, 0, 0, time.UTC),
	}
	if err := store.RecordPrayerNotification(ctx, rec); err != nil {
		t.Fatalf("RecordPrayerNotification: %v", err)
	}

	has, err = store.HasPrayerNotification(ctx, 100, "2026-03-10", "Fajr", "15min")
	if err != nil {
		t.Fatalf("HasPrayerNotification: %v", err)
	}
	if !has {
		t.Error("record not found after insert")
	}

	// Same prayer, different kind or day, is a distinct record.
	for _, probe := range []struct{ date, prayer, kind string }{
		{"2026-03-10", "Fajr", "5min"},
		{"2026-03-11", "Fajr", "15min"},
		{"2026-03-10", "Dhuhr", "15min"},
	} {
		has, err := store.HasPrayerNotification(ctx, 100, probe.date, probe.prayer, probe.kind)
		if err != nil {
			t.Fatalf("HasPrayerNotification(%+v): %v", probe, err)
		}
		if has {
			t.Errorf("unrelated record (%s %s %s) reported as sent", probe.date, probe.prayer, probe.kind)
		}
	}

	// The UNIQUE constraint rejects a duplicate insert.
	dup := &database.PrayerNotification{
		UserID: 100, Date: "2026-03-10", Prayer: "Fajr", Kind: "15min",
	}
	if err := store.RecordPrayerNotification(ctx, dup); err == nil {
		t.Error("expected unique-constraint error for duplicate record, got nil")
	}
}

func TestGetNotificationStats(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		if _, err := store.GetOrCreateUser(ctx, id, "User", "", ""); err != nil {
			t.Fatalf("GetOrCreateUser(%d): %v", id, err)
		}
	}
	if err := store.SetPrayerNotifications(ctx, 2, false); err != nil {
		t.Fatalf("SetPrayerNotifications: %v", err)
	}
	if err := store.MarkUserUnreachable(ctx, 3, time.Now()); err != nil {
		t.Fatalf("MarkUserUnreachable: %v", err)
	}

	stats, err := store.GetNotificationStats(ctx)
	if err != nil {
		t.Fatalf("GetNotificationStats: %v", err)
	}
	if stats.TotalUsers != 3 {
		t.Errorf("total users = %d, want 3", stats.TotalUsers)
	}
	if stats.UnreachableUsers != 1 {
		t.Errorf("unreachable users = %d, want 1", stats.UnreachableUsers)
	}
	if stats.TaskNotifyUsers != 2 {
		t.Errorf("task notify users = %d, want 2", stats.TaskNotifyUsers)
	}
	if stats.PrayerNotifyUsers != 1 {
		t.Errorf("prayer notify users = %d, want 1", stats.PrayerNotifyUsers)
	}
}
