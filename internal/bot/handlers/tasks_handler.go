package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/bekzod-dev/vaqtbot/internal/database"
	"github.com/bekzod-dev/vaqtbot/internal/notify"
)

const taskDueLayout = "02.01.2006 15:04"

// NewTaskListHandler returns a handler for the /vazifalar command.
func NewTaskListHandler(deps HandlerDeps) bot.HandlerFunc {
	return taskListHandler{deps}.Handle
}

type taskListHandler struct {
	deps HandlerDeps
}

func (h taskListHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "task_list")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	tasks, err := h.deps.Store.GetIncompleteTasks(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load tasks", "user_id", userID, "error", err)
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Vazifalarni olishda xatolik yuz berdi.",
		})
		return
	}

	if len(tasks) == 0 {
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "📋 Ochiq vazifalar yo'q. /yangi bilan vazifa qo'shing.",
		})
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 *OCHIQ VAZIFALAR* (%d)\n\n", len(tasks))
	now := time.Now()
	for i := range tasks {
		t := &tasks[i]
		fmt.Fprintf(&sb, "%s *%s*\n", notify.PriorityEmoji(t.Priority), t.Name)
		fmt.Fprintf(&sb, "   📅 %s (%s)\n\n",
			notify.FormatDate(t.DueAt), notify.FormatTimeRemaining(notify.MinutesUntil(now, t.DueAt)))
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send task list", "chat_id", chatID, "error", err)
	}
}

// NewTaskCreateHandler returns a handler for the /yangi command:
// /yangi name | 25.12.2026 18:00 | high
func NewTaskCreateHandler(deps HandlerDeps) bot.HandlerFunc {
	return taskCreateHandler{deps}.Handle
}

type taskCreateHandler struct {
	deps HandlerDeps
}

func (h taskCreateHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "task_create")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	task, err := parseTaskArgs(update.Message.Text, userID)
	if err != nil {
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      "ℹ️ Format: `/yangi nomi | 25.12.2026 18:00 | high`",
			ParseMode: models.ParseModeMarkdown,
		})
		return
	}

	if err := h.deps.Store.CreateTask(ctx, task); err != nil {
		log.ErrorContext(ctx, "Failed to create task", "user_id", userID, "error", err)
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Vazifani saqlashda xatolik yuz berdi.",
		})
		return
	}

	log.InfoContext(ctx, "Task created", "user_id", userID, "task_id", task.ID)
	_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text: fmt.Sprintf("✅ Vazifa qo'shildi: %s %s — %s",
			notify.PriorityEmoji(task.Priority), task.Name, notify.FormatDate(task.DueAt)),
	})
}

// parseTaskArgs parses "/yangi name | due | priority" into a Task. The
// priority segment is optional and defaults to medium.
func parseTaskArgs(text string, userID int64) (*database.Task, error) {
	args := strings.TrimSpace(strings.TrimPrefix(text, "/yangi"))
	if args == "" {
		return nil, fmt.Errorf("empty task arguments")
	}

	parts := strings.Split(args, "|")
	if len(parts) < 2 {
		return nil, fmt.Errorf("task arguments need a name and a due time")
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return nil, fmt.Errorf("task name is empty")
	}

	dueAt, err := time.ParseInLocation(taskDueLayout, strings.TrimSpace(parts[1]), time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid due time: %w", err)
	}

	priority := "medium"
	if len(parts) > 2 {
		p := strings.ToLower(strings.TrimSpace(parts[2]))
		switch p {
		case "low", "medium", "high":
			priority = p
		default:
			return nil, fmt.Errorf("unknown priority %q", p)
		}
	}

	return &database.Task{
		UserID:   userID,
		Name:     name,
		DueAt:    dueAt.UTC(),
		Priority: priority,
	}, nil
}
