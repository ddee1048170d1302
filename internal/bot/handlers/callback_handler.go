package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/bekzod-dev/vaqtbot/internal/prayer"
)

// NewCallbackHandler returns the handler for all inline-button presses.
// Callback data is routed by prefix.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	userID := cq.From.ID
	data := cq.Data

	// Telegram requires answering every callback query.
	defer func() {
		if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: cq.ID,
		}); err != nil {
			log.WarnContext(ctx, "Failed to answer callback query", "error", err)
		}
	}()

	var response string
	switch {
	case strings.HasPrefix(data, "complete_task_"):
		response = h.completeTask(ctx, userID, strings.TrimPrefix(data, "complete_task_"))

	case strings.HasPrefix(data, "set_region_"):
		response = h.setRegion(ctx, userID, strings.TrimPrefix(data, "set_region_"))

	case data == "toggle_task_notif":
		response = h.toggleTaskNotifications(ctx, userID)

	case data == "toggle_prayer_notif":
		response = h.togglePrayerNotifications(ctx, userID)

	case data == "disable_prayer_notifications":
		if err := h.deps.Store.SetPrayerNotifications(ctx, userID, false); err != nil {
			log.ErrorContext(ctx, "Failed to disable prayer notifications", "user_id", userID, "error", err)
			response = "❌ Xatolik yuz berdi."
		} else {
			response = "🔕 Namaz eslatmalari o'chirildi."
		}

	case data == "show_prayer_times":
		prayerTimesHandler{h.deps}.sendPrayerTimes(ctx, b, userID, userID, log)
		return

	case data == "show_tasks":
		// Re-render the task list in the user's chat.
		h.sendTaskListTo(ctx, b, userID)
		return

	default:
		log.DebugContext(ctx, "Unknown callback data", "data", data, "user_id", userID)
		return
	}

	if response != "" {
		if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: userID, Text: response}); err != nil {
			log.ErrorContext(ctx, "Failed to send callback response", "user_id", userID, "error", err)
		}
	}
}

func (h callbackHandler) completeTask(ctx context.Context, userID int64, rawID string) string {
	taskID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return "❌ Noto'g'ri vazifa."
	}

	task, err := h.deps.Store.GetTask(ctx, taskID)
	if err != nil || task == nil || task.UserID != userID {
		return "❌ Vazifa topilmadi."
	}

	if err := h.deps.Store.CompleteTask(ctx, taskID, time.Now()); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to complete task", "task_id", taskID, "error", err)
		return "❌ Xatolik yuz berdi."
	}
	return "✅ Vazifa bajarildi: " + task.Name
}

func (h callbackHandler) setRegion(ctx context.Context, userID int64, region string) string {
	if !prayer.ValidRegion(region) {
		return "❌ Noma'lum hudud."
	}
	if err := h.deps.Store.UpdateUserRegion(ctx, userID, region); err != nil {
		h.deps.Logger.ErrorContext(ctx, "Failed to update region", "user_id", userID, "error", err)
		return "❌ Hududni saqlashda xatolik yuz berdi."
	}
	return "📍 Hudud tanlandi: " + region
}

func (h callbackHandler) toggleTaskNotifications(ctx context.Context, userID int64) string {
	user, err := h.deps.Store.GetUser(ctx, userID)
	if err != nil || user == nil {
		return "❌ Xatolik yuz berdi."
	}
	enabled := !user.TaskNotificationsEnabled
	if err := h.deps.Store.SetTaskNotifications(ctx, userID, enabled); err != nil {
		return "❌ Xatolik yuz berdi."
	}
	return "📨 Vazifa eslatmalari: " + onOff(enabled)
}

func (h callbackHandler) togglePrayerNotifications(ctx context.Context, userID int64) string {
	user, err := h.deps.Store.GetUser(ctx, userID)
	if err != nil || user == nil {
		return "❌ Xatolik yuz berdi."
	}
	enabled := !user.PrayerNotificationsEnabled
	if err := h.deps.Store.SetPrayerNotifications(ctx, userID, enabled); err != nil {
		return "❌ Xatolik yuz berdi."
	}
	return "🕌 Namaz eslatmalari: " + onOff(enabled)
}

func (h callbackHandler) sendTaskListTo(ctx context.Context, b *bot.Bot, userID int64) {
	// Reuse the list handler with a synthetic message update.
	update := &models.Update{
		Message: &models.Message{
			Chat: models.Chat{ID: userID},
			From: &models.User{ID: userID},
		},
	}
	taskListHandler{h.deps}.Handle(ctx, b, update)
}
