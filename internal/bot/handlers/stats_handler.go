package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStatsHandler returns a handler for the admin-only /stats command.
func NewStatsHandler(deps HandlerDeps) bot.HandlerFunc {
	return statsHandler{deps}.Handle
}

type statsHandler struct {
	deps HandlerDeps
}

func (h statsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stats")

	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	stats, err := h.deps.Store.GetNotificationStats(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load notification stats", "error", err)
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Statistikani olishda xatolik yuz berdi.",
		})
		return
	}

	running := "idle"
	if h.deps.Engine.Running() {
		running = "running"
	}

	text := fmt.Sprintf(
		"📊 *STATISTIKA*\n\n"+
			"👥 Foydalanuvchilar: %d\n"+
			"✅ Faol: %d\n"+
			"🚫 Bloklagan: %d\n"+
			"📨 Vazifa eslatmalari yoqilgan: %d\n"+
			"🕌 Namaz eslatmalari yoqilgan: %d\n"+
			"🔔 Engine: %s",
		stats.TotalUsers,
		stats.TotalUsers-stats.UnreachableUsers,
		stats.UnreachableUsers,
		stats.TaskNotifyUsers,
		stats.PrayerNotifyUsers,
		running)

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send stats", "chat_id", chatID, "error", err)
	}
}
