package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/bekzod-dev/vaqtbot/internal/database"
	"github.com/bekzod-dev/vaqtbot/internal/prayer"
)

// NewSettingsHandler returns a handler for the /sozlamalar command.
func NewSettingsHandler(deps HandlerDeps) bot.HandlerFunc {
	return settingsHandler{deps}.Handle
}

type settingsHandler struct {
	deps HandlerDeps
}

func (h settingsHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "settings")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From

	user, err := h.deps.Store.GetOrCreateUser(ctx, from.ID, from.FirstName, from.LastName, from.Username)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load user settings", "user_id", from.ID, "error", err)
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   "❌ Sozlamalarni olishda xatolik yuz berdi.",
		})
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        settingsText(user),
		ParseMode:   models.ParseModeMarkdown,
		ReplyMarkup: settingsKeyboard(user),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send settings", "chat_id", update.Message.Chat.ID, "error", err)
	}
}

func settingsText(user *database.User) string {
	return fmt.Sprintf(
		"⚙️ *SOZLAMALAR*\n\n"+
			"📍 *Hudud:* %s\n"+
			"📨 *Vazifa eslatmalari:* %s\n"+
			"🕌 *Namaz eslatmalari:* %s",
		user.Region, onOff(user.TaskNotificationsEnabled), onOff(user.PrayerNotificationsEnabled))
}

func onOff(enabled bool) string {
	if enabled {
		return "🔔 yoqilgan"
	}
	return "🔕 o'chirilgan"
}

// settingsKeyboard builds the region picker plus the two toggle buttons.
func settingsKeyboard(user *database.User) *models.InlineKeyboardMarkup {
	var rows [][]models.InlineKeyboardButton

	// Regions three per row.
	var row []models.InlineKeyboardButton
	for _, region := range prayer.Regions {
		label := region
		if region == user.Region {
			label = "📍 " + region
		}
		row = append(row, models.InlineKeyboardButton{
			Text:         label,
			CallbackData: "set_region_" + region,
		})
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, []models.InlineKeyboardButton{
		{Text: "📨 Vazifa eslatmalari", CallbackData: "toggle_task_notif"},
		{Text: "🕌 Namaz eslatmalari", CallbackData: "toggle_prayer_notif"},
	})

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
