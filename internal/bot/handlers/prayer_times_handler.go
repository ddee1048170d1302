package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/bekzod-dev/vaqtbot/internal/notify"
	"github.com/bekzod-dev/vaqtbot/internal/prayer"
)

// NewPrayerTimesHandler returns a handler for the /vaqtlar command.
func NewPrayerTimesHandler(deps HandlerDeps) bot.HandlerFunc {
	return prayerTimesHandler{deps}.Handle
}

type prayerTimesHandler struct {
	deps HandlerDeps
}

func (h prayerTimesHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "prayer_times")

	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID

	h.sendPrayerTimes(ctx, b, chatID, update.Message.From.ID, log)
}

// sendPrayerTimes fetches and renders today's prayer times for a user's
// region. Shared with the show_prayer_times callback.
func (h prayerTimesHandler) sendPrayerTimes(ctx context.Context, b *bot.Bot, chatID, userID int64, log *slog.Logger) {
	region := h.deps.Config.Prayer.DefaultRegion
	if user, err := h.deps.Store.GetUser(ctx, userID); err != nil {
		log.ErrorContext(ctx, "Failed to load user", "user_id", userID, "error", err)
	} else if user != nil && user.Region != "" {
		region = user.Region
	}

	fetchCtx, cancel := context.WithTimeout(ctx, h.deps.Config.Prayer.Timeout)
	defer cancel()

	times, err := h.deps.Prayers.Times(fetchCtx, region)
	if err != nil {
		log.ErrorContext(ctx, "Failed to fetch prayer times", "region", region, "error", err)
		_, _ = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Namaz vaqtlarini olishda xatolik yuz berdi.",
		})
		return
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      formatPrayerTimes(times, region, time.Now()),
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send prayer times", "chat_id", chatID, "error", err)
	}
}

// formatPrayerTimes renders today's schedule with the next prayer
// highlighted and the remaining time until it.
func formatPrayerTimes(times prayer.Times, region string, now time.Time) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "🕌 *NAMAZ VAQTLARI*\n\n")
	fmt.Fprintf(&sb, "📍 *Hudud:* %s\n", region)
	fmt.Fprintf(&sb, "📅 *Sana:* %s\n", now.Format("02.01.2006"))
	fmt.Fprintf(&sb, "🕐 *Hozir:* %s\n\n", now.Format("15:04"))

	next := nextPrayer(times, now)

	for _, name := range prayer.All {
		if name == next {
			fmt.Fprintf(&sb, "▶️ *%s*: `%s`\n", name.DisplayName(), times[name])
		} else {
			fmt.Fprintf(&sb, "   %s: %s\n", name.DisplayName(), times[name])
		}
	}

	if next != "" {
		if at, err := times.At(next, now); err == nil {
			if at.Before(now) {
				at = at.Add(24 * time.Hour) // next is Fajr tomorrow
			}
			fmt.Fprintf(&sb, "\n⏰ *Keyingi namaz:* %s\n", next.DisplayName())
			fmt.Fprintf(&sb, "⏳ *Qolgan vaqt:* %s\n", notify.FormatTimeRemaining(notify.MinutesUntil(now, at)))
		}
	}

	sb.WriteString("\n🤲 *Allah panohida bo'ling!*")
	return sb.String()
}

// nextPrayer finds the first prayer later than now; after Isha the next
// one is Fajr tomorrow.
func nextPrayer(times prayer.Times, now time.Time) prayer.Name {
	for _, name := range prayer.All {
		at, err := times.At(name, now)
		if err != nil {
			continue
		}
		if at.After(now) {
			return name
		}
	}
	return prayer.Fajr
}
