package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const welcomeText = "👋 *Assalomu alaykum!*\n\n" +
	"Men namaz vaqtlari va vazifalar bo'yicha eslatma botiman.\n\n" +
	"📌 *Buyruqlar:*\n" +
	"/vaqtlar — bugungi namaz vaqtlari\n" +
	"/vazifalar — ochiq vazifalar ro'yxati\n" +
	"/yangi — yangi vazifa (nomi | 25.12.2026 18:00 | high)\n" +
	"/sozlamalar — hudud va eslatma sozlamalari"

// NewStartHandler returns a handler for the /start command. It registers
// the user on first contact.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	from := update.Message.From
	if _, err := h.deps.Store.GetOrCreateUser(ctx, from.ID, from.FirstName, from.LastName, from.Username); err != nil {
		log.ErrorContext(ctx, "Failed to register user", "user_id", from.ID, "error", err)
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      welcomeText,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", update.Message.Chat.ID)
	}
}
