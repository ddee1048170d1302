package telegram

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/bekzod-dev/vaqtbot/internal/notify"
)

// Dispatcher adapts the Telegram bot client to the notification engine's
// delivery boundary. Telegram API errors pass through unwrapped text so the
// engine can classify blocked/deactivated users.
type Dispatcher struct {
	bot *bot.Bot
	log *slog.Logger
}

// NewDispatcher creates a Dispatcher backed by the given bot client.
func NewDispatcher(b *bot.Bot, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		bot: b,
		log: logger.With("component", "dispatcher"),
	}
}

// Send delivers a Markdown message with optional inline buttons to a chat.
func (d *Dispatcher) Send(ctx context.Context, chatID int64, text string, buttons [][]notify.Button) error {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	}
	if markup := InlineKeyboard(buttons); markup != nil {
		params.ReplyMarkup = markup
	}

	_, err := d.bot.SendMessage(ctx, params)
	return err
}

// InlineKeyboard converts transport-neutral button rows into a Telegram
// inline keyboard. Returns nil for an empty layout.
func InlineKeyboard(buttons [][]notify.Button) *models.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		tgRow := make([]models.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			tgRow = append(tgRow, models.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.Data,
			})
		}
		rows = append(rows, tgRow)
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
