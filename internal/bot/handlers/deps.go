// Package handlers contains Telegram bot command and callback handlers,
// along with their registration logic and middleware.
package handlers

import (
	"log/slog"

	"github.com/bekzod-dev/vaqtbot/internal/config"
	"github.com/bekzod-dev/vaqtbot/internal/database"
	"github.com/bekzod-dev/vaqtbot/internal/notify"
	"github.com/bekzod-dev/vaqtbot/internal/prayer"
)

// HandlerDeps provides dependencies for Telegram command handlers.
type HandlerDeps struct {
	Logger  *slog.Logger
	Config  *config.Config
	Store   database.Store
	Prayers prayer.Client
	Engine  *notify.Engine
}
