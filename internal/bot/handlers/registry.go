package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a handler with its pattern and middleware.
// It encapsulates all information needed to register and document a command.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all available bot
// commands and callback handlers.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "/start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["/vaqtlar"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "/vaqtlar",
		Handler:     NewPrayerTimesHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["/vazifalar"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "/vazifalar",
		Handler:     NewTaskListHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["/yangi"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "/yangi",
		Handler:     NewTaskCreateHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["/sozlamalar"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "/sozlamalar",
		Handler:     NewSettingsHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}
	handlers["/stats"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "/stats",
		Handler:     NewStatsHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
		Middleware:  []tgbot.Middleware{AdminOnly(deps)},
	}

	// All inline-button presses funnel through one prefix-routed handler.
	handlers["callbacks"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeCallbackQueryData,
		Pattern:     "",
		Handler:     NewCallbackHandler(deps),
		MatchType:   tgbot.MatchTypePrefix,
	}

	deps.Logger.Info("Initialized bot handlers", "count", len(handlers))
	return handlers
}
