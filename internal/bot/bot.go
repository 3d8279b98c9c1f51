// Package bot runs the Telegram long-polling loop.
package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hray3182/CareMind/internal/bot/handlers"
	"github.com/hray3182/CareMind/internal/logger"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
	log      *logger.Logger
}

func New(api *tgbotapi.BotAPI, h *handlers.Handlers, log *logger.Logger) *Bot {
	if log == nil {
		log = logger.NewNop()
	}
	return &Bot{api: api, handlers: h, log: log.With("component", "Bot")}
}

func (b *Bot) Start(ctx context.Context) error {
	b.log.Info("Authorized on account", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	// Handle commands
	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
