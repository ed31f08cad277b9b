// Package telegram lets shoppers talk to the sales assistant from a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"storefront-chat/internal/gateway"
	"storefront-chat/internal/ratelimit"
)

const resetCmd = "reset_ctx"

type Chat interface {
	Reply(ctx context.Context, req gateway.Request) (gateway.Reply, error)
	Reset(sessionID string)
}

type Limiter interface {
	Check(key string) ratelimit.Decision
}

// sender is the slice of the Bot API used for replies, swapped out in tests.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	chat    Chat
	limiter Limiter
	log     logrus.FieldLogger
}

func New(botToken string, chat Chat, limiter Limiter, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bot{
		api:     api,
		s:       api,
		chat:    chat,
		limiter: limiter,
		log:     log.WithField("channel", "telegram"),
	}, nil
}

// SessionID namespaces Telegram chats apart from web sessions.
func SessionID(chatID int64) string {
	return fmt.Sprintf("telegram:%d", chatID)
}

// Start polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.WithField("bot", b.api.Self.UserName).Info("🤖 telegram channel started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
				continue
			}
			if update.CallbackQuery != nil {
				b.handleCallback(update.CallbackQuery)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	sessionID := SessionID(chatID)
	log := b.log.WithField("session", sessionID)

	if msg.IsCommand() {
		switch msg.Command() {
		case "reset":
			b.chat.Reset(sessionID)
			b.sendMessage(chatID, "Conversación reiniciada 🧹")
		case "start":
			b.sendMessage(chatID, "¡Hola! 👋 Cuéntame qué estás buscando y te ayudo a encontrarlo.")
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if d := b.limiter.Check(sessionID); !d.Allowed {
		log.Warn("rate limit exceeded")
		b.sendMessage(chatID, fmt.Sprintf("Estás enviando mensajes muy rápido. Intenta de nuevo en %d segundos. ⏳", d.RetryAfter))
		return
	}

	reply, err := b.chat.Reply(ctx, gateway.Request{SessionID: sessionID, Message: text})
	if err != nil {
		log.WithError(err).Error("failed to answer telegram message")
		b.sendMessage(chatID, "Lo siento, ocurrió un error inesperado. Intenta nuevamente.")
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reiniciar conversación", resetCmd),
		),
	)
	out := tgbotapi.NewMessage(chatID, reply.Text)
	out.ReplyMarkup = kb
	if _, err := b.s.Send(out); err != nil {
		log.WithError(err).Error("failed to send message")
	}
}

func (b *Bot) handleCallback(cb *tgbotapi.CallbackQuery) {
	if cb.Data != resetCmd || cb.Message == nil {
		return
	}
	b.chat.Reset(SessionID(cb.Message.Chat.ID))
	b.sendMessage(cb.Message.Chat.ID, "Conversación reiniciada 🧹")
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.log.WithError(err).Error("failed to send message")
	}
}
