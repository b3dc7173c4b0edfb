// Package telegram connects the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kiranshivaraju/testopsbot/internal/bot"
)

const (
	pollTimeoutSeconds = 60
	// httpTimeout must outlast a long poll.
	httpTimeout = 90 * time.Second
)

// Handler consumes chat events.
type Handler interface {
	Handle(ctx context.Context, ev bot.Event)
}

// Adapter implements bot.Transport and feeds updates to a Handler.
type Adapter struct {
	api *tgbotapi.BotAPI
}

// New connects to the public Bot API and verifies the token.
func New(token string) (*Adapter, error) {
	return NewWithEndpoint(token, tgbotapi.APIEndpoint, &http.Client{Timeout: httpTimeout})
}

// NewWithEndpoint connects to a Bot API compatible server. endpoint is a
// format string taking the token and the method name.
func NewWithEndpoint(token, endpoint string, client *http.Client) (*Adapter, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	slog.Info("telegram bot authorised", "username", api.Self.UserName)
	return &Adapter{api: api}, nil
}

// Username is the bot's own username.
func (a *Adapter) Username() string {
	return a.api.Self.UserName
}

// Run long-polls for updates until ctx is cancelled. Events of one session
// are handled in arrival order, one at a time; different sessions are
// handled concurrently. Queued events run to completion before Run returns.
func (a *Adapter) Run(ctx context.Context, h Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = pollTimeoutSeconds
	updates := a.api.GetUpdatesChan(cfg)

	handlerCtx := context.WithoutCancel(ctx)
	queues := newSessionQueues(func(ev bot.Event) { h.Handle(handlerCtx, ev) })
	defer queues.wait()

	for {
		select {
		case <-ctx.Done():
			a.api.StopReceivingUpdates()
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			ev, ok := ToEvent(u)
			if !ok {
				continue
			}
			queues.submit(ev)
		}
	}
}

// ToEvent converts a text message or a button press. Other updates are
// reported as not ok.
func ToEvent(u tgbotapi.Update) (bot.Event, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
			return bot.Event{}, false
		}
		return bot.Event{
			ChatID:       cq.Message.Chat.ID,
			UserID:       cq.From.ID,
			Username:     cq.From.UserName,
			MessageID:    cq.Message.MessageID,
			CallbackID:   cq.ID,
			CallbackData: cq.Data,
		}, true
	}

	m := u.Message
	if m == nil || m.From == nil || m.Chat == nil || m.Text == "" {
		return bot.Event{}, false
	}
	ev := bot.Event{
		ChatID:    m.Chat.ID,
		UserID:    m.From.ID,
		Username:  m.From.UserName,
		MessageID: m.MessageID,
		Text:      m.Text,
	}
	if m.IsCommand() {
		ev.Command = m.Command()
		ev.Args = strings.Fields(m.CommandArguments())
	}
	return ev, true
}

func (a *Adapter) Send(ctx context.Context, msg bot.Message) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	sent, err := a.api.Send(messageConfig(msg))
	if err != nil {
		return 0, fmt.Errorf("telegram sendMessage: %w", err)
	}
	return sent.MessageID, nil
}

func (a *Adapter) Edit(ctx context.Context, chatID int64, messageID int, msg bot.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.api.Request(editConfig(chatID, messageID, msg)); err != nil {
		return fmt.Errorf("telegram editMessageText: %w", err)
	}
	return nil
}

func (a *Adapter) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("telegram deleteMessage: %w", err)
	}
	return nil
}

func (a *Adapter) Answer(ctx context.Context, callbackID, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := a.api.Request(cfg); err != nil {
		return fmt.Errorf("telegram answerCallbackQuery: %w", err)
	}
	return nil
}

func (a *Adapter) Typing(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := a.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("telegram sendChatAction: %w", err)
	}
	return nil
}

// Compile-time check that Adapter implements bot.Transport.
var _ bot.Transport = (*Adapter)(nil)
