package notify

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
	"webhook_bot/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier: канал оператора. Ошибки доставки только логируются.
type Notifier interface {
	Send(ctx context.Context, msg string)
	Sendf(ctx context.Context, format string, args ...any)
	SendDocument(ctx context.Context, name string, data []byte, caption string)
}

// StatusFunc собирает текст для команды /status.
type StatusFunc func(ctx context.Context) string

const (
	// clientTimeout больше pollTimeout: long-poll getUpdates идёт тем же клиентом.
	clientTimeout = 30 * time.Second
	pollTimeout   = 20
	outboxSize    = 256
)

// Telegram: пассивный нотифайер + одна команда /status.
// Send только кладёт сообщение в outbox, доставляет отдельная горутина.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64

	mu     sync.RWMutex
	status StatusFunc

	outbox chan tgbot.Chattable
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return newTelegram(token, chatID, tgbot.APIEndpoint, &http.Client{Timeout: clientTimeout})
}

func newTelegram(token string, chatID int64, endpoint string, client tgbot.HTTPClient) (*Telegram, error) {
	b, err := tgbot.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot api: %w", err)
	}
	t := &Telegram{
		bot:    b,
		chatID: chatID,
		outbox: make(chan tgbot.Chattable, outboxSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go t.deliver()
	return t, nil
}

func (t *Telegram) SetStatus(fn StatusFunc) {
	t.mu.Lock()
	t.status = fn
	t.mu.Unlock()
}

// deliver шлёт сообщения по одному в порядке поступления.
// После Stop дочищает outbox и выходит.
func (t *Telegram) deliver() {
	defer close(t.done)
	for {
		select {
		case c := <-t.outbox:
			t.send(c)
		case <-t.quit:
			for {
				select {
				case c := <-t.outbox:
					t.send(c)
				default:
					return
				}
			}
		}
	}
}

func (t *Telegram) send(c tgbot.Chattable) {
	if _, err := t.bot.Send(c); err != nil {
		logger.Error("telegram send: %v", err)
	}
}

func (t *Telegram) enqueue(c tgbot.Chattable, what string) {
	select {
	case t.outbox <- c:
	default:
		logger.Error("telegram outbox full, dropped: %s", what)
	}
}

func (t *Telegram) Send(_ context.Context, msg string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	t.enqueue(tgbot.NewMessage(t.chatID, msg), msg)
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}

func (t *Telegram) SendDocument(_ context.Context, name string, data []byte, caption string) {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return
	}
	doc := tgbot.NewDocument(t.chatID, tgbot.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	t.enqueue(doc, "document "+name)
}

func (t *Telegram) handleStatus(ctx context.Context) {
	t.mu.RLock()
	fn := t.status
	t.mu.RUnlock()
	if fn == nil {
		t.Send(ctx, "status unavailable")
		return
	}
	t.Send(ctx, fn(ctx))
}

// Start: long-polling, команды принимаются только из чата оператора.
func (t *Telegram) Start(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}

	u := tgbot.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates := t.bot.GetUpdatesChan(u)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				if upd.Message == nil || upd.Message.Chat == nil ||
					upd.Message.Chat.ID != t.chatID || !upd.Message.IsCommand() {
					continue
				}
				switch upd.Message.Command() {
				case "status":
					go t.handleStatus(ctx)
				case "ping":
					t.Send(ctx, "pong")
				}
			}
		}
	}()
}

// Stop прекращает приём команд и ждёт доставки outbox не дольше ctx.
func (t *Telegram) Stop(ctx context.Context) {
	if t == nil || t.bot == nil {
		return
	}
	t.once.Do(func() {
		t.bot.StopReceivingUpdates()
		close(t.quit)
	})
	select {
	case <-t.done:
	case <-ctx.Done():
		logger.Warn("telegram stop: outbox not drained: %v", ctx.Err())
	}
}

// Stdout: заглушка без токена, всё в лог.
type Stdout struct{}

func NewStdout() *Stdout { return &Stdout{} }

func (s *Stdout) Send(_ context.Context, msg string) { logger.Info("[NOTIFY] %s", msg) }

func (s *Stdout) Sendf(_ context.Context, format string, args ...any) {
	logger.Info("[NOTIFY] "+format, args...)
}

func (s *Stdout) SendDocument(_ context.Context, name string, data []byte, caption string) {
	logger.Info("[NOTIFY] document %s (%d bytes): %s", name, len(data), caption)
}
