package notify

import (
	"context"
	"fmt"
	"sync"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"strategy_dashboard/internal/derive"
	"strategy_dashboard/internal/helper"
	"strategy_dashboard/internal/models"
)

const queueSize = 64

type Notifier interface {
	Send(ctx context.Context, msg string) error
}

// Sender: то, что нужно от tgbot.BotAPI.
type Sender interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
}

// Telegram: пассивный нотифайер в один чат.
type Telegram struct {
	bot    Sender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return NewTelegramWithSender(b, chatID), nil
}

func NewTelegramWithSender(bot Sender, chatID int64) *Telegram {
	return &Telegram{bot: bot, chatID: chatID}
}

func (t *Telegram) Send(_ context.Context, msg string) error {
	if t == nil || t.bot == nil || t.chatID == 0 {
		return nil
	}
	_, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg))
	return err
}

// Noop: алерты выключены (нет токена).
type Noop struct{}

func (Noop) Send(context.Context, string) error { return nil }

// Alerter: очередь алертов с одним воркером, чтобы сеть Telegram не
// тормозила инжесторы. При переполнении алерт выбрасывается.
type Alerter struct {
	n             Notifier
	log           *zap.Logger
	notifySignals bool

	queue chan string

	mu            sync.Mutex
	lastPredicted string // datetime последнего отправленного сильного прогноза
}

func NewAlerter(n Notifier, log *zap.Logger, notifySignals bool) *Alerter {
	return &Alerter{
		n:             n,
		log:           log,
		notifySignals: notifySignals,
		queue:         make(chan string, queueSize),
	}
}

// Run: воркер отправки, живёт до отмены ctx.
func (a *Alerter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-a.queue:
			if err := a.n.Send(ctx, msg); err != nil {
				a.log.Warn("telegram send failed", zap.Error(err))
			}
		}
	}
}

// Prediction: сильный прогноз отправляем один раз на его datetime.
func (a *Alerter) Prediction(v derive.PredictionView) bool {
	if !v.HighConfidence {
		return false
	}
	a.mu.Lock()
	if a.lastPredicted == v.Datetime {
		a.mu.Unlock()
		return false
	}
	a.lastPredicted = v.Datetime
	a.mu.Unlock()

	return a.enqueue(fmt.Sprintf(
		"🚀🔥 Сильный сигнал BTC 15m\n"+
			"• Время: %s\n"+
			"• Цена: %.2f\n"+
			"• Score: %.4f\n"+
			"• Метка модели: %s",
		v.Datetime, v.Price, v.Score, v.Signal,
	))
}

// Signal: сигнал стратегии из стрима (если включено в конфиге).
func (a *Alerter) Signal(ev models.TradeEvent) bool {
	if !a.notifySignals {
		return false
	}
	emoji := "📈"
	if ev.Direction == models.DirectionShort {
		emoji = "📉"
	}
	return a.enqueue(fmt.Sprintf(
		"%s [%s] %s @ %s\n• TP: %s\n• SL: %s\n• Score: %s",
		emoji, ev.StrategyID, helper.DirectionLabel(ev.Direction),
		helper.FormatPrice(ev.EntryPrice),
		helper.FormatPrice(ev.TakeProfit),
		helper.FormatPrice(ev.StopLoss),
		helper.FormatScore(ev.Score),
	))
}

func (a *Alerter) enqueue(msg string) bool {
	select {
	case a.queue <- msg:
		return true
	default:
		a.log.Warn("alert queue full, dropping message")
		return false
	}
}
