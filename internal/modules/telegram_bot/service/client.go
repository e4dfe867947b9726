package service

import (
	"context"
	"sync"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sourcegraph/conc"
	"go.uber.org/zap"

	viewsvc "strategy_dashboard/internal/modules/view/service"
)

// BotAPI: часть tgbot.BotAPI, которой пользуется бот.
type BotAPI interface {
	Send(c tgbot.Chattable) (tgbot.Message, error)
	Request(c tgbot.Chattable) (*tgbot.APIResponse, error)
	GetUpdatesChan(config tgbot.UpdateConfig) tgbot.UpdatesChannel
	StopReceivingUpdates()
}

type Viewer interface {
	ViewStrategy(ctx context.Context, strategyID string) error
	Back(ctx context.Context) error
	Current(ctx context.Context) (viewsvc.Screen, error)
}

type Commander interface {
	Start(ctx context.Context, strategyID string)
	Stop(ctx context.Context, strategyID string)
	StartAll(ctx context.Context)
	StopAll(ctx context.Context)
}

type PredictionRefresher interface {
	TryRefreshPrediction(ctx context.Context) error
}

const confirmTimeout = 30 * time.Second

type pending struct {
	ch     chan bool
	msgID  int
	prompt string
}

// Telegram: пульт дашборда в чате: обзор, карточка стратегии, старт/стоп.
// Отвечает только в настроенный chat_id.
type Telegram struct {
	bot    BotAPI
	chatID int64

	view       Viewer
	cmd        Commander
	prediction PredictionRefresher
	log        *zap.Logger

	mu       sync.Mutex
	pendings map[string]*pending

	// base живёт от Start до Stop; фоновые команды и подтверждения наследуют его
	base    context.Context
	cancel  context.CancelFunc
	workers conc.WaitGroup
}

func NewTelegram(bot BotAPI, chatID int64, view Viewer, cmd Commander, prediction PredictionRefresher, log *zap.Logger) *Telegram {
	return &Telegram{
		bot:        bot,
		chatID:     chatID,
		view:       view,
		cmd:        cmd,
		prediction: prediction,
		log:        log,
		pendings:   make(map[string]*pending),
		base:       context.Background(),
	}
}

func (t *Telegram) Send(msg string) (tgbot.Message, error) {
	return t.bot.Send(tgbot.NewMessage(t.chatID, msg))
}

func (t *Telegram) SendMessage(message tgbot.MessageConfig) (tgbot.Message, error) {
	return t.bot.Send(message)
}

func (t *Telegram) editReplyMarkupRemove(msgID int) error {
	rm := tgbot.InlineKeyboardMarkup{InlineKeyboard: [][]tgbot.InlineKeyboardButton{}}
	_, err := t.bot.Request(tgbot.NewEditMessageReplyMarkup(t.chatID, msgID, rm))
	return err
}

func (t *Telegram) editText(msgID int, text string) error {
	_, err := t.bot.Request(tgbot.NewEditMessageText(t.chatID, msgID, text))
	return err
}

// Start читает апдейты в отдельной горутине до Stop.
func (t *Telegram) Start(ctx context.Context) {
	ctx, t.cancel = context.WithCancel(ctx)
	t.base = ctx

	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	t.workers.Go(func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				t.handleUpdate(ctx, update)
			}
		}
	})
	t.log.Info("telegram commands enabled", zap.Int64("chat_id", t.chatID))
}

func (t *Telegram) Stop() {
	if t.cancel != nil {
		t.bot.StopReceivingUpdates()
		t.cancel()
		t.cancel = nil
	}
	t.workers.Wait()
}
