package service

import (
	"context"
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	snapshotsvc "strategy_dashboard/internal/modules/snapshot/service"
	viewsvc "strategy_dashboard/internal/modules/view/service"
)

const (
	btnOverview = "📊 Обзор"
	btnPredict  = "🔮 Прогноз"
	btnStartAll = "▶️ Запустить все"
	btnStopAll  = "⏹ Остановить все"
	btnBack     = "⬅️ Назад"
)

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	// 1) Обычные сообщения
	if msg := update.Message; msg != nil {
		if msg.Chat == nil || msg.Chat.ID != t.chatID {
			return
		}
		if msg.IsCommand() {
			t.handleCommand(ctx, msg)
			return
		}
		t.handleTextMessage(ctx, strings.TrimSpace(msg.Text))
		return
	}

	// 2) Inline-кнопки
	if cb := update.CallbackQuery; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != t.chatID {
			return
		}
		t.handleCallback(ctx, cb)
	}
}

func (t *Telegram) handleCommand(ctx context.Context, msg *tgbot.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "menu":
		if err := t.handleStart(); err != nil {
			t.log.Warn("telegram menu failed", zap.Error(err))
		}
	case "status":
		t.sendScreen(ctx)
	case "strategy":
		if arg == "" {
			_, _ = t.Send("Формат: /strategy <id>")
			return
		}
		t.openStrategy(ctx, arg)
	case "back":
		t.back(ctx)
	case "run":
		t.runCommand(arg, "запуск", t.cmd.Start)
	case "halt":
		t.runCommand(arg, "остановка", t.cmd.Stop)
	case "predict":
		t.refreshPrediction(ctx)
	default:
		_, _ = t.Send("Команды: /status, /strategy <id>, /back, /run <id>, /halt <id>, /predict")
	}
}

func (t *Telegram) handleStart() error {
	replyKb := tgbot.NewReplyKeyboard(
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnOverview),
			tgbot.NewKeyboardButton(btnPredict),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnStartAll),
			tgbot.NewKeyboardButton(btnStopAll),
		),
		tgbot.NewKeyboardButtonRow(
			tgbot.NewKeyboardButton(btnBack),
		),
	)
	msg := tgbot.NewMessage(t.chatID, "Пульт мониторинга стратегий.\n\n"+
		"📊 Обзор — сводка и список стратегий\n"+
		"🔮 Прогноз — обновить прогноз BTC\n"+
		"/strategy <id> — карточка стратегии")
	msg.ReplyMarkup = replyKb
	_, err := t.SendMessage(msg)
	return err
}

func (t *Telegram) handleTextMessage(ctx context.Context, text string) {
	switch text {
	case btnOverview:
		t.sendScreen(ctx)
	case btnPredict:
		t.refreshPrediction(ctx)
	case btnBack:
		t.back(ctx)
	case btnStartAll:
		t.confirmAll("Запустить все стратегии?", t.cmd.StartAll)
	case btnStopAll:
		t.confirmAll("Остановить все стратегии?", t.cmd.StopAll)
	}
}

func (t *Telegram) sendScreen(ctx context.Context) {
	s, err := t.view.Current(ctx)
	if err != nil {
		t.log.Warn("telegram screen failed", zap.Error(err))
		return
	}
	msg := tgbot.NewMessage(t.chatID, formatScreen(s))
	if kb := screenKeyboard(s); kb != nil {
		msg.ReplyMarkup = *kb
	}
	if _, err := t.SendMessage(msg); err != nil {
		t.log.Warn("telegram send failed", zap.Error(err))
	}
}

func (t *Telegram) openStrategy(ctx context.Context, id string) {
	if err := t.view.ViewStrategy(ctx, id); err != nil {
		if errors.Is(err, viewsvc.ErrUnknownStrategy) {
			_, _ = t.Send(fmt.Sprintf("Стратегия %q не найдена", id))
			return
		}
		t.log.Warn("telegram view strategy failed", zap.String("strategy_id", id), zap.Error(err))
		return
	}
	t.sendScreen(ctx)
}

func (t *Telegram) back(ctx context.Context) {
	if err := t.view.Back(ctx); err != nil {
		t.log.Warn("telegram back failed", zap.Error(err))
		return
	}
	t.sendScreen(ctx)
}

func (t *Telegram) refreshPrediction(ctx context.Context) {
	err := t.prediction.TryRefreshPrediction(ctx)
	switch {
	case errors.Is(err, snapshotsvc.ErrRefreshInFlight):
		_, _ = t.Send("⏳ Прогноз уже обновляется")
		return
	case err != nil:
		_, _ = t.Send("⚠️ Прогноз сейчас недоступен")
		return
	}
	t.sendScreen(ctx)
}

// runCommand: команда одной стратегии в фоне, по завершении присылаем свежий экран.
func (t *Telegram) runCommand(id, what string, run func(ctx context.Context, strategyID string)) {
	if id == "" {
		_, _ = t.Send("Укажи id стратегии")
		return
	}
	_, _ = t.Send(fmt.Sprintf("⏳ %s %s…", what, id))
	t.workers.Go(func() {
		ctx, cancel := context.WithTimeout(t.base, commandTimeout)
		defer cancel()
		run(ctx, id)
		t.sendScreen(ctx)
	})
}

// confirmAll ждёт подтверждения в отдельной горутине: callback приходит
// через тот же цикл апдейтов.
func (t *Telegram) confirmAll(prompt string, run func(ctx context.Context)) {
	t.workers.Go(func() {
		ctx, cancel := context.WithTimeout(t.base, confirmTimeout+commandTimeout)
		defer cancel()
		if !t.Confirm(ctx, prompt, confirmTimeout) {
			return
		}
		run(ctx)
		t.sendScreen(ctx)
	})
}
