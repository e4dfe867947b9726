package service

import (
	"context"
	"strings"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const commandTimeout = 30 * time.Second

// handleCallback: inline-кнопки вида ACTION::arg.
func (t *Telegram) handleCallback(ctx context.Context, cb *tgbot.CallbackQuery) {
	// гасим "часики" на кнопке
	if _, err := t.bot.Request(tgbot.NewCallback(cb.ID, "")); err != nil {
		t.log.Debug("callback ack failed", zap.Error(err))
	}

	action, arg, _ := strings.Cut(cb.Data, "::")
	switch action {
	case "CONF", "REJ":
		ok := action == "CONF"
		p, found := t.resolve(arg, ok)
		if !found {
			return
		}
		_ = t.editReplyMarkupRemove(p.msgID)
		verdict := "✅ Подтверждено"
		if !ok {
			verdict = "❌ Отменено"
		}
		_ = t.editText(p.msgID, p.prompt+"\n\n"+verdict)
	case "VIEW":
		t.openStrategy(ctx, arg)
	case "BACK":
		t.back(ctx)
	case "START":
		t.runCommand(arg, "запуск", t.cmd.Start)
	case "STOP":
		t.runCommand(arg, "остановка", t.cmd.Stop)
	default:
		t.log.Debug("unknown callback", zap.String("data", cb.Data))
	}
}
