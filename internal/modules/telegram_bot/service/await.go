package service

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Confirm: сообщение с кнопками "да/нет"; ответ приходит callback'ом CONF::/REJ::.
func (t *Telegram) Confirm(ctx context.Context, prompt string, timeout time.Duration) bool {
	token := fmt.Sprintf("%d", time.Now().UnixNano())
	p := &pending{
		ch:     make(chan bool, 1),
		prompt: prompt,
	}

	t.mu.Lock()
	t.pendings[token] = p
	t.mu.Unlock()

	btnYes := tgbot.NewInlineKeyboardButtonData("✅ Да", "CONF::"+token)
	btnNo := tgbot.NewInlineKeyboardButtonData("❌ Отмена", "REJ::"+token)
	msg := tgbot.NewMessage(t.chatID, prompt)
	msg.ReplyMarkup = tgbot.NewInlineKeyboardMarkup(tgbot.NewInlineKeyboardRow(btnYes, btnNo))

	sent, _ := t.bot.Send(msg)
	t.mu.Lock()
	p.msgID = sent.MessageID
	t.mu.Unlock()

	tmr := time.NewTimer(timeout)
	defer tmr.Stop()

	select {
	case ok := <-p.ch:
		return ok
	case <-tmr.C:
		t.dropPending(token, p, "⏳ Таймаут")
		return false
	case <-ctx.Done():
		t.dropPending(token, p, "⛔️ Отменено")
		return false
	}
}

func (t *Telegram) dropPending(token string, p *pending, reason string) {
	t.mu.Lock()
	delete(t.pendings, token)
	msgID := p.msgID
	t.mu.Unlock()
	_ = t.editReplyMarkupRemove(msgID)
	_ = t.editText(msgID, fmt.Sprintf("%s\n\n%s", p.prompt, reason))
}

// resolve отдаёт ответ ожидающему Confirm; false, токен уже неактуален.
func (t *Telegram) resolve(token string, ok bool) (*pending, bool) {
	t.mu.Lock()
	p, found := t.pendings[token]
	if found {
		delete(t.pendings, token)
	}
	t.mu.Unlock()
	if !found {
		return nil, false
	}
	p.ch <- ok
	return p, true
}
