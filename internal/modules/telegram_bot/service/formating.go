package service

import (
	"fmt"
	"strings"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"strategy_dashboard/internal/derive"
	"strategy_dashboard/internal/helper"
	viewsvc "strategy_dashboard/internal/modules/view/service"
)

// сколько последних сигналов влезает в сообщение
const signalsInMessage = 5

func formatScreen(s viewsvc.Screen) string {
	if s.Detail != nil {
		return formatDetail(s.Detail)
	}
	if s.Overview != nil {
		return formatOverview(s.Overview)
	}
	return "Нет данных"
}

func formatOverview(o *viewsvc.Overview) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"📊 Обзор\n\n"+
			"Стратегий: %d (работает %s)\n"+
			"Сделок: %d\n"+
			"Win rate: %.1f%%\n"+
			"P&L: %s\n",
		o.StrategyCount, o.Running, o.TotalTrades, o.WinRate, o.TotalPnlLabel,
	)
	if o.Prediction != nil {
		b.WriteString("\n")
		b.WriteString(formatPrediction(*o.Prediction))
	}
	if len(o.Strategies) > 0 {
		b.WriteString("\nСтратегии:\n")
		for _, s := range o.Strategies {
			fmt.Fprintf(&b, "• %s [%s] %s\n", s.Name, s.ID, s.State)
		}
	}
	if len(o.RecentSignals) > 0 {
		b.WriteString("\nПоследние сигналы:\n")
		for i, r := range o.RecentSignals {
			if i == signalsInMessage {
				break
			}
			b.WriteString(formatSignal(r))
		}
	}
	return b.String()
}

func formatDetail(d *viewsvc.Detail) string {
	var b strings.Builder
	if !d.Found {
		fmt.Fprintf(&b, "⚠️ Стратегия %s пропала из списка\n\n", d.StrategyID)
	} else {
		fmt.Fprintf(&b, "🧩 %s [%s] %s\n%s\n\n", d.Strategy.Name, d.Strategy.ID, helper.OnOff(d.Strategy.Running), d.Strategy.Description)
		fmt.Fprintf(&b, "Бэктест: %.2f%% | WR %.1f%% | порог %g\n\n", d.Strategy.BacktestReturn, d.Strategy.WinRate, d.Strategy.Threshold)
	}
	if !d.Loaded {
		b.WriteString("⏳ История загружается…\n")
		return b.String()
	}
	fmt.Fprintf(&b,
		"Сделок: %d (прибыльных %d)\nWin rate: %.1f%%\nP&L: %s\n",
		d.TotalTrades, d.WinTrades, d.WinRate, helper.FormatSigned(d.TotalPnl),
	)
	for i, r := range d.Trades {
		if i == signalsInMessage {
			break
		}
		if i == 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatSignal(r))
	}
	return b.String()
}

func formatSignal(r viewsvc.SignalRow) string {
	return fmt.Sprintf("%s %s %s @ %s TP %s SL %s %s P&L %s\n",
		r.Time, r.StrategyID, r.Direction, r.Entry, r.TakeProfit, r.StopLoss, r.Status, r.Pnl)
}

func formatPrediction(v derive.PredictionView) string {
	emoji := "🔮"
	switch v.Tone {
	case derive.ToneBullish:
		emoji = "🚀"
	case derive.ToneBearish:
		emoji = "🔻"
	}
	return fmt.Sprintf("%s BTC 15m: %s (score %.4f, цена %.2f, %s)\n", emoji, v.Label, v.Score, v.Price, v.Datetime)
}

// screenKeyboard: кнопки под сообщением: в обзоре, переход к стратегиям,
// в карточке, старт/стоп/назад.
func screenKeyboard(s viewsvc.Screen) *tgbot.InlineKeyboardMarkup {
	var rows [][]tgbot.InlineKeyboardButton
	switch {
	case s.Detail != nil:
		id := s.Detail.StrategyID
		rows = append(rows,
			tgbot.NewInlineKeyboardRow(
				tgbot.NewInlineKeyboardButtonData("▶️ Старт", "START::"+id),
				tgbot.NewInlineKeyboardButtonData("⏹ Стоп", "STOP::"+id),
			),
			tgbot.NewInlineKeyboardRow(
				tgbot.NewInlineKeyboardButtonData("🔄 Обновить", "VIEW::"+id),
				tgbot.NewInlineKeyboardButtonData("⬅️ Назад", "BACK::"),
			),
		)
	case s.Overview != nil:
		for _, st := range s.Overview.Strategies {
			rows = append(rows, tgbot.NewInlineKeyboardRow(
				tgbot.NewInlineKeyboardButtonData(st.Name+" "+st.State, "VIEW::"+st.ID),
			))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbot.NewInlineKeyboardMarkup(rows...)
	return &kb
}
