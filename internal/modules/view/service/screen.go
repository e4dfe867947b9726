package service

import (
	"strategy_dashboard/internal/derive"
	"strategy_dashboard/internal/helper"
	"strategy_dashboard/internal/models"
	"strategy_dashboard/internal/store"
)

// RecentSignalsLimit: сколько последних сигналов показывает обзор.
const RecentSignalsLimit = 20

type Kind string

const (
	KindAggregate Kind = "aggregate"
	KindDetail    Kind = "detail"
)

// Screen: то, что сейчас видит пользователь: ровно одно из Overview/Detail.
type Screen struct {
	View     Kind      `json:"view" yaml:"view"`
	Overview *Overview `json:"overview,omitempty" yaml:"overview,omitempty"`
	Detail   *Detail   `json:"detail,omitempty" yaml:"detail,omitempty"`
}

type Overview struct {
	StrategyCount     int                    `json:"strategy_count" yaml:"strategy_count"`
	Running           string                 `json:"running" yaml:"running"`
	TotalTrades       int                    `json:"total_trades" yaml:"total_trades"`
	WinRate           float64                `json:"win_rate" yaml:"win_rate"`
	TotalPnl          float64                `json:"total_pnl" yaml:"total_pnl"`
	TotalPnlLabel     string                 `json:"total_pnl_label" yaml:"total_pnl_label"`
	Prediction        *derive.PredictionView `json:"prediction,omitempty" yaml:"prediction,omitempty"`
	PredictionLoading bool                   `json:"prediction_loading" yaml:"prediction_loading"`
	Strategies        []StrategyRow          `json:"strategies" yaml:"strategies"`
	RecentSignals     []SignalRow            `json:"recent_signals" yaml:"recent_signals"`
}

type Detail struct {
	StrategyID  string          `json:"strategy_id" yaml:"strategy_id"`
	Found       bool            `json:"found" yaml:"found"`
	Strategy    models.Strategy `json:"strategy" yaml:"strategy"`
	Loaded      bool            `json:"loaded" yaml:"loaded"`
	TotalTrades int             `json:"total_trades" yaml:"total_trades"`
	WinTrades   int             `json:"win_trades" yaml:"win_trades"`
	WinRate     float64         `json:"win_rate" yaml:"win_rate"`
	TotalPnl    float64         `json:"total_pnl" yaml:"total_pnl"`
	Trades      []SignalRow     `json:"trades" yaml:"trades"`
}

type StrategyRow struct {
	models.Strategy `yaml:",inline"`
	State           string `json:"state" yaml:"state"`
}

// SignalRow: строка таблицы сигналов, уже отформатированная; отсутствующее, "-".
type SignalRow struct {
	ID         string `json:"id" yaml:"id"`
	StrategyID string `json:"strategy_id" yaml:"strategy_id"`
	Time       string `json:"time" yaml:"time"`
	Direction  string `json:"direction" yaml:"direction"`
	Entry      string `json:"entry" yaml:"entry"`
	TakeProfit string `json:"take_profit" yaml:"take_profit"`
	StopLoss   string `json:"stop_loss" yaml:"stop_loss"`
	Score      string `json:"score" yaml:"score"`
	Status     string `json:"status" yaml:"status"`
	Pnl        string `json:"pnl" yaml:"pnl"`
}

func signalRows(events []models.TradeEvent) []SignalRow {
	rows := make([]SignalRow, 0, len(events))
	for _, ev := range events {
		time := ev.Timestamp
		if time == "" {
			time = helper.Missing
		}
		rows = append(rows, SignalRow{
			ID:         ev.ID.String(),
			StrategyID: ev.StrategyID,
			Time:       time,
			Direction:  helper.DirectionLabel(ev.Direction),
			Entry:      helper.FormatPrice(ev.EntryPrice),
			TakeProfit: helper.FormatPrice(ev.TakeProfit),
			StopLoss:   helper.FormatPrice(ev.StopLoss),
			Score:      helper.FormatScore(ev.Score),
			Status:     helper.StatusLabel(ev.Status),
			Pnl:        helper.FormatPnl(ev.Pnl),
		})
	}
	return rows
}

// buildOverview: метрики пересчитываются на каждое чтение.
func buildOverview(st *store.Store, predictionLoading bool) *Overview {
	strategies := st.Strategies()
	trades := st.GlobalTrades()

	rows := make([]StrategyRow, 0, len(strategies))
	for _, s := range strategies {
		rows = append(rows, StrategyRow{Strategy: s, State: helper.OnOff(s.Running)})
	}

	pnl := derive.TotalPnl(trades)
	o := &Overview{
		StrategyCount:     len(strategies),
		Running:           derive.RunningCount(strategies).String(),
		TotalTrades:       len(trades),
		WinRate:           derive.WinRate(trades),
		TotalPnl:          pnl,
		TotalPnlLabel:     helper.FormatSigned(pnl),
		PredictionLoading: predictionLoading,
		Strategies:        rows,
		RecentSignals:     signalRows(st.RecentGlobalTrades(RecentSignalsLimit)),
	}
	if p, ok := st.Prediction(); ok {
		v := derive.ClassifyPrediction(p)
		o.Prediction = &v
	}
	return o
}

func buildDetail(st *store.Store, strategyID string) *Detail {
	trades := st.StrategyTrades()
	d := &Detail{
		StrategyID:  strategyID,
		Loaded:      st.DetailLoaded(),
		TotalTrades: len(trades),
		WinTrades:   derive.WinCount(trades),
		WinRate:     derive.WinRate(trades),
		TotalPnl:    derive.TotalPnl(trades),
		Trades:      signalRows(trades),
	}
	// стратегия могла пропасть из ростера после выбора, остаёмся в Detail
	d.Strategy, d.Found = st.Strategy(strategyID)
	return d
}
