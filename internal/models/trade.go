package models

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// TradeEvent: торговый сигнал. Числовые поля могут отсутствовать,
// поэтому указатели: nil рисуется как "-", а не как 0.
type TradeEvent struct {
	ID         FlexID      `json:"id" yaml:"id"`
	StrategyID string      `json:"strategy_id" yaml:"strategy_id"`
	Timestamp  string      `json:"timestamp" yaml:"timestamp"` // только для показа, порядок = порядок прихода
	Direction  Direction   `json:"direction" yaml:"direction"`
	EntryPrice *float64    `json:"entry_price,omitempty" yaml:"entry_price,omitempty"`
	TakeProfit *float64    `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
	StopLoss   *float64    `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	Score      *float64    `json:"score,omitempty" yaml:"score,omitempty"`
	Status     TradeStatus `json:"status" yaml:"status"`
	Pnl        *float64    `json:"pnl,omitempty" yaml:"pnl,omitempty"`
}

// PnlOrZero: для агрегации P&L отсутствующее значение считается нулём.
func (t TradeEvent) PnlOrZero() float64 {
	if t.Pnl == nil {
		return 0
	}
	return *t.Pnl
}

// IsWin: pnl > 0; сделки без pnl не выигрышные, но в выборке остаются.
func (t TradeEvent) IsWin() bool {
	return t.Pnl != nil && *t.Pnl > 0
}

func Float(v float64) *float64 { return &v }
