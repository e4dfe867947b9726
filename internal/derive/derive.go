// Package derive: чистые функции поверх содержимого стора. Ничего не кэшируем:
// метрики пересчитываются на каждом чтении, последовательности ограничены 100/200.
package derive

import (
	"fmt"

	"github.com/shopspring/decimal"

	"strategy_dashboard/internal/models"
)

var hundred = decimal.NewFromInt(100)

// WinRate = count(pnl > 0) / count(events) * 100, округление до 0.1.
// Пустая выборка даёт 0, а не NaN.
func WinRate(events []models.TradeEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	wins := 0
	for _, e := range events {
		if e.IsWin() {
			wins++
		}
	}
	return decimal.NewFromInt(int64(wins)).
		Div(decimal.NewFromInt(int64(len(events)))).
		Mul(hundred).
		Round(1).
		InexactFloat64()
}

// TotalPnl: сумма pnl, отсутствующий pnl считается нулём.
func TotalPnl(events []models.TradeEvent) float64 {
	sum := decimal.Zero
	for _, e := range events {
		if e.Pnl != nil {
			sum = sum.Add(decimal.NewFromFloat(*e.Pnl))
		}
	}
	return sum.InexactFloat64()
}

// WinCount: число сделок с pnl > 0.
func WinCount(events []models.TradeEvent) int {
	n := 0
	for _, e := range events {
		if e.IsWin() {
			n++
		}
	}
	return n
}

type Running struct {
	Running int `json:"running" yaml:"running"`
	Total   int `json:"total" yaml:"total"`
}

func (r Running) String() string { return fmt.Sprintf("%d/%d", r.Running, r.Total) }

func RunningCount(strategies []models.Strategy) Running {
	r := Running{Total: len(strategies)}
	for _, s := range strategies {
		if s.Running {
			r.Running++
		}
	}
	return r
}
