package models

// Strategy: запись из /api/strategies. Ростер целиком заменяется снапшотом,
// стрим не трогает ничего, кроме Running (и то через перезапрос ростера).
type Strategy struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Color       string `json:"color" yaml:"color"`
	Running     bool   `json:"running" yaml:"running"`

	// метаданные бэктеста, после загрузки не меняются
	BacktestReturn float64 `json:"backtest_return" yaml:"backtest_return"`
	WinRate        float64 `json:"win_rate" yaml:"win_rate"`
	Threshold      float64 `json:"threshold" yaml:"threshold"`
}

// StrategyStats: ответ /api/trades/{id}/stats.
type StrategyStats struct {
	TotalTrades int     `json:"total_trades" yaml:"total_trades"`
	WinTrades   int     `json:"win_trades" yaml:"win_trades"`
	WinRate     float64 `json:"win_rate" yaml:"win_rate"`
	TotalPnl    float64 `json:"total_pnl" yaml:"total_pnl"`
}

// EquityPoint: точка кривой доходности /api/equity/{id}.
type EquityPoint struct {
	Timestamp string  `json:"timestamp" yaml:"timestamp"`
	Equity    float64 `json:"equity" yaml:"equity"`
	Drawdown  float64 `json:"drawdown" yaml:"drawdown"`
}
