package helper

import (
	"strconv"
	"strings"

	"strategy_dashboard/internal/models"
)

const Missing = "-"

// FormatOptional: отсутствующее значение рисуем как "-", не как 0.
func FormatOptional(v *float64, prec int) string {
	if v == nil {
		return Missing
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func FormatPrice(v *float64) string { return FormatOptional(v, 2) }
func FormatScore(v *float64) string { return FormatOptional(v, 6) }

// FormatSigned: "+10.00" / "-3.00" / "+0.00".
func FormatSigned(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if v >= 0 && !strings.HasPrefix(s, "-") {
		return "+" + s
	}
	return s
}

// FormatPnl: pnl сделки: nil и ноль показываем как "-".
func FormatPnl(v *float64) string {
	if v == nil || *v == 0 {
		return Missing
	}
	return FormatSigned(*v)
}

func DirectionLabel(d models.Direction) string {
	switch d {
	case models.DirectionLong:
		return "long"
	case models.DirectionShort:
		return "short"
	default:
		return strings.ToLower(string(d))
	}
}

func StatusLabel(s models.TradeStatus) string {
	if s == models.TradeOpen {
		return "open"
	}
	return "closed"
}

func OnOff(b bool) string {
	if b {
		return "running"
	}
	return "stopped"
}
