package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"strategy_dashboard/internal/models"
)

// GetTrades: GET /api/trades?limit=N[&strategy_id=ID], новые сначала.
// Пустой strategyID, глобальная лента.
func (c *Client) GetTrades(ctx context.Context, strategyID string, limit int) ([]models.TradeEvent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if strategyID != "" {
		q.Set("strategy_id", strategyID)
	}

	path := "/api/trades"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.TradeEvent
	if err := c.do(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetTradeStats: GET /api/trades/{id}/stats.
func (c *Client) GetTradeStats(ctx context.Context, strategyID string) (models.StrategyStats, error) {
	var out models.StrategyStats
	err := c.do(ctx, http.MethodGet, "/api/trades/"+url.PathEscape(strategyID)+"/stats", &out)
	return out, err
}

// GetEquity: GET /api/equity/{id}?hours=N, по возрастанию времени.
func (c *Client) GetEquity(ctx context.Context, strategyID string, hours int) ([]models.EquityPoint, error) {
	path := "/api/equity/" + url.PathEscape(strategyID)
	if hours > 0 {
		path += "?hours=" + strconv.Itoa(hours)
	}
	var out []models.EquityPoint
	if err := c.do(ctx, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
