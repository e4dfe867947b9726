package service

import (
	"context"
	"net/http"

	"strategy_dashboard/internal/models"
)

// GetStrategies: GET /api/strategies.
func (c *Client) GetStrategies(ctx context.Context) ([]models.Strategy, error) {
	var out []models.Strategy
	if err := c.do(ctx, http.MethodGet, "/api/strategies", &out); err != nil {
		return nil, err
	}
	return out, nil
}
