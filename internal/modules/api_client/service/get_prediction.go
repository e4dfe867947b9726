package service

import (
	"context"
	"net/http"

	"strategy_dashboard/internal/models"
)

// GetPrediction: GET /api/predict/btc.
func (c *Client) GetPrediction(ctx context.Context) (models.Prediction, error) {
	var out models.Prediction
	err := c.do(ctx, http.MethodGet, "/api/predict/btc", &out)
	return out, err
}
