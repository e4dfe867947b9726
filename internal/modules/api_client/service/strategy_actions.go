package service

import (
	"context"
	"net/http"
	"net/url"
)

// Тело ответа команд не разбираем: важен только успех/неуспех.

func (c *Client) StartStrategy(ctx context.Context, strategyID string) error {
	return c.do(ctx, http.MethodPost, "/api/strategies/"+url.PathEscape(strategyID)+"/start", nil)
}

func (c *Client) StopStrategy(ctx context.Context, strategyID string) error {
	return c.do(ctx, http.MethodPost, "/api/strategies/"+url.PathEscape(strategyID)+"/stop", nil)
}

func (c *Client) StartAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/strategies/start-all", nil)
}

func (c *Client) StopAll(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/strategies/stop-all", nil)
}
