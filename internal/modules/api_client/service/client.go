package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"strategy_dashboard/internal/modules/config"
	"strategy_dashboard/pkg/tracing"
)

const maxErrorBody = 512

// StatusError: ответ не 2xx. Для инжесторов это такой же транзиентный сбой, как и сетевой.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d: %s", e.Endpoint, e.Code, e.Body)
}

// IsStatus: ошибка с конкретным HTTP-кодом.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client: REST клиент к бэкенду дашборда.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.API.Timeout},
		baseURL: strings.TrimSuffix(cfg.API.BaseURL, "/"),
	}
}

// NewClientWithHTTP: для тестов и CLI.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (c *Client) BaseURL() string { return c.baseURL }

// do выполняет запрос и, если out != nil, декодирует тело через sonic.
func (c *Client) do(ctx context.Context, method, path string, out any) (err error) {
	u := c.baseURL + path
	endpoint := method + " " + routeOf(path)

	span, ctx := tracing.StartClientSpan(ctx, endpoint, method, u)
	defer func() { tracing.Finish(span, err) }()

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return errors.Wrapf(err, "%s: build request", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: do request", endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s: read body", endpoint)
	}
	if resp.StatusCode/100 != 2 {
		body := string(data)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode, Body: body}
	}
	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "%s: decode", endpoint)
	}
	return nil
}

// routeOf: путь без query, чтобы имя span'а не плодило кардинальность.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		return path[:i]
	}
	return path
}
