package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ouija/woocommerce-gateway-payza/internal/config"
)

// ErrEmptyResponse indicates the exchange endpoint answered with an empty
// body; the notification is dropped without touching any order.
var ErrEmptyResponse = errors.New("empty IPN exchange response")

// Verifier exchanges an IPN token for the verified transaction details.
type Verifier interface {
	Exchange(ctx context.Context, token string) (string, error)
}

// Client posts IPN tokens back to Payza. A single synchronous call with a
// bounded timeout and no redirect following; failures are never retried
// here, Payza re-delivers the notification on its own schedule.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		endpoint: cfg.ExchangeEndpoint(),
		httpClient: &http.Client{
			Timeout: cfg.ExchangeTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger: logger,
	}
}

func (c *Client) Exchange(ctx context.Context, token string) (string, error) {
	form := url.Values{"token": {token}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build IPN exchange request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	c.logger.Debug("posting IPN token back", "endpoint", c.endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("IPN exchange call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read IPN exchange response: %w", err)
	}
	if len(body) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("IPN exchange response", "status", resp.StatusCode, "body", string(body))
	return string(body), nil
}
