// Package subscriptionapi — REST-клиент внешнего сервиса статуса подписки.
package subscriptionapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/publiccircle/access-gateway/internal/config"
	"github.com/publiccircle/access-gateway/internal/models"
)

// StatusPath — путь эндпоинта статуса подписки относительно BaseURL.
const StatusPath = "/subscription/status"

var (
	// ErrUnauthorized сервис отверг токен пользователя.
	ErrUnauthorized = errors.New("subscription api rejected credentials")
	// ErrUnexpectedStatus сервис ответил кодом вне 2xx.
	ErrUnexpectedStatus = errors.New("subscription api unexpected status")
)

// Client ходит в сервис статуса подписки с повторами.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
}

// New создает клиент по настройкам.
func New(cfg config.SubscriptionAPI, log *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 50 * time.Millisecond
	rc.RetryWaitMax = time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = log.With(slog.String("component", "subscriptionapi"))

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// Status возвращает упорядоченную последовательность планов пользователя.
func (c *Client) Status(ctx context.Context, token string) ([]models.SubscriptionPlan, error) {
	const op = "subscriptionapi.Status"

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+StatusPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s: %w: %d", op, ErrUnexpectedStatus, resp.StatusCode)
	}

	var plans []models.SubscriptionPlan
	if err := json.NewDecoder(resp.Body).Decode(&plans); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", op, err)
	}
	if plans == nil {
		plans = []models.SubscriptionPlan{}
	}
	return plans, nil
}
