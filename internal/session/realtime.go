package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/publiccircle/access-gateway/internal/lib/sl"
)

// EventSubscriptionUpdated — бэкенд изменил подписку пользователя.
const EventSubscriptionUpdated = "subscription.updated"

const invalidateTimeout = 5 * time.Second

var errTokenChanged = errors.New("service token changed")

// Event сообщение realtime-канала.
type Event struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
}

// Invalidator сбрасывает кеш статуса подписки пользователя.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// TokenSource источник токена с уведомлениями об изменении.
type TokenSource interface {
	Token() string
	Subscribe() (<-chan string, func())
}

// Conn websocket-соединение с бэкендом, авторизованное служебным токеном.
type Conn struct {
	url    string
	tokens TokenSource
	inv    Invalidator
	log    *slog.Logger
	delay  time.Duration
	dialer *websocket.Dialer
}

// NewConn создает соединение; подключение выполняет Run.
func NewConn(url string, tokens TokenSource, inv Invalidator, log *slog.Logger, reconnectDelay time.Duration) *Conn {
	if reconnectDelay <= 0 {
		reconnectDelay = time.Second
	}
	return &Conn{
		url:    url,
		tokens: tokens,
		inv:    inv,
		log:    log.With(slog.String("component", "realtime")),
		delay:  reconnectDelay,
		dialer: websocket.DefaultDialer,
	}
}

// Run держит соединение до отмены ctx: переподключается после обрыва
// и сразу после смены токена. Без токена ждет его появления.
func (c *Conn) Run(ctx context.Context) error {
	changes, unsubscribe := c.tokens.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-changes:
		default:
		}
		token := c.tokens.Token()
		if token == "" {
			select {
			case <-ctx.Done():
				return nil
			case <-changes:
				continue
			}
		}

		err := c.serve(ctx, token, changes)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, errTokenChanged) {
			c.log.Info("reconnecting with rotated token")
			continue
		}
		c.log.Warn("realtime connection lost", sl.Err(err))

		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-changes:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (c *Conn) serve(ctx context.Context, token string, changes <-chan string) error {
	const op = "session.Conn.serve"

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	ws, resp, err := c.dialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer ws.Close()
	c.log.Info("realtime connected", slog.String("url", c.url))

	readErr := make(chan error, 1)
	go func() {
		readErr <- c.read(ctx, ws)
	}()

	shutdown := func() {
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = ws.Close()
		<-readErr
	}

	select {
	case <-ctx.Done():
		shutdown()
		return ctx.Err()
	case <-changes:
		shutdown()
		return errTokenChanged
	case err := <-readErr:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func (c *Conn) read(ctx context.Context, ws *websocket.Conn) error {
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn("malformed realtime event", sl.Err(err))
			continue
		}
		c.handle(ctx, ev)
	}
}

func (c *Conn) handle(ctx context.Context, ev Event) {
	if ev.Type != EventSubscriptionUpdated || ev.UserID == "" {
		c.log.Debug("realtime event ignored", slog.String("type", ev.Type))
		return
	}

	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()
	if err := c.inv.Invalidate(ictx, ev.UserID); err != nil {
		c.log.Error("failed to invalidate subscription status", sl.User(ev.UserID), sl.Err(err))
		return
	}
	c.log.Debug("subscription status invalidated by event", sl.User(ev.UserID))
}
