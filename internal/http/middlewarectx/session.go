// Package middlewarectx содержит HTTP middleware шлюза: разрешение сессии
// (аутентификация и подписка), охранники доступа, гостевых страниц и ролей,
// ограничение частоты запросов.
//
// Session кладет в контекст запроса загруженные AuthState и SubscriptionState.
// Охранники читают их оттуда и либо пропускают запрос дальше, либо отвечают
// редиректом, блокирующим оверлеем или отказом.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// SessionKey — ключ разрешенной сессии в контексте.
	SessionKey Key = "session"
)

// AuthProvider провайдер состояния аутентификации.
type AuthProvider interface {
	TokenFromRequest(r *http.Request) string
	UserHint(token string) string
	State(ctx context.Context, token string) (models.AuthState, error)
}

// SubscriptionProvider сервис статуса подписки.
type SubscriptionProvider interface {
	State(ctx context.Context, userID, token string) models.SubscriptionState
	Peek(ctx context.Context, userID, token string) models.SubscriptionState
}

// Session — входные данные охранников для одного запроса.
type Session struct {
	Auth         models.AuthState
	Subscription models.SubscriptionState
}

// FromContext достает сессию из контекста.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(SessionKey).(Session)
	return s, ok
}

// WithSession кладет сессию в контекст.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// Resolver собирает Session из токена запроса.
type Resolver struct {
	auth AuthProvider
	subs SubscriptionProvider
	log  *slog.Logger
}

// NewResolver создает Resolver.
func NewResolver(auth AuthProvider, subs SubscriptionProvider, log *slog.Logger) *Resolver {
	return &Resolver{auth: auth, subs: subs, log: log}
}

// Resolve загружает состояние аутентификации и подписки параллельно.
// При wait=false подписка берется только из кеша и может быть в состоянии Loading.
// Ошибка аутентификации дает анонимную сессию: подписка в ней не нужна.
func (res *Resolver) Resolve(r *http.Request, wait bool) Session {
	const op = "middlewarectx.Resolve"
	ctx := r.Context()
	log := res.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
	)

	token := res.auth.TokenFromRequest(r)
	if token == "" {
		return Session{Auth: models.Anonymous()}
	}

	hint := res.auth.UserHint(token)

	var (
		auth models.AuthState
		subs models.SubscriptionState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		auth, err = res.auth.State(gctx, token)
		return err
	})
	g.Go(func() error {
		subs = res.subscription(gctx, hint, token, wait)
		return nil
	})

	if err := g.Wait(); err != nil {
		lvl := slog.LevelWarn
		if errors.Is(err, context.Canceled) {
			lvl = slog.LevelDebug
		}
		log.Log(ctx, lvl, "auth state not loaded, treating as unauthenticated", sl.Err(err))
		return Session{Auth: models.Anonymous()}
	}

	// Подсказка не совпала с проверенным токеном: подписку берем заново.
	if id := auth.UserID(); id != hint {
		subs = res.subscription(ctx, id, token, wait)
	}

	return Session{Auth: auth, Subscription: subs}
}

func (res *Resolver) subscription(ctx context.Context, userID, token string, wait bool) models.SubscriptionState {
	if wait {
		return res.subs.State(ctx, userID, token)
	}
	return res.subs.Peek(ctx, userID, token)
}

// SessionMiddleware разрешает сессию с ожиданием подписки и кладет ее в контекст.
func SessionMiddleware(res *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := res.Resolve(r, true)
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}
