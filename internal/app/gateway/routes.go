package gateway

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	// регистрация swagger-документа
	_ "github.com/publiccircle/access-gateway/internal/docs"

	"github.com/publiccircle/access-gateway/internal/config"
	"github.com/publiccircle/access-gateway/internal/guard"
	"github.com/publiccircle/access-gateway/internal/http/handlers/access/decision"
	"github.com/publiccircle/access-gateway/internal/http/handlers/access/me"
	"github.com/publiccircle/access-gateway/internal/http/handlers/health"
	"github.com/publiccircle/access-gateway/internal/http/middlewarectx"
	"github.com/publiccircle/access-gateway/internal/http/overlay"
	authservice "github.com/publiccircle/access-gateway/internal/services/auth"
)

// routeDeps зависимости маршрутов, собранные в New.
type routeDeps struct {
	auth     *authservice.AuthService
	subs     middlewarectx.SubscriptionProvider
	upstream http.Handler
	metrics  http.Handler
	guards   middlewarectx.Options
}

// RegisterRoutes регистрирует все маршруты шлюза.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, deps routeDeps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	paths := guard.Paths{
		SignIn:       cfg.SignInPath,
		AfterLogin:   cfg.AfterLoginPath,
		Subscription: cfg.SubscriptionPath,
	}
	resolver := middlewarectx.NewResolver(deps.auth, deps.subs, logger)
	pages := overlay.New()
	session := middlewarectx.SessionMiddleware(resolver)

	r.Get("/healthz", health.New(logger).ServeHTTP)
	if deps.metrics != nil {
		r.Handle("/metrics", deps.metrics)
	}
	r.Get("/docs/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
		r.Get("/access", decision.New(logger, resolver, paths, deps.guards.Metrics).ServeHTTP)
		r.Get("/me", me.New(logger, deps.auth).ServeHTTP)
	})

	// Страницы входа и регистрации
	for _, p := range cfg.GuestPaths {
		r.With(session, middlewarectx.GuestOnly(logger, cfg.AfterLoginPath, deps.guards)).Handle(p, deps.upstream)
	}

	// Защищенная часть приложения
	r.Route(cfg.ProtectedPrefix, func(r chi.Router) {
		r.Use(session, middlewarectx.RequireAccess(logger, paths, pages, deps.guards))

		if rel, ok := strings.CutPrefix(cfg.AdminPrefix, cfg.ProtectedPrefix); ok && rel != "" {
			admin := middlewarectx.RequireRoles(logger, guard.Roles{
				Accept:     cfg.AdminRoles,
				RedirectTo: cfg.AdminRedirectTo,
				ShowPanel:  cfg.AdminShowPanel,
			}, pages, deps.guards)
			r.With(admin).Handle(rel, deps.upstream)
			r.With(admin).Handle(rel+"/*", deps.upstream)
		}

		r.Handle("/*", deps.upstream)
	})

	// Публичные страницы и статика
	r.Handle("/*", deps.upstream)
}
