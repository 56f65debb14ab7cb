// Package gateway собирает шлюз доступа: кеш, клиенты внешних сервисов,
// охранники, аудит и HTTP-сервер.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/publiccircle/access-gateway/internal/cache"
	"github.com/publiccircle/access-gateway/internal/config"
	"github.com/publiccircle/access-gateway/internal/http/middlewarectx"
	"github.com/publiccircle/access-gateway/internal/lib/jwt"
	"github.com/publiccircle/access-gateway/internal/lib/rabbitmq"
	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/metrics"
	"github.com/publiccircle/access-gateway/internal/migrations"
	auditservice "github.com/publiccircle/access-gateway/internal/services/audit"
	authservice "github.com/publiccircle/access-gateway/internal/services/auth"
	subservice "github.com/publiccircle/access-gateway/internal/services/subscription"
	"github.com/publiccircle/access-gateway/internal/session"
	"github.com/publiccircle/access-gateway/internal/storage/repository"
	"github.com/publiccircle/access-gateway/internal/subscriptionapi"
)

const (
	cachePrefix      = "access-gateway"
	auditBuffer      = 1024
	auditSinkTimeout = 5 * time.Second
	shutdownTimeout  = 15 * time.Second
)

// App шлюз доступа.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	cache   *cache.Cache
	subs    *subservice.SubscriptionService
	audit   *auditservice.AuditService
	session *session.Manager
	db      *repository.Storage
	amqp    *amqp.Connection
	amqpCh  *amqp.Channel
}

// New создает App. Хранилище и брокер аудита необязательны: без строки
// подключения соответствующий приемник не создается.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "gateway.New"
	app := &App{logger: logger}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection, cachePrefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.cache = cacheRedis

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	app.subs = subservice.NewSubscriptionService(
		subscriptionapi.New(cfg.SubscriptionAPI, logger),
		cacheRedis,
		logger,
		subservice.Options{
			FreshFor:     cfg.CacheFresh,
			TTL:          cfg.CacheTTL,
			FetchTimeout: cfg.FetchTimeout,
			Recorder:     m,
		},
	)

	sinks, err := app.auditSinks(ctx, cfg)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.audit = auditservice.NewAuditService(logger, auditBuffer, auditSinkTimeout, sinks...)

	app.session = session.NewManager(logger, session.Options{
		TokenFile:      cfg.Realtime.TokenFile,
		RealtimeURL:    cfg.Realtime.URL,
		ReconnectDelay: cfg.ReconnectDelay,
	}, app.subs)

	upstream, err := newUpstream(cfg.UpstreamURL, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, routeDeps{
		auth:     authservice.NewAuthService(jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL), cfg.CookieName),
		subs:     app.subs,
		upstream: upstream,
		metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		guards:   middlewarectx.Options{Metrics: m, Audit: app.audit},
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

func (a *App) auditSinks(ctx context.Context, cfg *config.Config) ([]auditservice.NamedSink, error) {
	var sinks []auditservice.NamedSink

	if cfg.StorageConnectionString != "" {
		db, err := repository.New(ctx, cfg.StorageConnectionString)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
			return nil, err
		}
		sinks = append(sinks, auditservice.PostgresSink(db))
	}

	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		a.amqp = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.GetAuditQueues())
		if err != nil {
			return nil, err
		}
		a.amqpCh = ch
		sinks = append(sinks, auditservice.AMQPSink(ch, cfg.Exchange))
	}

	if len(sinks) == 0 {
		a.logger.Warn("no audit sinks configured, decisions are only logged")
	}
	return sinks, nil
}

// Run запускает сервер и фоновые компоненты до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.audit.Start(ctx)

	// Сбой сервера тоже останавливает фоновые компоненты.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessionDone := make(chan struct{})
	go func() {
		defer close(sessionDone)
		if err := a.session.Run(runCtx); err != nil {
			a.logger.Error("session manager stopped", sl.Err(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		timeoutCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		a.logger.Info("shutting down HTTP server gracefully")
		runErr = a.server.Shutdown(timeoutCtx)
	}

	cancel()
	<-sessionDone
	a.close()
	return runErr
}

// close освобождает ресурсы в обратном порядке создания.
func (a *App) close() {
	if a.audit != nil {
		a.audit.Close()
	}
	if a.subs != nil {
		a.subs.Wait()
	}
	if a.amqpCh != nil {
		if err := a.amqpCh.Close(); err != nil {
			a.logger.Warn("failed to close amqp channel", sl.Err(err))
		}
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Warn("failed to close amqp connection", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close cache", sl.Err(err))
		}
	}
}
