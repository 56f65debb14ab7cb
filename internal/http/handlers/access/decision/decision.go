// Package decision реализует HTTP-обработчик, отвечающий клиенту, что
// показывать на заданном пути: страницу, загрузку, оверлей или редирект.
package decision

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/publiccircle/access-gateway/internal/guard"
	"github.com/publiccircle/access-gateway/internal/http/middlewarectx"
	"github.com/publiccircle/access-gateway/internal/http/response"
	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/models"
)

// Query параметры запроса.
type Query struct {
	Path string `validate:"required,startswith=/,max=2048"`
	Wait string `validate:"omitempty,oneof=true false 1 0"`
}

// Resolver собирает сессию запроса.
type Resolver interface {
	Resolve(r *http.Request, wait bool) middlewarectx.Session
}

// Handler вычисляет решение охранника подписки для пути.
type Handler struct {
	log      *slog.Logger
	resolver Resolver
	paths    guard.Paths
	metrics  middlewarectx.DecisionObserver
	validate *validator.Validate
}

// New создает Handler. metrics может быть nil.
func New(log *slog.Logger, resolver Resolver, paths guard.Paths, metrics middlewarectx.DecisionObserver) *Handler {
	return &Handler{
		log:      log,
		resolver: resolver,
		paths:    paths,
		metrics:  metrics,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Решение охранника доступа
// @Description Возвращает, что показывать на пути: allowed, blocked, redirecting или loading.
// @Description При wait=false статус подписки берется только из кеша; без записи ответ loading,
// @Description а загрузка продолжается в фоне.
// @Tags Access
// @Produce json
// @Param path query string true "Путь страницы, начинается с /"
// @Param wait query bool false "Ждать загрузки статуса подписки (по умолчанию true)"
// @Success 200 {object} response.Response{data=response.AccessData} "Решение"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /access [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.decision"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q := Query{
		Path: r.URL.Query().Get("path"),
		Wait: r.URL.Query().Get("wait"),
	}
	if err := h.validate.Struct(q); err != nil {
		validateErr, ok := err.(validator.ValidationErrors)
		if !ok {
			log.Error("unexpected validation error", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request"))
			return
		}
		log.Info("invalid access query", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(validateErr))
		return
	}

	wait := q.Wait != "false" && q.Wait != "0"
	s := h.resolver.Resolve(r, wait)

	out := guard.NewAccess(h.paths, nil).Evaluate(s.Auth, s.Subscription, q.Path)
	if h.metrics != nil {
		h.metrics.ObserveDecision(middlewarectx.GuardAccess, out.Decision)
	}

	log.Debug("access decision computed",
		sl.Path(q.Path),
		sl.User(s.Auth.UserID()),
		slog.String("decision", string(out.Decision)),
		slog.String("reason", out.Reason),
	)

	if out.Decision == models.DecisionLoading {
		w.Header().Set("Retry-After", "1")
	}
	render.JSON(w, r, response.StatusOKWithData(response.AccessData{
		Decision:         string(out.Decision),
		RedirectTo:       out.RedirectTo,
		SubscriptionPath: h.paths.Subscription,
		Reason:           out.Reason,
	}))
}
