// Package me отдает состояние аутентификации текущего запроса.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/publiccircle/access-gateway/internal/http/response"
	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/models"
)

// AuthProvider провайдер состояния аутентификации.
type AuthProvider interface {
	TokenFromRequest(r *http.Request) string
	State(ctx context.Context, token string) (models.AuthState, error)
}

// Handler возвращает AuthState; роль всегда сериализуется строкой.
type Handler struct {
	log  *slog.Logger
	auth AuthProvider
}

// New создает Handler.
func New(log *slog.Logger, auth AuthProvider) *Handler {
	return &Handler{log: log, auth: auth}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Description Состояние аутентификации по токену из заголовка Authorization или cookie сессии.
// @Tags Access
// @Produce json
// @Success 200 {object} response.Response{data=models.AuthState}
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.access.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	state, err := h.auth.State(r.Context(), h.auth.TokenFromRequest(r))
	if err != nil {
		log.Debug("request is unauthenticated", sl.Err(err))
	}

	render.JSON(w, r, response.StatusOKWithData(state))
}
