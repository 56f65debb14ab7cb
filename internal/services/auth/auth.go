// Package services содержит провайдер состояния аутентификации:
// из токена запроса получается AuthState для охранников доступа.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/publiccircle/access-gateway/internal/lib/jwt"
	"github.com/publiccircle/access-gateway/internal/models"
)

// ErrAuthLoad — состояние аутентификации не удалось загрузить: токена нет
// или он недействителен. Вызывающий трактует это как неаутентифицированного
// пользователя (редирект на вход), а не как ошибку.
var ErrAuthLoad = errors.New("auth state could not be loaded")

// TokenParser описывает разбор токена сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// AuthService отдает AuthState по токену сессии.
type AuthService struct {
	parser     TokenParser
	cookieName string
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(parser TokenParser, cookieName string) *AuthService {
	return &AuthService{
		parser:     parser,
		cookieName: cookieName,
	}
}

// TokenFromRequest берет токен из заголовка Authorization или из cookie сессии.
func (s *AuthService) TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if s.cookieName == "" {
		return ""
	}
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// State возвращает загруженное состояние аутентификации.
// При ошибке состояние анонимное, а ошибка оборачивает ErrAuthLoad.
func (s *AuthService) State(ctx context.Context, token string) (models.AuthState, error) {
	const op = "services.auth.State"
	select {
	case <-ctx.Done():
		return models.Anonymous(), fmt.Errorf("%s: %w: %w", op, ErrAuthLoad, ctx.Err())
	default:
	}

	if token == "" {
		return models.Anonymous(), fmt.Errorf("%s: %w: missing token", op, ErrAuthLoad)
	}

	claims, err := s.parser.ParseToken(token)
	if err != nil {
		return models.Anonymous(), fmt.Errorf("%s: %w: %w", op, ErrAuthLoad, err)
	}

	return models.AuthState{
		Authenticated: true,
		User:          claims.User(),
	}, nil
}

// UserHint возвращает идентификатор пользователя из токена без проверки подписи.
func (s *AuthService) UserHint(token string) string {
	if token == "" {
		return ""
	}
	return jwt.UnverifiedUserID(token)
}
