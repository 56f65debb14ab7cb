package me

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/publiccircle/access-gateway/internal/models"
)

type AuthMock struct {
	mock.Mock
}

func (m *AuthMock) TokenFromRequest(r *http.Request) string {
	return m.Called(r).String(0)
}

func (m *AuthMock) State(ctx context.Context, token string) (models.AuthState, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.AuthState), args.Error(1)
}

func TestMeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name     string
		token    string
		state    models.AuthState
		err      error
		expected string
	}{
		{
			name:  "authenticated user with normalised role",
			token: "tok",
			state: models.AuthState{Authenticated: true, User: &models.User{
				ID: "u-1", Email: "a@example.com", Role: models.NewRole("Admin"),
			}},
			expected: `{"status":"OK","data":{"authenticated":true,"loading":false,"user":{"id":"u-1","email":"a@example.com","role":"Admin"}}}`,
		},
		{
			name:     "anonymous",
			state:    models.Anonymous(),
			err:      errors.New("missing token"),
			expected: `{"status":"OK","data":{"authenticated":false,"loading":false,"user":null}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(AuthMock)
			auth.On("TokenFromRequest", mock.Anything).Return(tt.token)
			auth.On("State", mock.Anything, tt.token).Return(tt.state, tt.err)

			rec := httptest.NewRecorder()
			New(logger, auth).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/me", nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.expected, rec.Body.String())
		})
	}
}
