package middlewarectx_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/publiccircle/access-gateway/internal/guard"
	"github.com/publiccircle/access-gateway/internal/http/middlewarectx"
	"github.com/publiccircle/access-gateway/internal/models"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var testPaths = guard.Paths{
	SignIn:       "/signin",
	AfterLogin:   "/app/dashboard",
	Subscription: "/app/subscription",
}

type AuthProviderMock struct {
	mock.Mock
}

func (m *AuthProviderMock) TokenFromRequest(r *http.Request) string {
	return m.Called(r).String(0)
}

func (m *AuthProviderMock) UserHint(token string) string {
	return m.Called(token).String(0)
}

func (m *AuthProviderMock) State(ctx context.Context, token string) (models.AuthState, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.AuthState), args.Error(1)
}

type SubscriptionProviderMock struct {
	mock.Mock
}

func (m *SubscriptionProviderMock) State(ctx context.Context, userID, token string) models.SubscriptionState {
	return m.Called(ctx, userID, token).Get(0).(models.SubscriptionState)
}

func (m *SubscriptionProviderMock) Peek(ctx context.Context, userID, token string) models.SubscriptionState {
	return m.Called(ctx, userID, token).Get(0).(models.SubscriptionState)
}

type observerStub struct {
	mu    sync.Mutex
	seen  []string
	audit []models.AuditRecord
}

func (o *observerStub) ObserveDecision(guardName string, d models.Decision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, guardName+":"+string(d))
}

func (o *observerStub) Record(rec models.AuditRecord) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audit = append(o.audit, rec)
	return true
}

func (o *observerStub) options() middlewarectx.Options {
	return middlewarectx.Options{Metrics: o, Audit: o}
}

func member(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", Role: models.NewRole("Member")}
}

func authenticated(u *models.User) models.AuthState {
	return models.AuthState{Authenticated: true, User: u}
}

func activePlans() models.SubscriptionState {
	return models.SubscriptionState{Plans: []models.SubscriptionPlan{
		{Subscription: &models.Subscription{Status: models.StatusActive}},
	}}
}

func cancelledPlans() models.SubscriptionState {
	return models.SubscriptionState{Plans: []models.SubscriptionPlan{
		{Subscription: &models.Subscription{Status: models.StatusCanceled}},
	}}
}

func withSession(r *http.Request, s middlewarectx.Session) *http.Request {
	return r.WithContext(middlewarectx.WithSession(r.Context(), s))
}

// counting считает вызовы вложенного обработчика и отвечает page.
type counting struct {
	mu    sync.Mutex
	calls int
	page  string
}

func (c *counting) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, c.page)
}

func (c *counting) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
