// Package guard реализует решения охранников доступа: охранник подписки
// (Access), охранник гостевых страниц (Guest) и охранник ролей (Roles).
//
// Решения вычисляются заново на каждую оценку из AuthState и
// SubscriptionState. Единственное состояние, которое хранит охранник, —
// признак уже выполненного редиректа.
package guard

import (
	"net/url"
	"sync"

	"github.com/publiccircle/access-gateway/internal/models"
)

// ReturnToParam — имя query-параметра с путём возврата после входа.
const ReturnToParam = "returnTo"

// Navigator выполняет replace-навигацию: без новой записи в истории.
type Navigator interface {
	Replace(path string)
}

// NavigatorFunc адаптер функции к Navigator.
type NavigatorFunc func(path string)

// Replace вызывает f(path).
func (f NavigatorFunc) Replace(path string) {
	f(path)
}

// Outcome — результат оценки охранника.
type Outcome struct {
	Decision   models.Decision `json:"decision"`
	RedirectTo string          `json:"redirect_to,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// Причины решений, попадают в логи, метрики и аудит.
const (
	ReasonAuthLoading         = "auth_loading"
	ReasonSubscriptionLoading = "subscription_loading"
	ReasonUnauthenticated     = "unauthenticated"
	ReasonAuthenticated       = "authenticated"
	ReasonNoPlan              = "no_plan"
	ReasonNoSubscription      = "no_subscription"
	ReasonStatusCanceled      = "status_canceled"
	ReasonStatusInactive      = "status_inactive"
	ReasonCancelAtPeriodEnd   = "cancel_at_period_end"
	ReasonCanceledFlag        = "canceled_flag"
	ReasonSubscriptionPage    = "subscription_page"
	ReasonActive              = "active"
	ReasonRoleAccepted        = "role_accepted"
	ReasonRoleRejected        = "role_rejected"
)

// SignInURL строит путь страницы входа с returnTo, закодированным в URL.
func SignInURL(signInPath, currentPath string) string {
	return signInPath + "?" + ReturnToParam + "=" + url.QueryEscape(currentPath)
}

// redirectLatch не дает повторно выполнить навигацию при повторной оценке.
// Сбрасывается только при смене признака Authenticated.
type redirectLatch struct {
	mu       sync.Mutex
	issued   bool
	seen     bool
	lastAuth bool
}

// observe фиксирует текущее значение Authenticated и сбрасывает защелку при его смене.
func (l *redirectLatch) observe(authenticated bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seen && l.lastAuth != authenticated {
		l.issued = false
	}
	l.seen = true
	l.lastAuth = authenticated
}

// fire вызывает nav.Replace ровно один раз до следующего сброса.
func (l *redirectLatch) fire(nav Navigator, path string) bool {
	l.mu.Lock()
	if l.issued {
		l.mu.Unlock()
		return false
	}
	l.issued = true
	l.mu.Unlock()

	if nav != nil {
		nav.Replace(path)
	}
	return true
}
