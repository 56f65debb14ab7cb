package guard

import "github.com/publiccircle/access-gateway/internal/models"

// Paths — пути, на которые ссылаются охранники.
type Paths struct {
	SignIn       string
	AfterLogin   string
	Subscription string
}

// Access — охранник защищенных страниц. Экземпляр соответствует одному
// монтированию: одному HTTP-запросу или одному долгоживущему наблюдателю.
type Access struct {
	paths Paths
	nav   Navigator
	latch redirectLatch
}

// NewAccess создает охранник подписки.
func NewAccess(paths Paths, nav Navigator) *Access {
	return &Access{paths: paths, nav: nav}
}

// Evaluate вычисляет решение для текущего пути.
//
// Порядок правил:
//  1. auth ещё загружается -> Loading;
//  2. пользователь не аутентифицирован -> Redirecting на страницу входа (один раз);
//  3. данные подписки ещё загружаются -> Loading;
//  4. подписка отменена и путь не страница подписки -> Blocked;
//  5. иначе Allowed.
func (g *Access) Evaluate(auth models.AuthState, subs models.SubscriptionState, currentPath string) Outcome {
	if auth.Loading {
		return Outcome{Decision: models.DecisionLoading, Reason: ReasonAuthLoading}
	}

	g.latch.observe(auth.Authenticated)

	if !auth.Authenticated {
		target := SignInURL(g.paths.SignIn, currentPath)
		g.latch.fire(g.nav, target)
		return Outcome{Decision: models.DecisionRedirecting, RedirectTo: target, Reason: ReasonUnauthenticated}
	}

	if subs.Loading {
		return Outcome{Decision: models.DecisionLoading, Reason: ReasonSubscriptionLoading}
	}

	reason, cancelled := CancellationReason(subs)
	if cancelled {
		if currentPath == g.paths.Subscription {
			return Outcome{Decision: models.DecisionAllowed, Reason: ReasonSubscriptionPage}
		}
		return Outcome{Decision: models.DecisionBlocked, RedirectTo: g.paths.Subscription, Reason: reason}
	}

	return Outcome{Decision: models.DecisionAllowed, Reason: reason}
}
