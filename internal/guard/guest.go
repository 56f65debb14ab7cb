package guard

import "github.com/publiccircle/access-gateway/internal/models"

// Guest — зеркальный охранник страниц входа и регистрации:
// аутентифицированного пользователя уводит на стартовую страницу.
type Guest struct {
	afterLogin string
	nav        Navigator
	latch      redirectLatch
}

// NewGuest создает гостевой охранник.
func NewGuest(afterLoginPath string, nav Navigator) *Guest {
	return &Guest{afterLogin: afterLoginPath, nav: nav}
}

// Evaluate вычисляет решение для гостевой страницы.
func (g *Guest) Evaluate(auth models.AuthState) Outcome {
	if auth.Loading {
		return Outcome{Decision: models.DecisionLoading, Reason: ReasonAuthLoading}
	}

	g.latch.observe(auth.Authenticated)

	if auth.Authenticated {
		g.latch.fire(g.nav, g.afterLogin)
		return Outcome{Decision: models.DecisionRedirecting, RedirectTo: g.afterLogin, Reason: ReasonAuthenticated}
	}
	return Outcome{Decision: models.DecisionAllowed, Reason: ReasonUnauthenticated}
}
