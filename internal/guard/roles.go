package guard

import (
	"slices"

	"github.com/publiccircle/access-gateway/internal/models"
)

// Roles — синхронный охранник ролей.
//
// При отказе: редирект на RedirectTo, если он задан; иначе панель
// "доступ запрещен" с перечнем ролей, если ShowPanel; иначе пустой ответ.
type Roles struct {
	Accept     []string
	RedirectTo string
	ShowPanel  bool
}

// Allows сообщает, допускает ли охранник роль.
func (p Roles) Allows(role models.Role) bool {
	if len(p.Accept) == 0 {
		return true
	}
	return slices.Contains(p.Accept, role.Name())
}

// Evaluate вычисляет решение для пользователя. nil-пользователь не имеет роли.
func (p Roles) Evaluate(user *models.User) Outcome {
	var role models.Role
	if user != nil {
		role = user.Role
	}

	if p.Allows(role) {
		return Outcome{Decision: models.DecisionAllowed, Reason: ReasonRoleAccepted}
	}
	if p.RedirectTo != "" {
		return Outcome{Decision: models.DecisionRedirecting, RedirectTo: p.RedirectTo, Reason: ReasonRoleRejected}
	}
	return Outcome{Decision: models.DecisionDenied, Reason: ReasonRoleRejected}
}
