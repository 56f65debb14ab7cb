package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/publiccircle/access-gateway/internal/models"
)

func TestRoles_Evaluate(t *testing.T) {
	admin := &models.User{ID: "1", Role: models.NewRole("Admin")}
	member := &models.User{ID: "2", Role: models.NewRole("Member")}

	tests := []struct {
		name         string
		policy       Roles
		user         *models.User
		wantDecision models.Decision
		wantRedirect string
	}{
		{"empty accept list allows member", Roles{}, member, models.DecisionAllowed, ""},
		{"empty accept list allows nil user", Roles{}, nil, models.DecisionAllowed, ""},
		{"admin accepted", Roles{Accept: []string{"Admin"}}, admin, models.DecisionAllowed, ""},
		{"member redirected", Roles{Accept: []string{"Admin"}, RedirectTo: "/app/dashboard"}, member, models.DecisionRedirecting, "/app/dashboard"},
		{"member gets panel", Roles{Accept: []string{"Admin"}, ShowPanel: true}, member, models.DecisionDenied, ""},
		{"member gets nothing", Roles{Accept: []string{"Admin"}}, member, models.DecisionDenied, ""},
		{"nil user denied", Roles{Accept: []string{"Admin"}}, nil, models.DecisionDenied, ""},
		{"role match is exact", Roles{Accept: []string{"admin"}}, admin, models.DecisionDenied, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.Evaluate(tt.user)
			assert.Equal(t, tt.wantDecision, got.Decision)
			assert.Equal(t, tt.wantRedirect, got.RedirectTo)
		})
	}
}
