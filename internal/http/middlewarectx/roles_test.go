package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/publiccircle/access-gateway/internal/guard"
	"github.com/publiccircle/access-gateway/internal/http/middlewarectx"
	"github.com/publiccircle/access-gateway/internal/http/overlay"
	"github.com/publiccircle/access-gateway/internal/models"
)

func TestRequireRoles(t *testing.T) {
	admin := &models.User{ID: "u-admin", Role: models.NewRole("Admin")}

	tests := []struct {
		name         string
		policy       guard.Roles
		user         *models.User
		accept       string
		wantStatus   int
		wantCalls    int
		wantLocation string
		wantBody     string
		wantAudit    models.Decision
	}{
		{
			name:       "empty accepted set allows anyone",
			policy:     guard.Roles{},
			user:       member("u-1"),
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:       "admin allowed",
			policy:     guard.Roles{Accept: []string{"Admin"}},
			user:       admin,
			wantStatus: http.StatusOK,
			wantCalls:  1,
		},
		{
			name:         "member redirected",
			policy:       guard.Roles{Accept: []string{"Admin"}, RedirectTo: "/app/dashboard"},
			user:         member("u-1"),
			wantStatus:   http.StatusFound,
			wantLocation: "/app/dashboard",
			wantAudit:    models.DecisionRedirecting,
		},
		{
			name:       "member sees panel",
			policy:     guard.Roles{Accept: []string{"Admin", "Owner"}, ShowPanel: true},
			user:       member("u-1"),
			wantStatus: http.StatusForbidden,
			wantBody:   "Admin, Owner",
			wantAudit:  models.DecisionDenied,
		},
		{
			name:       "member gets nothing",
			policy:     guard.Roles{Accept: []string{"Admin"}},
			user:       member("u-1"),
			wantStatus: http.StatusForbidden,
			wantAudit:  models.DecisionDenied,
		},
		{
			name:       "json client gets accepted roles",
			policy:     guard.Roles{Accept: []string{"Admin"}, ShowPanel: true},
			user:       member("u-1"),
			accept:     "application/json",
			wantStatus: http.StatusForbidden,
			wantBody:   `"accepted_roles":["Admin"]`,
			wantAudit:  models.DecisionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &observerStub{}
			next := &counting{page: "admin"}
			h := middlewarectx.RequireRoles(newNoopLogger(), tt.policy, overlay.New(), obs.options())(next)

			req := withSession(httptest.NewRequest(http.MethodGet, "/app/admin/users", nil),
				middlewarectx.Session{Auth: authenticated(tt.user), Subscription: activePlans()})
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCalls, next.count())
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			}
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			if tt.wantAudit != "" {
				require.Len(t, obs.audit, 1)
				assert.Equal(t, tt.wantAudit, obs.audit[0].Decision)
				assert.Equal(t, "u-1", obs.audit[0].UserID)
			} else {
				assert.Empty(t, obs.audit)
			}
		})
	}
}
