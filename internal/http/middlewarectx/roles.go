package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/publiccircle/access-gateway/internal/guard"
	"github.com/publiccircle/access-gateway/internal/http/overlay"
	"github.com/publiccircle/access-gateway/internal/http/response"
	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/models"
)

// RequireRoles пропускает пользователей с одной из разрешенных ролей.
// Ставится после RequireAccess: анонимный пользователь сюда не доходит.
func RequireRoles(log *slog.Logger, policy guard.Roles, pages *overlay.Renderer, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRoles"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			s := sessionOrAnonymous(r)
			out := policy.Evaluate(s.Auth.User)
			opts.observe(log, GuardRoles, r, s, out)

			switch out.Decision {
			case models.DecisionAllowed:
				next.ServeHTTP(w, r)
			case models.DecisionRedirecting:
				if wantsJSON(r) {
					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, response.ErrorWithData("access denied", response.AccessData{
						Decision:   string(out.Decision),
						RedirectTo: out.RedirectTo,
						Reason:     out.Reason,
					}))
					return
				}
				http.Redirect(w, r, out.RedirectTo, http.StatusFound)
			default:
				if wantsJSON(r) {
					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, response.ErrorWithData("access denied", map[string]any{
						"decision":       out.Decision,
						"accepted_roles": policy.Accept,
					}))
					return
				}
				if !policy.ShowPanel || pages == nil {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusForbidden)
				if err := pages.Denied(w, policy.Accept); err != nil {
					log.Error("failed to render access denied panel", sl.Err(err))
				}
			}
		})
	}
}
