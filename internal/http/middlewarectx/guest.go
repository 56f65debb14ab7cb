package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/publiccircle/access-gateway/internal/guard"
	"github.com/publiccircle/access-gateway/internal/http/response"
	"github.com/publiccircle/access-gateway/internal/models"
)

// GuestOnly пропускает на страницы входа и регистрации только анонимных
// пользователей; аутентифицированного уводит на afterLogin.
func GuestOnly(log *slog.Logger, afterLogin string, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.GuestOnly"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			s := sessionOrAnonymous(r)
			g := guard.NewGuest(afterLogin, guard.NavigatorFunc(func(target string) {
				if wantsJSON(r) {
					render.Status(r, http.StatusConflict)
					render.JSON(w, r, response.ErrorWithData("already authenticated", response.AccessData{
						Decision:   string(models.DecisionRedirecting),
						RedirectTo: target,
					}))
					return
				}
				http.Redirect(w, r, target, http.StatusFound)
			}))

			out := g.Evaluate(s.Auth)
			opts.observe(log, GuardGuest, r, s, out)

			switch out.Decision {
			case models.DecisionAllowed:
				next.ServeHTTP(w, r)
			case models.DecisionRedirecting:
			default:
				renderLoading(w, r, out)
			}
		})
	}
}
