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

// maxCapturedPage ограничивает размер страницы, отрисованной под оверлеем.
const maxCapturedPage = 2 << 20

// RequireAccess — охранник защищенных страниц.
//
// Redirecting: 302 на страницу входа с returnTo (JSON-клиенту 401).
// Blocked: 402 со страницей-оверлеем поверх приглушенного содержимого
// (JSON-клиенту 402 с путем страницы подписки). Allowed: запрос идет дальше.
func RequireAccess(log *slog.Logger, paths guard.Paths, pages *overlay.Renderer, opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAccess"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			s := sessionOrAnonymous(r)
			g := guard.NewAccess(paths, guard.NavigatorFunc(func(target string) {
				if wantsJSON(r) {
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, response.ErrorWithData("unauthenticated", response.AccessData{
						Decision:   string(models.DecisionRedirecting),
						RedirectTo: target,
					}))
					return
				}
				http.Redirect(w, r, target, http.StatusFound)
			}))

			out := g.Evaluate(s.Auth, s.Subscription, r.URL.Path)
			opts.observe(log, GuardAccess, r, s, out)

			switch out.Decision {
			case models.DecisionAllowed:
				next.ServeHTTP(w, r)
			case models.DecisionRedirecting:
				// ответ уже записан навигатором
			case models.DecisionBlocked:
				renderBlocked(log, w, r, next, pages, out)
			default:
				renderLoading(w, r, out)
			}
		})
	}
}

func renderBlocked(log *slog.Logger, w http.ResponseWriter, r *http.Request, next http.Handler,
	pages *overlay.Renderer, out guard.Outcome) {
	if wantsJSON(r) {
		render.Status(r, http.StatusPaymentRequired)
		render.JSON(w, r, response.ErrorWithData("subscription inactive", response.AccessData{
			Decision:         string(out.Decision),
			SubscriptionPath: out.RedirectTo,
			Reason:           out.Reason,
		}))
		return
	}

	// Под оверлеем показывается только безопасный GET; остальные методы не исполняются.
	var child []byte
	if r.Method == http.MethodGet && pages != nil {
		inner := r.Clone(r.Context())
		inner.Header.Del("Accept-Encoding")
		cw := newCaptureWriter(maxCapturedPage)
		next.ServeHTTP(cw, inner)
		child = cw.html()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusPaymentRequired)
	if r.Method == http.MethodHead {
		return
	}
	if pages == nil {
		return
	}
	if err := pages.Blocked(w, out.RedirectTo, child); err != nil {
		log.Error("failed to render blocked overlay", sl.Err(err))
	}
}

func renderLoading(w http.ResponseWriter, r *http.Request, out guard.Outcome) {
	w.Header().Set("Retry-After", "1")
	if wantsJSON(r) {
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, response.StatusOKWithData(response.AccessData{
			Decision: string(out.Decision),
			Reason:   out.Reason,
		}))
		return
	}
	http.Error(w, "Loading…", http.StatusServiceUnavailable)
}
