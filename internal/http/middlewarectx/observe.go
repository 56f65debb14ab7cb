package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/publiccircle/access-gateway/internal/guard"
	"github.com/publiccircle/access-gateway/internal/lib/sl"
	"github.com/publiccircle/access-gateway/internal/models"
)

// Имена охранников в логах, метриках и аудите.
const (
	GuardAccess = "access"
	GuardGuest  = "guest"
	GuardRoles  = "roles"
)

// DecisionObserver учитывает решения охранников в метриках.
type DecisionObserver interface {
	ObserveDecision(guard string, d models.Decision)
}

// Auditor принимает записи о непропущенных запросах.
type Auditor interface {
	Record(rec models.AuditRecord) bool
}

// Options общие зависимости охранников. Поля необязательны.
type Options struct {
	Metrics DecisionObserver
	Audit   Auditor
}

func (o Options) observe(log *slog.Logger, guardName string, r *http.Request, s Session, out guard.Outcome) {
	if o.Metrics != nil {
		o.Metrics.ObserveDecision(guardName, out.Decision)
	}

	if out.Decision == models.DecisionAllowed {
		log.Debug("access allowed", sl.Path(r.URL.Path), slog.String("reason", out.Reason))
		return
	}
	log.Info("access restricted",
		sl.Path(r.URL.Path),
		sl.User(s.Auth.UserID()),
		slog.String("decision", string(out.Decision)),
		slog.String("reason", out.Reason),
	)

	if o.Audit != nil {
		o.Audit.Record(models.AuditRecord{
			UserID:   s.Auth.UserID(),
			Path:     r.URL.Path,
			Guard:    guardName,
			Decision: out.Decision,
			Reason:   out.Reason,
		})
	}
}

// wantsJSON сообщает, что клиент ждет JSON, а не страницу.
func wantsJSON(r *http.Request) bool {
	return render.GetAcceptedContentType(r) == render.ContentTypeJSON
}

// sessionOrAnonymous возвращает сессию запроса; без нее пользователь анонимен.
func sessionOrAnonymous(r *http.Request) Session {
	s, ok := FromContext(r.Context())
	if !ok {
		return Session{Auth: models.Anonymous()}
	}
	return s
}
