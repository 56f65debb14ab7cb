// Package overlay рендерит страницы, которые шлюз отдает вместо защищенного
// содержимого: блокирующий оверлей поверх приглушенной страницы и панель
// "доступ запрещен".
package overlay

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/blocked.html
var blockedPageHTML string

//go:embed templates/denied.html
var deniedPageHTML string

var blockedPageTemplate = template.Must(template.New("blocked").Parse(blockedPageHTML))
var deniedPageTemplate = template.Must(template.New("denied").Parse(deniedPageHTML))

// BlockedPageData данные оверлея.
type BlockedPageData struct {
	SubscriptionPath string
	// Content уже очищенная разметка защищенной страницы.
	Content template.HTML
}

// DeniedPageData данные панели отказа.
type DeniedPageData struct {
	Roles []string
}

// Renderer рендерит страницы оверлея.
type Renderer struct {
	policy *bluemonday.Policy
}

// New создает Renderer. Из содержимого под оверлеем удаляются скрипты,
// формы и обработчики событий, чтобы оно было только видимым.
func New() *Renderer {
	return &Renderer{policy: bluemonday.UGCPolicy()}
}

// Sanitize очищает разметку дочерней страницы.
func (r *Renderer) Sanitize(child []byte) template.HTML {
	return template.HTML(r.policy.SanitizeBytes(child)) //nolint:gosec // очищено bluemonday
}

// Blocked пишет оверлей, под которым лежит приглушенная дочерняя страница.
func (r *Renderer) Blocked(w io.Writer, subscriptionPath string, child []byte) error {
	const op = "overlay.Blocked"
	var buf bytes.Buffer
	err := blockedPageTemplate.Execute(&buf, BlockedPageData{
		SubscriptionPath: subscriptionPath,
		Content:          r.Sanitize(child),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Denied пишет панель с перечнем ролей, которым страница доступна.
func (r *Renderer) Denied(w io.Writer, roles []string) error {
	const op = "overlay.Denied"
	var buf bytes.Buffer
	if err := deniedPageTemplate.Execute(&buf, DeniedPageData{Roles: roles}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
