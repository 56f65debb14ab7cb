package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/middleware"

	"github.com/publiccircle/access-gateway/internal/lib/sl"
)

// newUpstream проксирует пропущенные охранниками запросы в приложение.
// Без адреса отвечает 502: шлюз без приложения работает только как API.
func newUpstream(rawURL string, log *slog.Logger) (http.Handler, error) {
	const op = "gateway.newUpstream"
	if rawURL == "" {
		log.Warn("upstream url is not set, app routes will answer 502")
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream is not configured", http.StatusBadGateway)
		}), nil
	}

	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("%s: upstream url must be absolute: %q", op, rawURL)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Error("upstream request failed",
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Path(r.URL.Path),
				sl.Err(err),
			)
			http.Error(w, "upstream unavailable", http.StatusBadGateway)
		},
	}, nil
}
