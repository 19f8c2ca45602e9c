package storefront

import (
	"context"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/platform/timeouts"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
)

const robotsTxt = `User-agent: *
Disallow: /cart
Disallow: /checkout
Disallow: /orders
Disallow: /profile
Disallow: /login
Disallow: /register
Disallow: /api/
`

type pinger interface {
	Ping(ctx context.Context) error
}

// systemRoutes are served without client state.
type systemRoutes struct {
	store   pinger
	metrics http.Handler
}

func mountSystemRoutes(router *mux.Router, routes systemRoutes) {
	router.HandleFunc(routepath.Health, routes.handleHealth).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.Robots, handleRobots).Methods(http.MethodGet, http.MethodHead)
	if routes.metrics != nil {
		router.Handle(routepath.Metrics, routes.metrics).Methods(http.MethodGet)
	}
	static := http.StripPrefix(routepath.StaticPrefix, http.FileServer(http.FS(templates.Static())))
	router.PathPrefix(routepath.StaticPrefix).Handler(cacheStatic(static)).Methods(http.MethodGet, http.MethodHead)
}

func (s systemRoutes) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.StateWrite)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		_ = httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleRobots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, robotsTxt)
}

func cacheStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
