// Package proxy forwards /api/<service>/* to the backend services with the
// client's bearer credential attached.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
)

// Route maps a public path prefix onto a backend root.
type Route struct {
	Service string
	Prefix  string
	Target  *url.URL
}

// Handler serves every configured route.
type Handler struct {
	routes []mountedRoute
	log    logrus.FieldLogger
}

type mountedRoute struct {
	Route
	proxy *httputil.ReverseProxy
}

// New builds the proxy. transport carries the requests upstream; nil uses
// http.DefaultTransport.
func New(routes []Route, transport http.RoundTripper, logger logrus.FieldLogger) (*Handler, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &Handler{log: logger}
	for _, route := range routes {
		route.Prefix = "/" + strings.Trim(route.Prefix, "/")
		if route.Prefix == "/" {
			return nil, fmt.Errorf("proxy route %q: prefix is required", route.Service)
		}
		if route.Target == nil || route.Target.Scheme == "" || route.Target.Host == "" {
			return nil, fmt.Errorf("proxy route %q: target is required", route.Service)
		}
		h.routes = append(h.routes, mountedRoute{Route: route, proxy: h.reverseProxy(route, transport)})
	}
	return h, nil
}

// Prefixes returns the mounted path prefixes with a trailing slash.
func (h *Handler) Prefixes() []string {
	out := make([]string, 0, len(h.routes))
	for _, route := range h.routes {
		out = append(out, route.Prefix+"/")
	}
	return out
}

// ID returns a stable module identifier.
func (h *Handler) ID() string { return "proxy" }

// Mount routes every prefix to the proxy.
func (h *Handler) Mount(router *mux.Router) error {
	for _, prefix := range h.Prefixes() {
		router.PathPrefix(prefix).Handler(h)
	}
	return nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for _, route := range h.routes {
		if strings.HasPrefix(r.URL.Path, route.Prefix+"/") {
			route.proxy.ServeHTTP(w, r)
			return
		}
	}
	_ = httpx.WriteJSONError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func (h *Handler) reverseProxy(route Route, transport http.RoundTripper) *httputil.ReverseProxy {
	target := *route.Target
	log := h.log.WithField("service", route.Service)
	return &httputil.ReverseProxy{
		Transport: transport,
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = strings.TrimPrefix(pr.In.URL.Path, route.Prefix)
			pr.Out.URL.RawPath = ""
			pr.SetURL(&target)
			pr.SetXForwarded()
			pr.Out.Header.Del("Cookie")
			if ws, ok := workspace.FromContext(pr.In.Context()); ok {
				if token := ws.Credentials().Token(); token != "" {
					pr.Out.Header.Set("Authorization", "Bearer "+token)
				}
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			if resp.StatusCode == http.StatusUnauthorized && resp.Request != nil {
				workspace.ExpireOnUnauthorized(resp.Request.Context())
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.WithError(err).WithField("path", r.URL.Path).Warn("proxy upstream failed")
			_ = httpx.WriteJSONError(w, http.StatusBadGateway, "Le service est momentanément indisponible.")
		},
	}
}
