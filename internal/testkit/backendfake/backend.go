// Package backendfake serves canned customer, product, and order service
// answers for storefront tests.
package backendfake

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/payetonkawa/storefront/internal/services/storefront/gateway"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
)

// Call is one request seen by the backend.
type Call struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	Body          string
}

// Backend is a single httptest server standing in for all three services.
type Backend struct {
	server *httptest.Server
	mux    *http.ServeMux

	mu    sync.Mutex
	calls []Call
}

// New starts a backend closed when t ends. Unregistered routes answer 404.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{mux: http.NewServeMux()}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.calls = append(b.calls, Call{
		Method:        r.Method,
		Path:          r.URL.Path,
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
		Body:          string(body),
	})
	b.mu.Unlock()
	b.mux.ServeHTTP(w, r)
}

// URL is the base URL of every service.
func (b *Backend) URL() string {
	return b.server.URL
}

// HTTPClient returns a client bound to the backend server.
func (b *Backend) HTTPClient() *http.Client {
	return b.server.Client()
}

// Handle registers handler for a method-qualified ServeMux pattern such as
// "GET /products/{id}".
func (b *Backend) Handle(pattern string, handler http.HandlerFunc) {
	b.mux.HandleFunc(pattern, handler)
}

// JSON registers a fixed JSON answer.
func (b *Backend) JSON(pattern string, status int, body string) {
	b.Handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// Calls returns the requests received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Find returns the first call matching method and path.
func (b *Backend) Find(method, path string) (Call, bool) {
	for _, call := range b.Calls() {
		if call.Method == method && call.Path == path {
			return call, true
		}
	}
	return Call{}, false
}

// Gateway returns clients pointed at the backend.
func (b *Backend) Gateway(t testing.TB, opts ...gateway.Option) *gateway.Gateway {
	t.Helper()
	opts = append([]gateway.Option{gateway.WithHTTPClient(b.server.Client())}, opts...)
	gw, err := gateway.New(gateway.Config{
		CustomerBaseURL: b.server.URL,
		ProductBaseURL:  b.server.URL,
		OrderBaseURL:    b.server.URL,
	}, opts...)
	if err != nil {
		t.Fatalf("build gateway: %v", err)
	}
	return gw
}

// Reads returns uncached reads over Gateway.
func (b *Backend) Reads(t testing.TB, opts ...gateway.Option) *querycache.Reads {
	t.Helper()
	return querycache.NewReads(b.Gateway(t, opts...), nil, querycache.DefaultTTLs())
}
