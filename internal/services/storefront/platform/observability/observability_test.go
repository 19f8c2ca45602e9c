package observability

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/payetonkawa/storefront/internal/services/storefront/events"
)

func TestInstrumentLabelsByRouteTemplate(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics(nil)
	router := mux.NewRouter()
	router.Use(metrics.Instrument)
	router.HandleFunc("/products/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/"+id, nil))
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.httpRequests.WithLabelValues("GET", "/products/{id}", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.httpInFlight))
}

func TestDomainCounters(t *testing.T) {
	t.Parallel()
	resident := 4
	metrics := NewMetrics(func() int { return resident })

	metrics.CartMutation("add")
	metrics.CartMutation("add")
	metrics.SessionEnded(events.Event{Type: events.SessionEnded, Reason: events.ReasonExpired})
	metrics.SessionEnded(events.Event{Type: events.SessionEnded})
	metrics.PersistFailure("cart-storage", nil)
	metrics.ObserveBackendCall("orders", "get", 0, time.Millisecond)
	metrics.ObserveBackendCall("orders", "GET", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.cartMutations.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.sessionsEnded.WithLabelValues(events.ReasonExpired)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.sessionsEnded.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.persistFailures.WithLabelValues("cart-storage")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.backendCalls.WithLabelValues("orders", "GET", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.backendCalls.WithLabelValues("orders", "GET", "200")))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.workspaces))
}

func TestHandlerExposesMetrics(t *testing.T) {
	t.Parallel()
	metrics := NewMetrics(nil)
	metrics.CartMutation("clear")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_cart_mutations_total{operation="clear"} 1`)
}

func TestRequestLoggerLevels(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"info"`)
	assert.Contains(t, lines[0], `"status":200`)
	assert.Contains(t, lines[1], `"level":"error"`)
	assert.Contains(t, lines[1], `"route":"unmatched"`)
}

func TestRequestLoggerAddsTraceID(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	RequestLogger(logger)(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`)
}
