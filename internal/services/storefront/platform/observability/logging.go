package observability

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/payetonkawa/storefront/internal/platform/requestctx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/sessioncookie"
)

// RequestLogger logs one line per request. Server errors log at error
// level, client errors at warn, everything else at info.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)

			entry := logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       RouteLabel(r),
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if id := requestctx.RequestIDFromContext(r.Context()); id != "" {
				entry = entry.WithField("request_id", id)
			}
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				entry = entry.WithField("trace_id", sc.TraceID().String())
			}
			if id, ok := sessioncookie.Read(r); ok {
				entry = entry.WithField("client_id", id)
			}
			switch {
			case rec.status >= 500:
				entry.Error("request")
			case rec.status >= 400:
				entry.Warn("request")
			default:
				entry.Info("request")
			}
		})
	}
}
