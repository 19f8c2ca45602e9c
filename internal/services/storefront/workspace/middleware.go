package workspace

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/platform/requestctx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/requestmeta"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/sessioncookie"
)

// Middleware issues the client cookie when missing, acquires the client's
// workspace, and attaches it to the request context. The workspace is
// released once the handler returns.
func Middleware(registry *Registry, policy requestmeta.Policy, logger logrus.FieldLogger) httpx.Middleware {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID, _ := sessioncookie.Ensure(w, r, policy)
			ctx := requestctx.WithClientID(r.Context(), clientID)

			ws, release, err := registry.Acquire(ctx, clientID)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				logger.WithError(err).WithField("client_id", clientID).Error("acquire workspace")
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			defer release()

			next.ServeHTTP(w, r.WithContext(WithWorkspace(ctx, ws)))
		})
	}
}
