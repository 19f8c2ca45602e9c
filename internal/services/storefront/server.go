// Package storefront hosts the browser-facing shop: catalog, cart, account,
// checkout, and order pages over the customer, product, and order services.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/payetonkawa/storefront/internal/platform/timeouts"
	"github.com/payetonkawa/storefront/internal/services/storefront/app"
	"github.com/payetonkawa/storefront/internal/services/storefront/gateway"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	"github.com/payetonkawa/storefront/internal/services/storefront/modules"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/observability"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/ratelimit"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/requestmeta"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/weberror"
	"github.com/payetonkawa/storefront/internal/services/storefront/proxy"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
)

const serviceName = "storefront"

// Config defines startup inputs for the storefront service.
type Config struct {
	HTTPAddr        string
	CustomerBaseURL string
	ProductBaseURL  string
	OrderBaseURL    string

	Store StoreConfig

	TrustForwardedProto bool
	// IdleTTL evicts in-memory client state unused for that long.
	IdleTTL time.Duration
	// SweepInterval paces idle eviction and store maintenance.
	SweepInterval time.Duration
	// StateRetention drops durable client state untouched for that long.
	// Zero keeps it forever.
	StateRetention time.Duration

	LoginPerMinute int
	LoginBurst     int

	CacheEnabled bool
	CacheTTLs    querycache.TTLs

	Logger logrus.FieldLogger
	// HTTPClient overrides the backend client.
	HTTPClient *http.Client
}

// Server hosts the storefront HTTP surface and lifecycle.
type Server struct {
	httpAddr      string
	httpServer    *http.Server
	registry      *workspace.Registry
	store         storage.Store
	sweepInterval time.Duration
	log           logrus.FieldLogger
}

// Handler is a composed storefront handler with the per-client registry it
// serves from.
type Handler struct {
	http.Handler
	Registry *workspace.Registry
	Metrics  *observability.Metrics
}

// NewHandler composes the storefront routes over store.
func NewHandler(cfg Config, store storage.Store) (*Handler, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	policy := requestmeta.Policy{TrustForwardedProto: cfg.TrustForwardedProto}
	limiter := ratelimit.New(cfg.LoginPerMinute, cfg.LoginBurst)

	var registry *workspace.Registry
	metrics := observability.NewMetrics(func() int { return registry.Len() })
	registry = workspace.NewRegistry(store,
		workspace.WithIdleTTL(cfg.IdleTTL),
		workspace.WithLogger(logger),
		workspace.WithSessionEndedHook(metrics.SessionEnded),
		workspace.WithPersistErrorHook(metrics.PersistFailure),
		workspace.WithMaintenance(maintenance(store, limiter, cfg.StateRetention, logger)),
	)

	gw, err := gateway.New(gateway.Config{
		CustomerBaseURL: cfg.CustomerBaseURL,
		ProductBaseURL:  cfg.ProductBaseURL,
		OrderBaseURL:    cfg.OrderBaseURL,
	},
		gateway.WithHTTPClient(cfg.HTTPClient),
		gateway.WithObserver(metrics),
		gateway.WithUnauthorizedHook(workspace.ExpireOnUnauthorized),
	)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	var cache *querycache.Cache
	if cfg.CacheEnabled {
		cache = querycache.New(store, querycache.WithLogger(logger))
	}
	ttls := cfg.CacheTTLs
	if ttls.Products <= 0 {
		ttls.Products = querycache.DefaultProductTTL
	}
	if ttls.Orders <= 0 {
		ttls.Orders = querycache.DefaultOrderTTL
	}

	apiProxy, err := newAPIProxy(cfg, logger)
	if err != nil {
		registry.Close()
		return nil, err
	}

	deps := module.Dependencies{
		Reads:        querycache.NewReads(gw, cache, ttls),
		Policy:       policy,
		Logger:       logger,
		Cart:         metrics,
		LoginLimiter: limiter,
	}
	errs := weberror.Writer{Policy: policy, Logger: logger}
	clientState := workspace.Middleware(registry, policy, logger)

	root := mux.NewRouter()
	root.Use(metrics.Instrument, observability.RequestLogger(logger))
	mountSystemRoutes(root, systemRoutes{store: store, metrics: metrics.Handler()})
	features := append(modules.Default(deps), apiProxy)
	if _, err := app.Compose(root, app.ComposeInput{
		Modules: features,
		Middleware: []mux.MiddlewareFunc{
			mux.MiddlewareFunc(httpx.SameOriginForms(policy)),
			mux.MiddlewareFunc(clientState),
		},
	}); err != nil {
		registry.Close()
		return nil, fmt.Errorf("compose storefront: %w", err)
	}
	root.NotFoundHandler = clientState(http.HandlerFunc(errs.NotFound))

	handler := httpx.Chain(root,
		otelhttp.NewMiddleware(serviceName),
		httpx.RequestID(),
		httpx.RecoverPanic(logger),
	)
	return &Handler{Handler: handler, Registry: registry, Metrics: metrics}, nil
}

func newAPIProxy(cfg Config, logger logrus.FieldLogger) (*proxy.Handler, error) {
	targets := []struct {
		service string
		prefix  string
		raw     string
	}{
		{gateway.ServiceCustomers, "/api/customers", cfg.CustomerBaseURL},
		{gateway.ServiceProducts, "/api/products", cfg.ProductBaseURL},
		{gateway.ServiceOrders, "/api/orders", cfg.OrderBaseURL},
	}
	routes := make([]proxy.Route, 0, len(targets))
	for _, target := range targets {
		parsed, err := url.Parse(strings.TrimSpace(target.raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s base url: %w", target.service, err)
		}
		routes = append(routes, proxy.Route{Service: target.service, Prefix: target.prefix, Target: parsed})
	}
	var transport http.RoundTripper = otelhttp.NewTransport(http.DefaultTransport)
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		transport = cfg.HTTPClient.Transport
	}
	h, err := proxy.New(routes, transport, logger)
	if err != nil {
		return nil, fmt.Errorf("build api proxy: %w", err)
	}
	return h, nil
}

type stateJanitor interface {
	PurgeStaleState(ctx context.Context, cutoff time.Time) (int64, error)
}

type cacheJanitor interface {
	PurgeExpiredCache(ctx context.Context, now time.Time) (int64, error)
}

// maintenance prunes the login limiter and whatever the store can purge.
// Redis expires cache entries on its own and keeps state without expiry.
func maintenance(store storage.Store, limiter *ratelimit.Limiter, retention time.Duration, logger logrus.FieldLogger) func(context.Context, time.Time) {
	return func(ctx context.Context, now time.Time) {
		limiter.Cleanup()
		if janitor, ok := store.(cacheJanitor); ok {
			if _, err := janitor.PurgeExpiredCache(ctx, now); err != nil {
				logger.WithError(err).Warn("purge expired cache")
			}
		}
		if retention <= 0 {
			return
		}
		if janitor, ok := store.(stateJanitor); ok {
			removed, err := janitor.PurgeStaleState(ctx, now.Add(-retention))
			if err != nil {
				logger.WithError(err).Warn("purge stale client state")
				return
			}
			if removed > 0 {
				logger.WithField("removed", removed).Info("purged stale client state")
			}
		}
	}
}

// NewServer opens the configured store and builds a ready-to-run server.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
		cfg.Logger = logger
	}

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	handler, err := NewHandler(cfg, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
		registry:      handler.Registry,
		store:         store,
		sweepInterval: cfg.SweepInterval,
		log:           logger,
	}, nil
}

// ListenAndServe runs the HTTP server and the idle sweeper until the context
// ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("storefront server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.registry.Run(sweepCtx, s.sweepInterval)

	serveErr := make(chan error, 1)
	s.log.WithField("addr", s.httpAddr).Info("storefront listening")
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close flushes resident client state and releases the store.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.registry != nil {
		s.registry.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.WithError(err).Warn("close state store")
		}
	}
}
