// Package storefront parses the storefront command configuration and runs
// the server.
package storefront

import (
	"context"
	"flag"
	"fmt"
	"time"

	entrypoint "github.com/payetonkawa/storefront/internal/platform/cmd"
	"github.com/payetonkawa/storefront/internal/platform/logging"
	server "github.com/payetonkawa/storefront/internal/services/storefront"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
	"github.com/payetonkawa/storefront/internal/services/storefront/storage/redis"
)

// Config holds the storefront command configuration.
type Config struct {
	HTTPAddr        string `env:"STOREFRONT_HTTP_ADDR" envDefault:"localhost:3000"`
	CustomerBaseURL string `env:"STOREFRONT_CUSTOMER_API_URL" envDefault:"http://localhost:3001"`
	ProductBaseURL  string `env:"STOREFRONT_PRODUCT_API_URL" envDefault:"http://localhost:3002"`
	OrderBaseURL    string `env:"STOREFRONT_ORDER_API_URL" envDefault:"http://localhost:3003"`

	StoreBackend  string `env:"STOREFRONT_STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath    string `env:"STOREFRONT_SQLITE_PATH" envDefault:"data/storefront.db"`
	RedisAddr     string `env:"STOREFRONT_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"STOREFRONT_REDIS_PASSWORD"`
	RedisDB       int    `env:"STOREFRONT_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"STOREFRONT_REDIS_PREFIX" envDefault:"storefront"`

	LogLevel  string `env:"STOREFRONT_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"STOREFRONT_LOG_FORMAT" envDefault:"json"`

	TrustForwardedProto bool          `env:"STOREFRONT_TRUST_FORWARDED_PROTO" envDefault:"false"`
	IdleTTL             time.Duration `env:"STOREFRONT_CLIENT_IDLE_TTL" envDefault:"30m"`
	SweepInterval       time.Duration `env:"STOREFRONT_SWEEP_INTERVAL" envDefault:"1m"`
	StateRetention      time.Duration `env:"STOREFRONT_STATE_RETENTION" envDefault:"720h"`
	LoginPerMinute      int           `env:"STOREFRONT_LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	LoginBurst          int           `env:"STOREFRONT_LOGIN_RATE_BURST" envDefault:"5"`

	CacheEnabled bool          `env:"STOREFRONT_CACHE_ENABLED" envDefault:"true"`
	ProductTTL   time.Duration `env:"STOREFRONT_CACHE_PRODUCT_TTL" envDefault:"5m"`
	OrderTTL     time.Duration `env:"STOREFRONT_CACHE_ORDER_TTL" envDefault:"2m"`
}

// ParseConfig loads env defaults into a Config and lets flags override them.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.CustomerBaseURL, "customer-api-url", cfg.CustomerBaseURL, "Customer service base URL")
	fs.StringVar(&cfg.ProductBaseURL, "product-api-url", cfg.ProductBaseURL, "Product service base URL")
	fs.StringVar(&cfg.OrderBaseURL, "order-api-url", cfg.OrderBaseURL, "Order service base URL")
	fs.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "Client state backend (sqlite or redis)")
	fs.StringVar(&cfg.SQLitePath, "sqlite-path", cfg.SQLitePath, "SQLite database path")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json or text)")
	fs.BoolVar(&cfg.CacheEnabled, "cache", cfg.CacheEnabled, "Cache catalog and order reads")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) serverConfig() server.Config {
	return server.Config{
		HTTPAddr:        c.HTTPAddr,
		CustomerBaseURL: c.CustomerBaseURL,
		ProductBaseURL:  c.ProductBaseURL,
		OrderBaseURL:    c.OrderBaseURL,
		Store: server.StoreConfig{
			Backend:    c.StoreBackend,
			SQLitePath: c.SQLitePath,
			Redis: redis.Config{
				Addr:     c.RedisAddr,
				Password: c.RedisPassword,
				DB:       c.RedisDB,
				Prefix:   c.RedisPrefix,
			},
		},
		TrustForwardedProto: c.TrustForwardedProto,
		IdleTTL:             c.IdleTTL,
		SweepInterval:       c.SweepInterval,
		StateRetention:      c.StateRetention,
		LoginPerMinute:      c.LoginPerMinute,
		LoginBurst:          c.LoginBurst,
		CacheEnabled:        c.CacheEnabled,
		CacheTTLs:           querycache.TTLs{Products: c.ProductTTL, Orders: c.OrderTTL},
	}
}

// Run starts the storefront server and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: logging.Format(cfg.LogFormat)})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.WithField("service", entrypoint.ServiceStorefront)

	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceStorefront, entrypoint.RunOptions{Logger: log}, func(ctx context.Context) error {
		serverCfg := cfg.serverConfig()
		serverCfg.Logger = log
		srv, err := server.NewServer(ctx, serverCfg)
		if err != nil {
			return fmt.Errorf("init storefront server: %w", err)
		}
		defer srv.Close()

		if err := srv.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve storefront: %w", err)
		}
		return nil
	})
}
