package gateway

import (
	"net/http"
)

// Config names the three backend roots.
type Config struct {
	CustomerBaseURL string
	ProductBaseURL  string
	OrderBaseURL    string
}

type options struct {
	httpClient     *http.Client
	observer       Observer
	onUnauthorized UnauthorizedHook
}

// Option customizes the gateway clients.
type Option func(*options)

// WithHTTPClient replaces the traced default client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithObserver records every backend call.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithUnauthorizedHook runs hook on every 401 answer.
func WithUnauthorizedHook(hook UnauthorizedHook) Option {
	return func(o *options) {
		o.onUnauthorized = hook
	}
}

// Gateway bundles the three service clients.
type Gateway struct {
	Customers *CustomerService
	Products  *ProductService
	Orders    *OrderService
}

// New builds the clients for cfg.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = NewHTTPClient()
	}

	customers, err := newClient(ServiceCustomers, cfg.CustomerBaseURL, o)
	if err != nil {
		return nil, err
	}
	products, err := newClient(ServiceProducts, cfg.ProductBaseURL, o)
	if err != nil {
		return nil, err
	}
	orders, err := newClient(ServiceOrders, cfg.OrderBaseURL, o)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		Customers: &CustomerService{client: customers},
		Products:  &ProductService{client: products},
		Orders:    &OrderService{client: orders},
	}, nil
}
