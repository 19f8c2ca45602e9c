// Package gateway holds the REST clients for the customer, product, and
// order services.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/payetonkawa/storefront/internal/platform/timeouts"
	apperrors "github.com/payetonkawa/storefront/internal/services/storefront/platform/errors"
)

const maxErrorBody = 64 << 10

// Service names used in errors, logs, and metrics.
const (
	ServiceCustomers = "customers"
	ServiceProducts  = "products"
	ServiceOrders    = "orders"
)

// TokenSource supplies the bearer token for a request. An empty token means
// the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

type tokenSourceKey struct{}

// WithTokenSource attaches the caller's credential holder to ctx.
func WithTokenSource(ctx context.Context, source TokenSource) context.Context {
	return context.WithValue(ctx, tokenSourceKey{}, source)
}

func tokenFromContext(ctx context.Context) string {
	source, ok := ctx.Value(tokenSourceKey{}).(TokenSource)
	if !ok || source == nil {
		return ""
	}
	return source.Token()
}

// Observer receives the outcome of every backend call.
type Observer interface {
	ObserveBackendCall(service, method string, status int, elapsed time.Duration)
}

// UnauthorizedHook runs when any backend answers 401, before the error is
// returned to the caller.
type UnauthorizedHook func(ctx context.Context)

// Client performs JSON requests against one backend base URL.
type Client struct {
	service        string
	baseURL        *url.URL
	http           *http.Client
	observer       Observer
	onUnauthorized UnauthorizedHook
}

func newClient(service, baseURL string, opts options) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("%s base url is required", service)
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%s base url %q is invalid", service, baseURL)
	}
	return &Client{
		service:        service,
		baseURL:        parsed,
		http:           opts.httpClient,
		observer:       opts.observer,
		onUnauthorized: opts.onUnauthorized,
	}, nil
}

// BaseURL returns the service root.
func (c *Client) BaseURL() *url.URL {
	copied := *c.baseURL
	return &copied
}

// Service returns the service name.
func (c *Client) Service() string {
	return c.service
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.BaseURL()
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one request. in is JSON-encoded when non-nil; out is decoded from
// a 2xx body when non-nil. Non-2xx answers become typed errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.service, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, 0, started)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s %s: %w", c.service, method, path, ctxErr)
		}
		return apperrors.Wrap(apperrors.KindUnavailable, unavailableMessage, fmt.Errorf("%s %s %s: %w", c.service, method, path, err))
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, started)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := c.statusError(method, path, resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperrors.Wrap(apperrors.KindUnavailable, unavailableMessage, fmt.Errorf("%s: decode response: %w", c.service, err))
	}
	return nil
}

func (c *Client) observe(method string, status int, started time.Time) {
	if c.observer != nil {
		c.observer.ObserveBackendCall(c.service, method, status, time.Since(started))
	}
}

const unavailableMessage = "Le service est momentanément indisponible. Veuillez réessayer."

// statusError builds the typed error for a non-2xx answer. The backend
// message is shown to users for client errors; server errors get a generic
// message.
func (c *Client) statusError(method, path string, status int, body []byte) error {
	kind := apperrors.KindForStatus(status)
	cause := fmt.Errorf("%s %s %s: status %d: %s", c.service, method, path, status, strings.TrimSpace(string(body)))
	message := ExtractMessage(body)
	switch {
	case kind == apperrors.KindUnauthorized:
		message = "Votre session a expiré. Veuillez vous reconnecter."
	case kind == apperrors.KindUnavailable || message == "":
		message = defaultMessage(kind)
	}
	return apperrors.Error{Kind: kind, Key: c.service + "." + string(kind), Message: message, Err: cause}
}

// ExtractMessage reads the "message" field of an error body. Validation
// errors carry an array of messages, which are joined.
func ExtractMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	result := gjson.GetBytes(body, "message")
	if result.IsArray() {
		parts := make([]string, 0, len(result.Array()))
		for _, item := range result.Array() {
			if text := strings.TrimSpace(item.String()); text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, ", ")
	}
	if message := strings.TrimSpace(result.String()); message != "" {
		return message
	}
	return strings.TrimSpace(gjson.GetBytes(body, "error").String())
}

func defaultMessage(kind apperrors.Kind) string {
	switch kind {
	case apperrors.KindNotFound:
		return "Ressource introuvable."
	case apperrors.KindForbidden:
		return "Accès refusé."
	case apperrors.KindInvalidInput:
		return "Requête invalide."
	case apperrors.KindConflict:
		return "Conflit avec l'état actuel."
	case apperrors.KindRateLimited:
		return "Trop de requêtes. Veuillez patienter."
	case apperrors.KindUnavailable:
		return unavailableMessage
	default:
		return "Une erreur inattendue est survenue."
	}
}

// NewHTTPClient returns the traced client used for backend calls. Requests
// are bounded by timeouts.BackendRequest.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   timeouts.BackendRequest,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
