package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

// CustomerService calls the customer service, which also issues tokens.
type CustomerService struct {
	client *Client
}

// Client exposes the underlying REST client.
func (s *CustomerService) Client() *Client { return s.client }

// Login exchanges credentials for a token.
func (s *CustomerService) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := s.client.do(ctx, http.MethodPost, "/auth/login", nil, creds, &out)
	return out, err
}

// Register creates an account and returns a token for it.
func (s *CustomerService) Register(ctx context.Context, registration domain.Registration) (domain.AuthResponse, error) {
	var out domain.AuthResponse
	err := s.client.do(ctx, http.MethodPost, "/auth/register", nil, registration, &out)
	return out, err
}

// Profile returns the identity behind the current token. The service wraps
// it as {"user": {...}}.
func (s *CustomerService) Profile(ctx context.Context) (domain.User, error) {
	var raw json.RawMessage
	if err := s.client.do(ctx, http.MethodGet, "/auth/profile", nil, nil, &raw); err != nil {
		return domain.User{}, err
	}
	payload := gjson.GetBytes(raw, "user")
	if !payload.Exists() {
		return domain.User{}, fmt.Errorf("%s: profile response has no user", s.client.service)
	}
	var user domain.User
	if err := json.Unmarshal([]byte(payload.Raw), &user); err != nil {
		return domain.User{}, fmt.Errorf("%s: decode profile: %w", s.client.service, err)
	}
	return user, nil
}

// Validate asks the service whether the current token is still valid.
func (s *CustomerService) Validate(ctx context.Context) (domain.TokenValidation, error) {
	var out domain.TokenValidation
	err := s.client.do(ctx, http.MethodPost, "/auth/validate", nil, nil, &out)
	return out, err
}

// List returns every customer (admin).
func (s *CustomerService) List(ctx context.Context) ([]domain.Customer, error) {
	var out []domain.Customer
	err := s.client.do(ctx, http.MethodGet, "/customers", nil, nil, &out)
	return out, err
}

// Get returns one customer.
func (s *CustomerService) Get(ctx context.Context, id int64) (domain.Customer, error) {
	var out domain.Customer
	err := s.client.do(ctx, http.MethodGet, "/customers/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

// Me returns the customer behind the current token.
func (s *CustomerService) Me(ctx context.Context) (domain.Customer, error) {
	var out domain.Customer
	err := s.client.do(ctx, http.MethodGet, "/customers/me", nil, nil, &out)
	return out, err
}

// UpdateMe patches the current customer.
func (s *CustomerService) UpdateMe(ctx context.Context, update domain.CustomerUpdate) (domain.Customer, error) {
	var out domain.Customer
	err := s.client.do(ctx, http.MethodPatch, "/customers/me", nil, update, &out)
	return out, err
}

// Create adds a customer (admin).
func (s *CustomerService) Create(ctx context.Context, registration domain.Registration) (domain.Customer, error) {
	var out domain.Customer
	err := s.client.do(ctx, http.MethodPost, "/customers", nil, registration, &out)
	return out, err
}

// Update patches a customer (admin).
func (s *CustomerService) Update(ctx context.Context, id int64, update domain.CustomerUpdate) (domain.Customer, error) {
	var out domain.Customer
	err := s.client.do(ctx, http.MethodPatch, "/customers/"+strconv.FormatInt(id, 10), nil, update, &out)
	return out, err
}

// Delete removes a customer (admin).
func (s *CustomerService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, http.MethodDelete, "/customers/"+strconv.FormatInt(id, 10), nil, nil, nil)
}
