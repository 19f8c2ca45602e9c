package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

// OrderService calls the order service.
type OrderService struct {
	client *Client
}

// Client exposes the underlying REST client.
func (s *OrderService) Client() *Client { return s.client }

func orderPath(id int64) string {
	return "/orders/" + strconv.FormatInt(id, 10)
}

// Create places an order.
func (s *OrderService) Create(ctx context.Context, order domain.NewOrder) (domain.Order, error) {
	var out domain.Order
	err := s.client.do(ctx, http.MethodPost, "/orders", nil, order, &out)
	return out, err
}

// List returns orders, filtered to customerID when it is non-zero.
func (s *OrderService) List(ctx context.Context, customerID int64) ([]domain.Order, error) {
	var query url.Values
	if customerID != 0 {
		query = url.Values{"customerId": []string{strconv.FormatInt(customerID, 10)}}
	}
	var out []domain.Order
	err := s.client.do(ctx, http.MethodGet, "/orders", query, nil, &out)
	return out, err
}

// ListByCustomer returns one customer's orders.
func (s *OrderService) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	var out []domain.Order
	err := s.client.do(ctx, http.MethodGet, "/orders/customer/"+strconv.FormatInt(customerID, 10), nil, nil, &out)
	return out, err
}

// ListByStatus returns orders in status (admin).
func (s *OrderService) ListByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	var out []domain.Order
	err := s.client.do(ctx, http.MethodGet, "/orders/status/"+url.PathEscape(string(status)), nil, nil, &out)
	return out, err
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	var out domain.Order
	err := s.client.do(ctx, http.MethodGet, orderPath(id), nil, nil, &out)
	return out, err
}

// Update patches an order.
func (s *OrderService) Update(ctx context.Context, id int64, update domain.OrderUpdate) (domain.Order, error) {
	var out domain.Order
	err := s.client.do(ctx, http.MethodPatch, orderPath(id), nil, update, &out)
	return out, err
}

// Delete removes an order (admin).
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, http.MethodDelete, orderPath(id), nil, nil, nil)
}

// Total returns the server-computed order total.
func (s *OrderService) Total(ctx context.Context, id int64) (decimal.Decimal, error) {
	var out struct {
		Total decimal.Decimal `json:"total"`
	}
	err := s.client.do(ctx, http.MethodGet, orderPath(id)+"/total", nil, nil, &out)
	return out.Total, err
}

// Confirm moves a pending order to confirmed.
func (s *OrderService) Confirm(ctx context.Context, id int64) (domain.Order, error) {
	var out domain.Order
	err := s.client.do(ctx, http.MethodPatch, orderPath(id)+"/confirm", nil, nil, &out)
	return out, err
}

// Cancel cancels an order.
func (s *OrderService) Cancel(ctx context.Context, id int64) (domain.Order, error) {
	var out domain.Order
	err := s.client.do(ctx, http.MethodPatch, orderPath(id)+"/cancel", nil, nil, &out)
	return out, err
}
