package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
)

// ProductService calls the product service.
type ProductService struct {
	client *Client
}

// Client exposes the underlying REST client.
func (s *ProductService) Client() *Client { return s.client }

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

// List returns the full catalog.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.client.do(ctx, http.MethodGet, "/products", nil, nil, &out)
	return out, err
}

// ListByPriceRange returns products priced within [min, max].
func (s *ProductService) ListByPriceRange(ctx context.Context, min, max decimal.Decimal) ([]domain.Product, error) {
	query := url.Values{}
	query.Set("minPrice", min.String())
	query.Set("maxPrice", max.String())
	var out []domain.Product
	err := s.client.do(ctx, http.MethodGet, "/products", query, nil, &out)
	return out, err
}

// Get returns one product.
func (s *ProductService) Get(ctx context.Context, id int64) (domain.Product, error) {
	var out domain.Product
	err := s.client.do(ctx, http.MethodGet, productPath(id), nil, nil, &out)
	return out, err
}

type stockBody struct {
	Stock int `json:"stock"`
}

// Stock returns the live stock level of a product.
func (s *ProductService) Stock(ctx context.Context, id int64) (int, error) {
	var out stockBody
	err := s.client.do(ctx, http.MethodGet, productPath(id)+"/stock", nil, nil, &out)
	return out.Stock, err
}

// UpdateStock sets the stock level of a product.
func (s *ProductService) UpdateStock(ctx context.Context, id int64, stock int) (int, error) {
	var out stockBody
	err := s.client.do(ctx, http.MethodPatch, productPath(id)+"/stock", nil, stockBody{Stock: stock}, &out)
	return out.Stock, err
}

// Create adds a product (admin).
func (s *ProductService) Create(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	var out domain.Product
	err := s.client.do(ctx, http.MethodPost, "/products", nil, draft, &out)
	return out, err
}

// Update patches a product (admin).
func (s *ProductService) Update(ctx context.Context, id int64, update domain.ProductUpdate) (domain.Product, error) {
	var out domain.Product
	err := s.client.do(ctx, http.MethodPatch, productPath(id), nil, update, &out)
	return out, err
}

// Delete removes a product (admin).
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.client.do(ctx, http.MethodDelete, productPath(id), nil, nil, nil)
}

// Seed asks the product service to load its sample catalog (admin).
func (s *ProductService) Seed(ctx context.Context) (domain.SeedResult, error) {
	var out domain.SeedResult
	err := s.client.do(ctx, http.MethodPost, "/products/seed", nil, nil, &out)
	return out, err
}
