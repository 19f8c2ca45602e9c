package catalog

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/modulehandler"
	"github.com/payetonkawa/storefront/internal/services/storefront/querycache"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
)

// featuredCount is how many products the home page shows.
const featuredCount = 4

type handlers struct {
	modulehandler.Base
	reads *querycache.Reads
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{
		Base:  modulehandler.NewBase(deps.Policy, deps.Logger),
		reads: deps.Reads,
	}
}

func (h handlers) handleHome(w http.ResponseWriter, r *http.Request) {
	products, err := h.reads.Products(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	h.WritePage(w, r, "", http.StatusOK, templates.Home(templates.HomeView{Featured: featured(products)}))
}

func featured(products []domain.Product) []domain.Product {
	out := make([]domain.Product, 0, featuredCount)
	for _, product := range products {
		if len(out) == featuredCount {
			break
		}
		if product.InStock() {
			out = append(out, product)
		}
	}
	return out
}

func (h handlers) handleProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view := templates.ProductsView{
		Query:    strings.TrimSpace(query.Get("q")),
		MinPrice: strings.TrimSpace(query.Get("minPrice")),
		MaxPrice: strings.TrimSpace(query.Get("maxPrice")),
	}
	prices := domain.PriceRange{Min: parsePrice(view.MinPrice), Max: parsePrice(view.MaxPrice)}
	view.Filtered = view.Query != "" || prices.Min != nil || prices.Max != nil

	var (
		products []domain.Product
		err      error
	)
	if prices.Bounded() {
		products, err = h.reads.ProductsInRange(r.Context(), *prices.Min, *prices.Max)
	} else {
		products, err = h.reads.Products(r.Context())
	}
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	view.Products = domain.FilterProducts(products, view.Query, prices)
	h.WritePage(w, r, "Nos produits", http.StatusOK, templates.ProductList(view))
}

// parsePrice reads an optional non-negative bound. Malformed input is
// ignored rather than rejected.
func parsePrice(raw string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil || value.IsNegative() {
		return nil
	}
	return &value
}

func (h handlers) handleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := modulehandler.PathID(r)
	if !ok {
		h.WriteNotFound(w, r)
		return
	}
	product, err := h.reads.Product(r.Context(), id)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	view := templates.ProductView{Product: product}
	if ws, err := h.Workspace(r); err == nil {
		if line, ok := ws.Cart.Snapshot().Line(id); ok {
			view.InCart = line.Quantity
		}
	}
	h.WritePage(w, r, product.Label, http.StatusOK, templates.ProductDetail(view))
}
