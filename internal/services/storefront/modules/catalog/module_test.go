package catalog

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payetonkawa/storefront/internal/platform/logging"
	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace/workspacetest"
	"github.com/payetonkawa/storefront/internal/testkit/backendfake"
)

const catalogJSON = `[
	{"id":1,"label":"Arabica Éthiopie","description":"Notes florales","price":12.5,"stock":10},
	{"id":2,"label":"Robusta Vietnam","description":"Corsé","price":"8.90","stock":0},
	{"id":3,"label":"Moka Yémen","description":"Chocolaté","price":24,"stock":2}
]`

func mountCatalog(t *testing.T, backend *backendfake.Backend) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	require.NoError(t, New(module.Dependencies{
		Reads:  backend.Reads(t),
		Logger: logging.Discard(),
	}).Mount(router))
	return router
}

func serve(router *mux.Router, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestModuleID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "catalog", New(module.Dependencies{}).ID())
}

func TestHomeShowsInStockProducts(t *testing.T) {
	t.Parallel()
	backend := backendfake.New(t)
	backend.JSON("GET /products", http.StatusOK, catalogJSON)

	rec := serve(mountCatalog(t, backend), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Arabica Éthiopie")
	assert.Contains(t, body, "Moka Yémen")
	assert.NotContains(t, body, "Robusta Vietnam")
}

func TestProductsSearch(t *testing.T) {
	t.Parallel()
	backend := backendfake.New(t)
	backend.JSON("GET /products", http.StatusOK, catalogJSON)

	rec := serve(mountCatalog(t, backend), httptest.NewRequest(http.MethodGet, "/products?q=Y%C3%89MEN", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Moka Yémen")
	assert.NotContains(t, body, "Arabica")
	assert.Contains(t, body, "1 produit(s)")
	assert.Contains(t, body, "Effacer les filtres")
}

func TestProductsSingleBoundFiltersLocally(t *testing.T) {
	t.Parallel()
	backend := backendfake.New(t)
	backend.JSON("GET /products", http.StatusOK, catalogJSON)

	rec := serve(mountCatalog(t, backend), httptest.NewRequest(http.MethodGet, "/products?minPrice=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Arabica")
	assert.Contains(t, body, "Moka")
	assert.NotContains(t, body, "Robusta")
	call, ok := backend.Find(http.MethodGet, "/products")
	require.True(t, ok)
	assert.Empty(t, call.Query)
}

func TestProductsBothBoundsUseRangeEndpoint(t *testing.T) {
	t.Parallel()
	backend := backendfake.New(t)
	backend.JSON("GET /products", http.StatusOK, `[{"id":2,"label":"Robusta Vietnam","price":8.9,"stock":0}]`)

	rec := serve(mountCatalog(t, backend), httptest.NewRequest(http.MethodGet, "/products?minPrice=5&maxPrice=9,50", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Robusta Vietnam")
	call, ok := backend.Find(http.MethodGet, "/products")
	require.True(t, ok)
	assert.Equal(t, "maxPrice=9.5&minPrice=5", call.Query)
}

func TestProductsBackendDownShowsRetry(t *testing.T) {
	t.Parallel()
	backend := backendfake.New(t)
	backend.JSON("GET /products", http.StatusServiceUnavailable, `{"message":"down"}`)

	rec := serve(mountCatalog(t, backend), httptest.NewRequest(http.MethodGet, "/products", nil))

	assert.GreaterOrEqual(t, rec.Code, http.StatusInternalServerError)
	assert.Contains(t, rec.Body.String(), `href="/products"`)
	assert.Contains(t, rec.Body.String(), "Réessayer")
}

func TestProductDetailCountsCartQuantity(t *testing.T) {
	t.Parallel()
	backend := backendfake.New(t)
	backend.JSON("GET /products/3", http.StatusOK, `{"id":3,"label":"Moka Yémen","price":24,"stock":5}`)
	env := workspacetest.New(t)
	ws := env.Workspace(t)
	ws.Cart.AddItem(domain.Product{ID: 3, Label: "Moka Yémen", Price: decimal.NewFromInt(24), Stock: 5}, 2)

	req := env.Bind(t, httptest.NewRequest(http.MethodGet, "/products/3", nil))
	rec := serve(mountCatalog(t, backend), req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Moka Yémen | PayeTonKawa</title>")
	assert.Contains(t, body, "Déjà 2 dans votre panier.")
	assert.Contains(t, body, `max="3"`)
}

func TestProductDetailNotFound(t *testing.T) {
	t.Parallel()
	backend := backendfake.New(t)
	backend.JSON("GET /products/42", http.StatusNotFound, `{"message":"Product not found","statusCode":404}`)

	rec := serve(mountCatalog(t, backend), httptest.NewRequest(http.MethodGet, "/products/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page introuvable")
}

func TestParsePrice(t *testing.T) {
	t.Parallel()
	assert.Nil(t, parsePrice(""))
	assert.Nil(t, parsePrice("abc"))
	assert.Nil(t, parsePrice("-3"))
	got := parsePrice("12,5")
	require.NotNil(t, got)
	assert.True(t, got.Equal(decimal.RequireFromString("12.5")))
}
