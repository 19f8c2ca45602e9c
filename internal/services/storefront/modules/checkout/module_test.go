package checkout

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payetonkawa/storefront/internal/platform/logging"
	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	"github.com/payetonkawa/storefront/internal/services/storefront/state"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace/workspacetest"
	"github.com/payetonkawa/storefront/internal/testkit/backendfake"
)

type fixture struct {
	router  *mux.Router
	env     *workspacetest.Env
	ws      *workspace.Workspace
	backend *backendfake.Backend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := backendfake.New(t)
	router := mux.NewRouter()
	require.NoError(t, New(module.Dependencies{
		Reads:  backend.Reads(t),
		Logger: logging.Discard(),
	}).Mount(router))
	env := workspacetest.New(t)
	return &fixture{router: router, env: env, ws: env.Workspace(t), backend: backend}
}

func (f *fixture) do(t *testing.T, method string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if values != nil {
		body = strings.NewReader(values.Encode())
	}
	req := httptest.NewRequest(method, "/checkout", body)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, f.env.Bind(t, req))
	return rec
}

func (f *fixture) fillCart() {
	f.ws.Cart.AddItem(domain.Product{ID: 1, Label: "Arabica", Price: decimal.RequireFromString("10.00"), Stock: 9}, 2)
	f.ws.Cart.AddItem(domain.Product{ID: 2, Label: "Robusta", Price: decimal.RequireFromString("5.00"), Stock: 9}, 1)
}

func validForm() url.Values {
	return url.Values{
		"address":        {"12 rue des Lilas"},
		"city":           {"Lyon"},
		"postalCode":     {"69001"},
		"country":        {"France"},
		"cardNumber":     {"4242 4242 4242 4242"},
		"expiryDate":     {"12/29"},
		"cvv":            {"123"},
		"cardholderName": {"Jeanne Martin"},
	}
}

func TestModuleID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "checkout", New(module.Dependencies{}).ID())
}

func TestCheckoutRequiresSignIn(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fillCart()

	rec := f.do(t, http.MethodGet, nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fcheckout", rec.Header().Get("Location"))
}

func TestCheckoutEmptyCartRedirects(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.ws.Session.Login(context.Background(), domain.User{ID: 7}, "tok-7")

	rec := f.do(t, http.MethodGet, nil)

	assert.Equal(t, "/cart", rec.Header().Get("Location"))
}

func TestCheckoutPagePrefillsAddress(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fillCart()
	f.ws.Session.Login(context.Background(), domain.User{ID: 7}, "tok-7")
	f.backend.JSON("GET /customers/me", http.StatusOK, `{"id":7,"address":"12 rue des Lilas","city":"Lyon","postalCode":"69001","country":"France"}`)

	rec := f.do(t, http.MethodGet, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `value="12 rue des Lilas"`)
	assert.Contains(t, body, "25,00")
}

func TestCheckoutPlacesOrderAndClearsCart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fillCart()
	f.ws.Session.Login(context.Background(), domain.User{ID: 7, Email: "jeanne@example.com"}, "tok-7")
	f.backend.JSON("POST /orders", http.StatusCreated, `{"id":31,"customerId":7,"status":"pending","totalAmount":25,"items":[]}`)

	rec := f.do(t, http.MethodPost, validForm())

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/orders/31", rec.Header().Get("Location"))
	assert.True(t, f.ws.Cart.Snapshot().IsEmpty())

	call, ok := f.backend.Find(http.MethodPost, "/orders")
	require.True(t, ok)
	assert.Equal(t, "Bearer tok-7", call.Authorization)
	var sent domain.NewOrder
	require.NoError(t, json.Unmarshal([]byte(call.Body), &sent))
	assert.Equal(t, int64(7), sent.CustomerID)
	require.Len(t, sent.Items, 2)
	assert.Equal(t, 2, sent.Items[0].Quantity)
	assert.True(t, sent.Items[0].UnitPrice.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "12 rue des Lilas, Lyon 69001, France", sent.ShippingAddress)
	assert.Equal(t, sent.ShippingAddress, sent.BillingAddress)
	assert.Equal(t, "Paiement par carte se terminant par 4242", sent.Notes)
	assert.NotContains(t, call.Body, "123")

	raw, ok, err := f.env.Store.GetState(context.Background(), workspacetest.ClientID, state.CartKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"items":[]}`, string(raw))
}

func TestCheckoutResolvesUnknownUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fillCart()
	f.ws.Session.Login(context.Background(), domain.User{}, "tok-9")
	f.backend.JSON("GET /auth/profile", http.StatusOK, `{"user":{"id":9,"email":"paul@example.com"}}`)
	f.backend.JSON("POST /orders", http.StatusCreated, `{"id":32,"customerId":9,"status":"pending","items":[]}`)

	rec := f.do(t, http.MethodPost, validForm())

	assert.Equal(t, "/orders/32", rec.Header().Get("Location"))
	call, ok := f.backend.Find(http.MethodPost, "/orders")
	require.True(t, ok)
	assert.Contains(t, call.Body, `"customerId":9`)
	user := f.ws.Session.Snapshot().User
	require.NotNil(t, user)
	assert.Equal(t, int64(9), user.ID)
}

func TestCheckoutValidationKeepsCartAndScrubsCard(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fillCart()
	f.ws.Session.Login(context.Background(), domain.User{ID: 7}, "tok-7")
	form := validForm()
	form.Set("postalCode", "69")
	form.Set("cvv", "9876")

	rec := f.do(t, http.MethodPost, form)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Le code postal doit contenir 5 chiffres")
	assert.NotContains(t, body, "4242 4242")
	assert.NotContains(t, body, "9876")
	assert.Equal(t, 3, f.ws.Cart.TotalItems())
	_, called := f.backend.Find(http.MethodPost, "/orders")
	assert.False(t, called)
}

func TestCheckoutBackendFailureKeepsCart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fillCart()
	f.ws.Session.Login(context.Background(), domain.User{ID: 7}, "tok-7")
	f.backend.JSON("POST /orders", http.StatusInternalServerError, `{"message":"boom"}`)

	rec := f.do(t, http.MethodPost, validForm())

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, 3, f.ws.Cart.TotalItems())
}
