package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payetonkawa/storefront/internal/platform/logging"
	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/ratelimit"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/state"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace/workspacetest"
	"github.com/payetonkawa/storefront/internal/testkit/backendfake"
)

const customerJSON = `{"id":7,"firstName":"Jeanne","lastName":"Martin","email":"jeanne@example.com","role":"customer",
	"address":"12 rue des Lilas","city":"Lyon","postalCode":"69001","country":"France"}`

type fixture struct {
	router  *mux.Router
	env     *workspacetest.Env
	ws      *workspace.Workspace
	backend *backendfake.Backend
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	backend := backendfake.New(t)
	router := mux.NewRouter()
	require.NoError(t, New(module.Dependencies{
		Reads:        backend.Reads(t),
		Logger:       logging.Discard(),
		LoginLimiter: limiter,
	}).Mount(router))
	env := workspacetest.New(t)
	return &fixture{router: router, env: env, ws: env.Workspace(t), backend: backend}
}

func (f *fixture) do(t *testing.T, method, target string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if values != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, f.env.Bind(t, req))
	return rec
}

func (f *fixture) signIn(t *testing.T) {
	t.Helper()
	f.ws.Session.Login(context.Background(), domain.User{ID: 7, Email: "jeanne@example.com"}, "tok-7")
}

func TestModuleID(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "account", New(module.Dependencies{}).ID())
}

func TestLoginSuccessArmsSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.backend.JSON("POST /auth/login", http.StatusOK, `{"access_token":"tok-7","user":{"id":7,"email":"jeanne@example.com","role":"customer"}}`)

	rec := f.do(t, http.MethodPost, "/login", url.Values{
		"email":    {"jeanne@example.com"},
		"password": {"secret123"},
		"next":     {"/checkout"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/checkout", rec.Header().Get("Location"))
	assert.Equal(t, session.StatusSignedIn, f.ws.Session.Status())
	assert.Equal(t, "tok-7", f.ws.Credentials().Token())
	call, ok := f.backend.Find(http.MethodPost, "/auth/login")
	require.True(t, ok)
	assert.JSONEq(t, `{"email":"jeanne@example.com","password":"secret123"}`, call.Body)

	raw, ok, err := f.env.Store.GetState(context.Background(), workspacetest.ClientID, state.CredentialKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tok-7", string(raw))
}

func TestLoginRejectedCredentials(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.backend.JSON("POST /auth/login", http.StatusUnauthorized, `{"message":"Invalid credentials","statusCode":401}`)

	rec := f.do(t, http.MethodPost, "/login", url.Values{"email": {"jeanne@example.com"}, "password": {"wrong-pass"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), invalidCredentialsMessage)
	assert.Contains(t, rec.Body.String(), `value="jeanne@example.com"`)
	assert.Equal(t, session.StatusSignedOut, f.ws.Session.Status())
}

func TestLoginValidationSkipsBackend(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/login", url.Values{"email": {"not-an-email"}, "password": {"123"}})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email invalide")
	assert.Empty(t, f.backend.Calls())
}

func TestLoginRateLimited(t *testing.T) {
	t.Parallel()
	f := newFixture(t, ratelimit.New(1, 1))
	f.backend.JSON("POST /auth/login", http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	values := url.Values{"email": {"jeanne@example.com"}, "password": {"wrong-pass"}}

	first := f.do(t, http.MethodPost, "/login", values)
	assert.Equal(t, http.StatusUnauthorized, first.Code)

	second := f.do(t, http.MethodPost, "/login", values)
	assert.Equal(t, http.StatusSeeOther, second.Code)
	assert.Len(t, f.backend.Calls(), 1)
}

func TestLoginPageRedirectsWhenSignedIn(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	page := f.do(t, http.MethodGet, "/login?next=/orders", nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `name="next" value="/orders"`)

	f.signIn(t)
	rec := f.do(t, http.MethodGet, "/login?next=/orders", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
}

func TestRegisterThenSignedIn(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.backend.JSON("POST /auth/register", http.StatusCreated, `{"user":{"id":8,"email":"paul@example.com"}}`)
	f.backend.JSON("POST /auth/login", http.StatusOK, `{"access_token":"tok-8","user":{"id":8,"email":"paul@example.com"}}`)

	rec := f.do(t, http.MethodPost, "/register", url.Values{
		"firstName":       {"Paul"},
		"lastName":        {"Durand"},
		"email":           {"paul@example.com"},
		"password":        {"secret123"},
		"confirmPassword": {"secret123"},
		"address":         {"3 place Bellecour"},
		"city":            {"Lyon"},
		"postalCode":      {"69002"},
		"country":         {"France"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "tok-8", f.ws.Credentials().Token())
	call, ok := f.backend.Find(http.MethodPost, "/auth/register")
	require.True(t, ok)
	assert.NotContains(t, call.Body, "confirmPassword")
}

func TestRegisterMismatchedPasswords(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/register", url.Values{
		"firstName":       {"Paul"},
		"lastName":        {"Durand"},
		"email":           {"paul@example.com"},
		"password":        {"secret123"},
		"confirmPassword": {"secret124"},
		"address":         {"3 place Bellecour"},
		"city":            {"Lyon"},
		"postalCode":      {"69002"},
		"country":         {"France"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Les mots de passe ne correspondent pas")
	assert.NotContains(t, rec.Body.String(), "secret123")
}

func TestRegisterConflictShowsBackendMessage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.backend.JSON("POST /auth/register", http.StatusConflict, `{"message":"Cet email est déjà utilisé","statusCode":409}`)

	rec := f.do(t, http.MethodPost, "/register", url.Values{
		"firstName":       {"Paul"},
		"lastName":        {"Durand"},
		"email":           {"paul@example.com"},
		"password":        {"secret123"},
		"confirmPassword": {"secret123"},
		"address":         {"3 place Bellecour"},
		"city":            {"Lyon"},
		"postalCode":      {"69002"},
		"country":         {"France"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cet email est déjà utilisé")
}

func TestLogoutEndsSessionAndClearsCart(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.signIn(t)
	f.ws.Cart.AddItem(domain.Product{ID: 1, Label: "Kawa"}, 2)

	rec := f.do(t, http.MethodPost, "/logout", url.Values{})

	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, session.StatusSignedOut, f.ws.Session.Status())
	assert.Empty(t, f.ws.Credentials().Token())
	assert.True(t, f.ws.Cart.Snapshot().IsEmpty())
}

func TestProfileRequiresSignIn(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/profile", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fprofile", rec.Header().Get("Location"))
	assert.Empty(t, f.backend.Calls())
}

func TestProfileShowsCustomer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.signIn(t)
	f.backend.JSON("GET /customers/me", http.StatusOK, customerJSON)

	rec := f.do(t, http.MethodGet, "/profile", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Jeanne Martin")
	assert.Contains(t, rec.Body.String(), "12 rue des Lilas, Lyon 69001, France")
	call, ok := f.backend.Find(http.MethodGet, "/customers/me")
	require.True(t, ok)
	assert.Equal(t, "Bearer tok-7", call.Authorization)
}

func TestProfileUpdateMergesUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.signIn(t)
	f.backend.JSON("PATCH /customers/me", http.StatusOK, strings.Replace(customerJSON, "jeanne@example.com", "jeanne.m@example.com", 1))

	rec := f.do(t, http.MethodPost, "/profile", url.Values{
		"firstName":  {"Jeanne"},
		"lastName":   {"Martin"},
		"email":      {"jeanne.m@example.com"},
		"address":    {"12 rue des Lilas"},
		"city":       {"Lyon"},
		"postalCode": {"69001"},
		"country":    {"France"},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile", rec.Header().Get("Location"))
	user := f.ws.Session.Snapshot().User
	require.NotNil(t, user)
	assert.Equal(t, "jeanne.m@example.com", user.Email)
	assert.Equal(t, int64(7), user.ID)
}

func TestSessionEndpoint(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	f.ws.Cart.AddItem(domain.Product{ID: 1, Label: "Kawa"}, 2)

	rec := f.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "signed_out", payload["status"])
	assert.Equal(t, false, payload["isAuthenticated"])
	assert.EqualValues(t, 2, payload["cartItems"])
	assert.NotContains(t, payload, "user")

	f.signIn(t)
	rec = f.do(t, http.MethodGet, "/api/session", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, true, payload["isAuthenticated"])
	assert.Equal(t, "jeanne@example.com", payload["user"].(map[string]any)["email"])
}

func TestClientKey(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "203.0.113.9:5123"
	assert.Equal(t, "203.0.113.9", clientKey(req))
	req.RemoteAddr = "bogus"
	assert.Equal(t, "bogus", clientKey(req))
}
