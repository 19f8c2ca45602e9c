package account

import (
	"net"
	"net/http"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	"github.com/payetonkawa/storefront/internal/services/storefront/forms"
	"github.com/payetonkawa/storefront/internal/services/storefront/gateway"
	"github.com/payetonkawa/storefront/internal/services/storefront/module"
	apperrors "github.com/payetonkawa/storefront/internal/services/storefront/platform/errors"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/flash"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/modulehandler"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/ratelimit"
	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
)

const (
	invalidCredentialsMessage = "Email ou mot de passe incorrect."
	rateLimitedMessage        = "Trop de tentatives. Réessayez dans une minute."
)

var errRateLimited = apperrors.EK(apperrors.KindRateLimited, "account.rate_limited", rateLimitedMessage)

type handlers struct {
	modulehandler.Base
	customers *gateway.CustomerService
	limiter   *ratelimit.Limiter
}

func newHandlers(deps module.Dependencies) handlers {
	return handlers{
		Base:      modulehandler.NewBase(deps.Policy, deps.Logger),
		customers: deps.Reads.Gateway().Customers,
		limiter:   deps.LoginLimiter,
	}
}

func nextTarget(raw string) string {
	if !routepath.IsLocal(raw) {
		return routepath.Root
	}
	return raw
}

func (h handlers) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := nextTarget(r.URL.Query().Get(routepath.NextQueryKey))
	if ws, err := h.Workspace(r); err == nil && ws.Session.Status() == session.StatusSignedIn {
		httpx.WriteRedirect(w, r, next)
		return
	}
	view := templates.LoginView{}
	if next != routepath.Root {
		view.Next = next
	}
	h.WritePage(w, r, "Connexion", http.StatusOK, templates.LoginPage(view))
}

func (h handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	form := forms.ParseLogin(r)
	next := nextTarget(forms.Value(r, routepath.NextQueryKey))
	view := templates.LoginView{Email: form.Email}
	if next != routepath.Root {
		view.Next = next
	}
	if errs := form.Validate(); !errs.Empty() {
		view.Errors = errs
		h.WritePage(w, r, "Connexion", http.StatusUnprocessableEntity, templates.LoginPage(view))
		return
	}
	if !h.limiter.Allow(clientKey(r)) {
		h.WriteError(w, r, errRateLimited)
		return
	}

	auth, err := h.customers.Login(r.Context(), form.Credentials())
	if err != nil {
		if apperrors.Is(err, apperrors.KindUnauthorized) || apperrors.Is(err, apperrors.KindInvalidInput) {
			view.Errors = forms.Errors{"form": invalidCredentialsMessage}
			h.WritePage(w, r, "Connexion", http.StatusUnauthorized, templates.LoginPage(view))
			return
		}
		h.WriteError(w, r, err)
		return
	}
	ws.Session.Login(r.Context(), auth.User, auth.AccessToken)
	h.Logger().WithField("customer_id", auth.User.ID).Info("customer signed in")
	h.Notify(w, r, flash.Success("Connexion réussie. Bienvenue !"), next)
}

func (h handlers) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if ws, err := h.Workspace(r); err == nil && ws.Session.Status() == session.StatusSignedIn {
		httpx.WriteRedirect(w, r, routepath.Root)
		return
	}
	h.WritePage(w, r, "Créer un compte", http.StatusOK, templates.RegisterPage(templates.RegisterView{
		Form: forms.Register{Country: forms.DefaultCountry},
	}))
}

func (h handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	form := forms.ParseRegister(r)
	view := templates.RegisterView{Form: form}
	view.Form.Password, view.Form.ConfirmPassword = "", ""
	if errs := form.Validate(); !errs.Empty() {
		view.Errors = errs
		h.WritePage(w, r, "Créer un compte", http.StatusUnprocessableEntity, templates.RegisterPage(view))
		return
	}
	if !h.limiter.Allow(clientKey(r)) {
		h.WriteError(w, r, errRateLimited)
		return
	}

	auth, err := h.customers.Register(r.Context(), form.Registration())
	if err != nil {
		if message, ok := apperrors.PublicMessage(err); ok && (apperrors.Is(err, apperrors.KindConflict) || apperrors.Is(err, apperrors.KindInvalidInput)) {
			view.Errors = forms.Errors{"form": message}
			h.WritePage(w, r, "Créer un compte", http.StatusUnprocessableEntity, templates.RegisterPage(view))
			return
		}
		h.WriteError(w, r, err)
		return
	}
	if auth.AccessToken == "" {
		// Older customer services answer registration without a token.
		auth, err = h.customers.Login(r.Context(), domain.Credentials{Email: form.Email, Password: form.Password})
		if err != nil {
			h.WriteError(w, r, err)
			return
		}
	}
	ws.Session.Login(r.Context(), auth.User, auth.AccessToken)
	h.Logger().WithField("customer_id", auth.User.ID).Info("customer registered")
	h.Notify(w, r, flash.Success("Compte créé avec succès. Bienvenue !"), routepath.Root)
}

func (h handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	ws.Session.Logout(r.Context())
	h.Notify(w, r, flash.Info("Vous êtes déconnecté."), routepath.Root)
}

func (h handlers) handleProfile(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.SignedIn(w, r)
	if !ok {
		return
	}
	customer, err := h.customers.Me(r.Context())
	if err != nil {
		h.WriteError(w, r, err)
		return
	}
	ws.Session.SetUser(customer.User())
	h.WritePage(w, r, "Mon profil", http.StatusOK, templates.ProfilePage(templates.ProfileView{
		Customer: customer,
		Form:     forms.ProfileFrom(customer),
		Editing:  r.URL.Query().Get("edit") != "",
	}))
}

func (h handlers) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	ws, _, ok := h.SignedIn(w, r)
	if !ok {
		return
	}
	form := forms.ParseProfile(r)
	if errs := form.Validate(); !errs.Empty() {
		h.WritePage(w, r, "Mon profil", http.StatusUnprocessableEntity, templates.ProfilePage(templates.ProfileView{
			Form:    form,
			Errors:  errs,
			Editing: true,
		}))
		return
	}
	updated, err := h.customers.UpdateMe(r.Context(), form.Update())
	if err != nil {
		if message, ok := apperrors.PublicMessage(err); ok && (apperrors.Is(err, apperrors.KindConflict) || apperrors.Is(err, apperrors.KindInvalidInput)) {
			h.WritePage(w, r, "Mon profil", http.StatusUnprocessableEntity, templates.ProfilePage(templates.ProfileView{
				Form:    form,
				Errors:  forms.Errors{"form": message},
				Editing: true,
			}))
			return
		}
		h.WriteError(w, r, err)
		return
	}
	ws.Session.UpdateUser(updated.User())
	h.Notify(w, r, flash.Success("Profil mis à jour."), routepath.Profile)
}

type sessionPayload struct {
	Status          string       `json:"status"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	User            *domain.User `json:"user,omitempty"`
	CartItems       int          `json:"cartItems"`
}

// handleSession reports the client's session for scripts. The workspace is
// reconciled before handlers run, so the status is settled here.
func (h handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	ws, err := h.Workspace(r)
	if err != nil {
		_ = httpx.WriteJSONError(w, apperrors.HTTPStatus(err), err.Error())
		return
	}
	current := ws.Session.Snapshot()
	status := ws.Session.Status()
	payload := sessionPayload{
		Status:    status.String(),
		CartItems: ws.Cart.TotalItems(),
	}
	if status == session.StatusSignedIn {
		payload.IsAuthenticated = true
		payload.User = current.User
	}
	w.Header().Set("Cache-Control", "no-store")
	_ = httpx.WriteJSON(w, http.StatusOK, payload)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
