// Package modulehandler provides a composable base for storefront module
// handlers.
//
// Every module renders pages in the shared shell, reports failures the same
// way, and reads the caller's workspace from the request. This package
// extracts that scaffold so modules embed it rather than duplicating it.
package modulehandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/services/storefront/domain"
	apperrors "github.com/payetonkawa/storefront/internal/services/storefront/platform/errors"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/flash"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/pagerender"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/requestmeta"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/weberror"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
)

// SignInRequiredMessage is shown when a signed-out client opens a private page.
const SignInRequiredMessage = "Connectez-vous pour accéder à cette page."

var errNoWorkspace = apperrors.E(apperrors.KindUnavailable, "Votre session n'a pas pu être chargée.")

// Base carries the shared request-scoped helpers used by module handlers.
type Base struct {
	policy requestmeta.Policy
	logger logrus.FieldLogger
	errors weberror.Writer
}

// NewBase builds a handler base.
func NewBase(policy requestmeta.Policy, logger logrus.FieldLogger) Base {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return Base{
		policy: policy,
		logger: logger,
		errors: weberror.Writer{Policy: policy, Logger: logger},
	}
}

// Logger returns the handler logger.
func (b Base) Logger() logrus.FieldLogger {
	return b.logger
}

// WritePage renders a full page (HTMX-aware).
func (b Base) WritePage(w http.ResponseWriter, r *http.Request, title string, statusCode int, body templ.Component) {
	if err := pagerender.Write(w, r, b.policy, pagerender.Page{
		Title:      title,
		StatusCode: statusCode,
		Body:       body,
	}); err != nil {
		b.WriteError(w, r, err)
	}
}

// WriteError renders err for the request.
func (b Base) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	b.errors.Write(w, r, err)
}

// WriteNotFound renders the 404 page in the shell.
func (b Base) WriteNotFound(w http.ResponseWriter, r *http.Request) {
	b.errors.NotFound(w, r)
}

// Notify stores notice for the next page and redirects to location.
func (b Base) Notify(w http.ResponseWriter, r *http.Request, notice flash.Notice, location string) {
	flash.Write(w, r, notice, b.policy)
	httpx.WriteRedirect(w, r, location)
}

// Workspace returns the caller's hydrated workspace.
func (b Base) Workspace(r *http.Request) (*workspace.Workspace, error) {
	ws, ok := workspace.FromContext(httpx.RequestContext(r))
	if !ok {
		return nil, errNoWorkspace
	}
	return ws, nil
}

// SignedIn returns the workspace and user of a signed-in caller. It waits for
// session reconciliation first. Otherwise it redirects to the login page and
// reports false; the response is then already written.
func (b Base) SignedIn(w http.ResponseWriter, r *http.Request) (*workspace.Workspace, domain.User, bool) {
	ws, err := b.Workspace(r)
	if err != nil {
		b.WriteError(w, r, err)
		return nil, domain.User{}, false
	}
	status, err := ws.Session.Wait(r.Context())
	if err != nil {
		return nil, domain.User{}, false
	}
	if status != session.StatusSignedIn {
		b.errors.SignIn(w, r, SignInRequiredMessage)
		return nil, domain.User{}, false
	}
	var user domain.User
	if current := ws.Session.Snapshot().User; current != nil {
		user = *current
	}
	return ws, user, true
}

// ResolveUser fills in the identity of a signed-in session that only has its
// flag, by asking the customer service who the credential belongs to.
func ResolveUser(ctx context.Context, ws *workspace.Workspace, user domain.User, profile func(context.Context) (domain.User, error)) (domain.User, error) {
	if user.ID != 0 {
		return user, nil
	}
	resolved, err := profile(ctx)
	if err != nil {
		return domain.User{}, err
	}
	ws.Session.SetUser(resolved)
	return resolved, nil
}

// PathID returns the positive numeric {id} route variable.
func PathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
