// Package weberror turns handler failures into storefront responses: inline
// error pages for reads, flash notices with a retry link for submissions, and
// a forced sign-in for authorization failures.
package weberror

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/payetonkawa/storefront/internal/platform/requestctx"
	apperrors "github.com/payetonkawa/storefront/internal/services/storefront/platform/errors"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/flash"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/pagerender"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/requestmeta"
	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
)

// SessionExpiredMessage is shown after a forced sign-out.
const SessionExpiredMessage = "Votre session a expiré. Veuillez vous reconnecter."

var titles = map[int]string{
	http.StatusBadRequest:          "Requête invalide",
	http.StatusForbidden:           "Accès refusé",
	http.StatusNotFound:            "Page introuvable",
	http.StatusConflict:            "Opération impossible",
	http.StatusTooManyRequests:     "Trop de tentatives",
	http.StatusServiceUnavailable:  "Service indisponible",
	http.StatusInternalServerError: "Une erreur est survenue",
}

var fallbackMessages = map[int]string{
	http.StatusNotFound:           "La page demandée n'existe pas.",
	http.StatusTooManyRequests:    "Trop de tentatives. Réessayez dans quelques instants.",
	http.StatusServiceUnavailable: "Le service est momentanément indisponible. Réessayez dans quelques instants.",
}

const genericMessage = "Une erreur inattendue est survenue. Réessayez dans quelques instants."

// Title returns the page title for statusCode.
func Title(statusCode int) string {
	if title, ok := titles[statusCode]; ok {
		return title
	}
	return titles[http.StatusInternalServerError]
}

// PublicMessage resolves a user-safe message for err.
func PublicMessage(err error) string {
	if message, ok := apperrors.PublicMessage(err); ok {
		return message
	}
	if message, ok := fallbackMessages[apperrors.HTTPStatus(err)]; ok {
		return message
	}
	return genericMessage
}

// Writer renders failures for one storefront.
type Writer struct {
	Policy requestmeta.Policy
	Logger logrus.FieldLogger
}

// Write responds to err according to its kind and the request method.
func (e Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	if w == nil || err == nil {
		return
	}
	statusCode := apperrors.HTTPStatus(err)
	e.log(r, err, statusCode)

	if apperrors.Is(err, apperrors.KindUnauthorized) {
		e.SignIn(w, r, SessionExpiredMessage)
		return
	}
	if isRead(r) {
		retry := ""
		if retryable(err) {
			retry = r.URL.RequestURI()
		}
		e.Page(w, r, statusCode, PublicMessage(err), retry)
		return
	}
	back := BackTarget(r, routepath.Root)
	retry := ""
	if retryable(err) {
		retry = back
	}
	flash.Write(w, r, flash.Error(PublicMessage(err), retry), e.Policy)
	httpx.WriteRedirect(w, r, back)
}

// NotFound renders the 404 page.
func (e Writer) NotFound(w http.ResponseWriter, r *http.Request) {
	e.Page(w, r, http.StatusNotFound, fallbackMessages[http.StatusNotFound], "")
}

// SignIn sends the client to the login page, coming back to the current page
// afterwards. Submissions come back to the page they were posted from.
func (e Writer) SignIn(w http.ResponseWriter, r *http.Request, message string) {
	next := BackTarget(r, routepath.Root)
	if isRead(r) {
		next = r.URL.RequestURI()
	}
	if strings.TrimSpace(message) != "" {
		flash.Write(w, r, flash.Info(message), e.Policy)
	}
	httpx.WriteRedirect(w, r, routepath.LoginWithNext(next))
}

// Page renders the error page inside the shell.
func (e Writer) Page(w http.ResponseWriter, r *http.Request, statusCode int, message, retryURL string) {
	if _, ok := titles[statusCode]; !ok {
		statusCode = http.StatusInternalServerError
	}
	err := pagerender.Write(w, r, e.Policy, pagerender.Page{
		Title:      Title(statusCode),
		StatusCode: statusCode,
		Body: templates.ErrorPage(templates.ErrorView{
			Status:   statusCode,
			Title:    Title(statusCode),
			Message:  message,
			RetryURL: retryURL,
		}),
	})
	if err != nil {
		e.logger().WithError(err).Error("render error page")
		http.Error(w, message, statusCode)
	}
}

// BackTarget returns the same-site page the request came from, or fallback.
func BackTarget(r *http.Request, fallback string) string {
	if r == nil {
		return fallback
	}
	referer := strings.TrimSpace(r.Referer())
	if referer == "" {
		return fallback
	}
	u, err := url.Parse(referer)
	if err != nil {
		return fallback
	}
	if u.Host != "" && !strings.EqualFold(u.Host, r.Host) {
		return fallback
	}
	return httpx.SafeRedirectTarget(u.RequestURI(), fallback)
}

func isRead(r *http.Request) bool {
	return r == nil || r.Method == http.MethodGet || r.Method == http.MethodHead
}

func retryable(err error) bool {
	switch apperrors.KindOf(err) {
	case apperrors.KindUnavailable, apperrors.KindUnknown, apperrors.KindRateLimited:
		return true
	default:
		return false
	}
}

func (e Writer) logger() logrus.FieldLogger {
	if e.Logger == nil {
		return logrus.StandardLogger()
	}
	return e.Logger
}

func (e Writer) log(r *http.Request, err error, statusCode int) {
	entry := e.logger().WithError(err).WithField("status", statusCode)
	if r != nil {
		entry = entry.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": requestctx.RequestIDFromContext(r.Context()),
		})
	}
	switch {
	case statusCode >= http.StatusInternalServerError:
		entry.Error("request failed")
	case statusCode == http.StatusUnauthorized:
		entry.Info("request unauthorized")
	default:
		entry.Debug("request rejected")
	}
}
