// Package pagerender centralizes storefront page rendering.
package pagerender

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"

	"github.com/payetonkawa/storefront/internal/services/storefront/platform/flash"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/httpx"
	"github.com/payetonkawa/storefront/internal/services/storefront/platform/requestmeta"
	"github.com/payetonkawa/storefront/internal/services/storefront/session"
	"github.com/payetonkawa/storefront/internal/services/storefront/templates"
	"github.com/payetonkawa/storefront/internal/services/storefront/workspace"
)

// Page describes a page response for both full-page and HTMX flows.
type Page struct {
	Title      string
	StatusCode int
	Body       templ.Component
}

type emptyComponent struct{}

func (emptyComponent) Render(context.Context, io.Writer) error {
	return nil
}

// Write renders page inside the shared shell. HTMX requests get the body and
// toast only. Nothing is written when rendering fails.
func Write(w http.ResponseWriter, r *http.Request, policy requestmeta.Policy, page Page) error {
	if w == nil {
		return nil
	}
	statusCode := page.StatusCode
	if statusCode <= 0 {
		statusCode = http.StatusOK
	}
	body := page.Body
	if body == nil {
		body = emptyComponent{}
	}

	ctx := templ.WithChildren(httpx.RequestContext(r), body)
	toast := readToast(w, r, policy)

	var shell templ.Component
	if httpx.IsHTMXRequest(r) {
		shell = templates.Fragment(toast)
	} else {
		data := Layout(r)
		data.Title = page.Title
		data.Toast = toast
		shell = templates.Layout(data)
	}

	var buf bytes.Buffer
	if err := shell.Render(ctx, &buf); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// Layout derives the shell chrome from the client's workspace.
func Layout(r *http.Request) templates.LayoutData {
	data := templates.LayoutData{Year: time.Now().Year()}
	if r == nil {
		return data
	}
	if r.URL != nil {
		data.CurrentPath = r.URL.Path
	}
	ws, ok := workspace.FromContext(r.Context())
	if !ok {
		return data
	}
	data.CartCount = ws.Cart.TotalItems()
	switch ws.Session.Status() {
	case session.StatusUnknown:
		data.SessionPending = true
	case session.StatusSignedIn:
		data.SignedIn = true
		if user := ws.Session.Snapshot().User; user != nil {
			data.UserEmail = user.Email
		}
	}
	return data
}

func readToast(w http.ResponseWriter, r *http.Request, policy requestmeta.Policy) *templates.Toast {
	if r == nil {
		return nil
	}
	notice, ok := flash.ReadAndClear(w, r, policy)
	if !ok {
		return nil
	}
	return &templates.Toast{
		Kind:     string(notice.Kind),
		Message:  notice.Message,
		RetryURL: notice.RetryURL,
	}
}
