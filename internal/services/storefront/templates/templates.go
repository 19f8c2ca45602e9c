// Package templates renders the storefront pages. Page bodies are embedded
// html/template files exposed as templ components so handlers compose them
// with the shared layout through templ children.
package templates

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/a-h/templ"

	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
)

//go:embed html/*.html
var pageFiles embed.FS

//go:embed static/*
var staticFiles embed.FS

var pages = template.Must(template.New("storefront").Funcs(template.FuncMap{
	"price":       FormatPrice,
	"date":        FormatDate,
	"datetime":    FormatDateTime,
	"productURL":  routepath.Product,
	"orderURL":    routepath.Order,
	"cancelURL":   routepath.OrderCancel,
	"truncate":    Truncate,
	"statusClass": statusClass,
}).ParseFS(pageFiles, "html/*.html"))

// Static returns the embedded stylesheet and assets.
func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

// Layout wraps the children in ctx with the page shell.
func Layout(data LayoutData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var body bytes.Buffer
		if err := templ.GetChildren(ctx).Render(ctx, &body); err != nil {
			return err
		}
		data.Body = template.HTML(body.String())
		return pages.ExecuteTemplate(w, "layout", data)
	})
}

// Fragment wraps the children in ctx with the toast region only, for HTMX
// swaps.
func Fragment(toast *Toast) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if toast != nil {
			if err := pages.ExecuteTemplate(w, "toast", toast); err != nil {
				return err
			}
		}
		return templ.GetChildren(ctx).Render(ctx, w)
	})
}

func Home(v HomeView) templ.Component             { return component("home", v) }
func ProductList(v ProductsView) templ.Component  { return component("products", v) }
func ProductDetail(v ProductView) templ.Component { return component("product", v) }
func CartPage(v CartView) templ.Component         { return component("cart", v) }
func CheckoutPage(v CheckoutView) templ.Component { return component("checkout", v) }
func OrderList(v OrdersView) templ.Component      { return component("orders", v) }
func OrderDetail(v OrderView) templ.Component     { return component("order", v) }
func LoginPage(v LoginView) templ.Component       { return component("login", v) }
func RegisterPage(v RegisterView) templ.Component { return component("register", v) }
func ProfilePage(v ProfileView) templ.Component   { return component("profile", v) }
func ErrorPage(v ErrorView) templ.Component       { return component("error", v) }
