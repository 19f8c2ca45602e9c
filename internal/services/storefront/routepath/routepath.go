// Package routepath stores canonical HTTP paths for the storefront.
package routepath

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	Root               = "/"
	Products           = "/products"
	ProductPattern     = "/products/{id:[0-9]+}"
	Cart               = "/cart"
	CartAdd            = "/cart/add"
	CartUpdate         = "/cart/update"
	CartRemove         = "/cart/remove"
	CartClear          = "/cart/clear"
	Checkout           = "/checkout"
	Orders             = "/orders"
	OrderPattern       = "/orders/{id:[0-9]+}"
	OrderCancelPattern = "/orders/{id:[0-9]+}/cancel"
	Login              = "/login"
	Register           = "/register"
	Logout             = "/logout"
	Profile            = "/profile"
	APISession         = "/api/session"
	APICustomersPrefix = "/api/customers"
	APIProductsPrefix  = "/api/products"
	APIOrdersPrefix    = "/api/orders"
	Health             = "/up"
	Metrics            = "/metrics"
	Robots             = "/robots.txt"
	StaticPrefix       = "/static/"
	NextQueryKey       = "next"
)

// Product returns the product detail route.
func Product(id int64) string {
	return Products + "/" + strconv.FormatInt(id, 10)
}

// Order returns the order detail route.
func Order(id int64) string {
	return Orders + "/" + strconv.FormatInt(id, 10)
}

// OrderCancel returns the order cancellation route.
func OrderCancel(id int64) string {
	return Order(id) + "/cancel"
}

// LoginWithNext returns the login route that sends the user back to next
// afterwards. Only local paths are kept.
func LoginWithNext(next string) string {
	next = strings.TrimSpace(next)
	if !IsLocal(next) || next == Login {
		return Login
	}
	return Login + "?" + NextQueryKey + "=" + url.QueryEscape(next)
}

// IsLocal reports whether target is a path on this site.
func IsLocal(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return false
	}
	parsed, err := url.Parse(target)
	return err == nil && parsed.Scheme == "" && parsed.Host == ""
}
