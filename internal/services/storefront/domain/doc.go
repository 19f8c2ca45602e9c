// Package domain mirrors the resources served by the customer, product, and
// order services. The storefront never owns these records; it reads them,
// sends them back in requests, and renders them.
package domain

import "github.com/shopspring/decimal"

func init() {
	// The backends validate amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}
