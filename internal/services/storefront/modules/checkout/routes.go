package checkout

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
)

func registerRoutes(router *mux.Router, h handlers) {
	if router == nil {
		return
	}
	router.HandleFunc(routepath.Checkout, h.handleCheckoutPage).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.Checkout, h.handleCheckout).Methods(http.MethodPost)
}
