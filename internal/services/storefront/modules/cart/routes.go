package cart

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
)

func registerRoutes(router *mux.Router, h handlers) {
	if router == nil {
		return
	}
	router.HandleFunc(routepath.Cart, h.handleCart).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.CartAdd, h.handleAdd).Methods(http.MethodPost)
	router.HandleFunc(routepath.CartUpdate, h.handleUpdate).Methods(http.MethodPost)
	router.HandleFunc(routepath.CartRemove, h.handleRemove).Methods(http.MethodPost)
	router.HandleFunc(routepath.CartClear, h.handleClear).Methods(http.MethodPost)
}
