package catalog

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
)

func registerRoutes(router *mux.Router, h handlers) {
	if router == nil {
		return
	}
	router.HandleFunc(routepath.Root, h.handleHome).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.Products, h.handleProducts).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.ProductPattern, h.handleProduct).Methods(http.MethodGet, http.MethodHead)
}
