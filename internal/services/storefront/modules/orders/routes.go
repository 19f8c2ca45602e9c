package orders

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
)

func registerRoutes(router *mux.Router, h handlers) {
	if router == nil {
		return
	}
	router.HandleFunc(routepath.Orders, h.handleOrders).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.OrderPattern, h.handleOrder).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.OrderCancelPattern, h.handleCancel).Methods(http.MethodPost)
}
