package account

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/payetonkawa/storefront/internal/services/storefront/routepath"
)

func registerRoutes(router *mux.Router, h handlers) {
	if router == nil {
		return
	}
	router.HandleFunc(routepath.Login, h.handleLoginPage).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.Login, h.handleLogin).Methods(http.MethodPost)
	router.HandleFunc(routepath.Register, h.handleRegisterPage).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.Register, h.handleRegister).Methods(http.MethodPost)
	router.HandleFunc(routepath.Logout, h.handleLogout).Methods(http.MethodPost)
	router.HandleFunc(routepath.Profile, h.handleProfile).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc(routepath.Profile, h.handleProfileUpdate).Methods(http.MethodPost)
	router.HandleFunc(routepath.APISession, h.handleSession).Methods(http.MethodGet)
}
