package suggestions

import (
	"github.com/gorilla/mux"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/suggestions", handler.GetSuggestions).Methods("GET")
	api.HandleFunc("/users/nearby", handler.NearbyUsers).Methods("GET")
}
