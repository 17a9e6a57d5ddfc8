package matches

import (
	"github.com/gorilla/mux"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/auth"
)

func RegisterRoutes(router *mux.Router, handler *Handler, authMiddleware *auth.Middleware) {
	api := router.PathPrefix("/api/v1/matches").Subrouter()
	api.Use(authMiddleware.Authenticate)

	// Search and reads
	api.HandleFunc("", handler.SearchMatches).Methods("GET")
	api.HandleFunc("", handler.CreateMatch).Methods("POST")
	api.HandleFunc("/mine", handler.ListMyMatches).Methods("GET")
	api.HandleFunc("/{id}", handler.GetMatch).Methods("GET")

	// Lifecycle
	api.HandleFunc("/{id}/join", handler.Join).Methods("POST")
	api.HandleFunc("/{id}/invite", handler.Invite).Methods("POST")
	api.HandleFunc("/{id}/respond", handler.Respond).Methods("POST")
	api.HandleFunc("/{id}/leave", handler.Leave).Methods("POST")
	api.HandleFunc("/{id}/cancel", handler.Cancel).Methods("POST")
	api.HandleFunc("/{id}/complete", handler.Complete).Methods("POST")
}
