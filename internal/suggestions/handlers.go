// internal/suggestions/handlers.go

package suggestions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/common/utils"
	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/geo"
)

type Handler struct {
	service       Service
	defaultRadius float64 // km
	defaultLimit  int
}

func NewHandler(service Service, defaultRadiusKm float64, defaultLimit int) *Handler {
	return &Handler{
		service:       service,
		defaultRadius: defaultRadiusKm,
		defaultLimit:  defaultLimit,
	}
}

func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	radiusKm := h.defaultRadius
	if v := r.URL.Query().Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid radius_km")
			return
		}
		radiusKm = parsed
	}

	limit := h.defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	result, err := h.service.GetSuggestions(r.Context(), userID, radiusKm, limit)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to get suggestions")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) NearbyUsers(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	q := r.URL.Query()

	latitude, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	longitude, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil || latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180 {
		utils.RespondWithError(w, http.StatusBadRequest, "lat and lng are required")
		return
	}

	var radius float64
	if v := q.Get("radius"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid radius")
			return
		}
		radius = parsed
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	origin := geo.Point{Latitude: latitude, Longitude: longitude}
	result, err := h.service.NearbyUsers(r.Context(), userID, origin, radius, limit)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to search nearby users")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}
