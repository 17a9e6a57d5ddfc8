// internal/matches/handlers.go

package matches

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/common/utils"
)

type Handler struct {
	service  Service
	pageSize int
}

func NewHandler(service Service, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Handler{service: service, pageSize: pageSize}
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var dto CreateMatchDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	match, err := h.service.CreateMatch(r.Context(), userID, &dto)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, match)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	match, err := h.service.GetMatch(r.Context(), matchID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, match)
}

func (h *Handler) SearchMatches(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.Limit == 0 {
		params.Limit = h.pageSize
	}

	result, err := h.service.SearchMatches(r.Context(), *params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) ListMyMatches(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	result, err := h.service.ListUserMatches(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	participant, err := h.service.RequestJoin(r.Context(), matchID, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, participant)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	var dto InviteDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if err := utils.ValidateStruct(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	participant, err := h.service.Invite(r.Context(), matchID, userID, dto.UserID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, participant)
}

func (h *Handler) Respond(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	var dto RespondDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	participant, err := h.service.Respond(r.Context(), matchID, userID, dto.Accept)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, participant)
}

func (h *Handler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	if err := h.service.Leave(r.Context(), matchID, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithMessage(w, http.StatusOK, "left match")
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, StatusCancelled)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, StatusCompleted)
}

func (h *Handler) finish(w http.ResponseWriter, r *http.Request, status Status) {
	userID := r.Context().Value("userID").(int64)
	matchID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid match ID")
		return
	}

	var match *Match
	if status == StatusCancelled {
		match, err = h.service.Cancel(r.Context(), matchID, userID)
	} else {
		match, err = h.service.Complete(r.Context(), matchID, userID)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, match)
}

func parseSearchParams(r *http.Request) (*SearchParams, error) {
	q := r.URL.Query()
	params := &SearchParams{Text: q.Get("q")}

	if v := q.Get("sport_id"); v != "" {
		sportID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.New("invalid sport_id")
		}
		params.SportID = &sportID
	}
	if v := q.Get("skill_level"); v != "" {
		skill := SkillLevel(v)
		if !ValidSkillLevel(skill) {
			return nil, errors.New("invalid skill_level")
		}
		params.SkillLevel = &skill
	}
	if v := q.Get("status"); v != "" {
		status := Status(v)
		params.Status = &status
	}
	if v := q.Get("scheduled_after"); v != "" {
		after, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, errors.New("scheduled_after must be RFC3339")
		}
		params.ScheduledAfter = &after
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return nil, errors.New("invalid limit")
		}
		params.Limit = limit
	}

	lat, lng := q.Get("lat"), q.Get("lng")
	if lat != "" || lng != "" {
		latitude, err := strconv.ParseFloat(lat, 64)
		if err != nil || latitude < -90 || latitude > 90 {
			return nil, errors.New("invalid lat")
		}
		longitude, err := strconv.ParseFloat(lng, 64)
		if err != nil || longitude < -180 || longitude > 180 {
			return nil, errors.New("invalid lng")
		}
		params.Origin = &LatLng{Latitude: latitude, Longitude: longitude}

		if v := q.Get("radius"); v != "" {
			radius, err := strconv.ParseFloat(v, 64)
			if err != nil || radius <= 0 {
				return nil, errors.New("invalid radius")
			}
			params.RadiusMeters = radius
		}
	}

	return params, nil
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrSportNotFound),
		errors.Is(err, ErrParticipantNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrMatchNotOpen),
		errors.Is(err, ErrMatchFull),
		errors.Is(err, ErrAlreadyParticipant),
		errors.Is(err, ErrMatchFinished),
		errors.Is(err, ErrLockTimeout):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	default:
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
