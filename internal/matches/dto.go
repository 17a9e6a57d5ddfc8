// internal/matches/dto.go
package matches

import "time"

// DTOs for API requests/responses

type CreateMatchDTO struct {
	SportID         int64   `json:"sport_id" validate:"required"`
	Title           string  `json:"title" validate:"required,min=3,max=120"`
	Description     string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Latitude        float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude       float64 `json:"longitude" validate:"min=-180,max=180"`
	LocationName    string  `json:"location_name" validate:"required,max=200"`
	ScheduledAt     string  `json:"scheduled_at" validate:"required"` // RFC3339
	DurationMinutes int     `json:"duration_minutes" validate:"required,min=1,max=1440"`
	MaxParticipants int     `json:"max_participants" validate:"required,min=1"`
	SkillLevel      string  `json:"skill_level_required,omitempty" validate:"omitempty,oneof=any beginner intermediate advanced expert"`
}

type InviteDTO struct {
	UserID int64 `json:"user_id" validate:"required"`
}

type RespondDTO struct {
	Accept bool `json:"accept"`
}

// SearchParams narrows and orders the match search. Lat/Lng/Radius drive
// the proximity stage; the rest is pushed down to the repository filter.
type SearchParams struct {
	SportID        *int64
	SkillLevel     *SkillLevel
	Status         *Status
	ScheduledAfter *time.Time
	Text           string

	Origin       *LatLng
	RadiusMeters float64
	Limit        int
}

type LatLng struct {
	Latitude  float64
	Longitude float64
}

// ScoredMatch is a search hit with its distance from the search origin,
// when one was given.
type ScoredMatch struct {
	Match          *Match   `json:"match"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// MatchFilter is the repository-level filter; proximity and ordering are
// applied afterwards by the search service.
type MatchFilter struct {
	SportID        *int64
	SkillLevel     *SkillLevel
	Status         *Status
	ScheduledAfter *time.Time
	Text           string
}
