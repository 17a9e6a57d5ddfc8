// internal/matches/models.go

package matches

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a match. open and full cycle with the
// confirmed-participant count; completed and cancelled are terminal.
type Status string

const (
	StatusOpen      Status = "open"
	StatusFull      Status = "full"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions may leave the status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParticipantStatus is the state of a single membership row.
// declined is terminal for the row; only leave removes it.
type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantDeclined  ParticipantStatus = "declined"
)

// SkillLevel restricts who a match is aimed at.
type SkillLevel string

const (
	SkillAny          SkillLevel = "any"
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillExpert       SkillLevel = "expert"
)

// ValidSkillLevel reports whether s is one of the closed set of levels.
func ValidSkillLevel(s SkillLevel) bool {
	switch s {
	case SkillAny, SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert:
		return true
	}
	return false
}

type Sport struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	MinPlayers int    `json:"min_players" db:"min_players"`
	MaxPlayers *int   `json:"max_players,omitempty" db:"max_players"`
}

// Match is a scheduled, location-bound activity with a participant cap.
// Status is a cached derived fact; the ground truth is the count of
// confirmed participant rows.
type Match struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	SportID         int64      `json:"sport_id" db:"sport_id"`
	Title           string     `json:"title" db:"title"`
	Description     *string    `json:"description,omitempty" db:"description"`
	Location        string     `json:"location" db:"location"` // "POINT(lng lat)"
	LocationName    string     `json:"location_name" db:"location_name"`
	ScheduledAt     time.Time  `json:"scheduled_at" db:"scheduled_at"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	MaxParticipants int        `json:"max_participants" db:"max_participants"`
	SkillLevel      SkillLevel `json:"skill_level_required" db:"skill_level_required"`
	Status          Status     `json:"status" db:"status"`
	CreatedBy       int64      `json:"created_by" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`

	// Joined fields
	Participants []*Participant `json:"participants,omitempty"`
}

// LocationPoint implements geo.Located.
func (m *Match) LocationPoint() string { return m.Location }

// EntityID implements geo.Located.
func (m *Match) EntityID() string { return m.ID.String() }

// Participant is a user's membership row in a match, unique per
// (match_id, user_id).
type Participant struct {
	MatchID  uuid.UUID         `json:"match_id" db:"match_id"`
	UserID   int64             `json:"user_id" db:"user_id"`
	Status   ParticipantStatus `json:"status" db:"status"`
	JoinedAt time.Time         `json:"joined_at" db:"joined_at"`
}

// ConfirmedCount returns the number of confirmed rows in participants.
func ConfirmedCount(participants []*Participant) int {
	n := 0
	for _, p := range participants {
		if p.Status == ParticipantConfirmed {
			n++
		}
	}
	return n
}
