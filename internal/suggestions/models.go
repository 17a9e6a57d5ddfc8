// internal/suggestions/models.go

package suggestions

import "strconv"

// Profile is the read-only slice of a user this package needs: where
// they are, what they play, and how they relate to the requester.
type Profile struct {
	ID          int64   `json:"id" db:"id"`
	Username    string  `json:"username" db:"username"`
	DisplayName string  `json:"display_name" db:"display_name"`
	Location    *string `json:"-" db:"location"` // "POINT(lng lat)", optional
	SkillLevel  *string `json:"skill_level,omitempty" db:"skill_level"`
	SportIDs    []int64 `json:"sport_ids"`
}

// LocationPoint implements geo.Located.
func (p *Profile) LocationPoint() string {
	if p.Location == nil {
		return ""
	}
	return *p.Location
}

// EntityID implements geo.Located.
func (p *Profile) EntityID() string { return strconv.FormatInt(p.ID, 10) }

// Candidate is a profile plus the relationship facts the scorer needs.
type Candidate struct {
	Profile       *Profile
	MutualFriends int
}

// ScoredSuggestion is one ranked entry of the suggestion list.
type ScoredSuggestion struct {
	Profile        *Profile      `json:"profile"`
	Score          float64       `json:"score"`
	Factors        *ScoreFactors `json:"factors"`
	DistanceMeters *float64      `json:"distance_meters,omitempty"`
}

// NearbyUser is a proximity-search hit over profiles.
type NearbyUser struct {
	Profile        *Profile `json:"profile"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}
