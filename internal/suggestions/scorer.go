// internal/suggestions/scorer.go
// Heuristic suggestion scoring: proximity, shared sports, mutual
// friends. A weighted sum, not a learned model.

package suggestions

import "math"

// Fixed component weights.
const (
	weightDistance = 0.5
	weightSports   = 0.3
	weightFriends  = 0.2

	// friendNormalizer caps the mutual-friend component: ten or more
	// mutual friends count as a full signal.
	friendNormalizer = 10.0
)

// ScoreFactors breaks a score into its components for transparency.
type ScoreFactors struct {
	DistanceProximity float64 `json:"distance_proximity"`
	SportOverlap      float64 `json:"sport_overlap"`
	FriendOverlap     float64 `json:"friend_overlap"`
}

type Scorer interface {
	Score(self *Profile, candidate *Candidate, distanceKm, radiusKm float64) (float64, *ScoreFactors)
}

type scorer struct{}

func NewScorer() Scorer {
	return scorer{}
}

// Score combines the three components. distanceKm may be NaN when either
// party has no usable location; the distance component is then zero.
func (scorer) Score(self *Profile, candidate *Candidate, distanceKm, radiusKm float64) (float64, *ScoreFactors) {
	factors := &ScoreFactors{
		DistanceProximity: distanceScore(distanceKm, radiusKm),
		SportOverlap:      sportOverlap(self.SportIDs, candidate.Profile.SportIDs),
		FriendOverlap:     math.Min(1, float64(candidate.MutualFriends)/friendNormalizer),
	}

	total := factors.DistanceProximity*weightDistance +
		factors.SportOverlap*weightSports +
		factors.FriendOverlap*weightFriends

	return total, factors
}

func distanceScore(distanceKm, radiusKm float64) float64 {
	if math.IsNaN(distanceKm) || math.IsInf(distanceKm, 1) || radiusKm <= 0 {
		return 0
	}
	return math.Max(0, 1-distanceKm/radiusKm)
}

// sportOverlap is the share of the requester's sports the candidate also
// plays.
func sportOverlap(self, other []int64) float64 {
	if len(self) == 0 || len(other) == 0 {
		return 0
	}

	mine := make(map[int64]bool, len(self))
	for _, id := range self {
		mine[id] = true
	}

	shared := 0
	for _, id := range other {
		if mine[id] {
			shared++
		}
	}

	return float64(shared) / float64(len(self))
}
