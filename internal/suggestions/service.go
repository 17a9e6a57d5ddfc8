// internal/suggestions/service.go
// Ranked buddy suggestions: candidates come pre-filtered from the
// repository (no existing relationship), the scorer ranks them.

package suggestions

import (
	"context"
	"math"
	"sort"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/geo"
)

const candidatePoolSize = 200

type Service interface {
	GetSuggestions(ctx context.Context, userID int64, radiusKm float64, limit int) ([]*ScoredSuggestion, error)
	NearbyUsers(ctx context.Context, userID int64, origin geo.Point, radiusMeters float64, limit int) ([]*NearbyUser, error)
}

type service struct {
	repo   Repository
	scorer Scorer
}

func NewService(repo Repository, scorer Scorer) Service {
	return &service{repo: repo, scorer: scorer}
}

func (s *service) GetSuggestions(ctx context.Context, userID int64, radiusKm float64, limit int) ([]*ScoredSuggestion, error) {
	self, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.repo.FindCandidates(ctx, userID, candidatePoolSize)
	if err != nil {
		return nil, err
	}

	var selfPoint *geo.Point
	if p, err := geo.ParsePoint(self.LocationPoint()); err == nil {
		selfPoint = &p
	}

	scored := make([]*ScoredSuggestion, 0, len(candidates))
	for _, candidate := range candidates {
		distanceKm := math.NaN()
		var distanceMeters *float64
		if selfPoint != nil {
			if p, err := geo.ParsePoint(candidate.Profile.LocationPoint()); err == nil {
				d := geo.DistanceMeters(*selfPoint, p)
				distanceKm = d / 1000
				distanceMeters = &d
			}
		}

		score, factors := s.scorer.Score(self, candidate, distanceKm, radiusKm)
		scored = append(scored, &ScoredSuggestion{
			Profile:        candidate.Profile,
			Score:          score,
			Factors:        factors,
			DistanceMeters: distanceMeters,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		// Ties go to the closer candidate; unknown distance sorts last.
		return suggestionDistance(scored[i]) < suggestionDistance(scored[j])
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *service) NearbyUsers(ctx context.Context, userID int64, origin geo.Point, radiusMeters float64, limit int) ([]*NearbyUser, error) {
	profiles, err := s.repo.ListProfiles(ctx, userID, candidatePoolSize)
	if err != nil {
		return nil, err
	}

	scored := geo.Filter(profiles, geo.FilterOptions[*Profile]{
		Origin:       &origin,
		RadiusMeters: radiusMeters,
		Limit:        limit,
	})

	result := make([]*NearbyUser, 0, len(scored))
	for _, hit := range scored {
		user := &NearbyUser{Profile: hit.Item}
		if !math.IsInf(hit.DistanceMeters, 1) {
			d := hit.DistanceMeters
			user.DistanceMeters = &d
		}
		result = append(result, user)
	}
	return result, nil
}

func suggestionDistance(s *ScoredSuggestion) float64 {
	if s.DistanceMeters == nil {
		return math.Inf(1)
	}
	return *s.DistanceMeters
}
