// internal/matches/search.go
// Proximity search over matches: repository filter first, then the pure
// geo pipeline for distance, radius and ordering.

package matches

import (
	"context"
	"math"

	"github.com/AnastasiosF/Sports-Buddy-sub000/internal/geo"
)

func (s *service) SearchMatches(ctx context.Context, params SearchParams) ([]*ScoredMatch, error) {
	candidates, err := s.repo.FindMatches(ctx, MatchFilter{
		SportID:        params.SportID,
		SkillLevel:     params.SkillLevel,
		Status:         params.Status,
		ScheduledAfter: params.ScheduledAfter,
		Text:           params.Text,
	})
	if err != nil {
		return nil, err
	}

	var origin *geo.Point
	if params.Origin != nil {
		origin = &geo.Point{
			Latitude:  params.Origin.Latitude,
			Longitude: params.Origin.Longitude,
		}
	}

	scored := geo.Filter(candidates, geo.FilterOptions[*Match]{
		Origin:       origin,
		RadiusMeters: params.RadiusMeters,
		FallbackLess: func(a, b *Match) bool { return a.ScheduledAt.Before(b.ScheduledAt) },
		Limit:        params.Limit,
	})

	result := make([]*ScoredMatch, 0, len(scored))
	for _, s := range scored {
		hit := &ScoredMatch{Match: s.Item}
		if s.HasDistance && !math.IsInf(s.DistanceMeters, 1) {
			d := s.DistanceMeters
			hit.DistanceMeters = &d
		}
		result = append(result, hit)
	}

	RecordSearchResults(len(result))
	return result, nil
}
