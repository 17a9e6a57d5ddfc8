// internal/suggestions/scorer_test.go

package suggestions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreWeightsSumToOne(t *testing.T) {
	s := NewScorer()
	self := &Profile{ID: 1, SportIDs: []int64{1, 2}}
	candidate := &Candidate{
		Profile:       &Profile{ID: 2, SportIDs: []int64{1, 2}},
		MutualFriends: 10,
	}

	// Same spot, identical sports, saturated friend signal.
	score, factors := s.Score(self, candidate, 0, 25)
	assert.InDelta(t, 1.0, score, 1e-9)
	assert.InDelta(t, 1.0, factors.DistanceProximity, 1e-9)
	assert.InDelta(t, 1.0, factors.SportOverlap, 1e-9)
	assert.InDelta(t, 1.0, factors.FriendOverlap, 1e-9)
}

func TestScoreDistanceComponent(t *testing.T) {
	s := NewScorer()
	self := &Profile{ID: 1}
	candidate := &Candidate{Profile: &Profile{ID: 2}}

	tests := []struct {
		name       string
		distanceKm float64
		radiusKm   float64
		want       float64
	}{
		{"at origin", 0, 25, 1.0},
		{"halfway out", 12.5, 25, 0.5},
		{"at the edge", 25, 25, 0},
		{"beyond the radius clamps to zero", 40, 25, 0},
		{"unknown distance", math.NaN(), 25, 0},
		{"infinite distance", math.Inf(1), 25, 0},
		{"no radius", 5, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, factors := s.Score(self, candidate, tc.distanceKm, tc.radiusKm)
			assert.InDelta(t, tc.want, factors.DistanceProximity, 1e-9)
		})
	}
}

func TestScoreSportOverlap(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name      string
		self      []int64
		candidate []int64
		want      float64
	}{
		{"full overlap", []int64{1, 2}, []int64{1, 2, 3}, 1.0},
		{"half overlap", []int64{1, 2}, []int64{2, 9}, 0.5},
		{"no overlap", []int64{1, 2}, []int64{3, 4}, 0},
		{"requester plays nothing", nil, []int64{1}, 0},
		{"candidate plays nothing", []int64{1}, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			self := &Profile{ID: 1, SportIDs: tc.self}
			candidate := &Candidate{Profile: &Profile{ID: 2, SportIDs: tc.candidate}}
			_, factors := s.Score(self, candidate, math.NaN(), 25)
			assert.InDelta(t, tc.want, factors.SportOverlap, 1e-9)
		})
	}
}

func TestScoreFriendOverlapCaps(t *testing.T) {
	s := NewScorer()
	self := &Profile{ID: 1}

	_, few := s.Score(self, &Candidate{Profile: &Profile{ID: 2}, MutualFriends: 3}, math.NaN(), 25)
	assert.InDelta(t, 0.3, few.FriendOverlap, 1e-9)

	_, many := s.Score(self, &Candidate{Profile: &Profile{ID: 2}, MutualFriends: 40}, math.NaN(), 25)
	assert.InDelta(t, 1.0, many.FriendOverlap, 1e-9)
}

func TestScoreOrdersCloserHigher(t *testing.T) {
	s := NewScorer()
	self := &Profile{ID: 1, SportIDs: []int64{1}}
	near := &Candidate{Profile: &Profile{ID: 2, SportIDs: []int64{1}}}
	far := &Candidate{Profile: &Profile{ID: 3, SportIDs: []int64{1}}}

	nearScore, _ := s.Score(self, near, 2, 25)
	farScore, _ := s.Score(self, far, 20, 25)
	require.Greater(t, nearScore, farScore)
}
