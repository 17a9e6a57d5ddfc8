package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceMeters(t *testing.T) {
	sf := Point{Latitude: 37.7749, Longitude: -122.4194}
	oakland := Point{Latitude: 37.8044, Longitude: -122.2712}

	t.Run("zero at identical points", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceMeters(sf, sf))
	})

	t.Run("symmetric", func(t *testing.T) {
		assert.Equal(t, DistanceMeters(sf, oakland), DistanceMeters(oakland, sf))
	})

	t.Run("known distance", func(t *testing.T) {
		// SF downtown to Oakland is roughly 13.4 km.
		d := DistanceMeters(sf, oakland)
		assert.InDelta(t, 13430, d, 200)
	})

	t.Run("nearby points", func(t *testing.T) {
		near := Point{Latitude: 37.7750, Longitude: -122.4195}
		d := DistanceMeters(sf, near)
		assert.InDelta(t, 14, d, 2)
	})

	t.Run("approximate triangle inequality", func(t *testing.T) {
		berkeley := Point{Latitude: 37.8715, Longitude: -122.2730}
		direct := DistanceMeters(sf, berkeley)
		viaOakland := DistanceMeters(sf, oakland) + DistanceMeters(oakland, berkeley)
		assert.LessOrEqual(t, direct, viaOakland+1)
	})
}

func TestParsePoint(t *testing.T) {
	t.Run("longitude comes first", func(t *testing.T) {
		p, err := ParsePoint("POINT(-122.4194 37.7749)")
		require.NoError(t, err)
		assert.Equal(t, 37.7749, p.Latitude)
		assert.Equal(t, -122.4194, p.Longitude)
	})

	t.Run("tolerates surrounding whitespace", func(t *testing.T) {
		p, err := ParsePoint("  POINT(23.7275 37.9838)\n")
		require.NoError(t, err)
		assert.Equal(t, Point{Latitude: 37.9838, Longitude: 23.7275}, p)
	})

	invalid := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing prefix", "(-122.4 37.7)"},
		{"missing paren", "POINT(-122.4 37.7"},
		{"one coordinate", "POINT(37.7)"},
		{"three coordinates", "POINT(1 2 3)"},
		{"not numeric", "POINT(lng lat)"},
		{"longitude out of range", "POINT(181 0)"},
		{"latitude out of range", "POINT(0 -90.5)"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePoint(tc.in)
			assert.ErrorIs(t, err, ErrInvalidPoint)
		})
	}
}

func TestPointRoundTrip(t *testing.T) {
	points := []Point{
		{Latitude: 37.7749, Longitude: -122.4194},
		{Latitude: -90, Longitude: -180},
		{Latitude: 90, Longitude: 180},
		{Latitude: 0, Longitude: 0},
		{Latitude: 51.500732421875, Longitude: -0.12748599052429199},
	}
	for _, p := range points {
		got, err := ParsePoint(FormatPoint(p))
		require.NoError(t, err, FormatPoint(p))
		assert.Equal(t, p, got)
	}
}

type located struct {
	id    string
	point string
}

func (l located) LocationPoint() string { return l.point }
func (l located) EntityID() string      { return l.id }

func TestFilterRadius(t *testing.T) {
	origin := Point{Latitude: 37.7749, Longitude: -122.4194}
	near := located{id: "near", point: "POINT(-122.4195 37.7750)"}   // ~14 m
	far := located{id: "far", point: "POINT(-122.0 37.9)"}           // ~25 km
	broken := located{id: "broken", point: "not a point"}

	t.Run("finite radius excludes far and unparseable", func(t *testing.T) {
		got := Filter([]located{far, near, broken}, FilterOptions[located]{
			Origin:       &origin,
			RadiusMeters: 10000,
		})
		require.Len(t, got, 1)
		assert.Equal(t, "near", got[0].Item.id)
		assert.InDelta(t, 14, got[0].DistanceMeters, 2)
	})

	t.Run("unbounded radius keeps unparseable last", func(t *testing.T) {
		got := Filter([]located{broken, far, near}, FilterOptions[located]{Origin: &origin})
		require.Len(t, got, 3)
		assert.Equal(t, "near", got[0].Item.id)
		assert.Equal(t, "far", got[1].Item.id)
		assert.Equal(t, "broken", got[2].Item.id)
		assert.True(t, math.IsInf(got[2].DistanceMeters, 1))
	})
}

func TestFilterOrdering(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	same1 := located{id: "a", point: "POINT(1 0)"}
	same2 := located{id: "b", point: "POINT(0 1)"} // equidistant with same1
	closer := located{id: "z", point: "POINT(0.5 0)"}

	got := Filter([]located{same2, same1, closer}, FilterOptions[located]{Origin: &origin})
	require.Len(t, got, 3)
	assert.Equal(t, "z", got[0].Item.id)
	// Equidistant entities tie-break on id for deterministic output.
	assert.Equal(t, "a", got[1].Item.id)
	assert.Equal(t, "b", got[2].Item.id)
}

func TestFilterNoOrigin(t *testing.T) {
	a := located{id: "2", point: "POINT(1 1)"}
	b := located{id: "1", point: ""}

	t.Run("no distances attached", func(t *testing.T) {
		got := Filter([]located{a, b}, FilterOptions[located]{})
		require.Len(t, got, 2)
		for _, s := range got {
			assert.False(t, s.HasDistance)
		}
		assert.Equal(t, "1", got[0].Item.id)
	})

	t.Run("fallback ordering wins over id", func(t *testing.T) {
		got := Filter([]located{b, a}, FilterOptions[located]{
			FallbackLess: func(x, y located) bool { return x.id > y.id },
		})
		assert.Equal(t, "2", got[0].Item.id)
	})
}

func TestFilterPredicate(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	items := []located{
		{id: "keep", point: "POINT(0.1 0)"},
		{id: "drop", point: "POINT(0.2 0)"},
	}
	got := Filter(items, FilterOptions[located]{
		Origin:    &origin,
		Predicate: func(l located) bool { return l.id == "keep" },
	})
	require.Len(t, got, 1)
	assert.Equal(t, "keep", got[0].Item.id)
}

func TestFilterPageCapAfterSort(t *testing.T) {
	origin := Point{Latitude: 0, Longitude: 0}
	// Candidates arrive farthest-first; the cap must not drop the closest.
	items := make([]located, 0, 60)
	for i := 59; i >= 0; i-- {
		items = append(items, located{
			id:    string(rune('A'+i/26)) + string(rune('a'+i%26)),
			point: FormatPoint(Point{Latitude: 0, Longitude: float64(i) * 0.01}),
		})
	}
	got := Filter(items, FilterOptions[located]{Origin: &origin, Limit: 10})
	require.Len(t, got, 10)
	assert.Equal(t, 0.0, got[0].DistanceMeters)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i].DistanceMeters, got[i-1].DistanceMeters)
	}
}
