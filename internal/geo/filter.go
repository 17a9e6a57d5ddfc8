// internal/geo/filter.go
// Proximity filtering over located entities (matches, players).
// Pure pipeline: predicate -> distance -> radius cutoff -> sort -> page.

package geo

import (
	"math"
	"sort"
)

// DefaultPageSize caps filter output. Applied after sorting so a large
// unsorted candidate set can never drop its closest entries.
const DefaultPageSize = 50

// Located is anything that carries an optional serialized point and a
// stable identity for deterministic ordering.
type Located interface {
	LocationPoint() string
	EntityID() string
}

// Scored wraps a candidate with its computed distance. HasDistance is
// false when no origin was supplied; DistanceMeters is +Inf when the
// entity's location is missing or unparseable.
type Scored[T Located] struct {
	Item           T
	DistanceMeters float64
	HasDistance    bool
}

// FilterOptions controls a single Filter call.
type FilterOptions[T Located] struct {
	// Origin enables distance computation. Nil means no distances are
	// attached, RadiusMeters is ignored and FallbackLess orders the result.
	Origin *Point

	// RadiusMeters keeps only candidates within the radius. Zero or
	// negative means unbounded.
	RadiusMeters float64

	// Predicate keeps a candidate when it returns true. Nil keeps all.
	// Independent of distance, so it may run before or after distance
	// computation with identical results; it runs first here because it
	// is the cheaper stage.
	Predicate func(T) bool

	// FallbackLess orders the result when Origin is nil, e.g. by
	// scheduled time. Nil falls back to EntityID ordering.
	FallbackLess func(a, b T) bool

	// Limit caps the result length. Zero or negative means DefaultPageSize.
	Limit int
}

// Filter narrows candidates to those matching the predicate and radius,
// ordered by distance ascending with EntityID as the tiebreak. Entities
// without a parseable location sort last and survive only when the
// radius is unbounded.
func Filter[T Located](candidates []T, opts FilterOptions[T]) []Scored[T] {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}

	kept := make([]Scored[T], 0, len(candidates))
	for _, c := range candidates {
		if opts.Predicate != nil && !opts.Predicate(c) {
			continue
		}
		kept = append(kept, Scored[T]{Item: c})
	}

	if opts.Origin == nil {
		less := opts.FallbackLess
		sort.SliceStable(kept, func(i, j int) bool {
			a, b := kept[i].Item, kept[j].Item
			if less != nil {
				if less(a, b) {
					return true
				}
				if less(b, a) {
					return false
				}
			}
			return a.EntityID() < b.EntityID()
		})
		return page(kept, limit)
	}

	origin := *opts.Origin
	for i := range kept {
		kept[i].HasDistance = true
		p, err := ParsePoint(kept[i].Item.LocationPoint())
		if err != nil {
			kept[i].DistanceMeters = math.Inf(1)
			continue
		}
		kept[i].DistanceMeters = DistanceMeters(origin, p)
	}

	if opts.RadiusMeters > 0 {
		within := kept[:0]
		for _, s := range kept {
			if s.DistanceMeters <= opts.RadiusMeters {
				within = append(within, s)
			}
		}
		kept = within
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].DistanceMeters != kept[j].DistanceMeters {
			return kept[i].DistanceMeters < kept[j].DistanceMeters
		}
		return kept[i].Item.EntityID() < kept[j].Item.EntityID()
	})

	return page(kept, limit)
}

func page[T Located](scored []Scored[T], limit int) []Scored[T] {
	if len(scored) > limit {
		return scored[:limit]
	}
	return scored
}
