// internal/geo/geo.go
// Great-circle math and POINT serialization shared by match search and
// player discovery.

package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// ErrInvalidPoint is returned when a serialized point cannot be parsed.
// A malformed point in the database is a bug upstream, not user input.
var ErrInvalidPoint = errors.New("invalid point")

// Point is an immutable latitude/longitude pair in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceMeters returns the great-circle distance between a and b in meters.
func DistanceMeters(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// ParsePoint parses the serialized form "POINT(lng lat)".
// Longitude comes first; getting the axis order wrong is a silent bug,
// so the format is enforced exactly.
func ParsePoint(s string) (Point, error) {
	inner, ok := strings.CutPrefix(strings.TrimSpace(s), "POINT(")
	if !ok {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}
	inner, ok = strings.CutSuffix(inner, ")")
	if !ok {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}

	fields := strings.Fields(inner)
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("%w: expected two coordinates in %q", ErrInvalidPoint, s)
	}

	lng, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: bad longitude %q", ErrInvalidPoint, fields[0])
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: bad latitude %q", ErrInvalidPoint, fields[1])
	}

	if lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("%w: longitude %v out of range", ErrInvalidPoint, lng)
	}
	if lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("%w: latitude %v out of range", ErrInvalidPoint, lat)
	}

	return Point{Latitude: lat, Longitude: lng}, nil
}

// FormatPoint is the exact inverse of ParsePoint for any valid Point.
func FormatPoint(p Point) string {
	return fmt.Sprintf("POINT(%s %s)",
		strconv.FormatFloat(p.Longitude, 'g', -1, 64),
		strconv.FormatFloat(p.Latitude, 'g', -1, 64))
}
