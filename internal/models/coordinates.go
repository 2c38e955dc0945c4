package models

import "math"

type Coordinates struct {
	Lat float64
	Lon float64
}

// HasZeroCoords reports whether both components are exactly zero. The
// zero value is the sentinel for "no coordinates given", not a location
// in the Gulf of Guinea.
func (c Coordinates) HasZeroCoords() bool {
	return c.Lat == 0 && c.Lon == 0
}

// IsValid reports whether c is a usable geographic point.
func (c Coordinates) IsValid() bool {
	return math.Abs(c.Lat) < 90 && math.Abs(c.Lon) < 180 && !c.HasZeroCoords()
}

// Flat-earth scaling factors: km per degree of longitude at central
// European latitudes, and km per degree of latitude.
const (
	kmPerDegreeLon = 71.5
	kmPerDegreeLat = 111.3
)

// ConflictDistance is the proximity threshold (in km) below which two
// points are considered the same station location.
const ConflictDistance = 0.5

// ProximityMetric is the planar small-angle distance approximation used
// for duplicate detection. It is intentionally not a geodesic distance:
// the same formula must stay expressible as a plain SQL predicate, and
// it is only ever evaluated for points a few kilometers apart.
func ProximityMetric(a, b Coordinates) float64 {
	dx := kmPerDegreeLon * (a.Lon - b.Lon)
	dy := kmPerDegreeLat * (a.Lat - b.Lat)
	return math.Sqrt(dx*dx + dy*dy)
}

// Near reports whether two points fall within the conflict threshold.
func Near(a, b Coordinates) bool {
	return ProximityMetric(a, b) < ConflictDistance
}

const earthRadiusKm = 6371.0

// DistanceTo returns the Haversine great-circle distance in km. This is
// the user-facing search distance and is distinct from ProximityMetric.
func (c Coordinates) DistanceTo(other Coordinates) float64 {
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
