// Package geo provides great-circle distance and bounding-box helpers for
// candidate lookup. All functions are pure.
package geo

import "math"

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000.0

// metersPerDegree approximates the length of one degree of latitude.
const metersPerDegree = 111000.0

// DistanceMeters returns the great-circle distance in meters between two
// (latitude, longitude) pairs, computed with the Haversine formula.
// Symmetric, and zero for identical points within floating-point tolerance.
// Callers are expected to supply valid decimal-degree coordinates;
// out-of-range inputs are not handled specially.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Box is an axis-aligned bounding box in decimal degrees.
type Box struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoundingBox returns an approximate bounding box around (lat, lon) covering
// radiusMeters in every direction. The box is a cheap pre-filter: it
// over-includes near the poles and along longitude compression, so callers
// must re-check exact distance on whatever it returns.
func BoundingBox(lat, lon, radiusMeters float64) Box {
	dLat := radiusMeters / metersPerDegree
	dLon := radiusMeters / (metersPerDegree * math.Cos(radians(lat)))

	return Box{
		MinLat: lat - dLat,
		MaxLat: lat + dLat,
		MinLon: lon - dLon,
		MaxLon: lon + dLon,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
