package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by every distance here.
const EarthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// EquirectangularDist returns an approximate distance in meters.
// Cheaper than Haversine and accurate for short distances away from the
// poles. Use for comparisons, not for edge costs.
func EquirectangularDist(lat1, lon1, lat2, lon2 float64) float64 {
	x := (lon2 - lon1) * math.Cos((lat1+lat2)/2*math.Pi/180) * math.Pi / 180
	y := (lat2 - lat1) * math.Pi / 180
	return math.Sqrt(x*x+y*y) * EarthRadiusMeters
}

// Euclidean returns the straight-line distance between two planar points.
func Euclidean(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
