package geo

import (
	"github.com/golang/geo/s2"
)

// DistanceS2 great circle distance in meter on the s2 sphere. More stable than
// haversine for the sub-meter separations we compare during node binding.
func DistanceS2(from, to Coordinate) float64 {
	a := s2.LatLngFromDegrees(from.Lat, from.Lon)
	b := s2.LatLngFromDegrees(to.Lat, to.Lon)
	return a.Distance(b).Radians() * earthRadiusM
}
