package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two lat/lng points.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// LineLengthKm sums the haversine length of every segment of ls.
func LineLengthKm(ls orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(ls); i++ {
		a, b := ls[i-1], ls[i]
		total += HaversineKm(a.Lat(), a.Lon(), b.Lat(), b.Lon())
	}
	return total
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
