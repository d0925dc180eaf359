// Package geo holds the small amount of spatial math the pipeline needs:
// great-circle distances, municipality boundary loading, and
// diacritics-insensitive name matching.
package geo

import (
	"math"

	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

const earthRadiusKM = 6371

// HaversineKM returns the approximate great-circle distance in kilometers.
func HaversineKM(a, b model.LatLng) float64 {
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(a.Lat))*math.Cos(radians(b.Lat))*math.Pow(math.Sin(dLng/2), 2)

	return earthRadiusKM * 2 * math.Asin(math.Sqrt(h))
}

// CountWithinKM counts how many of the given points lie within radius
// kilometers of p.
func CountWithinKM(p model.LatLng, points []model.LatLng, radiusKM float64) int {
	n := 0
	for _, q := range points {
		if HaversineKM(p, q) < radiusKM {
			n++
		}
	}
	return n
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
