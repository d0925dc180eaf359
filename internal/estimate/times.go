// Package estimate synthesizes travel times where no routed measurement
// exists: public transport estimated from driving, and both modes estimated
// from plain distance for user-added custom locations. The models are crude
// by design; they produce data conforming to the same schema as routed
// times, and the scoring engine treats both identically.
package estimate

import (
	"math"

	"github.com/Kaiman22/autonomy-explorer/internal/geo"
	"github.com/Kaiman22/autonomy-explorer/internal/model"
)

// avgSpeedKMH is a rough all-roads average for Swiss driving.
const avgSpeedKMH = 70

// mittellandRadiusKM is the "well-connected corridor" test radius: an area
// within this distance of several reference cities tends to have better
// rail service than its distance band suggests.
const mittellandRadiusKM = 80

// DriveSeconds estimates driving time from great-circle distance.
func DriveSeconds(distKM float64) float64 {
	return distKM / avgSpeedKMH * 3600
}

// PTSeconds estimates a public transport time from a driving time.
//
// Swiss PT is excellent near cities (S-Bahn, often competitive with the
// car) and degrades toward remote regions, so the PT/drive ratio grows
// with distance, then shrinks again for areas close to several reference
// cities at once.
func PTSeconds(driveSeconds, distKM float64, nearbyCities int) float64 {
	var ratio float64
	switch {
	case distKM < 20:
		ratio = 1.1
	case distKM < 60:
		ratio = 1.2 + (distKM-20)/40*0.3
	case distKM < 120:
		ratio = 1.5 + (distKM-60)/60*0.3
	default:
		ratio = 1.8 + math.Min((distKM-120)/100*0.4, 0.4)
	}

	switch {
	case nearbyCities >= 3:
		ratio *= 0.92
	case nearbyCities >= 2:
		ratio *= 0.96
	}

	return math.Round(driveSeconds * ratio)
}

// PTFromDrive estimates a public transport time for a measured (routed)
// driving time, deriving the distance band and corridor correction from
// the area and reference coordinates.
func PTFromDrive(driveSeconds float64, area, ref model.LatLng, cities []model.LatLng) float64 {
	dist := geo.HaversineKM(area, ref)
	nearby := geo.CountWithinKM(area, cities, mittellandRadiusKM)
	return PTSeconds(driveSeconds, dist, nearby)
}

// Times synthesizes the estimated drive and PT seconds from one area to a
// custom reference location. The built-in city coordinates feed the
// corridor correction so custom references rank comparably to routed ones.
func Times(area model.LatLng, ref model.LatLng, cities []model.LatLng) (driveSec, ptSec float64) {
	dist := geo.HaversineKM(area, ref)
	driveSec = math.Round(DriveSeconds(dist))
	nearby := geo.CountWithinKM(area, cities, mittellandRadiusKM)
	ptSec = PTSeconds(driveSec, dist, nearby)
	return driveSec, ptSec
}

// ForReference synthesizes per-area travel times to a custom reference.
// The result maps area id to seconds; the caller merges them into fresh
// area copies (the raw dataset itself is never mutated).
func ForReference(ref model.Reference, areas []model.Area, builtin []model.Reference) (drive, pt map[string]float64) {
	cities := make([]model.LatLng, 0, len(builtin))
	for _, b := range builtin {
		cities = append(cities, model.LatLng{Lat: b.Lat, Lng: b.Lng})
	}

	refLoc := model.LatLng{Lat: ref.Lat, Lng: ref.Lng}
	drive = make(map[string]float64, len(areas))
	pt = make(map[string]float64, len(areas))
	for _, a := range areas {
		d, p := Times(a.Location, refLoc, cities)
		drive[a.ID] = d
		pt[a.ID] = p
	}
	return drive, pt
}
