package utils

import (
	"math"

	"p9e.in/meterops/models"
)

// EarthRadiusMeters is the spherical earth radius used by the haversine
// formula.
const EarthRadiusMeters = 6371000

// DefaultProximityRadius is the distance in meters within which a reader
// counts as being "at" a meter.
const DefaultProximityRadius = 50

// DistanceMeters returns the great-circle distance in meters between two
// coordinates. Any NaN input yields +Inf so invalid points sort last and
// never satisfy a proximity check. Never errors.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	if math.IsNaN(lat1) || math.IsNaN(lon1) || math.IsNaN(lat2) || math.IsNaN(lon2) {
		return math.Inf(1)
	}

	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// WithinRange reports whether the reader's position is within
// radiusMeters of the meter. Returns nil when the meter is unlocated so
// the caller can surface "indeterminate" instead of a misleading false.
// Informational only: a status write is never blocked on this.
func WithinRange(meter *models.Meter, readerLat, readerLng, radiusMeters float64) *bool {
	if meter == nil || !meter.Located() {
		return nil
	}
	if math.IsNaN(readerLat) || math.IsNaN(readerLng) {
		return nil
	}
	within := DistanceMeters(*meter.Latitude, *meter.Longitude, readerLat, readerLng) <= radiusMeters
	return &within
}

// ReaderWithinRange checks the meter's recorded reader location against
// the meter's own coordinates. Nil when either location is unknown.
func ReaderWithinRange(meter *models.Meter, radiusMeters float64) *bool {
	if meter == nil || meter.ReaderLocation == nil {
		return nil
	}
	return WithinRange(meter, meter.ReaderLocation.X, meter.ReaderLocation.Y, radiusMeters)
}
