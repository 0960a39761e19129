// Package routing orders a reader's meter list into a visiting sequence.
//
// The sequence is a greedy nearest-neighbor walk, not a shortest route:
// reader meter sets are small (tens, not thousands), so the O(n²) walk is
// cheap and good enough in practice. Callers must not assume optimality.
package routing

import (
	"math"

	"p9e.in/meterops/models"
	"p9e.in/meterops/utils"
)

// Option configures a Sequence call.
type Option func(*config)

type config struct {
	origin    *models.GeoPoint
	hasOrigin bool
}

// WithOrigin starts the walk at the located meter nearest to the given
// position instead of the first located meter in input order.
func WithOrigin(lat, lng float64) Option {
	return func(c *config) {
		c.origin = &models.GeoPoint{X: lat, Y: lng}
		c.hasOrigin = true
	}
}

// Sequence returns the meters in visiting order: a nearest-neighbor walk
// over the located meters followed by the unlocated ones in their
// original order. The output is always a permutation of the input.
//
// Without an origin option the walk starts at the first located meter in
// input order; that starting point is an arbitrary tie-break, nothing
// more. Distance ties are broken by earliest input index.
func Sequence(meters []models.Meter, opts ...Option) []models.Meter {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	located := make([]models.Meter, 0, len(meters))
	unlocated := make([]models.Meter, 0)
	for _, m := range meters {
		if m.Located() {
			located = append(located, m)
		} else {
			unlocated = append(unlocated, m)
		}
	}

	if len(located) <= 1 {
		return append(located, unlocated...)
	}

	remaining := make([]models.Meter, len(located))
	copy(remaining, located)

	ordered := make([]models.Meter, 0, len(located))

	start := 0
	if cfg.hasOrigin {
		start = nearestTo(cfg.origin.X, cfg.origin.Y, remaining)
	}
	current := remaining[start]
	ordered = append(ordered, current)
	remaining = append(remaining[:start], remaining[start+1:]...)

	for len(remaining) > 0 {
		next := nearestTo(*current.Latitude, *current.Longitude, remaining)
		current = remaining[next]
		ordered = append(ordered, current)
		remaining = append(remaining[:next], remaining[next+1:]...)
	}

	return append(ordered, unlocated...)
}

// nearestTo returns the index of the meter closest to (lat, lng),
// keeping the earliest index on ties. All candidates must be located.
func nearestTo(lat, lng float64, candidates []models.Meter) int {
	best := 0
	minDist := math.Inf(1)
	for i, m := range candidates {
		d := utils.DistanceMeters(lat, lng, *m.Latitude, *m.Longitude)
		if d < minDist {
			minDist = d
			best = i
		}
	}
	return best
}
