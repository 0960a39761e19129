// Package reconcile merges a freshly fetched authoritative meter list
// with a client's previously cached copy.
//
// The merge is asymmetric on purpose: the authoritative fetch may be a
// narrower or stale view (partial sync), while the cached copy holds the
// latest reader interactions. Structural fields (coordinates, account,
// district) come from the authoritative side; mutable reader fields
// (assignment, status, visit timestamp, reader location) prefer the
// cached value whenever it is set.
package reconcile

import "p9e.in/meterops/models"

// dropAfterMisses is how many consecutive authoritative snapshots a
// cached-only meter survives before it is dropped. Without this, a meter
// the server has deleted would live in the cache forever.
const dropAfterMisses = 2

// MergeLists performs a one-shot merge keyed on meter_number. Meters
// present only in cached are appended unchanged at the end, preserving
// locally known assignments the fetch did not return. Idempotent:
// MergeLists(a, MergeLists(a, b)) == MergeLists(a, b).
func MergeLists(authoritative, cached []models.Meter) []models.Meter {
	cachedByNumber := make(map[string]models.Meter, len(cached))
	for _, m := range cached {
		cachedByNumber[m.MeterNumber] = m
	}

	merged := make([]models.Meter, 0, len(authoritative)+len(cached))
	seen := make(map[string]bool, len(authoritative))
	for _, auth := range authoritative {
		seen[auth.MeterNumber] = true
		if local, ok := cachedByNumber[auth.MeterNumber]; ok {
			merged = append(merged, mergeRecord(auth, local))
		} else {
			merged = append(merged, auth)
		}
	}

	for _, m := range cached {
		if !seen[m.MeterNumber] {
			merged = append(merged, m)
		}
	}
	return merged
}

// mergeRecord keeps auth's structural fields and prefers local's reader
// fields when they are set.
func mergeRecord(auth, local models.Meter) models.Meter {
	out := auth
	if local.ReaderID != nil {
		out.ReaderID = local.ReaderID
	}
	if local.Status != "" {
		out.Status = local.Status
	}
	if local.VisitedTimestamp != nil {
		out.VisitedTimestamp = local.VisitedTimestamp
	}
	if local.ReaderLocation != nil {
		out.ReaderLocation = local.ReaderLocation
	}
	return out
}

// Merger is a stateful merger for a client cache that sees a series of
// authoritative snapshots. It behaves like MergeLists except that a
// cached meter absent from the authoritative side is dropped once it has
// missed two consecutive snapshots, so local state cannot drift
// unboundedly after the server deletes or resets a meter.
type Merger struct {
	missStreak map[string]int
}

func NewMerger() *Merger {
	return &Merger{missStreak: make(map[string]int)}
}

// Merge folds one authoritative snapshot into the cached list.
func (g *Merger) Merge(authoritative, cached []models.Meter) []models.Meter {
	present := make(map[string]bool, len(authoritative))
	for _, m := range authoritative {
		present[m.MeterNumber] = true
		delete(g.missStreak, m.MeterNumber)
	}

	survivors := make([]models.Meter, 0, len(cached))
	for _, m := range cached {
		if present[m.MeterNumber] {
			survivors = append(survivors, m)
			continue
		}
		g.missStreak[m.MeterNumber]++
		if g.missStreak[m.MeterNumber] < dropAfterMisses {
			survivors = append(survivors, m)
		} else {
			delete(g.missStreak, m.MeterNumber)
		}
	}

	return MergeLists(authoritative, survivors)
}
