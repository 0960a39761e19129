// Package assignment binds unassigned meters to readers and recomputes
// the derived per-reader statistics.
package assignment

import (
	"fmt"

	"p9e.in/meterops/models"
)

// Result reports the outcome of one assignment pass.
type Result struct {
	ReaderID     uint           `json:"reader_id"`
	Requested    int            `json:"requested"`
	Assigned     int            `json:"assigned"`
	MeterNumbers []string       `json:"meter_numbers"`
	Meters       []models.Meter `json:"-"`
}

// Assign selects the first min(requestedCount, available) meters with no
// reader from the given list, in the list's current order, and binds
// them to readerID. The selection is deliberately not proximity-ordered;
// callers that want proximity-grouped assignment sequence the list
// first.
//
// Returns models.ErrInvalidInput for a non-positive count and
// models.ErrNoUnassignedMeters when the pool is empty. The input slice
// is not modified; Result.Meters holds the bound copies.
func Assign(readerID uint, requestedCount int, meters []models.Meter) (*Result, error) {
	if requestedCount <= 0 {
		return nil, fmt.Errorf("%w: requested count must be a positive integer, got %d",
			models.ErrInvalidInput, requestedCount)
	}

	unassigned := make([]models.Meter, 0)
	for _, m := range meters {
		if m.ReaderID == nil {
			unassigned = append(unassigned, m)
		}
	}
	if len(unassigned) == 0 {
		return nil, models.ErrNoUnassignedMeters
	}

	if requestedCount > len(unassigned) {
		requestedCount = len(unassigned)
	}

	result := &Result{
		ReaderID:  readerID,
		Requested: requestedCount,
	}
	for _, m := range unassigned[:requestedCount] {
		id := readerID
		m.ReaderID = &id
		result.Meters = append(result.Meters, m)
		result.MeterNumbers = append(result.MeterNumbers, m.MeterNumber)
	}
	result.Assigned = len(result.Meters)
	return result, nil
}

// ComputeStats fills each reader's MetersAssigned/MetersVisited by
// grouping the current meter records by reader_id. This runs after every
// mutating operation; the counts are never persisted, the meter records
// are the single source of truth.
func ComputeStats(readers []models.Reader, meters []models.Meter) []models.Reader {
	type counts struct{ assigned, visited int }
	byReader := make(map[uint]counts)
	for _, m := range meters {
		if m.ReaderID == nil {
			continue
		}
		c := byReader[*m.ReaderID]
		c.assigned++
		if m.Status == models.StatusVisited {
			c.visited++
		}
		byReader[*m.ReaderID] = c
	}

	out := make([]models.Reader, len(readers))
	for i, r := range readers {
		c := byReader[r.ID]
		r.MetersAssigned = c.assigned
		r.MetersVisited = c.visited
		out[i] = r
	}
	return out
}

// PoolStats summarizes the whole registry for the supervisor dashboard.
type PoolStats struct {
	Total      int `json:"total"`
	AssignedN  int `json:"assigned"`
	Unassigned int `json:"unassigned"`
	Visited    int `json:"visited"`
}

func ComputePoolStats(meters []models.Meter) PoolStats {
	s := PoolStats{Total: len(meters)}
	for _, m := range meters {
		if m.ReaderID != nil {
			s.AssignedN++
		} else {
			s.Unassigned++
		}
		if m.Status == models.StatusVisited {
			s.Visited++
		}
	}
	return s
}
