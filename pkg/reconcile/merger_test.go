package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/meterops/models"
)

func uptr(u uint) *uint { return &u }

func meter(number string, status models.MeterStatus, readerID *uint) models.Meter {
	return models.Meter{MeterNumber: number, Status: status, ReaderID: readerID}
}

func TestMergeLists(t *testing.T) {
	t.Run("cached reader fields win over authoritative", func(t *testing.T) {
		authoritative := []models.Meter{meter("M1", models.StatusPending, nil)}
		cached := []models.Meter{meter("M1", models.StatusVisited, uptr(7))}

		merged := MergeLists(authoritative, cached)
		require.Len(t, merged, 1)
		assert.Equal(t, models.StatusVisited, merged[0].Status)
		require.NotNil(t, merged[0].ReaderID)
		assert.Equal(t, uint(7), *merged[0].ReaderID)
	})

	t.Run("authoritative structural fields win", func(t *testing.T) {
		lat, lng := 5.1, -1.2
		staleLat := 9.9
		authoritative := []models.Meter{{
			MeterNumber:   "M1",
			Latitude:      &lat,
			Longitude:     &lng,
			AccountNumber: "A-new",
			DistrictName:  "D-new",
			Status:        models.StatusPending,
		}}
		cached := []models.Meter{{
			MeterNumber:   "M1",
			Latitude:      &staleLat,
			AccountNumber: "A-old",
			DistrictName:  "D-old",
			Status:        models.StatusVisited,
		}}

		merged := MergeLists(authoritative, cached)
		require.Len(t, merged, 1)
		assert.Equal(t, "A-new", merged[0].AccountNumber)
		assert.Equal(t, "D-new", merged[0].DistrictName)
		assert.Equal(t, lat, *merged[0].Latitude)
		assert.Equal(t, models.StatusVisited, merged[0].Status)
	})

	t.Run("cached visit details survive a narrow fetch", func(t *testing.T) {
		visited := time.Date(2025, 3, 2, 10, 30, 0, 0, time.UTC)
		loc := &models.GeoPoint{X: 5.10001, Y: -1.20001}
		authoritative := []models.Meter{meter("M1", models.StatusPending, nil)}
		cached := []models.Meter{{
			MeterNumber:      "M1",
			Status:           models.StatusVisited,
			VisitedTimestamp: &visited,
			ReaderLocation:   loc,
		}}

		merged := MergeLists(authoritative, cached)
		require.Len(t, merged, 1)
		require.NotNil(t, merged[0].VisitedTimestamp)
		assert.Equal(t, visited, *merged[0].VisitedTimestamp)
		assert.Equal(t, loc, merged[0].ReaderLocation)
	})

	t.Run("cached-only meters append at the end", func(t *testing.T) {
		authoritative := []models.Meter{meter("M1", models.StatusPending, nil)}
		cached := []models.Meter{
			meter("M2", models.StatusVisited, uptr(3)),
			meter("M3", models.StatusPending, uptr(3)),
		}

		merged := MergeLists(authoritative, cached)
		require.Len(t, merged, 3)
		assert.Equal(t, "M1", merged[0].MeterNumber)
		assert.Equal(t, "M2", merged[1].MeterNumber)
		assert.Equal(t, "M3", merged[2].MeterNumber)
	})

	t.Run("empty cache returns authoritative unchanged", func(t *testing.T) {
		authoritative := []models.Meter{
			meter("M1", models.StatusPending, nil),
			meter("M2", models.StatusIssue, uptr(2)),
		}
		assert.Equal(t, authoritative, MergeLists(authoritative, nil))
	})

	t.Run("idempotent with stable keys", func(t *testing.T) {
		authoritative := []models.Meter{
			meter("M1", models.StatusPending, nil),
			meter("M2", models.StatusPending, nil),
		}
		cached := []models.Meter{
			meter("M1", models.StatusVisited, uptr(7)),
			meter("M9", models.StatusAssigned, uptr(2)),
		}

		once := MergeLists(authoritative, cached)
		twice := MergeLists(authoritative, once)
		assert.Equal(t, once, twice)
	})
}

func TestMergerDropsStaleCachedMeters(t *testing.T) {
	g := NewMerger()
	authoritative := []models.Meter{meter("M1", models.StatusPending, nil)}
	cached := []models.Meter{
		meter("M1", models.StatusVisited, uptr(7)),
		meter("GONE", models.StatusAssigned, uptr(2)),
	}

	// First snapshot without GONE: it survives one miss.
	first := g.Merge(authoritative, cached)
	require.Len(t, first, 2)
	assert.Equal(t, "GONE", first[1].MeterNumber)

	// Second consecutive miss drops it.
	second := g.Merge(authoritative, first)
	require.Len(t, second, 1)
	assert.Equal(t, "M1", second[0].MeterNumber)
}

func TestMergerReappearanceResetsStreak(t *testing.T) {
	g := NewMerger()
	m1 := meter("M1", models.StatusPending, nil)
	flapping := meter("M2", models.StatusAssigned, uptr(4))

	// Miss once.
	out := g.Merge([]models.Meter{m1}, []models.Meter{m1, flapping})
	require.Len(t, out, 2)

	// Reappears: streak resets.
	out = g.Merge([]models.Meter{m1, meter("M2", models.StatusPending, nil)}, out)
	require.Len(t, out, 2)

	// One more miss is again only the first.
	out = g.Merge([]models.Meter{m1}, out)
	assert.Len(t, out, 2)
}
