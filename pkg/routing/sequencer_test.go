package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"p9e.in/meterops/models"
)

func located(number string, lat, lng float64) models.Meter {
	return models.Meter{MeterNumber: number, Latitude: &lat, Longitude: &lng}
}

func unlocated(number string) models.Meter {
	return models.Meter{MeterNumber: number}
}

func numbers(meters []models.Meter) []string {
	out := make([]string, len(meters))
	for i, m := range meters {
		out[i] = m.MeterNumber
	}
	return out
}

func TestSequence(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Sequence(nil))
		assert.Empty(t, Sequence([]models.Meter{}))
	})

	t.Run("single located meter is identity", func(t *testing.T) {
		in := []models.Meter{located("M1", 5.1, -1.2)}
		assert.Equal(t, []string{"M1"}, numbers(Sequence(in)))
	})

	t.Run("one located plus unlocated keeps stable order", func(t *testing.T) {
		in := []models.Meter{unlocated("U1"), located("M1", 5.1, -1.2), unlocated("U2")}
		assert.Equal(t, []string{"M1", "U1", "U2"}, numbers(Sequence(in)))
	})

	t.Run("greedy walk visits the nearest unvisited meter", func(t *testing.T) {
		// A at origin, B one step north, C two steps north. Input order
		// deliberately interleaves them.
		in := []models.Meter{
			located("A", 0, 0),
			located("C", 0.2, 0),
			located("B", 0.1, 0),
		}
		assert.Equal(t, []string{"A", "B", "C"}, numbers(Sequence(in)))
	})

	t.Run("distance ties break by earliest input index", func(t *testing.T) {
		in := []models.Meter{
			located("A", 0, 0),
			located("N", 0.1, 0),
			located("S", -0.1, 0),
		}
		assert.Equal(t, []string{"A", "N", "S"}, numbers(Sequence(in)))
	})

	t.Run("unlocated meters append in original order", func(t *testing.T) {
		in := []models.Meter{
			unlocated("U1"),
			located("B", 0.1, 0),
			located("A", 0, 0),
			unlocated("U2"),
		}
		out := Sequence(in)
		require.Len(t, out, 4)
		assert.Equal(t, []string{"B", "A", "U1", "U2"}, numbers(out))
	})

	t.Run("output is a permutation of the input", func(t *testing.T) {
		in := []models.Meter{
			located("A", 6.5, -1.5),
			located("B", 5.5, -0.2),
			unlocated("U"),
			located("C", 7.1, -2.3),
			located("D", 5.6, -0.19),
		}
		out := Sequence(in)
		require.Len(t, out, len(in))
		seen := make(map[string]int)
		for _, m := range out {
			seen[m.MeterNumber]++
		}
		for _, m := range in {
			assert.Equal(t, 1, seen[m.MeterNumber], "meter %s dropped or duplicated", m.MeterNumber)
		}
	})

	t.Run("input slice is not reordered", func(t *testing.T) {
		in := []models.Meter{
			located("A", 0, 0),
			located("C", 0.2, 0),
			located("B", 0.1, 0),
		}
		Sequence(in)
		assert.Equal(t, []string{"A", "C", "B"}, numbers(in))
	})
}

func TestSequenceWithOrigin(t *testing.T) {
	in := []models.Meter{
		located("A", 0, 0),
		located("B", 0.1, 0),
		located("C", 0.2, 0),
	}

	t.Run("starts nearest to supplied origin", func(t *testing.T) {
		out := Sequence(in, WithOrigin(0.21, 0))
		assert.Equal(t, []string{"C", "B", "A"}, numbers(out))
	})

	t.Run("default start remains first located meter", func(t *testing.T) {
		out := Sequence(in)
		assert.Equal(t, []string{"A", "B", "C"}, numbers(out))
	})
}
