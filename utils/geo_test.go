package utils

import (
	"math"
	"testing"

	"p9e.in/meterops/models"
)

func TestDistanceMeters(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{"same point is zero", 5.6037, -0.1870, 5.6037, -0.1870, 0, 0.001},
		{"accra to kumasi", 5.6037, -0.1870, 6.6885, -1.6244, 198000, 5000},
		{"one degree of latitude", 0, 0, 1, 0, 111195, 50},
		{"fifty meter offset", 5.60370, -0.18700, 5.60415, -0.18700, 50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceMeters(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("DistanceMeters(%v,%v,%v,%v) = %v, want %v ± %v",
					tt.lat1, tt.lon1, tt.lat2, tt.lon2, got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestDistanceMetersSymmetric(t *testing.T) {
	a := DistanceMeters(5.1, -1.2, 6.7, -1.6)
	b := DistanceMeters(6.7, -1.6, 5.1, -1.2)
	if a != b {
		t.Errorf("distance not symmetric: %v != %v", a, b)
	}
}

func TestDistanceMetersInvalidInput(t *testing.T) {
	nan := math.NaN()
	cases := [][4]float64{
		{nan, 0, 1, 1},
		{0, nan, 1, 1},
		{0, 0, nan, 1},
		{0, 0, 1, nan},
	}
	for _, c := range cases {
		if got := DistanceMeters(c[0], c[1], c[2], c[3]); !math.IsInf(got, 1) {
			t.Errorf("DistanceMeters(%v) = %v, want +Inf", c, got)
		}
	}
}

func fptr(f float64) *float64 { return &f }

func TestWithinRange(t *testing.T) {
	located := &models.Meter{MeterNumber: "M1", Latitude: fptr(5.6037), Longitude: fptr(-0.1870)}

	t.Run("nil for unlocated meter", func(t *testing.T) {
		unlocated := &models.Meter{MeterNumber: "M2"}
		if got := WithinRange(unlocated, 5.6, -0.18, DefaultProximityRadius); got != nil {
			t.Errorf("want nil for unlocated meter, got %v", *got)
		}
	})

	t.Run("nil for NaN reader coordinates", func(t *testing.T) {
		if got := WithinRange(located, math.NaN(), -0.18, DefaultProximityRadius); got != nil {
			t.Errorf("want nil for NaN latitude, got %v", *got)
		}
		if got := WithinRange(located, 5.6, math.NaN(), DefaultProximityRadius); got != nil {
			t.Errorf("want nil for NaN longitude, got %v", *got)
		}
	})

	t.Run("true inside radius", func(t *testing.T) {
		got := WithinRange(located, 5.60371, -0.18701, DefaultProximityRadius)
		if got == nil || !*got {
			t.Errorf("want true a couple of meters away, got %v", got)
		}
	})

	t.Run("false outside radius", func(t *testing.T) {
		got := WithinRange(located, 5.62, -0.20, DefaultProximityRadius)
		if got == nil || *got {
			t.Errorf("want false kilometers away, got %v", got)
		}
	})

	t.Run("consistent with DistanceMeters", func(t *testing.T) {
		readerLat, readerLng := 5.60405, -0.18700
		d := DistanceMeters(*located.Latitude, *located.Longitude, readerLat, readerLng)
		got := WithinRange(located, readerLat, readerLng, DefaultProximityRadius)
		if got == nil || *got != (d <= DefaultProximityRadius) {
			t.Errorf("WithinRange = %v, distance = %v", got, d)
		}
	})
}

func TestReaderWithinRange(t *testing.T) {
	t.Run("nil without recorded reader location", func(t *testing.T) {
		m := &models.Meter{Latitude: fptr(5.6), Longitude: fptr(-0.18)}
		if got := ReaderWithinRange(m, DefaultProximityRadius); got != nil {
			t.Errorf("want nil, got %v", *got)
		}
	})

	t.Run("checks recorded location against meter", func(t *testing.T) {
		m := &models.Meter{
			Latitude:       fptr(5.6037),
			Longitude:      fptr(-0.1870),
			ReaderLocation: &models.GeoPoint{X: 5.60371, Y: -0.18701},
		}
		got := ReaderWithinRange(m, DefaultProximityRadius)
		if got == nil || !*got {
			t.Errorf("want true, got %v", got)
		}
	})
}
