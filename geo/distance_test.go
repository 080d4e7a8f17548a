package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civicreport-be/apperrors"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Point
		wantMin float64
		wantMax float64
	}{
		{
			name:    "identical points",
			a:       Point{Latitude: 12.9716, Longitude: 77.5946},
			b:       Point{Latitude: 12.9716, Longitude: 77.5946},
			wantMin: 0,
			wantMax: 0,
		},
		{
			name:    "nearby issue is about 60 meters away",
			a:       Point{Latitude: 12.9716, Longitude: 77.5946},
			b:       Point{Latitude: 12.9720, Longitude: 77.5950},
			wantMin: 0.04,
			wantMax: 0.08,
		},
		{
			name:    "issue across town is about 9 km away",
			a:       Point{Latitude: 12.9716, Longitude: 77.5946},
			b:       Point{Latitude: 13.05, Longitude: 77.60},
			wantMin: 8,
			wantMax: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.wantMin)
			assert.LessOrEqual(t, got, tt.wantMax)
		})
	}
}

func TestWithinRadius(t *testing.T) {
	center := Point{Latitude: 12.9716, Longitude: 77.5946}
	near := Point{Latitude: 12.9720, Longitude: 77.5950}
	far := Point{Latitude: 13.05, Longitude: 77.60}

	assert.True(t, WithinRadius(center, near, 5))
	assert.False(t, WithinRadius(center, far, 5))

	// Identical points pass even at radius zero.
	assert.True(t, WithinRadius(center, center, 0))

	// The boundary is inclusive.
	exact := DistanceKm(center, near)
	assert.True(t, WithinRadius(center, near, exact))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Point{Latitude: 90, Longitude: 180}))
	require.NoError(t, Validate(Point{Latitude: -90, Longitude: -180}))
	require.NoError(t, Validate(Point{Latitude: 0, Longitude: 0}))

	for _, p := range []Point{
		{Latitude: 90.0001, Longitude: 0},
		{Latitude: -91, Longitude: 0},
		{Latitude: 0, Longitude: 180.5},
		{Latitude: 0, Longitude: -200},
	} {
		err := Validate(p)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.TypeInvalidCoordinate))
	}
}
