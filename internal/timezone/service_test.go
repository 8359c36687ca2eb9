package timezone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/eagle-eye/internal/area"
)

func TestGetTimezone(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{name: "hakodate", lat: 41.7687, lon: 140.7288, want: "Asia/Tokyo"},
		{name: "sapporo", lat: 43.0555, lon: 141.3409, want: "Asia/Tokyo"},
		{name: "vladivostok", lat: 43.1155, lon: 131.8855, want: "Asia/Vladivostok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.GetTimezone(tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultIsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestResolvesRegistry(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	for _, a := range area.WithTimezones(area.Registry(), r) {
		assert.Equal(t, "Asia/Tokyo", a.Timezone, a.Key)
	}
}
