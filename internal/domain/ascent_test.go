package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAscentIndices(t *testing.T) {
	tests := []struct {
		name string
		alt  []float64
		want []int
	}{
		{"bobbing balloon", []float64{0.0, 0.5, 0.3, 1.0}, []int{0, 1, 3}},
		{"already ascending", []float64{0, 1, 2, 3}, []int{0, 1, 2, 3}},
		{"duplicates dropped", []float64{0, 1, 1, 2, 2, 3}, []int{0, 1, 3, 5}},
		{"descending tail", []float64{0, 5, 4, 3, 2}, []int{0, 1}},
		{"first sample kept even if highest", []float64{9, 1, 2}, []int{0}},
		{"single", []float64{3}, []int{0}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AscentIndices(tt.alt))
		})
	}
}

func TestAscentIndices_StrictlyIncreasingAndIdempotent(t *testing.T) {
	alt := []float64{12, 30, 25, 31, 31, 50, 49, 48, 70, 65, 90}

	idx := AscentIndices(alt)
	kept := make([]float64, len(idx))
	for i, j := range idx {
		kept[i] = alt[j]
	}
	assert.True(t, strictlyIncreasing(kept))

	again := AscentIndices(kept)
	for i, j := range again {
		assert.Equal(t, i, j)
	}
}

func TestFilterAscent(t *testing.T) {
	p := RawFlightProfile{
		AltitudeM:               SeriesOf(0, 500, 300, 1000),
		PressureHPa:             SeriesOf(1000, 950, 970, 900),
		TemperatureC:            SeriesOf(20, 17, 18, 14),
		RelativeHumidityPct:     SeriesOf(80, 70, 75, 60),
		OzonePartialPressureMPa: SeriesOf(2, 2.1, 2.05, 2.2),
		WindSpeedMS:             SeriesOf(3, 4, 5, 6),
		WindDirectionDeg:        SeriesOf(90, 100, 110, 120),
	}

	got := FilterAscent(p)

	assert.Equal(t, []float64{0, 500, 1000}, got.AltitudeM.Floats())
	assert.Equal(t, []float64{1000, 950, 900}, got.PressureHPa.Floats())
	assert.Equal(t, []float64{20, 17, 14}, got.TemperatureC.Floats())
	assert.Equal(t, []float64{3, 4, 6}, got.WindSpeedMS.Floats())
	assert.Equal(t, []float64{90, 100, 120}, got.WindDirectionDeg.Floats())
	assert.Equal(t, 4, p.Len(), "input untouched")
}

func TestFilterAscent_NoOpOnAscendingProfile(t *testing.T) {
	p := syntheticProfile(50, 100)
	got := FilterAscent(p)
	assert.Equal(t, p, got)
}

func TestFilterAscent_DropsMissingAltitudes(t *testing.T) {
	p := RawFlightProfile{
		AltitudeM:               Series{Missing(), Present(100), Missing(), Present(300)},
		PressureHPa:             SeriesOf(1000, 990, 980, 970),
		TemperatureC:            SeriesOf(1, 2, 3, 4),
		RelativeHumidityPct:     SeriesOf(1, 2, 3, 4),
		OzonePartialPressureMPa: SeriesOf(1, 2, 3, 4),
	}

	got := FilterAscent(p)

	require.Equal(t, 2, got.Len())
	assert.Equal(t, []float64{100, 300}, got.AltitudeM.Floats())
	assert.Equal(t, []float64{990, 970}, got.PressureHPa.Floats())
	assert.Nil(t, got.WindSpeedMS)
}
