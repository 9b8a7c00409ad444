package domain

import (
	"math"
	"time"
)

var testLaunch = time.Date(2005, 3, 9, 14, 30, 0, 0, time.UTC)

// syntheticProfile returns n ascending samples every stepM metres with a
// standard-atmosphere shape and a steady westerly.
func syntheticProfile(n int, stepM float64) RawFlightProfile {
	alt := make([]float64, n)
	p := make([]float64, n)
	tc := make([]float64, n)
	rh := make([]float64, n)
	o3 := make([]float64, n)
	ws := make([]float64, n)
	wd := make([]float64, n)
	for i := range alt {
		z := float64(i) * stepM
		alt[i] = z
		p[i] = 1013.25 * math.Exp(-z/7000)
		tc[i] = 20 - 6.5*z/1000
		rh[i] = 50
		o3[i] = 2 + z/5000
		ws[i] = 10
		wd[i] = 270
	}
	return RawFlightProfile{
		AltitudeM:               SeriesOf(alt...),
		PressureHPa:             SeriesOf(p...),
		TemperatureC:            SeriesOf(tc...),
		RelativeHumidityPct:     SeriesOf(rh...),
		OzonePartialPressureMPa: SeriesOf(o3...),
		WindSpeedMS:             SeriesOf(ws...),
		WindDirectionDeg:        SeriesOf(wd...),
	}
}

func testFlight(p RawFlightProfile) Flight {
	return Flight{LaunchTime: testLaunch, Source: SourceGAW, Profile: p, Validity: AllValid()}
}

func mustGrid(minKm, maxKm, stepKm float64) Grid {
	g, err := NewGrid(minKm, maxKm, stepKm)
	if err != nil {
		panic(err)
	}
	return g
}

func indexOf(xs []float64, x float64) int {
	for i, v := range xs {
		if math.Abs(v-x) < 1e-9 {
			return i
		}
	}
	return -1
}
