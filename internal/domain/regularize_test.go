package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAllMissing(t *testing.T, s Series, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, s.AllMissing(), msgAndArgs...)
}

func TestRegularize(t *testing.T) {
	g := mustGrid(0, 10, 0.1)
	f := testFlight(syntheticProfile(61, 100)) // 0..6 km

	got, err := Regularize(f, g)
	require.NoError(t, err)

	assert.Equal(t, testLaunch, got.LaunchTime)
	assert.Equal(t, Present(0), got.LaunchAltitudeM)
	require.Equal(t, g.Points(), got.AltitudeKm)
	for _, q := range Quantities {
		require.Len(t, got.Series(q), g.Len(), q.Name())
	}

	i := indexOf(got.AltitudeKm, 3.0)
	temp, ok := got.Series(Temperature)[i].Get()
	require.True(t, ok)
	assert.InDelta(t, Kelvin(20-6.5*3), temp, 1e-9)

	p, ok := got.Series(Pressure)[i].Get()
	require.True(t, ok)
	assert.InDelta(t, 1013.25*math.Exp(-3000.0/7000), p, 1e-9)

	ppbv, ok := got.Series(OzonePPBV)[i].Get()
	require.True(t, ok)
	assert.InDelta(t, OzoneMixingRatio(2+3000.0/5000, p), ppbv, 1e-9)

	col := got.Series(OzoneColumn)
	assert.Equal(t, Present(0), col[0])
	prev := 0.0
	for k := 1; k <= indexOf(got.AltitudeKm, 6.0); k++ {
		c, ok := col[k].Get()
		require.True(t, ok)
		assert.Greater(t, c, prev, "column grows with altitude")
		prev = c
	}

	assertAllMissing(t, got.Series(Pressure)[indexOf(got.AltitudeKm, 6.1):], "above the last sample")
}

func TestRegularize_WindRecombination(t *testing.T) {
	g := mustGrid(0, 5, 0.1)
	prof := syntheticProfile(41, 100)
	for i := range prof.WindDirectionDeg {
		prof.WindSpeedMS[i] = Present(8 + float64(i)*0.05)
		prof.WindDirectionDeg[i] = Present(355)
	}

	got, err := Regularize(testFlight(prof), g)
	require.NoError(t, err)

	for i := 0; i <= 40; i++ {
		want := 8 + float64(i)*0.05
		speed, ok := got.Series(WindSpeed)[i].Get()
		require.True(t, ok)
		assert.InDelta(t, want, speed, 1e-9)

		dir, ok := got.Series(WindDirection)[i].Get()
		require.True(t, ok)
		assert.InDelta(t, 0, angleDiff(355, dir), 1e-9)
	}
	assertAllMissing(t, got.Series(WindSpeed)[41:])
}

func TestRegularize_WindAcrossNorth(t *testing.T) {
	g := mustGrid(0, 1, 0.5)
	prof := syntheticProfile(2, 1000)
	prof.WindSpeedMS = SeriesOf(10, 10)
	prof.WindDirectionDeg = SeriesOf(350, 10)

	got, err := Regularize(testFlight(prof), g)
	require.NoError(t, err)

	dir, ok := got.Series(WindDirection)[1].Get()
	require.True(t, ok)
	assert.InDelta(t, 0, angleDiff(0, dir), 1e-9, "midpoint heads north, not south")
}

func TestRegularize_NoWind(t *testing.T) {
	prof := syntheticProfile(30, 100)
	prof.WindSpeedMS, prof.WindDirectionDeg = nil, nil

	got, err := Regularize(testFlight(prof), mustGrid(0, 5, 0.1))
	require.NoError(t, err)
	for _, q := range []Quantity{ZonalWind, MeridionalWind, WindSpeed, WindDirection} {
		assertAllMissing(t, got.Series(q), q.Name())
	}
	assert.False(t, got.Series(Temperature).AllMissing())
}

func TestRegularize_ValiditySuppression(t *testing.T) {
	g := mustGrid(0, 5, 0.1)
	f := testFlight(syntheticProfile(51, 100))
	f.Validity = f.Validity.With(GroupOzone, GroupValidity{Flag: FlagInvalid, Window: &Window{LowerKm: 1, UpperKm: 2}})

	got, err := Regularize(f, g)
	require.NoError(t, err)

	for _, q := range []Quantity{OzonePartialPressure, OzonePPBV, OzoneColumn} {
		assertAllMissing(t, got.Series(q), q.Name())
	}
	assert.False(t, got.Series(Pressure).AllMissing())
	assert.False(t, got.Series(Theta).AllMissing())
}

func TestRegularize_DerivedNeedsEveryGroup(t *testing.T) {
	g := mustGrid(0, 5, 0.1)
	f := testFlight(syntheticProfile(51, 100))
	f.Validity = f.Validity.With(GroupRelativeHumidity, GroupValidity{Flag: FlagInvalid})

	got, err := Regularize(f, g)
	require.NoError(t, err)

	assertAllMissing(t, got.Series(RelativeHumidity))
	assertAllMissing(t, got.Series(ThetaE))
	assertAllMissing(t, got.Series(MixingRatio))
	assert.False(t, got.Series(Theta).AllMissing())
	assert.False(t, got.Series(Temperature).AllMissing())
}

func TestRegularize_ShallowWindowBridged(t *testing.T) {
	g := mustGrid(0, 5, 0.1)
	prof := syntheticProfile(51, 100)
	for i := range prof.TemperatureC {
		prof.TemperatureC[i] = Present(float64(i * i))
	}
	f := testFlight(prof)
	f.Validity = f.Validity.With(GroupTemperature, GroupValidity{Flag: FlagValid, Window: &Window{LowerKm: 2.0, UpperKm: 2.4}})

	got, err := Regularize(f, g)
	require.NoError(t, err)

	temp := got.Series(Temperature)
	lo, hi := Kelvin(19*19), Kelvin(25*25)
	v19, _ := temp[indexOf(got.AltitudeKm, 1.9)].Get()
	assert.InDelta(t, lo, v19, 1e-9)
	for _, z := range []float64{2.0, 2.1, 2.2, 2.3, 2.4} {
		v, ok := temp[indexOf(got.AltitudeKm, z)].Get()
		require.True(t, ok, "z=%v bridged", z)
		want := lo + (hi-lo)*(z-1.9)/0.6
		assert.InDelta(t, want, v, 1e-6, "z=%v", z)
	}
}

func TestRegularize_DeepWindowLowersColumn(t *testing.T) {
	g := mustGrid(0, 5, 0.1)
	clean, err := Regularize(testFlight(syntheticProfile(51, 100)), g)
	require.NoError(t, err)

	f := testFlight(syntheticProfile(51, 100))
	f.Validity = f.Validity.With(GroupOzone, GroupValidity{Flag: FlagValid, Window: &Window{LowerKm: 1.0, UpperKm: 3.0}})
	windowed, err := Regularize(f, g)
	require.NoError(t, err)

	top := indexOf(g.Points(), 5.0)
	cleanTop, ok := clean.Series(OzoneColumn)[top].Get()
	require.True(t, ok)
	windowedTop, ok := windowed.Series(OzoneColumn)[top].Get()
	require.True(t, ok)
	assert.Less(t, windowedTop, cleanTop)

	below, ok := windowed.Series(OzoneColumn)[indexOf(g.Points(), 0.9)].Get()
	require.True(t, ok)
	want, _ := clean.Series(OzoneColumn)[indexOf(g.Points(), 0.9)].Get()
	assert.InDelta(t, want, below, 1e-9, "column below the window is unaffected")
}

func TestRegularize_Malformed(t *testing.T) {
	g := mustGrid(0, 5, 0.1)

	tests := []struct {
		name string
		prof RawFlightProfile
	}{
		{"one sample", syntheticProfile(1, 100)},
		{"no ascent", func() RawFlightProfile {
			p := syntheticProfile(3, 100)
			p.AltitudeM = SeriesOf(500, 400, 300)
			return p
		}()},
		{"length mismatch", func() RawFlightProfile {
			p := syntheticProfile(10, 100)
			p.PressureHPa = p.PressureHPa[:9]
			return p
		}()},
		{"empty", RawFlightProfile{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Regularize(testFlight(tt.prof), g)
			require.ErrorIs(t, err, ErrMalformedFlight)
			assert.Equal(t, testLaunch, got.LaunchTime)
			require.Equal(t, g.Len(), got.Len())
			for _, q := range Quantities {
				require.Len(t, got.Series(q), g.Len())
				assertAllMissing(t, got.Series(q), q.Name())
			}
		})
	}
}

func TestRegularize_InputUntouched(t *testing.T) {
	prof := syntheticProfile(20, 100)
	prof.AltitudeM[5] = Present(100)
	before := prof.Clone()

	_, err := Regularize(testFlight(prof), mustGrid(0, 3, 0.1))
	require.NoError(t, err)
	assert.Equal(t, before, prof)
}

func TestRegularize_GridInvariance(t *testing.T) {
	g := DefaultGrid()
	for _, n := range []int{2, 10, 200, 400} {
		got, _ := Regularize(testFlight(syntheticProfile(n, 100)), g)
		assert.Equal(t, 351, got.Len())
		for _, q := range Quantities {
			assert.Len(t, got.Series(q), 351)
		}
	}
}

func TestQuantity_DependsOn(t *testing.T) {
	assert.Equal(t, []Group{GroupOzone, GroupPressure}, OzoneColumn.DependsOn())
	assert.Equal(t, []Group{GroupWind}, WindDirection.DependsOn())
	assert.Equal(t, []Group{GroupTemperature, GroupPressure, GroupRelativeHumidity}, ThetaE.DependsOn())
}
