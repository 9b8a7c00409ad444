package domain

import (
	"fmt"
	"math"
)

// minAscendingSamples is the shortest profile that can be interpolated.
const minAscendingSamples = 2

// gridded describes how one quantity is produced from native samples: the
// validity groups it depends on and the native series it is interpolated from.
// Quantities with a nil native are assembled after interpolation.
type gridded struct {
	groups []Group
	native func(n natives) []float64
}

var regularization = map[Quantity]gridded{
	Pressure:             {[]Group{GroupPressure}, func(n natives) []float64 { return n.pressure }},
	Temperature:          {[]Group{GroupTemperature}, func(n natives) []float64 { return n.tempK }},
	RelativeHumidity:     {[]Group{GroupRelativeHumidity}, func(n natives) []float64 { return n.rh }},
	OzonePartialPressure: {[]Group{GroupOzone}, func(n natives) []float64 { return n.ozone }},
	OzonePPBV:            {[]Group{GroupOzone, GroupPressure}, func(n natives) []float64 { return n.ppbv }},
	OzoneColumn:          {[]Group{GroupOzone, GroupPressure}, nil},
	ZonalWind:            {[]Group{GroupWind}, func(n natives) []float64 { return n.u }},
	MeridionalWind:       {[]Group{GroupWind}, func(n natives) []float64 { return n.v }},
	Theta:                {[]Group{GroupTemperature, GroupPressure}, func(n natives) []float64 { return n.theta }},
	ThetaE:               {[]Group{GroupTemperature, GroupPressure, GroupRelativeHumidity}, func(n natives) []float64 { return n.thetaE }},
	MixingRatio:          {[]Group{GroupTemperature, GroupPressure, GroupRelativeHumidity}, func(n natives) []float64 { return n.mixing }},
}

// DependsOn returns the validity groups a quantity is derived from. Wind speed
// and direction follow the wind group.
func (q Quantity) DependsOn() []Group {
	if r, ok := regularization[q]; ok {
		return r.groups
	}
	if q == WindSpeed || q == WindDirection {
		return []Group{GroupWind}
	}
	return nil
}

// Regularize turns one raw flight into its gridded profile:
//
//  1. drop samples that do not climb above every earlier sample
//  2. derive secondary quantities at the native samples
//  3. resolve validity per quantity, excising or nulling bad windows
//  4. interpolate each quantity onto the grid
//  5. recombine wind speed and direction from the gridded U and V
//
// A flight that is misaligned or keeps fewer than two ascending samples
// yields an all-missing profile together with an error wrapping
// [ErrMalformedFlight]; callers keep the profile and carry on.
func Regularize(f Flight, g Grid) (GriddedFlightProfile, error) {
	if err := f.Profile.Validate(); err != nil {
		return EmptyProfile(f.LaunchTime, g), fmt.Errorf("launch %s: %w", f.LaunchTime.Format(launchLayout), err)
	}

	filtered := FilterAscent(f.Profile)
	if filtered.Len() < minAscendingSamples {
		return EmptyProfile(f.LaunchTime, g), fmt.Errorf("launch %s: %w: %d ascending samples",
			f.LaunchTime.Format(launchLayout), ErrMalformedFlight, filtered.Len())
	}

	n := deriveNatives(filtered)
	out := GriddedFlightProfile{
		LaunchTime:      f.LaunchTime,
		LaunchAltitudeM: filtered.AltitudeM[0],
		AltitudeKm:      g.Points(),
		Quantities:      make(map[Quantity]Series, len(Quantities)),
	}

	grid := make(map[Quantity][]float64, len(Quantities))
	for q, r := range regularization {
		policy := f.Validity.Resolve(r.groups...)

		var alt, values []float64
		if r.native == nil {
			a, s := policy.Apply(n.altKm, n.ozone, n.pressure)
			alt, values = a, CumulativeOzoneColumn(s[0], s[1])
		} else {
			a, s := policy.Apply(n.altKm, r.native(n))
			alt, values = a, s[0]
		}

		vals, err := g.Interpolate(alt, values, policy.Valid)
		if err != nil {
			return EmptyProfile(f.LaunchTime, g), fmt.Errorf("launch %s: interpolate %s: %w",
				f.LaunchTime.Format(launchLayout), q, err)
		}
		grid[q] = vals
	}

	speed, dir := recombineWind(grid[ZonalWind], grid[MeridionalWind])
	grid[WindSpeed], grid[WindDirection] = speed, dir

	for q, vals := range grid {
		out.Quantities[q] = SeriesOf(vals...)
	}
	return out, nil
}

func recombineWind(u, v []float64) (speed, dir []float64) {
	speed = nanSlice(len(u))
	dir = nanSlice(len(u))
	for i := range u {
		if math.IsNaN(u[i]) || math.IsNaN(v[i]) {
			continue
		}
		speed[i], dir[i] = WindFromComponents(u[i], v[i])
	}
	return speed, dir
}

// launchLayout formats launch times in log and error messages.
const launchLayout = "2006-01-02T15:04Z07:00"
