package domain

import (
	"math"
	"slices"
	"time"
)

// Archive names used as Flight.Source.
const (
	SourceGAW = "GAW"
	SourceCR2 = "CR2"
)

// MergeArchives combines the GAW and CR2 archives into one launch list, in
// ascending launch order. Launches are matched by UTC calendar day:
//
//	day only in one archive   that archive's flights are kept
//	CR2 has more ozone        CR2 profile under the GAW launch time
//	otherwise                 GAW profile, with CR2 winds folded in when
//	                          CR2 carries more wind samples
//
// Further GAW launches on a shared day are kept unchanged. Merged flights carry
// no validity record; the reviewer fills it in afterwards. Inputs are not
// modified.
func MergeArchives(gaw, cr2 []Flight) []Flight {
	gawByDay := groupByDay(gaw)
	cr2ByDay := groupByDay(cr2)

	days := make([]time.Time, 0, len(gawByDay)+len(cr2ByDay))
	for d := range gawByDay {
		days = append(days, d)
	}
	for d := range cr2ByDay {
		if _, ok := gawByDay[d]; !ok {
			days = append(days, d)
		}
	}
	slices.SortFunc(days, func(a, b time.Time) int { return a.Compare(b) })

	var out []Flight
	for _, d := range days {
		g, c := gawByDay[d], cr2ByDay[d]
		switch {
		case len(c) == 0:
			out = append(out, cloneFlights(g)...)
		case len(g) == 0:
			out = append(out, cloneFlights(c)...)
		default:
			out = append(out, mergeLaunch(g[0], c[0]))
			out = append(out, cloneFlights(g[1:])...)
		}
	}
	slices.SortStableFunc(out, func(a, b Flight) int { return a.LaunchTime.Compare(b.LaunchTime) })
	return out
}

func mergeLaunch(gaw, cr2 Flight) Flight {
	if cr2.Profile.OzonePartialPressureMPa.CountPresent() > gaw.Profile.OzonePartialPressureMPa.CountPresent() {
		return Flight{LaunchTime: gaw.LaunchTime, Source: SourceCR2, Profile: cr2.Profile.Clone()}
	}
	out := Flight{LaunchTime: gaw.LaunchTime, Source: SourceGAW, Profile: gaw.Profile.Clone()}
	if windSamples(cr2.Profile) > windSamples(gaw.Profile) {
		out.Profile = mergeWinds(out.Profile, cr2.Profile)
	}
	return out
}

func windSamples(p RawFlightProfile) int {
	if !p.HasWind() {
		return 0
	}
	return p.WindSpeedMS.CountPresent()
}

// mergeWinds folds every CR2 sample with a wind reading into the GAW profile.
// A CR2 sample at an altitude GAW already has replaces that GAW row entirely;
// any other becomes a wind-only row placed next to the nearest GAW altitude.
func mergeWinds(gaw, cr2 RawFlightProfile) RawFlightProfile {
	out := gaw.Clone()
	if !out.HasWind() {
		out.WindSpeedMS = MissingSeries(out.Len())
		out.WindDirectionDeg = MissingSeries(out.Len())
	}

	for i := 0; i < cr2.Len(); i++ {
		z, ok := cr2.AltitudeM[i].Get()
		if !ok || cr2.WindSpeedMS[i].IsMissing() || cr2.WindDirectionDeg[i].IsMissing() {
			continue
		}

		if j := indexOfAltitude(out.AltitudeM, z); j >= 0 {
			out.PressureHPa[j] = cr2.PressureHPa[i]
			out.TemperatureC[j] = cr2.TemperatureC[i]
			out.RelativeHumidityPct[j] = cr2.RelativeHumidityPct[i]
			out.OzonePartialPressureMPa[j] = cr2.OzonePartialPressureMPa[i]
			out.WindSpeedMS[j] = cr2.WindSpeedMS[i]
			out.WindDirectionDeg[j] = cr2.WindDirectionDeg[i]
			continue
		}

		at := nearestInsertion(out.AltitudeM, z)
		out.AltitudeM = slices.Insert(out.AltitudeM, at, Present(z))
		out.PressureHPa = slices.Insert(out.PressureHPa, at, Missing())
		out.TemperatureC = slices.Insert(out.TemperatureC, at, Missing())
		out.RelativeHumidityPct = slices.Insert(out.RelativeHumidityPct, at, Missing())
		out.OzonePartialPressureMPa = slices.Insert(out.OzonePartialPressureMPa, at, Missing())
		out.WindSpeedMS = slices.Insert(out.WindSpeedMS, at, cr2.WindSpeedMS[i])
		out.WindDirectionDeg = slices.Insert(out.WindDirectionDeg, at, cr2.WindDirectionDeg[i])
	}
	return out
}

func indexOfAltitude(alt Series, z float64) int {
	for j, v := range alt {
		if a, ok := v.Get(); ok && a == z {
			return j
		}
	}
	return -1
}

// nearestInsertion returns the index a new altitude z is inserted at: before
// the nearest existing altitude, or after it when that altitude is lower.
func nearestInsertion(alt Series, z float64) int {
	best, bestDist := -1, math.Inf(1)
	for j, v := range alt {
		a, ok := v.Get()
		if !ok {
			continue
		}
		if d := math.Abs(a - z); d < bestDist {
			best, bestDist = j, d
		}
	}
	if best < 0 {
		return len(alt)
	}
	if a, _ := alt[best].Get(); a < z {
		best++
	}
	return best
}

func groupByDay(flights []Flight) map[time.Time][]Flight {
	out := make(map[time.Time][]Flight)
	for _, f := range flights {
		d := LaunchDay(f.LaunchTime)
		out[d] = append(out[d], f)
	}
	for _, fs := range out {
		slices.SortStableFunc(fs, func(a, b Flight) int { return a.LaunchTime.Compare(b.LaunchTime) })
	}
	return out
}

// LaunchDay truncates t to midnight UTC.
func LaunchDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cloneFlights(fs []Flight) []Flight {
	out := make([]Flight, len(fs))
	for i, f := range fs {
		out[i] = Flight{LaunchTime: f.LaunchTime, Source: f.Source, Profile: f.Profile.Clone(), Validity: f.Validity}
	}
	return out
}
