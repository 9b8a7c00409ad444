package domain

import (
	"fmt"
	"time"
)

// RawFlightProfile holds one balloon flight in original sample order.
// All present series share the length and index alignment of AltitudeM.
// WindSpeedMS and WindDirectionDeg are nil when the flight carries no winds.
type RawFlightProfile struct {
	AltitudeM               Series
	PressureHPa             Series
	TemperatureC            Series
	RelativeHumidityPct     Series
	OzonePartialPressureMPa Series
	WindSpeedMS             Series
	WindDirectionDeg        Series
}

// Flight is one launch: its raw profile plus the reviewer's verdict.
type Flight struct {
	LaunchTime time.Time
	Source     string // "GAW" or "CR2"
	Profile    RawFlightProfile
	Validity   FlightValidity
}

// Len returns the number of samples.
func (p RawFlightProfile) Len() int { return len(p.AltitudeM) }

// HasWind reports whether the flight carries wind series at all.
func (p RawFlightProfile) HasWind() bool {
	return p.WindSpeedMS != nil && p.WindDirectionDeg != nil
}

// Validate checks that every present series is aligned with the altitude axis.
func (p RawFlightProfile) Validate() error {
	n := p.Len()
	named := []struct {
		name string
		s    Series
	}{
		{"pressure", p.PressureHPa},
		{"temperature", p.TemperatureC},
		{"relative humidity", p.RelativeHumidityPct},
		{"ozone partial pressure", p.OzonePartialPressureMPa},
	}
	for _, c := range named {
		if len(c.s) != n {
			return fmt.Errorf("%w: %s has %d samples, altitude has %d", ErrMalformedFlight, c.name, len(c.s), n)
		}
	}
	if (p.WindSpeedMS == nil) != (p.WindDirectionDeg == nil) {
		return fmt.Errorf("%w: wind speed and direction must be both present or both absent", ErrMalformedFlight)
	}
	if p.HasWind() && (len(p.WindSpeedMS) != n || len(p.WindDirectionDeg) != n) {
		return fmt.Errorf("%w: wind has %d/%d samples, altitude has %d",
			ErrMalformedFlight, len(p.WindSpeedMS), len(p.WindDirectionDeg), n)
	}
	return nil
}

// Select returns a copy holding only the samples at idx, in that order.
func (p RawFlightProfile) Select(idx []int) RawFlightProfile {
	pick := func(s Series) Series {
		if s == nil {
			return nil
		}
		out := make(Series, len(idx))
		for i, j := range idx {
			out[i] = s[j]
		}
		return out
	}
	return RawFlightProfile{
		AltitudeM:               pick(p.AltitudeM),
		PressureHPa:             pick(p.PressureHPa),
		TemperatureC:            pick(p.TemperatureC),
		RelativeHumidityPct:     pick(p.RelativeHumidityPct),
		OzonePartialPressureMPa: pick(p.OzonePartialPressureMPa),
		WindSpeedMS:             pick(p.WindSpeedMS),
		WindDirectionDeg:        pick(p.WindDirectionDeg),
	}
}

// Clone returns a deep copy.
func (p RawFlightProfile) Clone() RawFlightProfile {
	return RawFlightProfile{
		AltitudeM:               p.AltitudeM.clone(),
		PressureHPa:             p.PressureHPa.clone(),
		TemperatureC:            p.TemperatureC.clone(),
		RelativeHumidityPct:     p.RelativeHumidityPct.clone(),
		OzonePartialPressureMPa: p.OzonePartialPressureMPa.clone(),
		WindSpeedMS:             p.WindSpeedMS.clone(),
		WindDirectionDeg:        p.WindDirectionDeg.clone(),
	}
}

// Station describes the launch site, written into per-flight file headers.
type Station struct {
	Name         string  `toml:"name"`
	FilePrefix   string  `toml:"file_prefix"`
	Provider     string  `toml:"provider"`
	Compiler     string  `toml:"compiler"`
	LatitudeDeg  float64 `toml:"latitude"`
	LongitudeDeg float64 `toml:"longitude"`
	Ozonesonde   string  `toml:"ozonesonde"`
	Radiosonde   string  `toml:"radiosonde"`
	Solution     string  `toml:"solution"`
}

// DefaultStation is Easter Island, the station the archives were built for.
func DefaultStation() Station {
	return Station{
		Name:         "Easter Island (Rapa Nui), Chile",
		FilePrefix:   "RapaNui",
		Provider:     "DMC Dirección Meteorológica de Chile, GAW Program",
		Compiler:     "CR2 Center for Climate and Resilience Research",
		LatitudeDeg:  -27.17,
		LongitudeDeg: -109.42,
		Ozonesonde:   "SPC 6A",
		Radiosonde:   "Vaisala, CCE64B",
		Solution:     "1.0% buffered",
	}
}
