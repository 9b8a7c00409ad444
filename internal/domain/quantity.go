package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Quantity identifies one gridded output column.
type Quantity int

// Output columns, in file order.
const (
	Pressure Quantity = iota
	Temperature
	RelativeHumidity
	OzonePartialPressure
	OzonePPBV
	OzoneColumn
	ZonalWind
	MeridionalWind
	WindSpeed
	WindDirection
	Theta
	ThetaE
	MixingRatio

	numQuantities
)

// Quantities lists every output column in file order.
var Quantities = []Quantity{
	Pressure, Temperature, RelativeHumidity, OzonePartialPressure, OzonePPBV, OzoneColumn,
	ZonalWind, MeridionalWind, WindSpeed, WindDirection, Theta, ThetaE, MixingRatio,
}

var quantityMeta = [numQuantities]struct {
	name     string
	unit     string
	decimals int
}{
	Pressure:             {"Pressure", "hPa", 3},
	Temperature:          {"Temp", "K", 3},
	RelativeHumidity:     {"RH", "%", 3},
	OzonePartialPressure: {"O3_mPa", "mPa", 3},
	OzonePPBV:            {"O3_ppbv", "ppbv", 3},
	OzoneColumn:          {"O3_column", "DU", 3},
	ZonalWind:            {"U", "m/s", 3},
	MeridionalWind:       {"V", "m/s", 3},
	WindSpeed:            {"WndSpd", "m/s", 3},
	WindDirection:        {"WndDir", "°", 3},
	Theta:                {"Theta", "K", 3},
	ThetaE:               {"Theta_e", "K", 3},
	MixingRatio:          {"Mixing_Ratio", "g/kg", 5},
}

// Name is the column header, e.g. "O3_ppbv".
func (q Quantity) Name() string {
	if q < 0 || q >= numQuantities {
		return fmt.Sprintf("Quantity(%d)", int(q))
	}
	return quantityMeta[q].name
}

// Unit is the column unit row entry.
func (q Quantity) Unit() string {
	if q < 0 || q >= numQuantities {
		return ""
	}
	return quantityMeta[q].unit
}

// Decimals is the number of fraction digits written to text files.
func (q Quantity) Decimals() int {
	if q < 0 || q >= numQuantities {
		return 3
	}
	return quantityMeta[q].decimals
}

func (q Quantity) String() string { return q.Name() }

// ParseQuantity resolves a column header back to its Quantity.
func ParseQuantity(name string) (Quantity, error) {
	for _, q := range Quantities {
		if q.Name() == name {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown quantity %q", name)
}

// GriddedFlightProfile is one flight evaluated on the shared altitude grid.
// Every series has the length of AltitudeKm.
type GriddedFlightProfile struct {
	LaunchTime      time.Time
	LaunchAltitudeM Value
	AltitudeKm      []float64
	Quantities      map[Quantity]Series
}

// Series returns the gridded values of q, all missing when q was never set.
func (p GriddedFlightProfile) Series(q Quantity) Series {
	if s, ok := p.Quantities[q]; ok {
		return s
	}
	return MissingSeries(len(p.AltitudeKm))
}

// Len returns the number of grid points.
func (p GriddedFlightProfile) Len() int { return len(p.AltitudeKm) }

// EmptyProfile returns a profile that is missing at every grid point.
func EmptyProfile(launch time.Time, g Grid) GriddedFlightProfile {
	p := GriddedFlightProfile{
		LaunchTime: launch,
		AltitudeKm: g.Points(),
		Quantities: make(map[Quantity]Series, len(Quantities)),
	}
	for _, q := range Quantities {
		p.Quantities[q] = MissingSeries(g.Len())
	}
	return p
}

type profileJSON struct {
	LaunchTime      time.Time         `json:"launch_time"`
	LaunchAltitudeM Value             `json:"launch_altitude_m"`
	AltitudeKm      []float64         `json:"altitude_km"`
	Quantities      map[string]Series `json:"quantities"`
}

// MarshalJSON keys quantities by column name; missing values encode as null.
func (p GriddedFlightProfile) MarshalJSON() ([]byte, error) {
	out := profileJSON{
		LaunchTime:      p.LaunchTime,
		LaunchAltitudeM: p.LaunchAltitudeM,
		AltitudeKm:      p.AltitudeKm,
		Quantities:      make(map[string]Series, len(Quantities)),
	}
	for _, q := range Quantities {
		out.Quantities[q.Name()] = p.Series(q)
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *GriddedFlightProfile) UnmarshalJSON(data []byte) error {
	var in profileJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	p.LaunchTime = in.LaunchTime
	p.LaunchAltitudeM = in.LaunchAltitudeM
	p.AltitudeKm = in.AltitudeKm
	p.Quantities = make(map[Quantity]Series, len(in.Quantities))
	for name, s := range in.Quantities {
		q, err := ParseQuantity(name)
		if err != nil {
			return err
		}
		p.Quantities[q] = s
	}
	return nil
}
