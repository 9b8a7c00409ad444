package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

const (
	colDatetime          = "Datetime"
	colGPHeight          = "GPHeight"
	colPressure          = "Pressure"
	colTemperature       = "Temperature"
	colRelativeHumidity  = "RelativeHumidity"
	colO3PartialPressure = "O3PartialPressure"
	colWindSpeed         = "WindSpeed"
	colWindDirection     = "WindDirection"
)

var requiredSoundingColumns = []string{
	colDatetime, colGPHeight, colPressure, colTemperature, colRelativeHumidity, colO3PartialPressure,
}

// TableDelimiter separates fields in the sounding and validity tables.
const TableDelimiter = ';'

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// SoundingOptions controls how a per-source sounding table is read.
type SoundingOptions struct {
	// Source names the archive. It is copied into Flight.Source and selects
	// the quirks that apply.
	Source string
	Quirks []Quirk
}

// ReadSoundings parses a sounding table: one row per sample, consecutive rows
// with the same Datetime forming one flight. Wind columns are optional.
// Negative ozone readings are treated as missing. Flights come back in file
// order with an empty validity record.
func ReadSoundings(r io.Reader, opts SoundingOptions) ([]domain.Flight, error) {
	cr := csv.NewReader(r)
	cr.Comma = TableDelimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := headerIndex(header)
	for _, c := range requiredSoundingColumns {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	_, hasSpeed := index[colWindSpeed]
	_, hasDir := index[colWindDirection]
	hasWind := hasSpeed && hasDir

	var (
		flights []domain.Flight
		cur     *domain.Flight
		cols    map[string]int
		stamp   string
	)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}

		ts := strings.TrimSpace(field(rec, index[colDatetime]))
		if cur == nil || ts != stamp {
			launch, err := ParseDatetime(ts)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			flights = append(flights, newFlight(launch, opts.Source, hasWind))
			cur = &flights[len(flights)-1]
			cols = remap(opts.Quirks, opts.Source, launch.Year(), index)
			stamp = ts
		}

		if err := appendSample(cur, rec, cols, hasWind); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return flights, nil
}

func newFlight(launch time.Time, source string, hasWind bool) domain.Flight {
	f := domain.Flight{LaunchTime: launch, Source: source}
	f.Profile = domain.RawFlightProfile{
		AltitudeM:               domain.Series{},
		PressureHPa:             domain.Series{},
		TemperatureC:            domain.Series{},
		RelativeHumidityPct:     domain.Series{},
		OzonePartialPressureMPa: domain.Series{},
	}
	if hasWind {
		f.Profile.WindSpeedMS = domain.Series{}
		f.Profile.WindDirectionDeg = domain.Series{}
	}
	return f
}

func appendSample(f *domain.Flight, rec []string, cols map[string]int, hasWind bool) error {
	get := func(name string) (domain.Value, error) {
		v, err := parseMeasurement(field(rec, cols[name]))
		if err != nil {
			return v, fmt.Errorf("%s: %w", name, err)
		}
		return v, nil
	}

	names := []string{colGPHeight, colPressure, colTemperature, colRelativeHumidity, colO3PartialPressure}
	vals := make([]domain.Value, len(names))
	for i, n := range names {
		v, err := get(n)
		if err != nil {
			return err
		}
		vals[i] = v
	}
	if o3, ok := vals[4].Get(); ok && o3 < 0 {
		vals[4] = domain.Missing()
	}

	p := &f.Profile
	p.AltitudeM = append(p.AltitudeM, vals[0])
	p.PressureHPa = append(p.PressureHPa, vals[1])
	p.TemperatureC = append(p.TemperatureC, vals[2])
	p.RelativeHumidityPct = append(p.RelativeHumidityPct, vals[3])
	p.OzonePartialPressureMPa = append(p.OzonePartialPressureMPa, vals[4])

	if hasWind {
		ws, err := get(colWindSpeed)
		if err != nil {
			return err
		}
		wd, err := get(colWindDirection)
		if err != nil {
			return err
		}
		p.WindSpeedMS = append(p.WindSpeedMS, ws)
		p.WindDirectionDeg = append(p.WindDirectionDeg, wd)
	}
	return nil
}

// WriteSoundings writes flights as a sounding table. Wind columns are written
// when any flight carries winds; missing cells are left empty.
func WriteSoundings(w io.Writer, flights []domain.Flight) error {
	withWind := false
	for _, f := range flights {
		if f.Profile.HasWind() {
			withWind = true
			break
		}
	}

	cw := csv.NewWriter(w)
	cw.Comma = TableDelimiter

	header := []string{colDatetime, colGPHeight, colPressure, colTemperature, colRelativeHumidity, colO3PartialPressure}
	if withWind {
		header = append(header, colWindSpeed, colWindDirection)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, f := range flights {
		p := f.Profile
		if err := p.Validate(); err != nil {
			return fmt.Errorf("launch %s: %w", f.LaunchTime.Format(DatetimeLayout), err)
		}
		stamp := f.LaunchTime.UTC().Format(DatetimeLayout)
		for i := 0; i < p.Len(); i++ {
			row := []string{
				stamp,
				formatMeasurement(p.AltitudeM[i]),
				formatMeasurement(p.PressureHPa[i]),
				formatMeasurement(p.TemperatureC[i]),
				formatMeasurement(p.RelativeHumidityPct[i]),
				formatMeasurement(p.OzonePartialPressureMPa[i]),
			}
			if withWind {
				ws, wd := domain.Missing(), domain.Missing()
				if p.HasWind() {
					ws, wd = p.WindSpeedMS[i], p.WindDirectionDeg[i]
				}
				row = append(row, formatMeasurement(ws), formatMeasurement(wd))
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		index[h] = i
	}
	return index
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
