package csvio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// flightFileColumns are the short per-flight headers, in quantity order.
var flightFileColumns = map[domain.Quantity]string{
	domain.Pressure:             "Press",
	domain.Temperature:          "Temp",
	domain.RelativeHumidity:     "RH",
	domain.OzonePartialPressure: "O3",
	domain.OzonePPBV:            "O3",
	domain.OzoneColumn:          "O3",
	domain.ZonalWind:            "uwnd",
	domain.MeridionalWind:       "vwnd",
	domain.WindSpeed:            "Speed",
	domain.WindDirection:        "Direction",
	domain.Theta:                "Theta",
	domain.ThetaE:               "Theta_e",
	domain.MixingRatio:          "MixRatio",
}

// FlightFileName is the per-flight file name, e.g. RapaNui_20050309.csv.
func FlightFileName(prefix string, p domain.GriddedFlightProfile) string {
	return prefix + "_" + p.LaunchTime.UTC().Format("20060102") + ".csv"
}

// WriteFlightFile writes one gridded flight: a station metadata header, a row
// of short column names, a row of units, then one tab-separated row per grid
// altitude. The compilation date comes from the domain clock.
func WriteFlightFile(w io.Writer, st domain.Station, p domain.GriddedFlightProfile) error {
	bw := bufio.NewWriter(w)

	elevation := strconv.FormatFloat(Sentinel, 'f', -1, 64)
	if z, ok := p.LaunchAltitudeM.Get(); ok {
		elevation = strconv.FormatFloat(z, 'f', -1, 64)
	}
	compiled := domain.Now().UTC().Format("02 January, 2006")

	meta := [][2]string{
		{"STATION", st.Name},
		{"Data Provider", st.Provider},
		{"Data Compilation", fmt.Sprintf("%s, by %s, data interpolated every %sm", compiled, st.Compiler, gridSpacingM(p.AltitudeKm))},
		{"Latitude (deg)", strconv.FormatFloat(st.LatitudeDeg, 'f', -1, 64)},
		{"Longitude (deg)", strconv.FormatFloat(st.LongitudeDeg, 'f', -1, 64)},
		{"Elevation (m)", elevation},
		{"Launch Date (YYYYMMDD)", p.LaunchTime.UTC().Format("20060102")},
		{"Launch Time (UTC)", p.LaunchTime.UTC().Format("15:04")},
		{"Sonde Instrument, SN", st.Ozonesonde},
		{"Radiosonde, SN", st.Radiosonde},
		{"Solution", st.Solution},
		{"Applied pump corrections", ""},
		{"Pump flow rate (sec/100ml)", "9000"},
		{"Background current (uA)", "9000"},
		{"Missing or bad values", "9000"},
	}
	for _, m := range meta {
		fmt.Fprintf(bw, "%-33s: %s\n", m[0], m[1])
	}

	names := []string{colAlt}
	units := []string{"km"}
	for _, q := range domain.Quantities {
		names = append(names, flightFileColumns[q])
		units = append(units, q.Unit())
	}
	fmt.Fprintln(bw, strings.Join(names, "\t"))
	fmt.Fprintln(bw, strings.Join(units, "\t"))

	row := make([]string, len(names))
	for i, z := range p.AltitudeKm {
		row[0] = formatAltitude(z)
		for j, q := range domain.Quantities {
			v := domain.Missing()
			if s := p.Series(q); i < len(s) {
				v = s[i]
			}
			row[j+1] = formatOutput(v, q.Decimals())
		}
		fmt.Fprintln(bw, strings.Join(row, "\t"))
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write flight file: %w", err)
	}
	return nil
}

func gridSpacingM(alt []float64) string {
	if len(alt) < 2 {
		return "0"
	}
	return strconv.FormatFloat(math.Round((alt[1]-alt[0])*1e6)/1e3, 'f', -1, 64)
}
