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

const colAlt = "Alt"

// CorpusFileName is the corpus file name for a station prefix.
func CorpusFileName(prefix string) string {
	return prefix + "_all_clear.csv"
}

// WriteCorpus writes every (launch, altitude) row of the corpus:
//
//	Datetime,Alt,Pressure,Temp,...,Mixing_Ratio
//	,km,hPa,K,...,g/kg
//	2005-03-09 14:30:00,0.0,1013.250,...
//
// Rows are ordered by launch, then altitude. Missing values use the sentinel.
func WriteCorpus(w io.Writer, c *domain.Corpus) error {
	cw := csv.NewWriter(w)

	names := []string{colDatetime, colAlt}
	units := []string{"", "km"}
	for _, q := range domain.Quantities {
		names = append(names, q.Name())
		units = append(units, q.Unit())
	}
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.Write(units); err != nil {
		return fmt.Errorf("write units: %w", err)
	}

	row := make([]string, len(names))
	for _, r := range c.Rows() {
		row[0] = r.LaunchTime.UTC().Format(DatetimeLayout)
		row[1] = formatAltitude(r.AltitudeKm)
		for i, q := range domain.Quantities {
			row[i+2] = formatOutput(r.Value(q), q.Decimals())
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCorpus loads a corpus file written by [WriteCorpus]. Sentinel cells come
// back as missing values. Columns are matched by name, so extra or reordered
// columns are tolerated.
func ReadCorpus(r io.Reader) (*domain.Corpus, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := headerIndex(header)
	for _, c := range []string{colDatetime, colAlt} {
		if _, ok := index[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("read units: %w", err)
	}

	corpus := domain.NewCorpus()
	var (
		cur   *domain.GriddedFlightProfile
		stamp string
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		return corpus.Add(*cur)
	}

	for line := 3; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		ts := strings.TrimSpace(field(rec, index[colDatetime]))
		if cur == nil || ts != stamp {
			if err := flush(); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			launch, err := ParseDatetime(ts)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			cur = newGridded(launch)
			stamp = ts
		}

		alt, err := parseMeasurement(field(rec, index[colAlt]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", line, colAlt, err)
		}
		z, ok := alt.Get()
		if !ok {
			return nil, fmt.Errorf("line %d: %s is empty", line, colAlt)
		}
		cur.AltitudeKm = append(cur.AltitudeKm, z)

		for _, q := range domain.Quantities {
			v := domain.Missing()
			if i, ok := index[q.Name()]; ok {
				v, err = parseOutput(field(rec, i))
				if err != nil {
					return nil, fmt.Errorf("line %d: %s: %w", line, q.Name(), err)
				}
			}
			cur.Quantities[q] = append(cur.Quantities[q], v)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return corpus, nil
}

func newGridded(launch time.Time) *domain.GriddedFlightProfile {
	p := &domain.GriddedFlightProfile{
		LaunchTime: launch,
		Quantities: make(map[domain.Quantity]domain.Series, len(domain.Quantities)),
	}
	for _, q := range domain.Quantities {
		p.Quantities[q] = domain.Series{}
	}
	return p
}
