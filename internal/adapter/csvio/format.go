// Package csvio reads and writes the delimited text tables the station
// tooling exchanges: per-source sounding tables, the reviewer validity table,
// the gridded corpus, per-flight files and the trajectory launch list.
//
// The missing-value sentinel 9000 exists only in this package. Readers map it
// (and empty or "nan" cells) to [domain.Missing]; writers map missing values
// back to it.
package csvio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// Sentinel is written in place of missing output values.
const Sentinel = 9000.0

// DatetimeLayout is the launch timestamp layout of every table.
const DatetimeLayout = "2006-01-02 15:04:05"

var datetimeLayouts = []string{
	DatetimeLayout,
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

// ParseDatetime accepts the table layout with or without seconds, RFC 3339,
// or a bare date. Times are UTC.
func ParseDatetime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range datetimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse datetime %q", s)
}

// parseMeasurement reads one input cell. Empty and NaN cells are missing.
func parseMeasurement(s string) (domain.Value, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan", "///", "na":
		return domain.Missing(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Missing(), fmt.Errorf("parse number %q: %w", s, err)
	}
	return domain.Present(f), nil
}

// parseOutput reads one cell of a gridded table, where the sentinel marks
// missing values.
func parseOutput(s string) (domain.Value, error) {
	v, err := parseMeasurement(s)
	if err != nil {
		return v, err
	}
	if f, ok := v.Get(); ok && f == Sentinel {
		return domain.Missing(), nil
	}
	return v, nil
}

// formatMeasurement writes an input cell; missing values stay empty.
func formatMeasurement(v domain.Value) string {
	f, ok := v.Get()
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatOutput writes a gridded value with fixed decimals, using the sentinel
// for missing values.
func formatOutput(v domain.Value, decimals int) string {
	f, ok := v.Get()
	if !ok {
		f = Sentinel
	}
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// formatAltitude writes grid altitudes as "0.0", "0.1", ... keeping any finer
// digits a custom grid step needs.
func formatAltitude(km float64) string {
	s := strconv.FormatFloat(math.Round(km*1e9)/1e9, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
