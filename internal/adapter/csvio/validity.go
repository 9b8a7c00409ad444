package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

const colComments = "Comments"

// ErrInvalidFlag is returned for a validity flag other than 1, 0 or -1.
var ErrInvalidFlag = errors.New("invalid validity flag")

func validityHeader() []string {
	h := []string{colDatetime}
	for _, g := range domain.Groups {
		s := g.Suffix()
		h = append(h, "Valid_"+s, "Height_inf_"+s, "Height_sup_"+s)
	}
	return append(h, colComments)
}

// ReadValidity parses the reviewer validity table, one row per launch:
//
//	Datetime;Valid_O3;Height_inf_O3;Height_sup_O3;...;Valid_V;...;Comments
//
// An empty flag leaves the group unset, which resolves as invalid. A window
// needs both heights; a lone bound is ignored.
func ReadValidity(r io.Reader) ([]domain.LaunchValidity, error) {
	cr := csv.NewReader(r)
	cr.Comma = TableDelimiter
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := headerIndex(header)
	if _, ok := index[colDatetime]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, colDatetime)
	}

	var out []domain.LaunchValidity
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lv, err := parseValidityRow(rec, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, lv)
	}
	return out, nil
}

func parseValidityRow(rec []string, index map[string]int) (domain.LaunchValidity, error) {
	launch, err := ParseDatetime(field(rec, index[colDatetime]))
	if err != nil {
		return domain.LaunchValidity{}, err
	}

	v := domain.FlightValidity{Groups: make(map[domain.Group]domain.GroupValidity, len(domain.Groups))}
	if i, ok := index[colComments]; ok {
		v.Comments = strings.TrimSpace(field(rec, i))
	}

	for _, g := range domain.Groups {
		s := g.Suffix()
		i, ok := index["Valid_"+s]
		if !ok {
			continue
		}
		flag, set, err := parseFlag(field(rec, i))
		if err != nil {
			return domain.LaunchValidity{}, fmt.Errorf("Valid_%s: %w", s, err)
		}
		if !set {
			continue
		}
		gv := domain.GroupValidity{Flag: flag}

		lo, err := optionalCell(rec, index, "Height_inf_"+s)
		if err != nil {
			return domain.LaunchValidity{}, err
		}
		hi, err := optionalCell(rec, index, "Height_sup_"+s)
		if err != nil {
			return domain.LaunchValidity{}, err
		}
		if a, okA := lo.Get(); okA {
			if b, okB := hi.Get(); okB {
				w := domain.NewWindow(a, b)
				gv.Window = &w
			}
		}
		v.Groups[g] = gv
	}
	return domain.LaunchValidity{LaunchTime: launch, Validity: v}, nil
}

func optionalCell(rec []string, index map[string]int, name string) (domain.Value, error) {
	i, ok := index[name]
	if !ok {
		return domain.Missing(), nil
	}
	v, err := parseMeasurement(field(rec, i))
	if err != nil {
		return v, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// parseFlag accepts "1", "0", "-1" and their float spellings ("1.0").
func parseFlag(s string) (domain.Flag, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return domain.FlagInvalid, false, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return domain.FlagInvalid, false, fmt.Errorf("%w: %q", ErrInvalidFlag, s)
	}
	switch domain.Flag(f) {
	case domain.FlagValid, domain.FlagInvalid, domain.FlagRepeated:
		return domain.Flag(f), true, nil
	default:
		return domain.FlagInvalid, false, fmt.Errorf("%w: %q", ErrInvalidFlag, s)
	}
}

// WriteValidity writes the validity table in launch order. Unset groups and
// absent windows are written as empty cells for the reviewer to fill in.
func WriteValidity(w io.Writer, launches []domain.LaunchValidity) error {
	sorted := slices.Clone(launches)
	slices.SortStableFunc(sorted, func(a, b domain.LaunchValidity) int { return a.LaunchTime.Compare(b.LaunchTime) })

	cw := csv.NewWriter(w)
	cw.Comma = TableDelimiter
	if err := cw.Write(validityHeader()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, lv := range sorted {
		row := []string{lv.LaunchTime.UTC().Format(DatetimeLayout)}
		for _, g := range domain.Groups {
			gv, ok := lv.Validity.Groups[g]
			if !ok {
				row = append(row, "", "", "")
				continue
			}
			lo, hi := "", ""
			if gv.Window != nil {
				lo = strconv.FormatFloat(gv.Window.LowerKm, 'f', -1, 64)
				hi = strconv.FormatFloat(gv.Window.UpperKm, 'f', -1, 64)
			}
			row = append(row, strconv.Itoa(int(gv.Flag)), lo, hi)
		}
		row = append(row, lv.Validity.Comments)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// UpdateValidityTemplate adds a blank row for every launch the table does not
// list yet. Existing reviewer rows are kept untouched, and the first row wins
// when the table already repeats a launch time.
func UpdateValidityTemplate(existing []domain.LaunchValidity, launches []time.Time) []domain.LaunchValidity {
	seen := make(map[int64]bool, len(existing)+len(launches))
	out := make([]domain.LaunchValidity, 0, len(existing)+len(launches))
	for _, lv := range existing {
		k := lv.LaunchTime.UnixNano()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, lv)
	}
	for _, t := range launches {
		k := t.UnixNano()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, domain.LaunchValidity{LaunchTime: t})
	}
	slices.SortStableFunc(out, func(a, b domain.LaunchValidity) int { return a.LaunchTime.Compare(b.LaunchTime) })
	return out
}
