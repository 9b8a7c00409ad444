package csvio

import (
	"slices"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// ColumnSwap exchanges the contents of two named columns.
type ColumnSwap struct {
	A, B string
}

// Quirk is a known column mix-up in one source archive for some launch years.
type Quirk struct {
	Source string
	Years  []int
	Swaps  []ColumnSwap
}

// DefaultQuirks lists the mix-ups found in the station archives: the GAW
// files of 2007 and 2008 carry height and wind speed, and humidity and wind
// direction, under each other's headers.
var DefaultQuirks = []Quirk{
	{
		Source: domain.SourceGAW,
		Years:  []int{2007, 2008},
		Swaps: []ColumnSwap{
			{A: colGPHeight, B: colWindSpeed},
			{A: colRelativeHumidity, B: colWindDirection},
		},
	},
}

// remap returns the column index map to use for a launch of the given year,
// after applying every matching quirk to the header index.
func remap(quirks []Quirk, source string, year int, index map[string]int) map[string]int {
	var swaps []ColumnSwap
	for _, q := range quirks {
		if q.Source == source && slices.Contains(q.Years, year) {
			swaps = append(swaps, q.Swaps...)
		}
	}
	if len(swaps) == 0 {
		return index
	}

	out := make(map[string]int, len(index))
	for k, v := range index {
		out[k] = v
	}
	for _, s := range swaps {
		a, okA := out[s.A]
		b, okB := out[s.B]
		if !okA || !okB {
			continue
		}
		out[s.A], out[s.B] = b, a
	}
	return out
}
