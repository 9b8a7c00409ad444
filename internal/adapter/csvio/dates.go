package csvio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// LaunchDateLayout is the "yy mm dd HH MM" line format trajectory models take.
const LaunchDateLayout = "06 01 02 15 04"

// WriteLaunchDates writes one line per launch in table order, skipping
// repeated soundings.
func WriteLaunchDates(w io.Writer, launches []domain.LaunchValidity) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for _, lv := range launches {
		if lv.Validity.Repeated() {
			continue
		}
		if _, err := fmt.Fprintln(bw, lv.LaunchTime.UTC().Format(LaunchDateLayout)); err != nil {
			return n, fmt.Errorf("write launch date: %w", err)
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("write launch dates: %w", err)
	}
	return n, nil
}
