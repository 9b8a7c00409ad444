package csvio

import (
	"context"
	"log/slog"
	"slices"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// TableSource supplies flights from a merged sounding table joined with the
// reviewer validity table. Only launches the validity table lists are
// returned: a sounding nobody reviewed has no verdict and is left out.
type TableSource struct {
	soundingsPath string
	validityPath  string
	opts          SoundingOptions
	logger        *slog.Logger
}

// NewTableSource creates a TableSource over the two table files.
func NewTableSource(soundingsPath, validityPath string, opts SoundingOptions, logger *slog.Logger) *TableSource {
	return &TableSource{
		soundingsPath: soundingsPath,
		validityPath:  validityPath,
		opts:          opts,
		logger:        logger,
	}
}

// Flights reads both tables and returns the reviewed flights in launch order.
func (s *TableSource) Flights(ctx context.Context) ([]domain.Flight, error) {
	flights, err := ReadSoundingsFile(s.soundingsPath, s.opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	launches, err := ReadValidityFile(s.validityPath)
	if err != nil {
		return nil, err
	}

	joined, unreviewed := JoinValidity(flights, launches)
	if unreviewed > 0 {
		s.logger.Warn("soundings without a validity row skipped", "count", unreviewed)
	}
	s.logger.Info("flights read",
		"soundings", len(flights),
		"reviewed", len(joined),
		"path", s.soundingsPath,
	)
	return joined, nil
}

// JoinValidity attaches each launch's validity record to the flight with the
// same launch time and drops flights the table does not list. It returns the
// joined flights in launch order and the number dropped. When the validity
// table repeats a launch time, the first row wins.
func JoinValidity(flights []domain.Flight, launches []domain.LaunchValidity) ([]domain.Flight, int) {
	byLaunch := make(map[int64]domain.FlightValidity, len(launches))
	for _, lv := range launches {
		k := lv.LaunchTime.UnixNano()
		if _, ok := byLaunch[k]; !ok {
			byLaunch[k] = lv.Validity
		}
	}

	out := make([]domain.Flight, 0, len(flights))
	dropped := 0
	for _, f := range flights {
		v, ok := byLaunch[f.LaunchTime.UnixNano()]
		if !ok {
			dropped++
			continue
		}
		f.Validity = v
		out = append(out, f)
	}
	slices.SortStableFunc(out, func(a, b domain.Flight) int { return a.LaunchTime.Compare(b.LaunchTime) })
	return out, dropped
}
