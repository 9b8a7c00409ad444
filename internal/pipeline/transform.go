package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// FlightRegularizer implements Regularizer with the domain regularization
// over a fixed grid.
type FlightRegularizer struct {
	grid   domain.Grid
	logger *slog.Logger
}

// NewRegularizer creates a FlightRegularizer for grid.
func NewRegularizer(grid domain.Grid, logger *slog.Logger) *FlightRegularizer {
	return &FlightRegularizer{
		grid:   grid,
		logger: logger,
	}
}

func (r *FlightRegularizer) Regularize(ctx context.Context, f domain.Flight) (domain.GriddedFlightProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmptyProfile(f.LaunchTime, r.grid), err
	}
	prof, err := domain.Regularize(f, r.grid)
	if err != nil {
		return prof, err
	}
	r.logger.Debug("flight regularized", "launch", f.LaunchTime, "samples", f.Profile.Len())
	return prof, nil
}
