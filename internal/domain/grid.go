package domain

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/interp"
)

// gridRounding snaps accumulated grid points (0.1*3 = 0.30000000000000004)
// back onto their decimal value.
const gridRounding = 1e9

// Grid is the fixed altitude axis every flight is interpolated onto.
type Grid struct {
	MinKm  float64
	MaxKm  float64
	StepKm float64
	points []float64
}

// NewGrid builds the grid MinKm, MinKm+StepKm, ... up to MaxKm inclusive.
func NewGrid(minKm, maxKm, stepKm float64) (Grid, error) {
	if !(stepKm > 0) || math.IsInf(stepKm, 0) {
		return Grid{}, fmt.Errorf("%w: grid step must be positive, got %g", ErrConfiguration, stepKm)
	}
	if !(minKm < maxKm) || math.IsInf(minKm, 0) || math.IsInf(maxKm, 0) {
		return Grid{}, fmt.Errorf("%w: grid min %g must be below grid max %g", ErrConfiguration, minKm, maxKm)
	}

	n := int(math.Floor((maxKm-minKm)/stepKm+1e-9)) + 1
	points := make([]float64, n)
	for i := range points {
		points[i] = math.Round((minKm+float64(i)*stepKm)*gridRounding) / gridRounding
	}
	return Grid{MinKm: minKm, MaxKm: maxKm, StepKm: stepKm, points: points}, nil
}

// DefaultGrid is 0 to 35 km every 100 m.
func DefaultGrid() Grid {
	g, err := NewGrid(0, 35, 0.1)
	if err != nil {
		panic(err)
	}
	return g
}

// Len returns the number of grid points.
func (g Grid) Len() int { return len(g.points) }

// Points returns a copy of the altitudes in km.
func (g Grid) Points() []float64 { return slices.Clone(g.points) }

// Interpolate maps an irregular series onto the grid by piecewise-linear
// interpolation in altitude. NaN samples are dropped before fitting, so a
// missing sample widens the bridged interval instead of poisoning its
// neighbours. Grid points outside the span of the remaining samples, and every
// point when valid is false, are NaN. altKm must be strictly increasing.
func (g Grid) Interpolate(altKm, values []float64, valid bool) ([]float64, error) {
	out := nanSlice(len(g.points))
	if !valid {
		return out, nil
	}
	if len(altKm) != len(values) {
		return out, fmt.Errorf("%w: %d altitudes for %d values", ErrMalformedFlight, len(altKm), len(values))
	}

	xs := make([]float64, 0, len(altKm))
	ys := make([]float64, 0, len(values))
	for i, z := range altKm {
		if math.IsNaN(z) || math.IsNaN(values[i]) {
			continue
		}
		xs = append(xs, z)
		ys = append(ys, values[i])
	}

	switch len(xs) {
	case 0:
		return out, nil
	case 1:
		for i, x := range g.points {
			if x == xs[0] {
				out[i] = ys[0]
			}
		}
		return out, nil
	}

	if !strictlyIncreasing(xs) {
		return out, fmt.Errorf("%w: altitudes not strictly increasing", ErrMalformedFlight)
	}

	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return out, fmt.Errorf("fit profile: %w", err)
	}
	lo, hi := xs[0], xs[len(xs)-1]
	for i, x := range g.points {
		if x < lo || x > hi {
			continue
		}
		out[i] = pl.Predict(x)
	}
	return out, nil
}
