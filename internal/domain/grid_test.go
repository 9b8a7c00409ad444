package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid(t *testing.T) {
	t.Run("default grid", func(t *testing.T) {
		g := DefaultGrid()
		pts := g.Points()
		require.Equal(t, 351, g.Len())
		assert.Equal(t, 0.0, pts[0])
		assert.Equal(t, 0.3, pts[3])
		assert.Equal(t, 2.2, pts[22])
		assert.Equal(t, 35.0, pts[350])
	})

	t.Run("length formula", func(t *testing.T) {
		for _, c := range []struct{ min, max, step float64 }{
			{0, 35, 0.1}, {0, 10, 0.5}, {1, 2, 0.25}, {0, 30, 0.2},
		} {
			g := mustGrid(c.min, c.max, c.step)
			assert.Equal(t, int(math.Round((c.max-c.min)/c.step))+1, g.Len())
		}
	})

	t.Run("points are a copy", func(t *testing.T) {
		g := DefaultGrid()
		pts := g.Points()
		pts[0] = 99
		assert.Equal(t, 0.0, g.Points()[0])
	})

	bad := []struct {
		name           string
		min, max, step float64
	}{
		{"zero step", 0, 35, 0},
		{"negative step", 0, 35, -0.1},
		{"nan step", 0, 35, math.NaN()},
		{"min equals max", 5, 5, 0.1},
		{"min above max", 10, 5, 0.1},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.min, tt.max, tt.step)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestGrid_Interpolate(t *testing.T) {
	g := mustGrid(0, 5, 0.5)

	t.Run("invalid is all missing", func(t *testing.T) {
		out, err := g.Interpolate([]float64{0, 5}, []float64{1, 2}, false)
		require.NoError(t, err)
		require.Len(t, out, g.Len())
		for _, v := range out {
			assert.True(t, math.IsNaN(v))
		}
	})

	t.Run("linear between samples", func(t *testing.T) {
		out, err := g.Interpolate([]float64{0, 2, 5}, []float64{0, 20, 50}, true)
		require.NoError(t, err)
		for i, z := range g.Points() {
			assert.InDelta(t, 10*z, out[i], 1e-9)
		}
	})

	t.Run("no extrapolation", func(t *testing.T) {
		out, err := g.Interpolate([]float64{1.2, 3.7}, []float64{1, 2}, true)
		require.NoError(t, err)
		for i, z := range g.Points() {
			if z < 1.2 || z > 3.7 {
				assert.True(t, math.IsNaN(out[i]), "z=%v", z)
			} else {
				assert.False(t, math.IsNaN(out[i]), "z=%v", z)
			}
		}
	})

	t.Run("missing samples are bridged", func(t *testing.T) {
		out, err := g.Interpolate([]float64{0, 1, 2, 3}, []float64{0, math.NaN(), math.NaN(), 30}, true)
		require.NoError(t, err)
		assert.InDelta(t, 15, out[indexOf(g.Points(), 1.5)], 1e-9)
		assert.InDelta(t, 30, out[indexOf(g.Points(), 3.0)], 1e-9)
		assert.True(t, math.IsNaN(out[indexOf(g.Points(), 3.5)]))
	})

	t.Run("missing edge narrows the range", func(t *testing.T) {
		out, err := g.Interpolate([]float64{0, 1, 2}, []float64{math.NaN(), 10, 20}, true)
		require.NoError(t, err)
		assert.True(t, math.IsNaN(out[indexOf(g.Points(), 0.5)]))
		assert.InDelta(t, 10, out[indexOf(g.Points(), 1.0)], 1e-9)
	})

	t.Run("single sample on a grid point", func(t *testing.T) {
		out, err := g.Interpolate([]float64{1.5}, []float64{7}, true)
		require.NoError(t, err)
		for i, z := range g.Points() {
			if z == 1.5 {
				assert.Equal(t, 7.0, out[i])
			} else {
				assert.True(t, math.IsNaN(out[i]))
			}
		}
	})

	t.Run("no samples", func(t *testing.T) {
		out, err := g.Interpolate(nil, nil, true)
		require.NoError(t, err)
		assert.Len(t, out, g.Len())
	})

	t.Run("length mismatch", func(t *testing.T) {
		_, err := g.Interpolate([]float64{0, 1}, []float64{1}, true)
		assert.ErrorIs(t, err, ErrMalformedFlight)
	})

	t.Run("non monotonic axis", func(t *testing.T) {
		_, err := g.Interpolate([]float64{0, 2, 1}, []float64{1, 2, 3}, true)
		assert.ErrorIs(t, err, ErrMalformedFlight)
	})
}

func TestGrid_InterpolateRoundTrip(t *testing.T) {
	g := DefaultGrid()
	pts := g.Points()
	vals := make([]float64, len(pts))
	for i, z := range pts {
		vals[i] = math.Sin(z) * 100
	}

	out, err := g.Interpolate(pts, vals, true)
	require.NoError(t, err)
	assert.Equal(t, vals, out)
}
