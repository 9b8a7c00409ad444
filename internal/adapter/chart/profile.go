// Package chart renders gridded flight profiles as PNG inspection charts.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// Panel is one quantity drawn against altitude.
type Panel struct {
	Quantity domain.Quantity
	Min, Max float64 // zero range autoscales
	Log      bool
}

// InspectionPanels is the six-panel layout used when reviewing a flight.
var InspectionPanels = []Panel{
	{Quantity: domain.OzonePartialPressure, Min: 0, Max: 28},
	{Quantity: domain.Temperature, Min: 190, Max: 310},
	{Quantity: domain.RelativeHumidity, Min: 0, Max: 100},
	{Quantity: domain.Pressure, Min: 1, Max: 1025, Log: true},
	{Quantity: domain.WindSpeed, Min: 0, Max: 80},
	{Quantity: domain.WindDirection, Min: 0, Max: 360},
}

// ErrNoPanels is returned when Render is asked to draw nothing.
var ErrNoPanels = errors.New("no panels requested")

// Options controls the rendered image.
type Options struct {
	Title  string
	Width  vg.Length
	Height vg.Length
	Panels []Panel
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = 15 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 6 * vg.Inch
	}
	if o.Panels == nil {
		o.Panels = InspectionPanels
	}
	return o
}

// Render draws p as one row of panels sharing the altitude axis and writes
// a PNG to w. Missing grid points leave gaps in the lines.
func Render(w io.Writer, p domain.GriddedFlightProfile, opts Options) error {
	opts = opts.withDefaults()
	if len(opts.Panels) == 0 {
		return ErrNoPanels
	}
	if opts.Title == "" {
		opts.Title = p.LaunchTime.UTC().Format(time.DateOnly)
	}

	row := make([]*plot.Plot, 0, len(opts.Panels))
	for i, panel := range opts.Panels {
		pl, err := newPanel(p, panel)
		if err != nil {
			return fmt.Errorf("panel %s: %w", panel.Quantity, err)
		}
		if i == 0 {
			pl.Title.Text = opts.Title
		}
		row = append(row, pl)
	}

	img := vgimg.New(opts.Width, opts.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(row),
		PadX: vg.Millimeter,
		PadY: vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for i, pl := range row {
		pl.Draw(canvases[0][i])
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

func newPanel(p domain.GriddedFlightProfile, panel Panel) (*plot.Plot, error) {
	pl := plot.New()
	pl.X.Label.Text = fmt.Sprintf("%s [%s]", panel.Quantity.Name(), panel.Quantity.Unit())
	pl.Y.Label.Text = "Altitude [km]"
	if panel.Log {
		pl.X.Scale = plot.LogScale{}
		pl.X.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	if panel.Max > panel.Min {
		pl.X.Min, pl.X.Max = panel.Min, panel.Max
	}
	if n := len(p.AltitudeKm); n > 0 {
		pl.Y.Min, pl.Y.Max = p.AltitudeKm[0], p.AltitudeKm[n-1]
	}
	pl.Add(plotter.NewGrid())

	for _, seg := range segments(p.AltitudeKm, p.Series(panel.Quantity), panel.Log) {
		line, err := plotter.NewLine(seg)
		if err != nil {
			return nil, err
		}
		line.Color = color.RGBA{B: 255, A: 255}
		line.Width = vg.Points(0.5)
		pl.Add(line)
	}
	return pl, nil
}

// segments splits a series into runs of present values, with the quantity on
// X and altitude on Y. Non-positive values break runs on a log axis.
func segments(altKm []float64, s domain.Series, logScale bool) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}
	for i, z := range altKm {
		if i >= len(s) {
			break
		}
		v, ok := s[i].Get()
		if !ok || (logScale && v <= 0) {
			flush()
			continue
		}
		cur = append(cur, plotter.XY{X: v, Y: z})
	}
	flush()
	return out
}
