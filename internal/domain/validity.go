package domain

import (
	"math"
	"slices"
	"time"
)

// Group is a variable group the reviewer flags independently.
type Group int

const (
	GroupOzone Group = iota
	GroupTemperature
	GroupPressure
	GroupRelativeHumidity
	GroupWind
)

// Groups lists every variable group in validity-table column order.
var Groups = []Group{GroupOzone, GroupTemperature, GroupPressure, GroupRelativeHumidity, GroupWind}

// Suffix is the column suffix used by the validity table, e.g. "O3" in Valid_O3.
func (g Group) Suffix() string {
	switch g {
	case GroupOzone:
		return "O3"
	case GroupTemperature:
		return "T"
	case GroupPressure:
		return "P"
	case GroupRelativeHumidity:
		return "RH"
	case GroupWind:
		return "V"
	default:
		return ""
	}
}

func (g Group) String() string { return g.Suffix() }

// Flag is a reviewer verdict. The numeric values match the validity table.
type Flag int

const (
	FlagRepeated Flag = -1
	FlagInvalid  Flag = 0
	FlagValid    Flag = 1
)

func (f Flag) String() string {
	switch f {
	case FlagRepeated:
		return "repeated"
	case FlagValid:
		return "valid"
	default:
		return "invalid"
	}
}

// ShallowWindowDepthKm is the deepest bad window that is excised rather than
// nulled in place. Inclusive.
const ShallowWindowDepthKm = 1.0

// Window is a bad altitude interval in km, inclusive on both ends.
type Window struct {
	LowerKm float64
	UpperKm float64
}

// NewWindow orders the bounds.
func NewWindow(a, b float64) Window {
	if a > b {
		a, b = b, a
	}
	return Window{LowerKm: a, UpperKm: b}
}

// Depth is the vertical extent in km.
func (w Window) Depth() float64 { return w.UpperKm - w.LowerKm }

// Shallow reports whether the window is excised instead of nulled.
func (w Window) Shallow() bool { return w.Depth() <= ShallowWindowDepthKm }

// Contains reports whether altKm falls in the closed interval.
func (w Window) Contains(altKm float64) bool {
	return altKm >= w.LowerKm && altKm <= w.UpperKm
}

// GroupValidity is the verdict for one group of one flight. Window is only
// meaningful when Flag is FlagValid.
type GroupValidity struct {
	Flag   Flag
	Window *Window
}

// FlightValidity is the reviewer record for one launch. Groups without an
// entry are treated as invalid.
type FlightValidity struct {
	Groups   map[Group]GroupValidity
	Comments string
}

// AllValid returns a record with every group valid and no windows.
func AllValid() FlightValidity {
	v := FlightValidity{Groups: make(map[Group]GroupValidity, len(Groups))}
	for _, g := range Groups {
		v.Groups[g] = GroupValidity{Flag: FlagValid}
	}
	return v
}

// Group returns the verdict for g.
func (v FlightValidity) Group(g Group) GroupValidity {
	return v.Groups[g]
}

// With returns a copy with g set to gv.
func (v FlightValidity) With(g Group, gv GroupValidity) FlightValidity {
	out := FlightValidity{Groups: make(map[Group]GroupValidity, len(v.Groups)+1), Comments: v.Comments}
	for k, x := range v.Groups {
		out.Groups[k] = x
	}
	out.Groups[g] = gv
	return out
}

// Repeated reports whether the launch is a duplicate. Any group flagged
// repeated excludes the whole flight.
func (v FlightValidity) Repeated() bool {
	for _, gv := range v.Groups {
		if gv.Flag == FlagRepeated {
			return true
		}
	}
	return false
}

// LaunchValidity pairs a validity record with its launch time, as read from
// the validity table.
type LaunchValidity struct {
	LaunchTime time.Time
	Validity   FlightValidity
}

// Policy is the resolved validity of one output quantity.
type Policy struct {
	Valid   bool
	Windows []Window
}

// Resolve combines the verdicts of the groups a quantity depends on. The
// result is valid only when every group is valid; its windows are the
// deduplicated union of the groups' windows.
func (v FlightValidity) Resolve(groups ...Group) Policy {
	p := Policy{Valid: len(groups) > 0}
	for _, g := range groups {
		gv := v.Group(g)
		if gv.Flag != FlagValid {
			return Policy{}
		}
		if gv.Window == nil {
			continue
		}
		w := NewWindow(gv.Window.LowerKm, gv.Window.UpperKm)
		if !slices.Contains(p.Windows, w) {
			p.Windows = append(p.Windows, w)
		}
	}
	return p
}

// Apply filters aligned series according to the policy. Samples inside
// shallow windows are dropped from the altitude axis and every series; values
// inside deep windows become NaN while their altitudes stay. An invalid policy
// keeps the axis and turns every value into NaN. Inputs are not modified.
func (p Policy) Apply(altKm []float64, series ...[]float64) ([]float64, [][]float64) {
	if !p.Valid {
		out := make([][]float64, len(series))
		for i := range series {
			out[i] = nanSlice(len(altKm))
		}
		return slices.Clone(altKm), out
	}

	keep := make([]int, 0, len(altKm))
	for i, z := range altKm {
		excised := false
		for _, w := range p.Windows {
			if w.Shallow() && w.Contains(z) {
				excised = true
				break
			}
		}
		if !excised {
			keep = append(keep, i)
		}
	}

	alt := make([]float64, len(keep))
	for i, j := range keep {
		alt[i] = altKm[j]
	}
	out := make([][]float64, len(series))
	for s, vals := range series {
		o := make([]float64, len(keep))
		for i, j := range keep {
			o[i] = vals[j]
		}
		out[s] = o
	}

	for _, w := range p.Windows {
		if w.Shallow() {
			continue
		}
		for i, z := range alt {
			if !w.Contains(z) {
				continue
			}
			for s := range out {
				out[s][i] = math.NaN()
			}
		}
	}
	return alt, out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
