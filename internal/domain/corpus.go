package domain

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// altitudeTolerance matches a requested altitude to a grid point.
const altitudeTolerance = 1e-6

// Corpus holds gridded profiles in ascending launch order. Each launch time
// appears once, so every (launch, altitude) key is unique. Safe for
// concurrent use.
type Corpus struct {
	mu       sync.RWMutex
	profiles []GriddedFlightProfile
	gen      uint64
}

var corpusGeneration atomic.Uint64

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{gen: corpusGeneration.Add(1)}
}

// Generation identifies this corpus among all corpora built by the process.
// Later corpora have larger generations.
func (c *Corpus) Generation() uint64 {
	return c.gen
}

// Add inserts p at its launch-ordered position.
func (c *Corpus) Add(p GriddedFlightProfile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, found := slices.BinarySearchFunc(c.profiles, p.LaunchTime, compareLaunch)
	if found {
		return fmt.Errorf("%w: %s", ErrDuplicateLaunch, p.LaunchTime.Format(launchLayout))
	}
	c.profiles = slices.Insert(c.profiles, i, p)
	return nil
}

// Len returns the number of flights.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.profiles)
}

// RowCount returns the number of (launch, altitude) rows.
func (c *Corpus) RowCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, p := range c.profiles {
		n += p.Len()
	}
	return n
}

// Profiles returns the flights in launch order.
func (c *Corpus) Profiles() []GriddedFlightProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.profiles)
}

// Launches returns the launch times in ascending order.
func (c *Corpus) Launches() []time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]time.Time, len(c.profiles))
	for i, p := range c.profiles {
		out[i] = p.LaunchTime
	}
	return out
}

// Lookup returns the profile launched at t.
func (c *Corpus) Lookup(t time.Time) (GriddedFlightProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, found := slices.BinarySearchFunc(c.profiles, t, compareLaunch)
	if !found {
		return GriddedFlightProfile{}, false
	}
	return c.profiles[i], true
}

// Between returns the profiles launched in [from, to]. A zero bound is open.
func (c *Corpus) Between(from, to time.Time) []GriddedFlightProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []GriddedFlightProfile
	for _, p := range c.profiles {
		if !from.IsZero() && p.LaunchTime.Before(from) {
			continue
		}
		if !to.IsZero() && p.LaunchTime.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// TimePoint is one quantity at one altitude for one launch.
type TimePoint struct {
	LaunchTime time.Time `json:"launch_time"`
	Value      Value     `json:"value"`
}

// SeriesAt returns q at the grid altitude altKm for every launch, in launch
// order. Launches whose grid lacks altKm are skipped.
func (c *Corpus) SeriesAt(q Quantity, altKm float64) []TimePoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]TimePoint, 0, len(c.profiles))
	for _, p := range c.profiles {
		i := altitudeIndex(p.AltitudeKm, altKm)
		if i < 0 {
			continue
		}
		v := Missing()
		if s := p.Series(q); i < len(s) {
			v = s[i]
		}
		out = append(out, TimePoint{LaunchTime: p.LaunchTime, Value: v})
	}
	return out
}

// Row is one (launch, altitude) record of the corpus table.
type Row struct {
	LaunchTime time.Time
	AltitudeKm float64
	Values     [numQuantities]Value
}

// Value returns the row's entry for q.
func (r Row) Value(q Quantity) Value {
	if q < 0 || q >= numQuantities {
		return Missing()
	}
	return r.Values[q]
}

// Rows flattens the corpus into table rows ordered by launch, then altitude.
func (c *Corpus) Rows() []Row {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rows := make([]Row, 0, len(c.profiles)*len(c.profilesGrid()))
	for _, p := range c.profiles {
		for i, z := range p.AltitudeKm {
			r := Row{LaunchTime: p.LaunchTime, AltitudeKm: z}
			for _, q := range Quantities {
				if s := p.Series(q); i < len(s) {
					r.Values[q] = s[i]
				}
			}
			rows = append(rows, r)
		}
	}
	return rows
}

func (c *Corpus) profilesGrid() []float64 {
	if len(c.profiles) == 0 {
		return nil
	}
	return c.profiles[0].AltitudeKm
}

func compareLaunch(p GriddedFlightProfile, t time.Time) int {
	return cmp.Compare(p.LaunchTime.UnixNano(), t.UnixNano())
}

func altitudeIndex(alt []float64, z float64) int {
	i, _ := slices.BinarySearch(alt, z-altitudeTolerance)
	if i < len(alt) && math.Abs(alt[i]-z) <= altitudeTolerance {
		return i
	}
	return -1
}
