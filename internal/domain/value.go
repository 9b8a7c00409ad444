package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// Value is a single measurement that is either present or missing.
// The zero Value is missing.
type Value struct {
	v  float64
	ok bool
}

// Present wraps a finite number. NaN and ±Inf become Missing.
func Present(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{v: v, ok: true}
}

// Missing returns a Value with no measurement.
func Missing() Value { return Value{} }

// Get returns the number and whether it is present.
func (x Value) Get() (float64, bool) { return x.v, x.ok }

// IsMissing reports whether the value carries no measurement.
func (x Value) IsMissing() bool { return !x.ok }

// Float returns the number, or NaN when missing. Numeric kernels work on NaN
// so that missing values propagate through arithmetic.
func (x Value) Float() float64 {
	if !x.ok {
		return math.NaN()
	}
	return x.v
}

func (x Value) String() string {
	if !x.ok {
		return "missing"
	}
	return fmt.Sprintf("%g", x.v)
}

// MarshalJSON encodes a missing value as null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON accepts a number or null.
func (x *Value) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*x = Missing()
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	*x = Present(f)
	return nil
}

// Series is an ordered sequence of values aligned to some altitude axis.
type Series []Value

// SeriesOf builds a Series from plain numbers; NaN entries become Missing.
func SeriesOf(vs ...float64) Series {
	s := make(Series, len(vs))
	for i, v := range vs {
		s[i] = Present(v)
	}
	return s
}

// MissingSeries returns n missing values.
func MissingSeries(n int) Series {
	return make(Series, n)
}

// Floats returns the series as float64 with NaN for missing entries.
func (s Series) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v.Float()
	}
	return out
}

// CountPresent returns the number of non-missing values.
func (s Series) CountPresent() int {
	n := 0
	for _, v := range s {
		if v.ok {
			n++
		}
	}
	return n
}

// AllMissing reports whether no value is present.
func (s Series) AllMissing() bool { return s.CountPresent() == 0 }

func (s Series) clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}
