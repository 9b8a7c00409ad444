package domain

// AscentIndices returns the indices of the strictly ascending subsequence of
// alt: the first sample, then every sample higher than all samples before it.
// NaN never exceeds the running maximum, so callers drop missing altitudes
// first.
func AscentIndices(alt []float64) []int {
	if len(alt) == 0 {
		return nil
	}
	if strictlyIncreasing(alt) {
		idx := make([]int, len(alt))
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	idx := []int{0}
	zmax := alt[0]
	for i := 1; i < len(alt); i++ {
		if alt[i] > zmax {
			zmax = alt[i]
			idx = append(idx, i)
		}
	}
	return idx
}

// FilterAscent drops samples without an altitude, then every sample that does
// not climb above the running maximum. Every sibling series is filtered with
// the same indices. The input is not modified.
func FilterAscent(p RawFlightProfile) RawFlightProfile {
	present := make([]int, 0, p.Len())
	alt := make([]float64, 0, p.Len())
	for i, v := range p.AltitudeM {
		if z, ok := v.Get(); ok {
			present = append(present, i)
			alt = append(alt, z)
		}
	}

	asc := AscentIndices(alt)
	idx := make([]int, len(asc))
	for i, j := range asc {
		idx[i] = present[j]
	}
	return p.Select(idx)
}

func strictlyIncreasing(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return false
		}
	}
	return true
}
