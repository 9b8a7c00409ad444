package domain

import "time"

// Season is a meteorological season of the southern-hemisphere station year.
type Season int

const (
	DJF Season = iota
	MAM
	JJA
	SON
)

// Seasons lists the seasons in table column order.
var Seasons = []Season{DJF, MAM, JJA, SON}

func (s Season) String() string {
	switch s {
	case DJF:
		return "DJF"
	case MAM:
		return "MAM"
	case JJA:
		return "JJA"
	case SON:
		return "SON"
	default:
		return "?"
	}
}

// SeasonOf returns the season of month m. December belongs to DJF of its own
// calendar year.
func SeasonOf(m time.Month) Season {
	switch m {
	case time.December, time.January, time.February:
		return DJF
	case time.March, time.April, time.May:
		return MAM
	case time.June, time.July, time.August:
		return JJA
	default:
		return SON
	}
}

// SeasonCounts is one row of a tally table.
type SeasonCounts struct {
	Year   int // 0 on the totals row
	Counts [4]int
}

// Total sums the four seasons.
func (c SeasonCounts) Total() int {
	return c.Counts[DJF] + c.Counts[MAM] + c.Counts[JJA] + c.Counts[SON]
}

// Tally is a per-year, per-season launch count with a totals row.
type Tally struct {
	Years  []SeasonCounts
	Totals SeasonCounts
}

// TallySeasons counts launches per year and season from the first to the last
// launch year, including empty years in between. Repeated launches are never
// counted. The second table counts only launches whose ozone profile is valid.
func TallySeasons(launches []LaunchValidity) (all, valid Tally) {
	var first, last int
	seen := false
	for _, l := range launches {
		if l.Validity.Repeated() {
			continue
		}
		y := l.LaunchTime.Year()
		if !seen || y < first {
			first = y
		}
		if !seen || y > last {
			last = y
		}
		seen = true
	}
	if !seen {
		return Tally{}, Tally{}
	}

	all.Years = make([]SeasonCounts, last-first+1)
	valid.Years = make([]SeasonCounts, last-first+1)
	for i := range all.Years {
		all.Years[i].Year = first + i
		valid.Years[i].Year = first + i
	}

	for _, l := range launches {
		if l.Validity.Repeated() {
			continue
		}
		i := l.LaunchTime.Year() - first
		s := SeasonOf(l.LaunchTime.Month())
		all.Years[i].Counts[s]++
		all.Totals.Counts[s]++
		if l.Validity.Group(GroupOzone).Flag == FlagValid {
			valid.Years[i].Counts[s]++
			valid.Totals.Counts[s]++
		}
	}
	return all, valid
}
