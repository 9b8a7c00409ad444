// Command validate checks a written corpus for internal consistency: launch
// ordering, grid alignment, physical ranges, wind recombination and, when
// given, agreement with the validity table and the per-flight files.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -corpus out/RapaNui_all_clear.csv \
//	  -validity data/validity.csv \
//	  -flights-dir out
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/csvio"
	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// gridTolerance is the slack allowed on grid spacing after three-decimal
// rounding in the corpus file.
const gridTolerance = 1e-3

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	corpusPath := flag.String("corpus", "", "corpus table written by the ETL")
	validityPath := flag.String("validity", "", "validity table (optional)")
	flightsDir := flag.String("flights-dir", "", "directory of per-flight files (optional)")
	prefix := flag.String("prefix", domain.DefaultStation().FilePrefix, "per-flight file name prefix")
	flag.Parse()

	if *corpusPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*corpusPath, *validityPath, *flightsDir, *prefix); code != 0 {
		os.Exit(code)
	}
}

func run(corpusPath, validityPath, flightsDir, prefix string) int {
	fmt.Println("=== Ozonesonde Corpus Validation ===")
	fmt.Println()

	corpus, err := csvio.ReadCorpusFile(corpusPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load corpus: %v\n", err)
		return 1
	}
	profiles := corpus.Profiles()

	phases := []*phase{
		validateOrdering(profiles),
		validateGrid(profiles),
		validateRanges(profiles),
		validateWinds(profiles),
	}

	if validityPath != "" {
		launches, err := csvio.ReadValidityFile(validityPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load validity: %v\n", err)
			return 1
		}
		phases = append(phases, validateAgainstValidity(profiles, launches))
	}
	if flightsDir != "" {
		phases = append(phases, validateFlightFiles(profiles, flightsDir, prefix))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Flights: %d, rows: %d\n", corpus.Len(), corpus.RowCount())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func stamp(p domain.GriddedFlightProfile) string {
	return p.LaunchTime.UTC().Format(time.RFC3339)
}

// ── Phases ──

func validateOrdering(profiles []domain.GriddedFlightProfile) *phase {
	ph := &phase{name: "Launch ordering"}
	if len(profiles) == 0 {
		ph.errorf("corpus is empty")
		return ph
	}
	for i := 1; i < len(profiles); i++ {
		if !profiles[i].LaunchTime.After(profiles[i-1].LaunchTime) {
			ph.errorf("%s does not follow %s", stamp(profiles[i]), stamp(profiles[i-1]))
		}
	}
	return ph
}

func validateGrid(profiles []domain.GriddedFlightProfile) *phase {
	ph := &phase{name: "Grid alignment"}
	if len(profiles) == 0 {
		return ph
	}
	ref := profiles[0].AltitudeKm
	if len(ref) == 0 {
		ph.errorf("%s: empty grid", stamp(profiles[0]))
		return ph
	}
	if len(ref) > 1 {
		step := ref[1] - ref[0]
		for i := 2; i < len(ref); i++ {
			if d := ref[i] - ref[i-1]; math.Abs(d-step) > gridTolerance {
				ph.errorf("uneven grid spacing at %.3f km: %.4f vs %.4f", ref[i], d, step)
				break
			}
		}
	}

	for _, p := range profiles {
		if len(p.AltitudeKm) != len(ref) {
			ph.errorf("%s: %d grid points, want %d", stamp(p), len(p.AltitudeKm), len(ref))
			continue
		}
		for i, z := range p.AltitudeKm {
			if math.Abs(z-ref[i]) > gridTolerance {
				ph.errorf("%s: altitude %d is %.3f km, want %.3f", stamp(p), i, z, ref[i])
				break
			}
		}
		for _, q := range domain.Quantities {
			if n := len(p.Series(q)); n != len(ref) {
				ph.errorf("%s: %s has %d values, want %d", stamp(p), q, n, len(ref))
			}
		}
	}
	return ph
}

// bounds are generous physical limits for each quantity; values outside them
// mean a unit or sentinel leak rather than a real measurement.
var bounds = map[domain.Quantity][2]float64{
	domain.Pressure:             {0, 1100},
	domain.Temperature:          {150, 340},
	domain.RelativeHumidity:     {0, 110},
	domain.OzonePartialPressure: {0, 50},
	domain.OzonePPBV:            {0, 20000},
	domain.OzoneColumn:          {0, 1000},
	domain.WindSpeed:            {0, 150},
	domain.WindDirection:        {0, 360},
	domain.Theta:                {150, 2500},
	domain.ThetaE:               {150, 2500},
	domain.MixingRatio:          {0, 40},
}

func validateRanges(profiles []domain.GriddedFlightProfile) *phase {
	ph := &phase{name: "Physical ranges"}
	for _, p := range profiles {
		for q, b := range bounds {
			for i, v := range p.Series(q) {
				f, ok := v.Get()
				if !ok {
					continue
				}
				if f == csvio.Sentinel || f < b[0] || f > b[1] {
					ph.errorf("%s: %s=%g at %.1f km outside [%g, %g]", stamp(p), q, f, p.AltitudeKm[i], b[0], b[1])
					break
				}
			}
		}
		column := p.Series(domain.OzoneColumn)
		for i := 1; i < len(column); i++ {
			lo, okLo := column[i-1].Get()
			hi, okHi := column[i].Get()
			if okLo && okHi && hi < lo-gridTolerance {
				ph.errorf("%s: ozone column decreases at %.1f km", stamp(p), p.AltitudeKm[i])
				break
			}
		}
	}
	return ph
}

// validateWinds checks that speed and direction recombine from U and V.
func validateWinds(profiles []domain.GriddedFlightProfile) *phase {
	ph := &phase{name: "Wind recombination"}
	for _, p := range profiles {
		u, v := p.Series(domain.ZonalWind), p.Series(domain.MeridionalWind)
		spd, dir := p.Series(domain.WindSpeed), p.Series(domain.WindDirection)
		n := min(len(p.AltitudeKm), len(u), len(v), len(spd), len(dir))
		for i := range n {
			uf, okU := u[i].Get()
			vf, okV := v[i].Get()
			sf, okS := spd[i].Get()
			df, okD := dir[i].Get()
			if okU != okS || okV != okD || okU != okV {
				ph.errorf("%s: wind presence differs at %.1f km", stamp(p), p.AltitudeKm[i])
				break
			}
			if !okU {
				continue
			}
			wantS, wantD := domain.WindFromComponents(uf, vf)
			if math.Abs(wantS-sf) > 0.01 {
				ph.errorf("%s: speed %.3f, U/V give %.3f at %.1f km", stamp(p), sf, wantS, p.AltitudeKm[i])
				break
			}
			if wantS > 0.5 && angleDiff(wantD, df) > 0.5 {
				ph.errorf("%s: direction %.3f, U/V give %.3f at %.1f km", stamp(p), df, wantD, p.AltitudeKm[i])
				break
			}
		}
	}
	return ph
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	return math.Min(d, 360-d)
}

func validateAgainstValidity(profiles []domain.GriddedFlightProfile, launches []domain.LaunchValidity) *phase {
	ph := &phase{name: "Validity table agreement"}
	byLaunch := make(map[int64]domain.FlightValidity, len(launches))
	for _, lv := range launches {
		if _, ok := byLaunch[lv.LaunchTime.UnixNano()]; !ok {
			byLaunch[lv.LaunchTime.UnixNano()] = lv.Validity
		}
	}
	for _, p := range profiles {
		v, ok := byLaunch[p.LaunchTime.UnixNano()]
		switch {
		case !ok:
			ph.errorf("%s: not in validity table", stamp(p))
		case v.Repeated():
			ph.errorf("%s: repeated launch in corpus", stamp(p))
		case v.Group(domain.GroupOzone).Flag != domain.FlagValid && p.Series(domain.OzonePartialPressure).CountPresent() > 0:
			ph.errorf("%s: ozone flagged invalid but present", stamp(p))
		}
	}
	return ph
}

func validateFlightFiles(profiles []domain.GriddedFlightProfile, dir, prefix string) *phase {
	ph := &phase{name: "Per-flight files"}
	for _, p := range profiles {
		path := filepath.Join(dir, csvio.FlightFileName(prefix, p))
		info, err := os.Stat(path)
		if err != nil {
			ph.errorf("%s: %v", stamp(p), err)
			continue
		}
		if info.Size() == 0 {
			ph.errorf("%s: %s is empty", stamp(p), path)
		}
	}
	return ph
}
