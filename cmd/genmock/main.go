// Command genmock writes synthetic sounding archives and a matching validity
// table for local runs and tests. Profiles follow a standard atmosphere with
// an ozone peak near 25 km, jitter, and the occasional descending sample.
//
// Usage:
//
//	go run ./cmd/genmock -out data -flights 120 -seed 7
//
// It writes GAW_soundings.csv and CR2_soundings.csv (the two raw archives),
// soundings.csv (their merge) and validity.csv.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/csvio"
	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

var firstLaunch = time.Date(1995, time.January, 4, 14, 30, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data", "output directory")
	n := flag.Int("flights", 120, "number of launches")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *n < 1 {
		flag.Usage()
		return fmt.Errorf("-flights must be positive")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))
	gaw, cr2, launches := generate(rng, *n)
	merged := domain.MergeArchives(gaw, cr2)

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"GAW_soundings.csv", func(w io.Writer) error { return csvio.WriteSoundings(w, gaw) }},
		{"CR2_soundings.csv", func(w io.Writer) error { return csvio.WriteSoundings(w, cr2) }},
		{"soundings.csv", func(w io.Writer) error { return csvio.WriteSoundings(w, merged) }},
		{"validity.csv", func(w io.Writer) error { return csvio.WriteValidity(w, launches) }},
	}
	for _, f := range files {
		path := filepath.Join(*out, f.name)
		if err := csvio.WriteFile(path, f.write); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("wrote %s", path)
	}

	printStats(gaw, cr2, merged, launches)
	return nil
}

// generate schedules weekly launches. Each launch lands in one or both
// archives. CR2 copies carry winds and sometimes the longer ozone record.
func generate(rng *rand.Rand, n int) (gaw, cr2 []domain.Flight, launches []domain.LaunchValidity) {
	for i := range n {
		launch := firstLaunch.AddDate(0, 0, 7*i).Add(time.Duration(rng.IntN(90)-45) * time.Minute)
		top := 22000 + rng.Float64()*12000
		profile := sounding(rng, top)

		inGAW, inCR2 := rng.Float64() < 0.75, rng.Float64() < 0.6
		if !inGAW && !inCR2 {
			inGAW = true
		}
		if inGAW {
			p := profile.Clone()
			p.WindSpeedMS, p.WindDirectionDeg = nil, nil
			if inCR2 && rng.Float64() < 0.3 {
				truncateOzone(p, 0.6)
			}
			gaw = append(gaw, domain.Flight{LaunchTime: launch, Source: domain.SourceGAW, Profile: p})
		}
		if inCR2 {
			t := launch
			if inGAW {
				t = t.Add(10 * time.Minute)
			}
			cr2 = append(cr2, domain.Flight{LaunchTime: t, Source: domain.SourceCR2, Profile: profile.Clone()})
		}

		launches = append(launches, domain.LaunchValidity{LaunchTime: launch, Validity: review(rng)})
	}
	return gaw, cr2, launches
}

func review(rng *rand.Rand) domain.FlightValidity {
	v := domain.AllValid()
	switch r := rng.Float64(); {
	case r < 0.03:
		v = v.With(domain.GroupOzone, domain.GroupValidity{Flag: domain.FlagRepeated})
		v.Comments = "repeated sounding"
	case r < 0.12:
		v = v.With(domain.GroupOzone, domain.GroupValidity{Flag: domain.FlagInvalid})
		v.Comments = "ozone sensor failure"
	case r < 0.20:
		lo := 5 + rng.Float64()*15
		w := domain.NewWindow(lo, lo+0.5+rng.Float64()*3)
		v = v.With(domain.GroupOzone, domain.GroupValidity{Flag: domain.FlagValid, Window: &w})
		v.Comments = "noisy ozone layer"
	case r < 0.25:
		v = v.With(domain.GroupWind, domain.GroupValidity{Flag: domain.FlagInvalid})
	}
	return v
}

// sounding samples one ascent every ~50 m up to top metres.
func sounding(rng *rand.Rand, top float64) domain.RawFlightProfile {
	var p domain.RawFlightProfile
	for z := 40.0; z < top; z += 45 + rng.Float64()*10 {
		alt := z
		if rng.Float64() < 0.01 {
			alt = z - 80
		}
		km := alt / 1000

		p.AltitudeM = append(p.AltitudeM, domain.Present(alt))
		p.PressureHPa = append(p.PressureHPa, domain.Present(1013.25*math.Exp(-km/7.4)))
		p.TemperatureC = append(p.TemperatureC, domain.Present(temperature(km)+rng.NormFloat64()*0.3))
		p.RelativeHumidityPct = append(p.RelativeHumidityPct, humidity(rng, km))
		p.OzonePartialPressureMPa = append(p.OzonePartialPressureMPa, ozone(rng, km))
		p.WindSpeedMS = append(p.WindSpeedMS, domain.Present(math.Abs(5+25*math.Exp(-math.Pow((km-12)/4, 2))+rng.NormFloat64())))
		p.WindDirectionDeg = append(p.WindDirectionDeg, domain.Present(math.Mod(260+rng.NormFloat64()*20+360, 360)))
	}
	return p
}

func temperature(km float64) float64 {
	switch {
	case km < 11:
		return 20 - 6.5*km
	case km < 20:
		return -51.5
	default:
		return -51.5 + (km-20)*1.0
	}
}

func humidity(rng *rand.Rand, km float64) domain.Value {
	if rng.Float64() < 0.005 {
		return domain.Missing()
	}
	return domain.Present(math.Max(1, 80*math.Exp(-km/3)+rng.NormFloat64()*2))
}

func ozone(rng *rand.Rand, km float64) domain.Value {
	if rng.Float64() < 0.005 {
		return domain.Missing()
	}
	return domain.Present(math.Max(0.1, 1.5+13*math.Exp(-math.Pow((km-25)/5, 2))+rng.NormFloat64()*0.2))
}

// truncateOzone drops the ozone record above frac of the flight.
func truncateOzone(p domain.RawFlightProfile, frac float64) {
	cut := int(float64(p.Len()) * frac)
	for i := cut; i < p.Len(); i++ {
		p.OzonePartialPressureMPa[i] = domain.Missing()
	}
}

func printStats(gaw, cr2, merged []domain.Flight, launches []domain.LaunchValidity) {
	all, valid := domain.TallySeasons(launches)
	fmt.Println("\n=== Mock archive stats ===")
	fmt.Printf("GAW flights: %d, CR2 flights: %d, merged: %d\n", len(gaw), len(cr2), len(merged))
	fmt.Printf("Non-repeated launches: %d, valid ozone: %d\n", all.Totals.Total(), valid.Totals.Total())

	bySource := map[string]int{}
	for _, f := range merged {
		bySource[f.Source]++
	}
	fmt.Printf("Merged by source: GAW=%d CR2=%d\n", bySource[domain.SourceGAW], bySource[domain.SourceCR2])
}
