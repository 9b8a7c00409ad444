package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/chart"
	"github.com/couchcryptid/ozonesonde-etl/internal/adapter/csvio"
	xlsxadapter "github.com/couchcryptid/ozonesonde-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

func newMergeCmd(a *app) *cobra.Command {
	var gawPath, cr2Path, outPath, validityPath string
	var noQuirks bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the GAW and CR2 sounding archives",
		Long: "Merge the two per-source sounding tables into one table, one flight per\n" +
			"launch day, and add a blank validity row for every new launch.",
		RunE: func(cmd *cobra.Command, args []string) error {
			quirks := csvio.DefaultQuirks
			if noQuirks {
				quirks = nil
			}
			gaw, err := csvio.ReadSoundingsFile(gawPath, csvio.SoundingOptions{Source: domain.SourceGAW, Quirks: quirks})
			if err != nil {
				return err
			}
			cr2, err := csvio.ReadSoundingsFile(cr2Path, csvio.SoundingOptions{Source: domain.SourceCR2, Quirks: quirks})
			if err != nil {
				return err
			}
			merged := domain.MergeArchives(gaw, cr2)

			if err := csvio.WriteFile(outPath, func(w io.Writer) error {
				return csvio.WriteSoundings(w, merged)
			}); err != nil {
				return err
			}

			existing, err := readValidityIfExists(validityPath)
			if err != nil {
				return err
			}
			launches := make([]time.Time, len(merged))
			for i, f := range merged {
				launches[i] = f.LaunchTime
			}
			template := csvio.UpdateValidityTemplate(existing, launches)
			if err := csvio.WriteFile(validityPath, func(w io.Writer) error {
				return csvio.WriteValidity(w, template)
			}); err != nil {
				return err
			}

			a.logger.Info("archives merged",
				"gaw", len(gaw), "cr2", len(cr2), "merged", len(merged),
				"validity_rows", len(template), "new_rows", len(template)-len(existing))
			return nil
		},
	}
	cmd.Flags().StringVar(&gawPath, "gaw", "data/GAW_soundings.csv", "GAW sounding table")
	cmd.Flags().StringVar(&cr2Path, "cr2", "data/CR2_soundings.csv", "CR2 sounding table")
	cmd.Flags().StringVar(&outPath, "out", "data/soundings.csv", "merged sounding table to write")
	cmd.Flags().StringVar(&validityPath, "validity", "data/validity.csv", "validity table to extend")
	cmd.Flags().BoolVar(&noQuirks, "no-quirks", false, "read the archives without the known column fixes")
	return cmd
}

func readValidityIfExists(path string) ([]domain.LaunchValidity, error) {
	launches, err := csvio.ReadValidityFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return launches, err
}

func newTallyCmd(a *app) *cobra.Command {
	var validityPath, outDir string

	cmd := &cobra.Command{
		Use:   "tally",
		Short: "Count launches per year and season",
		Long: "Write two workbooks counting non-repeated launches per year and season:\n" +
			"one for every launch and one for launches with a valid ozone profile.",
		RunE: func(cmd *cobra.Command, args []string) error {
			launches, err := csvio.ReadValidityFile(validityPath)
			if err != nil {
				return err
			}
			all, valid := domain.TallySeasons(launches)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", outDir, err)
			}
			if err := xlsxadapter.WriteTallies(outDir, a.station.FilePrefix, all, valid); err != nil {
				return err
			}
			a.logger.Info("tallies written", "dir", outDir, "launches", all.Totals.Total(), "valid", valid.Totals.Total())
			return nil
		},
	}
	cmd.Flags().StringVar(&validityPath, "validity", "data/validity.csv", "validity table")
	cmd.Flags().StringVar(&outDir, "out", "out", "directory for the workbooks")
	return cmd
}

func newDatesCmd(a *app) *cobra.Command {
	var validityPath, outPath string

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List launch dates for trajectory runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			launches, err := csvio.ReadValidityFile(validityPath)
			if err != nil {
				return err
			}
			var n int
			err = csvio.WriteFile(outPath, func(w io.Writer) error {
				var werr error
				n, werr = csvio.WriteLaunchDates(w, launches)
				return werr
			})
			if err != nil {
				return err
			}
			a.logger.Info("launch dates written", "path", outPath, "launches", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&validityPath, "validity", "data/validity.csv", "validity table")
	cmd.Flags().StringVar(&outPath, "out", "out/launch_dates.txt", "date list to write")
	return cmd
}

func newPlotCmd(a *app) *cobra.Command {
	var corpusPath, outDir string

	cmd := &cobra.Command{
		Use:   "plot [launch...]",
		Short: "Plot gridded profiles",
		Long: "Render one PNG per launch from the corpus table. Launches are given as\n" +
			"RFC 3339 times or YYYYMMDDHHMM; with none, every launch is plotted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			corpus, err := csvio.ReadCorpusFile(corpusPath)
			if err != nil {
				return err
			}
			profiles, err := selectProfiles(corpus, args)
			if err != nil {
				return err
			}
			for _, p := range profiles {
				name := fmt.Sprintf("%s_%s.png", a.station.FilePrefix, p.LaunchTime.UTC().Format("2006-01-02_1504"))
				path := filepath.Join(outDir, name)
				title := fmt.Sprintf("%s  %s", a.station.Name, p.LaunchTime.UTC().Format(time.DateOnly))
				err := csvio.WriteFile(path, func(w io.Writer) error {
					return chart.Render(w, p, chart.Options{Title: title})
				})
				if err != nil {
					return fmt.Errorf("plot %s: %w", p.LaunchTime.Format(time.RFC3339), err)
				}
			}
			a.logger.Info("profiles plotted", "dir", outDir, "count", len(profiles))
			return nil
		},
	}
	cmd.Flags().StringVar(&corpusPath, "corpus", "out/RapaNui_all_clear.csv", "corpus table")
	cmd.Flags().StringVar(&outDir, "out", "out/plots", "directory for the images")
	return cmd
}

var launchArgLayouts = []string{time.RFC3339, "200601021504"}

func selectProfiles(c *domain.Corpus, args []string) ([]domain.GriddedFlightProfile, error) {
	if len(args) == 0 {
		return c.Profiles(), nil
	}
	out := make([]domain.GriddedFlightProfile, 0, len(args))
	for _, arg := range args {
		t, err := parseLaunchArg(arg)
		if err != nil {
			return nil, err
		}
		p, ok := c.Lookup(t)
		if !ok {
			return nil, fmt.Errorf("no flight launched at %s", t.Format(time.RFC3339))
		}
		out = append(out, p)
	}
	return out, nil
}

func parseLaunchArg(s string) (time.Time, error) {
	for _, layout := range launchArgLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid launch %q: want RFC 3339 or YYYYMMDDHHMM", s)
}
