// Command report builds the station's side products from the canonical
// tables: the merged sounding archive, seasonal tallies, trajectory launch
// dates, and per-flight inspection plots.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/ozonesonde-etl/internal/config"
	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every subcommand needs once the root flags are parsed.
type app struct {
	stationFile string
	station     domain.Station
	logger      *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.NewTextHandler(os.Stderr, nil))}

	root := &cobra.Command{
		Use:   "report",
		Short: "Ozonesonde archive reports",
		Long: "Merge the GAW and CR2 archives, tally launches per season, list launch\n" +
			"dates for trajectory runs and plot gridded profiles.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			st, err := config.LoadStation(a.stationFile)
			if err != nil {
				return err
			}
			a.station = st
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.stationFile, "station", "", "station TOML file (defaults to Rapa Nui)")

	root.AddCommand(newMergeCmd(a), newTallyCmd(a), newDatesCmd(a), newPlotCmd(a))
	return root
}
