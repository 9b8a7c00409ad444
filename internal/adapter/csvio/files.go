package csvio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// ReadSoundingsFile opens path and reads it with [ReadSoundings].
func ReadSoundingsFile(path string, opts SoundingOptions) ([]domain.Flight, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open soundings: %w", err)
	}
	defer f.Close()

	flights, err := ReadSoundings(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return flights, nil
}

// ReadValidityFile opens path and reads it with [ReadValidity].
func ReadValidityFile(path string) ([]domain.LaunchValidity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open validity: %w", err)
	}
	defer f.Close()

	launches, err := ReadValidity(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return launches, nil
}

// ReadCorpusFile opens path and reads it with [ReadCorpus].
func ReadCorpusFile(path string) (*domain.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	c, err := ReadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// WriteFile writes path through a temporary sibling and renames it into
// place, so readers never see a half-written table.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// FileLoader writes one tab-separated file per gridded flight into Dir.
type FileLoader struct {
	dir     string
	station domain.Station
	logger  *slog.Logger
}

// NewFileLoader creates a FileLoader writing <station prefix>_<YYYYMMDD>.csv
// files under dir.
func NewFileLoader(dir string, station domain.Station, logger *slog.Logger) *FileLoader {
	return &FileLoader{dir: dir, station: station, logger: logger}
}

// LoadBatch writes every profile of the batch. It stops at the first failure.
func (l *FileLoader) LoadBatch(ctx context.Context, profiles []domain.GriddedFlightProfile) error {
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(l.dir, FlightFileName(l.station.FilePrefix, p))
		err := WriteFile(path, func(w io.Writer) error {
			return WriteFlightFile(w, l.station, p)
		})
		if err != nil {
			return err
		}
		l.logger.Debug("flight file written", "path", path)
	}
	return nil
}
