package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SoundingsPath string
	ValidityPath  string
	OutputDir     string
	StationFile   string
	Station       domain.Station

	Grid      domain.Grid
	YearStart int
	YearEnd   int
	Workers   int
	BatchSize int

	WritePerFlight bool

	// Kafka sink. Publishing is enabled when KAFKA_BROKERS is set.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	HTTPAddr        string
	Serve           bool
	APICacheSize    int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	grid, err := parseGrid()
	if err != nil {
		return nil, err
	}

	yearStart, err := parseInt("YEAR_START", 1995)
	if err != nil {
		return nil, err
	}
	yearEnd, err := parseInt("YEAR_END", 2019)
	if err != nil {
		return nil, err
	}
	if yearStart > yearEnd {
		return nil, fmt.Errorf("%w: YEAR_START %d is after YEAR_END %d", domain.ErrConfiguration, yearStart, yearEnd)
	}

	workers, err := parseInt("WORKERS", 1)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, errors.New("WORKERS must be at least 1")
	}

	writePerFlight, err := parseBool("WRITE_PER_FLIGHT", true)
	if err != nil {
		return nil, err
	}
	serve, err := parseBool("SERVE", false)
	if err != nil {
		return nil, err
	}

	stationFile := os.Getenv("STATION_FILE")
	station, err := LoadStation(stationFile)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	cfg := &Config{
		SoundingsPath: sharedcfg.EnvOrDefault("SOUNDINGS_PATH", "data/soundings.csv"),
		ValidityPath:  sharedcfg.EnvOrDefault("VALIDITY_PATH", "data/validity.csv"),
		OutputDir:     sharedcfg.EnvOrDefault("OUTPUT_DIR", "out"),
		StationFile:   stationFile,
		Station:       station,

		Grid:      grid,
		YearStart: yearStart,
		YearEnd:   yearEnd,
		Workers:   workers,
		BatchSize: batchSize,

		WritePerFlight: writePerFlight,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "ozonesonde-profiles"),
		KafkaEnabled: len(brokers) > 0,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		Serve:           serve,
		APICacheSize:    parseAPICacheSize(),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.SoundingsPath == "" {
		return nil, errors.New("SOUNDINGS_PATH is required")
	}
	if cfg.ValidityPath == "" {
		return nil, errors.New("VALIDITY_PATH is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

func parseGrid() (domain.Grid, error) {
	minKm, err := parseFloat("GRID_MIN_KM", 0)
	if err != nil {
		return domain.Grid{}, err
	}
	maxKm, err := parseFloat("GRID_MAX_KM", 35)
	if err != nil {
		return domain.Grid{}, err
	}
	stepKm, err := parseFloat("GRID_STEP_KM", 0.1)
	if err != nil {
		return domain.Grid{}, err
	}
	g, err := domain.NewGrid(minKm, maxKm, stepKm)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("GRID_MIN_KM/GRID_MAX_KM/GRID_STEP_KM: %w", err)
	}
	return g, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q", key, s)
	}
	return b, nil
}

func parseAPICacheSize() int {
	if s := os.Getenv("API_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 256
}
