package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
	"github.com/couchcryptid/ozonesonde-etl/internal/observability"
)

// FlightSource supplies the reviewed flights of a station.
type FlightSource interface {
	Flights(ctx context.Context) ([]domain.Flight, error)
}

// Regularizer maps one flight onto the altitude grid. On failure it still
// returns a usable all-missing profile alongside the error.
type Regularizer interface {
	Regularize(ctx context.Context, f domain.Flight) (domain.GriddedFlightProfile, error)
}

// BatchLoader writes gridded profiles to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, profiles []domain.GriddedFlightProfile) error
}

const (
	defaultBatchSize       = 50
	defaultMaxLoadAttempts = 5
)

// Options tunes a corpus run.
type Options struct {
	// YearStart and YearEnd bound launch years, inclusive. Both zero
	// disables the filter.
	YearStart int
	YearEnd   int
	// Workers is the number of flights regularized concurrently.
	Workers int
	// BatchSize is the number of profiles handed to a loader at once.
	BatchSize int
	// MaxLoadAttempts bounds retries of one failing batch.
	MaxLoadAttempts int
}

// Summary reports what one run did.
type Summary struct {
	Read        int
	OutOfRange  int
	Repeated    int
	Regularized int
	Malformed   int
	Failed      int // regularizer errors other than a malformed flight
	Duplicates  int
	Loaded      int
	Duration    time.Duration
}

// Pipeline assembles the gridded corpus from a flight source and hands it to
// the loaders.
type Pipeline struct {
	source      FlightSource
	regularizer Regularizer
	loaders     []BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options
	corpus      atomic.Pointer[domain.Corpus]
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(s FlightSource, r Regularizer, loaders []BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.MaxLoadAttempts < 1 {
		opts.MaxLoadAttempts = defaultMaxLoadAttempts
	}
	p := &Pipeline{
		source:      s,
		regularizer: r,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
	p.corpus.Store(domain.NewCorpus())
	return p
}

// CheckReadiness returns nil once a corpus has been assembled, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("corpus has not been assembled yet")
	}
	return nil
}

// Corpus returns the most recently assembled corpus. It is empty before the
// first run completes.
func (p *Pipeline) Corpus() *domain.Corpus {
	return p.corpus.Load()
}

// Run reads, regularizes and loads every flight in the configured year range.
// Per-flight failures are counted in the summary and never abort the run; a
// source error, a load that keeps failing, or cancellation does.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	p.logger.Info("pipeline started",
		"year_start", p.opts.YearStart,
		"year_end", p.opts.YearEnd,
		"workers", p.opts.Workers,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	var sum Summary
	flights, err := p.source.Flights(ctx)
	if err != nil {
		return sum, fmt.Errorf("read flights: %w", err)
	}
	sum.Read = len(flights)
	p.metrics.FlightsRead.Add(float64(len(flights)))

	flights = p.selectFlights(flights, &sum)

	profiles, err := p.regularizeAll(ctx, flights, &sum)
	if err != nil {
		return sum, err
	}

	corpus := domain.NewCorpus()
	for _, prof := range profiles {
		if err := corpus.Add(prof); err != nil {
			p.logger.Warn("duplicate launch dropped", "launch", prof.LaunchTime, "error", err)
			sum.Duplicates++
		}
	}
	p.corpus.Store(corpus)
	p.ready.Store(true)
	p.metrics.CorpusRows.Set(float64(corpus.RowCount()))

	loaded, err := p.load(ctx, corpus.Profiles())
	sum.Loaded = loaded
	sum.Duration = time.Since(start)
	if err != nil {
		return sum, err
	}

	p.logger.Info("pipeline finished",
		"read", sum.Read,
		"out_of_range", sum.OutOfRange,
		"repeated", sum.Repeated,
		"regularized", sum.Regularized,
		"malformed", sum.Malformed,
		"duplicates", sum.Duplicates,
		"loaded", sum.Loaded,
		"duration", sum.Duration,
	)
	return sum, nil
}

// selectFlights drops flights outside the year range and repeated soundings,
// and orders the rest by launch time.
func (p *Pipeline) selectFlights(flights []domain.Flight, sum *Summary) []domain.Flight {
	out := make([]domain.Flight, 0, len(flights))
	for _, f := range flights {
		if !p.inRange(f.LaunchTime) {
			sum.OutOfRange++
			p.metrics.FlightsOutOfRange.Inc()
			continue
		}
		if f.Validity.Repeated() {
			sum.Repeated++
			p.metrics.RepeatedFlightsSkipped.Inc()
			p.logger.Debug("repeated sounding skipped", "launch", f.LaunchTime)
			continue
		}
		out = append(out, f)
	}
	slices.SortStableFunc(out, func(a, b domain.Flight) int { return a.LaunchTime.Compare(b.LaunchTime) })
	return out
}

func (p *Pipeline) inRange(t time.Time) bool {
	if p.opts.YearStart == 0 && p.opts.YearEnd == 0 {
		return true
	}
	y := t.UTC().Year()
	return y >= p.opts.YearStart && y <= p.opts.YearEnd
}

type result struct {
	profile domain.GriddedFlightProfile
	err     error
}

// regularizeAll runs the regularizer over flights on a bounded worker pool.
// Each worker writes only its own result slot, so the output keeps flight
// order whatever the scheduling.
func (p *Pipeline) regularizeAll(ctx context.Context, flights []domain.Flight, sum *Summary) ([]domain.GriddedFlightProfile, error) {
	results := make([]result, len(flights))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range min(p.opts.Workers, max(len(flights), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				start := time.Now()
				prof, err := p.regularizer.Regularize(ctx, flights[i])
				p.metrics.FlightDuration.Observe(time.Since(start).Seconds())
				results[i] = result{profile: prof, err: err}
			}
		}()
	}

feed:
	for i := range flights {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		p.logger.Info("pipeline stopping", "reason", err)
		return nil, err
	}

	profiles := make([]domain.GriddedFlightProfile, 0, len(results))
	for i, r := range results {
		switch {
		case errors.Is(r.err, domain.ErrMalformedFlight):
			p.logger.Warn("malformed flight, keeping empty profile",
				"error", r.err,
				"launch", flights[i].LaunchTime,
				"source", flights[i].Source,
			)
			p.metrics.MalformedFlights.Inc()
			sum.Malformed++
		case r.err != nil:
			p.logger.Error("regularize failed, keeping empty profile",
				"error", r.err,
				"launch", flights[i].LaunchTime,
				"source", flights[i].Source,
			)
			p.metrics.FailedFlights.Inc()
			sum.Failed++
		default:
			p.metrics.FlightsRegularized.Inc()
			sum.Regularized++
		}
		profiles = append(profiles, r.profile)
	}
	return profiles, nil
}

// load hands the profiles to every loader in batches. It returns the number
// of profiles every loader accepted.
func (p *Pipeline) load(ctx context.Context, profiles []domain.GriddedFlightProfile) (int, error) {
	if len(p.loaders) == 0 {
		return 0, nil
	}
	loaded := 0
	for batch := range slices.Chunk(profiles, p.opts.BatchSize) {
		for _, l := range p.loaders {
			if err := p.loadWithRetry(ctx, l, batch); err != nil {
				return loaded, err
			}
		}
		loaded += len(batch)
		p.metrics.ProfilesPublished.Add(float64(len(batch)))
	}
	return loaded, nil
}

// loadWithRetry retries one batch with exponential backoff: start at 200ms,
// double each retry, cap at 5s.
func (p *Pipeline) loadWithRetry(ctx context.Context, l BatchLoader, batch []domain.GriddedFlightProfile) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= p.opts.MaxLoadAttempts; attempt++ {
		if err = l.LoadBatch(ctx, batch); err == nil {
			return nil
		}
		p.metrics.LoadErrors.Inc()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "attempt", attempt)
		if attempt == p.opts.MaxLoadAttempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("load batch after %d attempts: %w", p.opts.MaxLoadAttempts, err)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
