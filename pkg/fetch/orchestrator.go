// Package fetch retrieves a year × body grid of state vectors from Horizons
// with a hard cap on concurrent requests.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/horizons-fetch/pkg/command"
	"github.com/Sternrassler/horizons-fetch/pkg/dataset"
	"github.com/Sternrassler/horizons-fetch/pkg/horizons"
	"github.com/Sternrassler/horizons-fetch/pkg/pool"
)

var (
	// ErrInvalidRange is returned for empty or malformed year/body ranges.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidConfig is returned by New for unusable configuration.
	ErrInvalidConfig = errors.New("invalid config")
)

// Range is an inclusive integer interval.
type Range struct {
	Min int
	Max int
}

// Count returns the number of values in the range.
func (r Range) Count() int { return r.Max - r.Min + 1 }

// String renders the range as [min..max].
func (r Range) String() string { return fmt.Sprintf("[%d..%d]", r.Min, r.Max) }

// DefaultYears is the year range used when none is given.
var DefaultYears = Range{Min: 2014, Max: 2024}

// DefaultBodies covers Mercury through Pluto.
var DefaultBodies = Range{Min: 1, Max: 9}

// ValidateRanges rejects year ranges that are reversed or start at year 0, and
// body ranges that are empty.
func ValidateRanges(years, bodies Range) error {
	if years.Max < years.Min || years.Min == 0 {
		return fmt.Errorf("%w: years %s", ErrInvalidRange, years)
	}
	if bodies.Count() < 1 || bodies.Min < 0 {
		return fmt.Errorf("%w: bodies %s", ErrInvalidRange, bodies)
	}
	return nil
}

// Config holds the orchestrator configuration.
type Config struct {
	// URI of the Horizons file API
	URI string

	// MaxConnections caps simultaneously in-flight requests
	MaxConnections int

	// Template is the command template; empty selects command.DefaultTemplate
	Template string

	// Timeout bounds each HTTP exchange (0 = none)
	Timeout time.Duration

	// UserAgent header sent with every request
	UserAgent string
}

// DefaultConfig returns the configuration used by the CLI when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		URI:            horizons.DefaultURI,
		MaxConnections: 2,
		Timeout:        5 * time.Minute,
		UserAgent:      "horizons-fetch/0.1.0",
	}
}

// Result summarizes a finished run.
type Result struct {
	// Requested is the number of issued requests (years × bodies)
	Requested int
	// Completed counts every terminal request, failed ones included
	Completed int
	// Errors counts failed requests
	Errors int
	// NoData counts successful responses that did not yield vectors
	NoData int
	// PeakHandles is the largest number of handles held at once
	PeakHandles int
	// ReclaimOrder lists request sequence numbers in the order their
	// handles were reclaimed for reuse
	ReclaimOrder []int
}

// Orchestrator issues one request per grid cell.
type Orchestrator struct {
	config  Config
	builder command.Builder
	factory pool.ClientFactory
	logger  zerolog.Logger
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithClientFactory overrides how handle HTTP clients are built.
func WithClientFactory(f pool.ClientFactory) Option {
	return func(o *Orchestrator) { o.factory = f }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New validates cfg and creates an Orchestrator.
func New(cfg Config, opts ...Option) (*Orchestrator, error) {
	if cfg.MaxConnections < 1 {
		return nil, fmt.Errorf("%w: max_connections must be >= 1 (got %d)", ErrInvalidConfig, cfg.MaxConnections)
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: uri is required", ErrInvalidConfig)
	}

	builder := command.NewBuilder(cfg.Template)
	if err := builder.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	o := &Orchestrator{
		config:  cfg,
		builder: builder,
		factory: pool.DefaultClientFactory(cfg.Timeout),
		logger:  log.With().Str("component", "fetch").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Descriptors returns the row-major request list for the given grid.
func (o *Orchestrator) Descriptors(years, bodies Range, barycenter bool) ([]Descriptor, error) {
	if err := ValidateRanges(years, bodies); err != nil {
		return nil, err
	}

	bodyCount := bodies.Count()
	descs := make([]Descriptor, 0, years.Count()*bodyCount)
	for yi := 0; yi < years.Count(); yi++ {
		year := years.Min + yi
		date := command.DateString(year)
		for bi := 0; bi < bodyCount; bi++ {
			idx := bodies.Min + bi
			cmd, err := o.builder.Build(command.ObjectID(idx, barycenter), date)
			if err != nil {
				return nil, fmt.Errorf("build command for body %d, year %d: %w", idx, year, err)
			}
			descs = append(descs, Descriptor{
				Seq:     yi*bodyCount + bi + 1,
				YearIdx: yi,
				BodyIdx: bi,
				Year:    year,
				BodyID:  command.BodyID(idx, barycenter),
				Date:    date,
				Command: cmd,
			})
		}
	}
	return descs, nil
}

// Run fetches every (year, body) cell and returns the grid with its counters.
// Per-request failures are counted, never returned; the error is only set for
// invalid input, before any request is issued.
func (o *Orchestrator) Run(ctx context.Context, years, bodies Range, barycenter bool) (*dataset.Grid, Result, error) {
	descs, err := o.Descriptors(years, bodies, barycenter)
	if err != nil {
		return nil, Result{}, err
	}

	grid, err := dataset.New(years.Min, years.Count(), bodies.Count())
	if err != nil {
		return nil, Result{}, err
	}

	handles, err := pool.New(min(len(descs), o.config.MaxConnections), o.factory)
	if err != nil {
		return nil, Result{}, err
	}
	defer handles.Close()

	start := time.Now()
	o.logger.Info().
		Int("requests", len(descs)).
		Int("bodies", bodies.Count()).
		Str("body_range", bodies.String()).
		Int("years", years.Count()).
		Str("year_range", years.String()).
		Bool("barycenter", barycenter).
		Int("max_connections", handles.Cap()).
		Msg("Requesting data sets")

	stats := &Stats{}
	res := Result{Requested: len(descs)}

	// in-flight requests in submission order; the head is the oldest
	var inflight []*AsyncRequest

	for _, d := range descs {
		cell := grid.Cell(d.YearIdx, d.BodyIdx)
		cell.BodyID = d.BodyID

		var h *pool.Handle
		h, inflight = o.acquire(handles, inflight, &res)

		o.logger.Info().
			Int("request", d.Seq).
			Int("body_idx", bodies.Min+d.BodyIdx).
			Int("body_id", d.BodyID).
			Int("year", d.Year).
			Int("in_flight", len(inflight)).
			Int("free_handles", handles.Free()).
			Int("handle", h.ID).
			Msg("Request")

		r := newAsyncRequest(d, h, cell, stats, o.logger.With().
			Int("request", d.Seq).
			Int("body_id", d.BodyID).
			Int("year", d.Year).
			Logger())
		r.start(ctx, o.config.URI, o.config.UserAgent)
		inflight = append(inflight, r)
	}

	for _, r := range inflight {
		r.Wait()
		handles.Release(r.handle)
	}

	res.Completed = stats.Completed()
	res.Errors = stats.Errors()
	res.NoData = stats.NoData()
	res.PeakHandles = handles.Peak()

	evt := o.logger.Info()
	if res.Errors > 0 {
		evt = o.logger.Warn()
	}
	evt.Int("completed", res.Completed).
		Int("errors", res.Errors).
		Int("no_data", res.NoData).
		Int("populated", grid.Populated()).
		Dur("duration", time.Since(start)).
		Msg("Requests completed")

	return grid, res, nil
}

// acquire takes a free handle, or waits for the oldest in-flight request to
// finish and reclaims its handle. The pool never runs dry with an empty
// queue: every held handle belongs to a queued request.
func (o *Orchestrator) acquire(p *pool.Pool, inflight []*AsyncRequest, res *Result) (*pool.Handle, []*AsyncRequest) {
	if h, ok := p.TryAcquire(); ok {
		return h, inflight
	}

	oldest := inflight[0]
	inflight[0] = nil
	inflight = inflight[1:]

	waitStart := time.Now()
	oldest.Wait()
	handleWaitSeconds.Observe(time.Since(waitStart).Seconds())

	o.logger.Debug().
		Int("request", oldest.desc.Seq).
		Int("handle", oldest.handle.ID).
		Str("state", oldest.State().String()).
		Msg("Reclaimed handle")

	res.ReclaimOrder = append(res.ReclaimOrder, oldest.desc.Seq)
	p.Release(oldest.handle)

	h, _ := p.TryAcquire()
	return h, inflight
}
