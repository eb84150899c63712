package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sternrassler/horizons-fetch/pkg/dataset"
	"github.com/Sternrassler/horizons-fetch/pkg/extract"
	"github.com/Sternrassler/horizons-fetch/pkg/horizons"
	"github.com/Sternrassler/horizons-fetch/pkg/pool"
)

const chunkSize = 16 * 1024

var tracer = otel.Tracer("github.com/Sternrassler/horizons-fetch/pkg/fetch")

// State is the lifecycle state of an AsyncRequest.
type State int32

const (
	// StateIssued means the request was started but no response header arrived yet.
	StateIssued State = iota
	// StateStreaming means a 200 header arrived and body chunks are accumulating.
	StateStreaming
	// StateSucceeded is terminal; the cell was written unless NoData is set.
	StateSucceeded
	// StateFailed is terminal; the cell was not written.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIssued:
		return "issued"
	case StateStreaming:
		return "streaming"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Descriptor is the immutable input of one request.
type Descriptor struct {
	// Seq is the 1-based submission number, row-major over (year, body)
	Seq     int
	YearIdx int
	BodyIdx int
	Year    int
	BodyID  int
	Date    string
	Command string
}

// Stats are the process counters shared by all requests of a run.
type Stats struct {
	completed atomic.Int64
	errors    atomic.Int64
	noData    atomic.Int64
}

// Completed returns the number of requests that reached a terminal state.
func (s *Stats) Completed() int { return int(s.completed.Load()) }

// Errors returns the number of failed requests.
func (s *Stats) Errors() int { return int(s.errors.Load()) }

// NoData returns the number of successful requests without usable vectors.
func (s *Stats) NoData() int { return int(s.noData.Load()) }

// AsyncRequest is one in-flight fetch. It owns its handle until Wait
// returns and is the only writer of its cell.
type AsyncRequest struct {
	desc   Descriptor
	handle *pool.Handle
	cell   *dataset.CBodyRecord
	stats  *Stats
	logger zerolog.Logger

	state atomic.Int32
	done  chan struct{}

	// written by the request goroutine, read after done is closed
	buf    bytes.Buffer
	err    error
	noData bool
}

func newAsyncRequest(desc Descriptor, h *pool.Handle, cell *dataset.CBodyRecord, stats *Stats, logger zerolog.Logger) *AsyncRequest {
	return &AsyncRequest{
		desc:   desc,
		handle: h,
		cell:   cell,
		stats:  stats,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// State returns the current state.
func (r *AsyncRequest) State() State { return State(r.state.Load()) }

// Wait blocks until the request is terminal.
func (r *AsyncRequest) Wait() { <-r.done }

// Err returns the failure, if any. Valid after Wait.
func (r *AsyncRequest) Err() error { return r.err }

// NoData reports a successful response that did not yield vectors. Valid after Wait.
func (r *AsyncRequest) NoData() bool { return r.noData }

// start runs the request on its own goroutine.
func (r *AsyncRequest) start(ctx context.Context, uri, userAgent string) {
	go r.run(ctx, uri, userAgent)
}

func (r *AsyncRequest) run(ctx context.Context, uri, userAgent string) {
	defer close(r.done)

	ctx, span := tracer.Start(ctx, "horizons.request", trace.WithAttributes(
		attribute.Int("request", r.desc.Seq),
		attribute.Int("body_id", r.desc.BodyID),
		attribute.Int("year", r.desc.Year),
		attribute.Int("handle", r.handle.ID),
	))
	defer span.End()

	requestsInFlight.Inc()
	startTime := time.Now()
	defer func() {
		requestsInFlight.Dec()
		requestDuration.Observe(time.Since(startTime).Seconds())
		if r.err != nil {
			span.RecordError(r.err)
			span.SetStatus(codes.Error, r.err.Error())
		}
		span.SetAttributes(attribute.String("state", r.State().String()))
	}()

	req, err := horizons.NewRequest(ctx, uri, r.desc.Command, userAgent)
	if err != nil {
		r.fail(horizons.NetworkError("build request", err))
		return
	}

	resp, err := r.handle.Client.Do(req)
	if err != nil {
		r.fail(horizons.NetworkError("post", err))
		return
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("status_code", resp.StatusCode))
	if !r.onHeader(resp.StatusCode, resp.Status) {
		return
	}

	chunk := make([]byte, chunkSize)
	for {
		n, err := resp.Body.Read(chunk)
		if errors.Is(err, io.EOF) {
			r.onChunk(chunk[:n], true)
			return
		}
		if err != nil {
			r.fail(horizons.NetworkError("read body", err))
			return
		}
		r.onChunk(chunk[:n], false)
	}
}

// onHeader moves Issued to Streaming on 200 and fails otherwise.
func (r *AsyncRequest) onHeader(statusCode int, status string) bool {
	if statusCode != http.StatusOK {
		r.fail(horizons.StatusError(statusCode, status))
		return false
	}
	return r.state.CompareAndSwap(int32(StateIssued), int32(StateStreaming))
}

// onChunk accumulates data; on the final chunk it parses the buffer and
// writes the cell.
func (r *AsyncRequest) onChunk(data []byte, final bool) {
	if r.State() != StateStreaming {
		return
	}
	r.buf.Write(data)
	if final {
		r.finish()
	}
}

func (r *AsyncRequest) finish() {
	responseBytes.Observe(float64(r.buf.Len()))

	if r.buf.Len() == 0 {
		r.cell.Clear()
		r.noData = true
		extractionFailuresTotal.WithLabelValues("empty").Inc()
		r.logger.Warn().Msg("No data in response")
	} else if v, ok := extract.Extract(r.buf.String()); ok {
		r.cell.Set(v)
	} else {
		r.cell.Clear()
		r.noData = true
		extractionFailuresTotal.WithLabelValues("no_match").Inc()
		r.logger.Warn().Int("bytes", r.buf.Len()).Msg("Parsing data error")
	}

	if !r.terminate(StateSucceeded) {
		return
	}
	if r.noData {
		r.stats.noData.Add(1)
	}
	requestsTotal.WithLabelValues("200").Inc()
	r.logger.Debug().
		Int("bytes", r.buf.Len()).
		Bool("no_data", r.noData).
		Msg("Request completed")
}

func (r *AsyncRequest) fail(err error) {
	if !r.terminate(StateFailed) {
		return
	}
	r.err = err
	r.stats.errors.Add(1)

	class := horizons.ClassOf(err)
	errorsTotal.WithLabelValues(string(class)).Inc()
	status := "network_error"
	var te *horizons.TransportError
	if errors.As(err, &te) && te.StatusCode != 0 {
		status = strconv.Itoa(te.StatusCode)
	}
	requestsTotal.WithLabelValues(status).Inc()

	r.logger.Error().
		Err(err).
		Str("error_class", string(class)).
		Msg("Request failed")
}

// terminate performs the single transition into a terminal state and counts it.
func (r *AsyncRequest) terminate(to State) bool {
	for {
		cur := r.state.Load()
		if State(cur).Terminal() {
			return false
		}
		if r.state.CompareAndSwap(cur, int32(to)) {
			r.stats.completed.Add(1)
			return true
		}
	}
}
