// Package testutil provides testing utilities for horizons-fetch.
package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	commandPattern = regexp.MustCompile(`COMMAND='([^']*)'`)
	datePattern    = regexp.MustCompile(`START_TIME='(\d{4}-\d{2}-\d{2})`)
)

// MockResponse defines the behavior for one mocked Horizons request.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration

	// Chunks splits Body into this many flushed writes (0 or 1 = single write)
	Chunks int

	// Truncate announces a longer Content-Length than Body, writes the first
	// half of Body and drops the connection.
	Truncate bool
}

// Call identifies one received request.
type Call struct {
	ObjectID string
	Date     string
}

// Responder picks the response for a call.
type Responder func(c Call) MockResponse

// MockHorizons is a configurable mock Horizons file API.
type MockHorizons struct {
	server *httptest.Server

	mu        sync.Mutex
	responder Responder
	calls     map[Call]int
	events    []string
	inFlight  int
	peak      int
	malformed int
}

// NewMockHorizons starts a mock server answering every call with a state
// vector derived from the object id.
func NewMockHorizons() *MockHorizons {
	m := &MockHorizons{
		calls:     make(map[Call]int),
		responder: func(c Call) MockResponse { return NewVectorResponse(c.ObjectID) },
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the mock endpoint.
func (m *MockHorizons) URL() string {
	return m.server.URL + "/api/horizons_file.api"
}

// Close shuts down the mock server.
func (m *MockHorizons) Close() {
	m.server.Close()
}

// SetResponder replaces the response strategy.
func (m *MockHorizons) SetResponder(r Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = r
}

// Calls returns a copy of the per-call request counts.
func (m *MockHorizons) Calls() map[Call]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Call]int, len(m.calls))
	for k, v := range m.calls {
		out[k] = v
	}
	return out
}

// RequestCount returns the total number of well-formed requests.
func (m *MockHorizons) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.calls {
		n += v
	}
	return n
}

// MalformedCount returns the number of requests that were not valid Horizons forms.
func (m *MockHorizons) MalformedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.malformed
}

// PeakInFlight returns the largest number of concurrently served requests.
func (m *MockHorizons) PeakInFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// Events returns "start:<id>" and "end:<id>" markers in the order they happened.
func (m *MockHorizons) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

func (m *MockHorizons) handle(w http.ResponseWriter, r *http.Request) {
	call, ok := parseCall(r)
	if !ok {
		m.mu.Lock()
		m.malformed++
		m.mu.Unlock()
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.calls[call]++
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
	m.events = append(m.events, "start:"+call.ObjectID)
	responder := m.responder
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.events = append(m.events, "end:"+call.ObjectID)
		m.mu.Unlock()
	}()

	resp := responder(call)
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}

	w.Header().Set("Content-Type", "text/plain")
	if resp.Truncate {
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
		w.WriteHeader(resp.StatusCode)
		io.WriteString(w, resp.Body[:len(resp.Body)/2])
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		panic(http.ErrAbortHandler)
	}
	w.WriteHeader(resp.StatusCode)
	writeChunks(w, resp.Body, resp.Chunks)
}

func writeChunks(w http.ResponseWriter, body string, chunks int) {
	if chunks <= 1 || len(body) == 0 {
		io.WriteString(w, body)
		return
	}
	flusher, _ := w.(http.Flusher)
	size := (len(body) + chunks - 1) / chunks
	for start := 0; start < len(body); start += size {
		end := min(start+size, len(body))
		io.WriteString(w, body[start:end])
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func parseCall(r *http.Request) (Call, bool) {
	if r.Method != http.MethodPost {
		return Call{}, false
	}
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		return Call{}, false
	}
	if r.FormValue("format") != "text" {
		return Call{}, false
	}
	f, _, err := r.FormFile("input")
	if err != nil {
		return Call{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return Call{}, false
	}

	cmd := commandPattern.FindStringSubmatch(string(data))
	date := datePattern.FindStringSubmatch(string(data))
	if cmd == nil || date == nil {
		return Call{}, false
	}
	return Call{ObjectID: cmd[1], Date: date[1]}, true
}

// VectorFor returns the deterministic position and velocity served for objectID.
func VectorFor(objectID string) (pos, vel [3]float64) {
	var n float64
	for _, c := range objectID {
		n = n*10 + float64(c-'0')
	}
	return [3]float64{n * 1e6, -n * 1e5, n * 1e4}, [3]float64{n / 1e2, -n / 1e3, n / 1e4}
}

// NewVectorResponse returns a 200 response with a Horizons-style vector table.
func NewVectorResponse(objectID string) MockResponse {
	pos, vel := VectorFor(objectID)
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       VectorTable(pos, vel),
	}
}

// VectorTable renders a minimal Horizons vector table.
func VectorTable(pos, vel [3]float64) string {
	var b strings.Builder
	b.WriteString("API VERSION: 1.2\nAPI SOURCE: NASA/JPL Horizons API\n\n")
	b.WriteString("*******************************************************************************\n")
	b.WriteString("$$SOE\n2458849.500000000 = A.D. 2020-Jan-01 00:00:00.0000 TDB \n")
	fmt.Fprintf(&b, " X =%s Y =%s Z =%s\n", horizonsFloat(pos[0]), horizonsFloat(pos[1]), horizonsFloat(pos[2]))
	fmt.Fprintf(&b, " VX=%s VY=%s VZ=%s\n", horizonsFloat(vel[0]), horizonsFloat(vel[1]), horizonsFloat(vel[2]))
	b.WriteString("$$EOE\n")
	return b.String()
}

func horizonsFloat(f float64) string {
	s := fmt.Sprintf("%.12E", f)
	if f >= 0 {
		s = " " + s
	}
	return s
}

// NewServerErrorResponse creates a 503 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusServiceUnavailable,
		Body:       "Service Unavailable",
	}
}

// NewTruncatedResponse starts a vector response for objectID and drops the
// connection halfway through the body.
func NewTruncatedResponse(objectID string) MockResponse {
	resp := NewVectorResponse(objectID)
	resp.Truncate = true
	return resp
}

// NewGarbageResponse creates a 200 response without any vector table.
func NewGarbageResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       "No ephemeris for target \"Unknown\"\n",
	}
}
