// Package pool provides a fixed set of reusable HTTP sessions.
//
// A Pool is owned by a single goroutine: TryAcquire and Release are not safe
// for concurrent use. The number of handles ever created is the hard cap on
// in-flight requests, so the cap holds by construction.
package pool

import (
	"fmt"
	"net/http"
	"time"
)

// Handle is one network session slot.
type Handle struct {
	ID     int
	Client *http.Client

	held bool
}

// ClientFactory builds the HTTP client behind handle id.
type ClientFactory func(id int) *http.Client

// DefaultClientFactory gives every handle its own transport limited to one
// connection, with the given overall request timeout.
func DefaultClientFactory(timeout time.Duration) ClientFactory {
	return func(int) *http.Client {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.MaxConnsPerHost = 1
		transport.MaxIdleConnsPerHost = 1
		return &http.Client{
			Transport: transport,
			Timeout:   timeout,
		}
	}
}

// Pool is a fixed-size free list of handles.
type Pool struct {
	all  []*Handle
	free []*Handle
	peak int
}

// New pre-creates size handles, all free.
func New(size int, factory ClientFactory) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be >= 1 (got %d)", size)
	}
	if factory == nil {
		factory = DefaultClientFactory(0)
	}

	p := &Pool{
		all:  make([]*Handle, size),
		free: make([]*Handle, 0, size),
	}
	for i := range p.all {
		h := &Handle{ID: i, Client: factory(i)}
		p.all[i] = h
		p.free = append(p.free, h)
	}
	return p, nil
}

// TryAcquire takes a free handle if one is available.
func (p *Pool) TryAcquire() (*Handle, bool) {
	n := len(p.free)
	if n == 0 {
		return nil, false
	}
	h := p.free[n-1]
	p.free = p.free[:n-1]
	h.held = true
	if held := p.Held(); held > p.peak {
		p.peak = held
	}
	return h, true
}

// Release returns h to the free set. Releasing a handle that is not held
// by this pool is a programming error and panics.
func (p *Pool) Release(h *Handle) {
	if h == nil || h.ID < 0 || h.ID >= len(p.all) || p.all[h.ID] != h {
		panic("pool: release of foreign handle")
	}
	if !h.held {
		panic(fmt.Sprintf("pool: handle %d released twice", h.ID))
	}
	h.held = false
	p.free = append(p.free, h)
}

// Cap returns the number of handles.
func (p *Pool) Cap() int { return len(p.all) }

// Free returns the number of handles not currently held.
func (p *Pool) Free() int { return len(p.free) }

// Held returns the number of handles currently held.
func (p *Pool) Held() int { return len(p.all) - len(p.free) }

// Peak returns the highest Held value observed.
func (p *Pool) Peak() int { return p.peak }

// Close drops idle connections of every handle.
func (p *Pool) Close() {
	for _, h := range p.all {
		if h.Client != nil {
			h.Client.CloseIdleConnections()
		}
	}
}
