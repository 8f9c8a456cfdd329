//go:build linux

package core

import (
	"sync"
	"time"

	"github.com/jabolina/go-mcapi/pkg/mcapi/definition"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// pollInterval is the cadence both open_epd and wait busy-poll at
// (spec §5/§9): the host primitive gives no "ready" event, so both
// loops sleep one millisecond between checks.
const pollInterval = time.Millisecond

// Request is a single slot in the pool, holding a predicate and an
// in-use flag. It has no result-size field: the size is read from the
// predicate's Size once Evaluate returns true. The predicate-data
// pointer spec §3 also names is folded into whatever concrete
// types.Predicate a caller installs (a closure capturing its own
// state), rather than carried as a second field here.
type Request struct {
	mu        sync.Mutex
	predicate types.Predicate
	inUse     bool
}

// Pool is the fixed-capacity request-handle table (spec §4.4),
// guarded by one mutex (spec §5). Reserving beyond MaxRequests slots
// returns nil, the Go shape of the "null handle" sentinel (invariant
// I6).
type Pool struct {
	mu      sync.Mutex
	slots   [types.MaxRequests]Request
	log     definition.Logger
	metrics *definition.Metrics
}

func NewPool(log definition.Logger, metrics *definition.Metrics) *Pool {
	return &Pool{log: log, metrics: metrics}
}

// Reserve implements reserve_request: returns the first free slot
// with predicate installed, or nil on exhaustion (I6). A nil
// predicate is refused outright — a reserved slot must always satisfy
// invariant I5 ("a handle marked in-use has a non-null predicate").
func (p *Pool) Reserve(predicate types.Predicate) *Request {
	if predicate == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		slot := &p.slots[i]
		if !slot.inUse {
			slot.predicate = predicate
			slot.inUse = true
			if p.metrics != nil {
				p.metrics.RequestsInUse.Inc()
			}
			return slot
		}
	}
	return nil
}

// Release implements release_request: clears the slot, restoring I5's
// "a freed handle has null predicate".
func (p *Pool) Release(r *Request) {
	if r == nil {
		return
	}
	r.mu.Lock()
	wasInUse := r.inUse
	r.predicate = nil
	r.inUse = false
	r.mu.Unlock()

	if wasInUse && p.metrics != nil {
		p.metrics.RequestsInUse.Dec()
	}
}

// Test implements mcapi_test (spec §4.4): evaluates the predicate
// once and never blocks. On completion the slot is released and
// status is Success with size written; otherwise status is Pending.
func (p *Pool) Test(r *Request) (size int, status types.Status) {
	if r == nil {
		return 0, types.ErrRequestInvalid
	}

	r.mu.Lock()
	if !r.inUse || r.predicate == nil {
		r.mu.Unlock()
		return 0, types.ErrRequestInvalid
	}
	predicate := r.predicate
	r.mu.Unlock()

	if predicate.Evaluate() {
		size = predicate.Size()
		p.Release(r)
		return size, types.Success
	}
	return 0, types.Pending
}

// Wait implements mcapi_wait (spec §4.4): polls the predicate until
// it returns true or the deadline expires, at pollInterval cadence.
// timeout = 0 evaluates exactly once (invariant I7: a synchronous
// completion is never starved by the timeout policy). timeout =
// TimeoutInfinite polls indefinitely.
//
// The null-predicate-on-an-in-use-slot case (spec §9's first open
// question) is resolved here by releasing the slot and reporting
// ErrRequestInvalid — see DESIGN.md for the rationale.
func (p *Pool) Wait(r *Request, timeout Timeout) (size int, status types.Status) {
	if r == nil {
		return 0, types.ErrRequestInvalid
	}

	r.mu.Lock()
	if !r.inUse {
		r.mu.Unlock()
		return 0, types.ErrRequestInvalid
	}
	if r.predicate == nil {
		r.inUse = false
		r.mu.Unlock()
		if p.metrics != nil {
			p.metrics.RequestsInUse.Dec()
		}
		return 0, types.ErrRequestInvalid
	}
	predicate := r.predicate
	r.mu.Unlock()

	deadlineAt := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	infinite := timeout == TimeoutInfinite

	for {
		if predicate.Evaluate() {
			size = predicate.Size()
			p.Release(r)
			return size, types.Success
		}

		if timeout == 0 {
			return 0, types.Timeout
		}
		if !infinite && time.Now().After(deadlineAt) {
			return 0, types.Timeout
		}

		time.Sleep(pollInterval)
	}
}

// Reset releases every in-use slot; used by Finalize, which blanket-
// frees the pool regardless of which operations are still pending.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.slots {
		slot := &p.slots[i]
		if slot.inUse {
			slot.predicate = nil
			slot.inUse = false
			if p.metrics != nil {
				p.metrics.RequestsInUse.Dec()
			}
		}
	}
}
