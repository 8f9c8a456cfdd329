//go:build linux

package core

import (
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/jabolina/go-mcapi/pkg/mcapi/definition"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

func newTestPool() *Pool {
	return NewPool(definition.NewDefaultLogger(nil, "test"), definition.NewMetrics("request_test"))
}

type fixedPredicate struct {
	ready bool
	size  int
}

func (f *fixedPredicate) Evaluate() bool { return f.ready }
func (f *fixedPredicate) Size() int      { return f.size }

func TestPool_ReserveRefusesNilPredicate(t *testing.T) {
	pool := newTestPool()
	if r := pool.Reserve(nil); r != nil {
		t.Fatalf("expected nil request for a nil predicate")
	}
}

func TestPool_ReserveExhaustion(t *testing.T) {
	pool := newTestPool()
	var held []*Request
	for i := 0; i < types.MaxRequests; i++ {
		r := pool.Reserve(&fixedPredicate{})
		if r == nil {
			t.Fatalf("expected slot %d to be reservable", i)
		}
		held = append(held, r)
	}

	if r := pool.Reserve(&fixedPredicate{}); r != nil {
		t.Fatalf("expected nil request once the pool is exhausted")
	}

	pool.Release(held[0])
	if r := pool.Reserve(&fixedPredicate{}); r == nil {
		t.Fatalf("expected a freed slot to become reservable again")
	}
}

func TestPool_TestReturnsPendingThenSuccess(t *testing.T) {
	pool := newTestPool()
	pred := &fixedPredicate{size: 7}
	r := pool.Reserve(pred)

	size, status := pool.Test(r)
	if status != types.Pending {
		t.Fatalf("expected Pending, got %v", status)
	}
	if size != 0 {
		t.Errorf("expected size 0 while pending, got %d", size)
	}

	pred.ready = true
	size, status = pool.Test(r)
	if status != types.Success {
		t.Fatalf("expected Success once the predicate completes, got %v", status)
	}
	if size != 7 {
		t.Errorf("expected size 7, got %d", size)
	}

	// The slot is released on completion; testing again is invalid.
	if _, status := pool.Test(r); status != types.ErrRequestInvalid {
		t.Errorf("expected ErrRequestInvalid on a released handle, got %v", status)
	}
}

func TestPool_TestOnNilOrUnusedHandle(t *testing.T) {
	pool := newTestPool()
	if _, status := pool.Test(nil); status != types.ErrRequestInvalid {
		t.Errorf("expected ErrRequestInvalid for a nil handle, got %v", status)
	}
}

func TestPool_WaitZeroTimeoutEvaluatesOnce(t *testing.T) {
	pool := newTestPool()
	pred := &fixedPredicate{}
	r := pool.Reserve(pred)

	if _, status := pool.Wait(r, 0); status != types.Timeout {
		t.Fatalf("expected Timeout for an incomplete predicate with timeout 0, got %v", status)
	}
}

func TestPool_WaitImmediateSuccess(t *testing.T) {
	pool := newTestPool()
	pred := &fixedPredicate{ready: true, size: 3}
	r := pool.Reserve(pred)

	size, status := pool.Wait(r, 0)
	if status != types.Success {
		t.Fatalf("expected Success for an already-complete predicate, got %v", status)
	}
	if size != 3 {
		t.Errorf("expected size 3, got %d", size)
	}
}

func TestPool_WaitPollsUntilDeadline(t *testing.T) {
	pool := newTestPool()
	pred := &fixedPredicate{}
	r := pool.Reserve(pred)

	go func() {
		time.Sleep(5 * time.Millisecond)
		pred.ready = true
		pred.size = 1
	}()

	size, status := pool.Wait(r, 200)
	if status != types.Success {
		t.Fatalf("expected Success before the deadline, got %v", status)
	}
	if size != 1 {
		t.Errorf("expected size 1, got %d", size)
	}
}

func TestPool_WaitTimesOut(t *testing.T) {
	pool := newTestPool()
	r := pool.Reserve(&fixedPredicate{})

	start := time.Now()
	if _, status := pool.Wait(r, 20); status != types.Timeout {
		t.Fatalf("expected Timeout, got %v", status)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("expected Wait to block for roughly the timeout, elapsed %v", elapsed)
	}
}

func TestPool_WaitOnNilPredicateSlotReleasesAndReportsInvalid(t *testing.T) {
	pool := newTestPool()
	r := pool.Reserve(&fixedPredicate{})
	r.mu.Lock()
	r.predicate = nil
	r.mu.Unlock()

	if _, status := pool.Wait(r, 0); status != types.ErrRequestInvalid {
		t.Fatalf("expected ErrRequestInvalid for an in-use slot with nil predicate, got %v", status)
	}
	if _, status := pool.Test(r); status != types.ErrRequestInvalid {
		t.Errorf("expected the slot to have been released, got %v", status)
	}
}

func TestPool_ReleaseIsNilSafe(t *testing.T) {
	pool := newTestPool()
	pool.Release(nil)
}

func TestPool_ResetFreesAllInUseSlots(t *testing.T) {
	pool := newTestPool()
	for i := 0; i < 5; i++ {
		pool.Reserve(&fixedPredicate{})
	}
	pool.Reset()

	for i := 0; i < types.MaxRequests; i++ {
		if r := pool.Reserve(&fixedPredicate{}); r == nil {
			t.Fatalf("expected every slot free after Reset, failed at %d", i)
		}
	}
}

func TestPool_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := newTestPool()
	pred := &fixedPredicate{ready: true}
	r := pool.Reserve(pred)
	pool.Wait(r, 0)
}
