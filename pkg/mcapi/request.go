package mcapi

import (
	"github.com/jabolina/go-mcapi/pkg/mcapi/core"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// Request is the public handle for an outstanding asynchronous
// operation, returned by MsgSendAsync/MsgRecvAsync and consumed by
// RequestTest/RequestWait (spec §4.4).
type Request struct {
	r *core.Request
}

// RequestTest implements mcapi_test: a single, non-blocking check of
// whether req has completed. Validation order follows spec §4.6:
// initialization state first, then the handle.
func RequestTest(req *Request) (size int, status types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return 0, status
	}
	if req == nil || req.r == nil {
		return 0, types.ErrRequestInvalid
	}
	return n.Pool.Test(req.r)
}

// RequestWait implements mcapi_wait: blocks, polling at the pool's
// fixed interval, until req completes or timeoutMillis elapses.
// Validation order follows spec §4.6: initialization state first, then
// the handle (original_source/utests/suite_node.h's wait_fail_init
// expects node-not-initialized ahead of a null-request check).
func RequestWait(req *Request, timeoutMillis int64) (size int, status types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return 0, status
	}
	if req == nil || req.r == nil {
		return 0, types.ErrRequestInvalid
	}
	return n.Pool.Wait(req.r, core.Timeout(timeoutMillis))
}
