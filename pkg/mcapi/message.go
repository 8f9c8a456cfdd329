package mcapi

import (
	"sync"

	"github.com/jabolina/go-mcapi/pkg/mcapi/core"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// MsgSend implements mcapi_msg_send (spec §4.1): a blocking,
// connectionless transfer to to's address. to must be a handle
// obtained from EndpointGet (or a local EndpointCreate handle, for a
// loopback send to self). Validation order follows spec §4.6:
// initialization state first, then the endpoint handle.
func MsgSend(to *Endpoint, buf []byte, priority uint, timeoutMillis int64) types.Status {
	if _, status := requireInitialized(); status != types.Success {
		return status
	}
	if status := to.valid(); status != types.Success {
		return status
	}
	return to.ep.MsgQueue.Send(buf, priority, core.Timeout(timeoutMillis))
}

// MsgRecv implements mcapi_msg_recv (spec §4.1): a blocking receive on
// a Local endpoint's own queue, obtained via EndpointCreate.
func MsgRecv(local *Endpoint, buf []byte, timeoutMillis int64) (n int, status types.Status) {
	if _, status := requireInitialized(); status != types.Success {
		return 0, status
	}
	if status := local.valid(); status != types.Success {
		return 0, status
	}
	n, _, status = local.ep.MsgQueue.Recv(buf, core.Timeout(timeoutMillis))
	return n, status
}

// asyncResult is the types.Predicate backing mcapi_msg_send_i and
// mcapi_msg_recv_i: a background goroutine performs the blocking
// transfer and marks completion, which Test/Wait then observe by
// polling (spec §4.4's reserve/test/wait protocol).
type asyncResult struct {
	mu   sync.Mutex
	done bool
	size int
}

func (a *asyncResult) Evaluate() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.done
}

func (a *asyncResult) Size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

func (a *asyncResult) complete(size int) {
	a.mu.Lock()
	a.done = true
	a.size = size
	a.mu.Unlock()
}

// MsgSendAsync implements mcapi_msg_send_i: reserves a request handle
// and starts the send in the background, returning immediately. A nil
// Request means the pool is exhausted (invariant I6); the send is not
// started in that case.
func MsgSendAsync(to *Endpoint, buf []byte, priority uint) (*Request, types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return nil, status
	}
	if status := to.valid(); status != types.Success {
		return nil, status
	}

	result := &asyncResult{}
	r := n.Pool.Reserve(result)
	if r == nil {
		return nil, types.ErrRequestInvalid
	}

	queue := to.ep.MsgQueue
	go func() {
		sendStatus := queue.Send(buf, priority, core.TimeoutInfinite)
		size := 0
		if sendStatus == types.Success {
			size = len(buf)
		}
		result.complete(size)
	}()

	return &Request{r: r}, types.Success
}

// MsgRecvAsync implements mcapi_msg_recv_i: reserves a request handle
// and starts the receive in the background. buf must remain valid
// until the caller observes completion via Wait or Test.
func MsgRecvAsync(local *Endpoint, buf []byte) (*Request, types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return nil, status
	}
	if status := local.valid(); status != types.Success {
		return nil, status
	}

	result := &asyncResult{}
	r := n.Pool.Reserve(result)
	if r == nil {
		return nil, types.ErrRequestInvalid
	}

	queue := local.ep.MsgQueue
	go func() {
		recvN, _, _ := queue.Recv(buf, core.TimeoutInfinite)
		result.complete(recvN)
	}()

	return &Request{r: r}, types.Success
}
