//go:build linux

package core

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/jabolina/go-mcapi/pkg/mcapi/definition"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// Endpoint is the Go shape of spec §3's Endpoint record. One Endpoint
// represents one (domain, node, port) address; Local distinguishes an
// endpoint this node created (and owns a receive queue for, invariant
// I1) from a handle obtained via Table.Get that merely knows how to
// write to a peer's queue.
type Endpoint struct {
	Addr types.Address

	MsgName  string
	ChanName string

	MsgQueue  *Queue
	ChanQueue *Queue

	// Local is true only for an endpoint this node created via
	// Table.Create; it is the condition invariant I1 refers to.
	Local bool

	mu          sync.Mutex
	chanType    types.ChannelType
	scalarSize  int
	connState   types.ConnState
	createdChan bool // true if this endpoint created (and so must unlink) ChanQueue
}

func (e *Endpoint) ChannelType() types.ChannelType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chanType
}

func (e *Endpoint) ConnState() types.ConnState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connState
}

// Table is the process-local, port-indexed endpoint registry (spec
// §4.2), guarded by a single mutex per spec §5. It only ever holds
// Local endpoints; a Table.Get handle to a remote address is not
// inserted here (it is not subject to invariant I4's "no two endpoint
// records share a port", since that invariant is about this node's
// own address space).
type Table struct {
	mu     sync.Mutex
	domain types.Domain
	node   types.Node

	endpoints map[types.Port]*Endpoint
	log       definition.Logger
	metrics   *definition.Metrics
}

func NewTable(domain types.Domain, node types.Node, log definition.Logger, metrics *definition.Metrics) *Table {
	return &Table{
		domain:    domain,
		node:      node,
		endpoints: make(map[types.Port]*Endpoint),
		log:       log,
		metrics:   metrics,
	}
}

// Create implements create_epd (spec §4.2): opens the receive queue
// with create-or-fail-if-exists semantics, verifies the attributes
// read back, and records the endpoint. Invariant I4 is enforced here:
// a port already present in the table is rejected.
func (t *Table) Create(port types.Port) (*Endpoint, types.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.endpoints[port]; exists {
		return nil, types.ErrGeneral
	}

	addr := types.Address{Domain: t.domain, Node: t.node, Port: port}
	msgName, chanName := QueueNames(addr)

	q, status := createQueue(msgName, types.MaxMessageSize, true)
	if status != types.Success {
		return nil, status
	}

	ep := &Endpoint{
		Addr:     addr,
		MsgName:  msgName,
		ChanName: chanName,
		MsgQueue: q,
		Local:    true,
	}
	t.endpoints[port] = ep
	if t.metrics != nil {
		t.metrics.EndpointsOpen.Inc()
	}
	t.log.Debugf("created endpoint %s", addr)
	return ep, types.Success
}

// Get implements open_epd (spec §4.2): polls, sleeping one
// millisecond between attempts, for the named receive queue to exist
// and opens it write-only. The returned Endpoint is a handle, not a
// Table entry — it is never inserted into t.endpoints.
//
// Timeout is measured in wall-clock time (spec §9's redesign: measure
// wall time, not tick count), not in poll-iteration count.
func (t *Table) Get(addr types.Address, timeout Timeout) (*Endpoint, types.Status) {
	msgName, chanName := QueueNames(addr)

	deadlineAt := time.Now().Add(time.Duration(timeout) * time.Millisecond)
	infinite := timeout == TimeoutInfinite

	for {
		q, err := openQueueWriteOnly(msgName)
		if err == nil {
			return &Endpoint{
				Addr:     addr,
				MsgName:  msgName,
				ChanName: chanName,
				MsgQueue: q,
				Local:    false,
			}, types.Success
		}

		if err != unix.ENOENT {
			t.log.Errorf("opening msq %s from get: %v", msgName, err)
			return nil, types.ErrGeneral
		}

		if !infinite && time.Now().After(deadlineAt) {
			return nil, types.Timeout
		}

		time.Sleep(time.Millisecond)
	}
}

// Delete implements pmq_delete_epd (spec §4.2): drains the receive
// queue by repeated non-blocking receives until empty, then closes
// it and unlinks its name. Only Local endpoints are in the table; a
// port with no entry (including one only reached through Get) yields
// ErrParameter. The endpoint's channel queue, if any, is not touched.
func (t *Table) Delete(port types.Port) types.Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	ep, exists := t.endpoints[port]
	if !exists {
		return types.ErrParameter
	}

	if ep.MsgQueue != nil {
		buf := make([]byte, types.MaxMessageSize)
		for {
			_, status := ep.MsgQueue.TryRecv(buf)
			if status != types.Success {
				break
			}
		}
		if err := ep.MsgQueue.Close(); err != nil {
			t.log.Warnf("closing msq %s: %v", ep.MsgName, err)
		}
		if err := Unlink(ep.MsgName); err != nil {
			t.log.Warnf("unlinking msq %s: %v", ep.MsgName, err)
		}
	}

	delete(t.endpoints, port)
	if t.metrics != nil {
		t.metrics.EndpointsOpen.Dec()
	}
	t.log.Debugf("deleted endpoint %s", ep.Addr)
	return types.Success
}

// Lookup returns the Local endpoint for port, if any.
func (t *Table) Lookup(port types.Port) (*Endpoint, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ep, ok := t.endpoints[port]
	return ep, ok
}

// Reset closes any channel queue held by a Local endpoint (unlinking
// it when that endpoint created it), then closes and unlinks every
// Local endpoint's receive queue; used by Finalize.
func (t *Table) Reset() {
	t.mu.Lock()
	ports := make([]types.Port, 0, len(t.endpoints))
	for port := range t.endpoints {
		ports = append(ports, port)
	}
	t.mu.Unlock()

	for _, port := range ports {
		if ep, ok := t.Lookup(port); ok {
			CloseChannel(ep, t.log)
		}
		t.Delete(port)
	}
}
