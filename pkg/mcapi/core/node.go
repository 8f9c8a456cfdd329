//go:build linux

package core

import (
	"sync"

	"github.com/jabolina/go-mcapi/pkg/mcapi/definition"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// Node is the process-wide runtime state (spec §3's "Node state"),
// encapsulated behind a handle per spec §9 ("encapsulate it behind an
// abstract handle so tests can construct and destruct independent
// instances") rather than hidden package-level globals. The public
// mcapi package wraps exactly one *Node behind its singleton facade.
type Node struct {
	mu sync.Mutex

	initialized bool
	domain      types.Domain
	node        types.Node

	Table   *Table
	Pool    *Pool
	Log     definition.Logger
	Metrics *definition.Metrics
}

// New constructs an uninitialized Node handle.
func New() *Node {
	return &Node{}
}

// Initialize implements mcapi_initialize (spec §4.5): transitions
// uninitialized -> initialized, installs the endpoint table and
// request pool, and populates info. Fails with ErrNodeInitialized if
// already initialized.
func (n *Node) Initialize(domain types.Domain, node types.Node, log definition.Logger) (types.Info, types.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.initialized {
		return types.Info{}, types.ErrNodeInitialized
	}

	if log == nil {
		log = definition.NewDefaultLogger(nil, "mcapi")
	}

	n.domain = domain
	n.node = node
	n.Log = log
	n.Metrics = definition.NewMetrics("mcapi")
	n.Table = NewTable(domain, node, log, n.Metrics)
	n.Pool = NewPool(log, n.Metrics)
	n.initialized = true

	log.Infof("node %d:%d initialized", domain, node)
	return types.DefaultInfo(), types.Success
}

// Finalize implements mcapi_finalize (spec §4.5): transitions
// initialized -> uninitialized, closing every open endpoint (draining
// and unlinking receive queues, closing channel queues) and clearing
// the request pool. Partial failures during teardown (e.g. an unlink
// that fails) are logged but never prevent reaching uninitialized
// (spec §7).
func (n *Node) Finalize() types.Status {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.initialized {
		return types.ErrNodeNotInitialized
	}

	n.Table.Reset()
	n.Pool.Reset()

	n.initialized = false
	n.Table = nil
	n.Pool = nil
	n.Metrics = nil
	return types.Success
}

// Initialized reports whether the node is currently initialized.
func (n *Node) Initialized() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.initialized
}

// Identity returns the node's own (domain, node) pair, valid only
// while initialized.
func (n *Node) Identity() (types.Domain, types.Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.domain, n.node
}
