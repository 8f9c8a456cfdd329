// Package mcapi implements a process-local multi-core communication
// runtime: MCAPI-style inter-node messaging over POSIX message
// queues. It is the public API dispatcher spec §4.6 describes,
// validating parameters and lifecycle state before delegating to
// pkg/mcapi/core.
package mcapi

import (
	"sync"

	"github.com/jabolina/go-mcapi/pkg/mcapi/core"
	"github.com/jabolina/go-mcapi/pkg/mcapi/definition"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// singleton is the one process-wide *core.Node the public API
// dispatches against, guarded by its own mutex for the init/finalize
// transition. Everything else the Node touches has its own locking
// (the endpoint table, the request pool); this mutex only protects
// which *core.Node is currently installed.
var (
	singletonMu sync.Mutex
	singleton   *core.Node
)

func currentNode() *core.Node {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	return singleton
}

// Initialize implements mcapi_initialize. Validates that outInfo is
// non-null, then transitions the node uninitialized -> initialized.
// Calling it while already initialized fails with ErrNodeInitialized
// without disturbing the existing node.
func Initialize(domain types.Domain, node types.Node, log definition.Logger, outInfo *types.Info) types.Status {
	if outInfo == nil {
		return types.ErrParameter
	}

	singletonMu.Lock()
	defer singletonMu.Unlock()

	if singleton != nil && singleton.Initialized() {
		return types.ErrNodeInitialized
	}

	n := core.New()
	info, status := n.Initialize(domain, node, log)
	if status != types.Success {
		return status
	}

	singleton = n
	*outInfo = info
	return types.Success
}

// Finalize implements mcapi_finalize: tears down every endpoint and
// queue the node owns and returns it to uninitialized.
func Finalize() types.Status {
	singletonMu.Lock()
	n := singleton
	singletonMu.Unlock()

	if n == nil || !n.Initialized() {
		return types.ErrNodeNotInitialized
	}
	return n.Finalize()
}

// requireInitialized is the first validation step every other public
// entry point performs (spec §4.6: init state first, then pointers,
// then handles).
func requireInitialized() (*core.Node, types.Status) {
	n := currentNode()
	if n == nil || !n.Initialized() {
		return nil, types.ErrNodeNotInitialized
	}
	return n, types.Success
}

// DomainIDGet implements mcapi_domain_id_get.
func DomainIDGet() (types.Domain, types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return 0, status
	}
	domain, _ := n.Identity()
	return domain, types.Success
}

// NodeIDGet implements mcapi_node_id_get.
func NodeIDGet() (types.Node, types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return 0, status
	}
	_, node := n.Identity()
	return node, types.Success
}
