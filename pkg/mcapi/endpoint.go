package mcapi

import (
	"github.com/jabolina/go-mcapi/pkg/mcapi/core"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// Endpoint is the public handle returned by EndpointCreate/EndpointGet.
// It wraps the core.Endpoint record the dispatcher validates against
// on every subsequent call.
type Endpoint struct {
	ep *core.Endpoint
}

// EndpointCreate implements mcapi_endpoint_create (spec §4.2/§4.6):
// creates a local receive endpoint on the caller's own node at port.
func EndpointCreate(port types.Port) (*Endpoint, types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return nil, status
	}

	ep, status := n.Table.Create(port)
	if status != types.Success {
		return nil, status
	}
	return &Endpoint{ep: ep}, types.Success
}

// EndpointGet implements mcapi_endpoint_get (spec §4.2): obtains a
// handle usable for sending to a (possibly remote) endpoint,
// performing the open_epd poll-with-sleep loop internally. timeout is
// in milliseconds; core.TimeoutInfinite blocks until the peer
// endpoint appears.
func EndpointGet(addr types.Address, timeoutMillis int64) (*Endpoint, types.Status) {
	n, status := requireInitialized()
	if status != types.Success {
		return nil, status
	}

	ep, status := n.Table.Get(addr, core.Timeout(timeoutMillis))
	if status != types.Success {
		return nil, status
	}
	return &Endpoint{ep: ep}, types.Success
}

// EndpointDelete implements mcapi_endpoint_delete: drains and closes
// a Local endpoint created with EndpointCreate.
func EndpointDelete(port types.Port) types.Status {
	n, status := requireInitialized()
	if status != types.Success {
		return status
	}
	return n.Table.Delete(port)
}

// Address returns the (domain, node, port) this handle addresses.
func (e *Endpoint) Address() types.Address {
	return e.ep.Addr
}

// valid rejects a nil handle or one carrying a nil core.Endpoint,
// reported as ErrParameter per the dispatcher's pointer-validation
// step (spec §4.6).
func (e *Endpoint) valid() types.Status {
	if e == nil || e.ep == nil {
		return types.ErrParameter
	}
	return types.Success
}
