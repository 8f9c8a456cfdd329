package mcapi

import (
	"github.com/jabolina/go-mcapi/pkg/mcapi/core"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// ChannelOpenRecv implements pmq_open_chan_recv at the public surface
// (spec §4.3): the receiving endpoint of a channel pair creates the
// channel queue and fixes its ChannelType for the lifetime of the
// connection (invariant I3). Validation order follows spec §4.6:
// initialization state first, then the endpoint handle.
func ChannelOpenRecv(ep *Endpoint, chanType types.ChannelType, scalarSize int) types.Status {
	n, status := requireInitialized()
	if status != types.Success {
		return status
	}
	if status := ep.valid(); status != types.Success {
		return status
	}
	return core.OpenChannelRecv(ep.ep, chanType, scalarSize, n.Log)
}

// ChannelOpenSend implements pmq_open_chan_send: the sending endpoint
// attaches to a channel queue the receive side has already created.
// A Timeout result means the peer has not opened its side yet; the
// caller is expected to retry.
func ChannelOpenSend(ep *Endpoint, chanType types.ChannelType, scalarSize int) types.Status {
	n, status := requireInitialized()
	if status != types.Success {
		return status
	}
	if status := ep.valid(); status != types.Success {
		return status
	}
	return core.OpenChannelSend(ep.ep, chanType, scalarSize, n.Log)
}

// ChannelSend implements mcapi_msg_send/pktchan_send/sclchan_send's
// shared channel-transfer path (spec §4.3): a blocking write on an
// already-connected channel.
func ChannelSend(ep *Endpoint, buf []byte, priority uint, timeoutMillis int64) types.Status {
	if _, status := requireInitialized(); status != types.Success {
		return status
	}
	if status := ep.valid(); status != types.Success {
		return status
	}
	if ep.ep.ConnState() != types.ConnEstablished {
		return types.ErrGeneral
	}
	return ep.ep.ChanQueue.Send(buf, priority, core.Timeout(timeoutMillis))
}

// ChannelRecv implements the shared channel-receive path: a blocking
// read on an already-connected channel.
func ChannelRecv(ep *Endpoint, buf []byte, timeoutMillis int64) (n int, status types.Status) {
	if _, status := requireInitialized(); status != types.Success {
		return 0, status
	}
	if status := ep.valid(); status != types.Success {
		return 0, status
	}
	if ep.ep.ConnState() != types.ConnEstablished {
		return 0, types.ErrGeneral
	}
	n, _, status = ep.ep.ChanQueue.Recv(buf, core.Timeout(timeoutMillis))
	return n, status
}

// ChannelClose implements pmq_delete_chan: tears down one endpoint's
// half of a channel connection.
func ChannelClose(ep *Endpoint) types.Status {
	n, status := requireInitialized()
	if status != types.Success {
		return status
	}
	if status := ep.valid(); status != types.Success {
		return status
	}
	return core.CloseChannel(ep.ep, n.Log)
}
