//go:build linux

package core

import (
	"golang.org/x/sys/unix"

	"github.com/jabolina/go-mcapi/pkg/mcapi/definition"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// channelMsgSize picks the queue message size for a channel type,
// per spec §4.3: message-sized, packet-sized (larger), or exactly the
// scalar width.
func channelMsgSize(chanType types.ChannelType, scalarSize int) int {
	switch chanType {
	case types.ChannelPacket:
		return types.MaxPacketSize
	case types.ChannelScalar:
		return scalarSize
	default:
		return types.MaxMessageSize
	}
}

// OpenChannelRecv implements pmq_open_chan_recv (spec §4.3): creates
// the channel queue with exclusive create semantics — the receive
// side must be the unique creator, preventing two processes from
// racing on the same channel name — verifies the attributes read
// back, and records the channel queue on ep.
//
// A scalar width outside {1,2,4,8} is diagnosable misuse, not fatal:
// pmq_layer.c only warns and proceeds, so this does too.
func OpenChannelRecv(ep *Endpoint, chanType types.ChannelType, scalarSize int, log definition.Logger) types.Status {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if chanType == types.ChannelNone {
		log.Warnf("channel recv open provided with null chan type")
		return types.ErrParameter
	}
	if chanType == types.ChannelScalar && !types.ValidScalarSize(scalarSize) {
		log.Warnf("trying to open scalar channel %s with invalid size %d", ep.Addr, scalarSize)
	}

	msgSize := channelMsgSize(chanType, scalarSize)
	q, status := createQueue(ep.ChanName, msgSize, true)
	if status != types.Success {
		return status
	}

	ep.ChanQueue = q
	ep.chanType = chanType
	ep.scalarSize = scalarSize
	ep.connState = types.ConnEstablished
	ep.createdChan = true
	log.Debugf("opened channel recv %s type=%s", ep.Addr, chanType)
	return types.Success
}

// OpenChannelSend implements pmq_open_chan_send (spec §4.3): attempts
// to open the channel queue read/write without creating it. If
// ep.ChanQueue is already assigned this is a no-op (idempotent).
// Absence of the queue is a soft failure (Timeout) so the caller can
// retry or surface "peer not ready" — it is not ErrGeneral, since a
// peer simply not having created the channel yet is the expected,
// transient case.
func OpenChannelSend(ep *Endpoint, chanType types.ChannelType, scalarSize int, log definition.Logger) types.Status {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.ChanQueue != nil {
		return types.Success
	}

	q, err := openQueueReadWrite(ep.ChanName)
	if err != nil {
		if err == unix.ENOENT {
			ep.connState = types.ConnPending
			return types.Timeout
		}
		log.Errorf("obtaining channel queue %s for send: %v", ep.ChanName, err)
		return types.ErrGeneral
	}

	ep.ChanQueue = q
	ep.chanType = chanType
	ep.scalarSize = scalarSize
	ep.connState = types.ConnEstablished
	ep.createdChan = false
	log.Debugf("opened channel send %s type=%s", ep.Addr, chanType)
	return types.Success
}

// CloseChannel implements pmq_delete_chan (spec §4.3): closes the
// handle and, only on the endpoint that created it, unlinks the name.
func CloseChannel(ep *Endpoint, log definition.Logger) types.Status {
	ep.mu.Lock()
	defer ep.mu.Unlock()

	if ep.ChanQueue == nil {
		return types.ErrParameter
	}

	if err := ep.ChanQueue.Close(); err != nil {
		log.Warnf("closing channel queue %s: %v", ep.ChanName, err)
	}
	if ep.createdChan {
		if err := Unlink(ep.ChanName); err != nil {
			log.Warnf("unlinking channel queue %s: %v", ep.ChanName, err)
		}
	}

	ep.ChanQueue = nil
	ep.chanType = types.ChannelNone
	ep.connState = types.ConnNone
	ep.createdChan = false
	return types.Success
}
