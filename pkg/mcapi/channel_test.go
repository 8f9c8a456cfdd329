//go:build linux

package mcapi

import (
	"testing"

	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

func TestChannel_MessageRoundTrip(t *testing.T) {
	initTest(t, 3, 1)

	recv, status := EndpointCreate(20)
	if status != types.Success {
		t.Fatalf("expected Success creating recv endpoint, got %v", status)
	}
	send, status := EndpointGet(recv.Address(), 1000)
	if status != types.Success {
		t.Fatalf("expected Success getting send endpoint, got %v", status)
	}

	if status := ChannelOpenRecv(recv, types.ChannelMessage, 0); status != types.Success {
		t.Fatalf("expected Success opening recv side, got %v", status)
	}
	if status := ChannelOpenSend(send, types.ChannelMessage, 0); status != types.Success {
		t.Fatalf("expected Success opening send side, got %v", status)
	}

	payload := []byte("channel message")
	if status := ChannelSend(send, payload, 0, 1000); status != types.Success {
		t.Fatalf("expected Success sending, got %v", status)
	}

	buf := make([]byte, types.MaxMessageSize)
	n, status := ChannelRecv(recv, buf, 1000)
	if status != types.Success {
		t.Fatalf("expected Success receiving, got %v", status)
	}
	if string(buf[:n]) != string(payload) {
		t.Errorf("expected %q, got %q", payload, buf[:n])
	}

	ChannelClose(send)
	ChannelClose(recv)
}

func TestChannel_SendBeforeConnectedFails(t *testing.T) {
	initTest(t, 3, 2)

	recv, status := EndpointCreate(21)
	if status != types.Success {
		t.Fatalf("expected Success creating, got %v", status)
	}
	if status := ChannelSend(recv, []byte("x"), 0, 100); status != types.ErrGeneral {
		t.Fatalf("expected ErrGeneral sending on an unconnected channel, got %v", status)
	}
}

// Validation order follows spec §4.6: initialization state first, then
// the endpoint handle.
func TestChannelOpenRecv_InitStateCheckedBeforeHandle(t *testing.T) {
	defer reset(t)

	var nilEndpoint *Endpoint
	if status := ChannelOpenRecv(nilEndpoint, types.ChannelMessage, 0); status != types.ErrNodeNotInitialized {
		t.Fatalf("expected ErrNodeNotInitialized, got %v", status)
	}
}

func TestChannel_PacketChannel(t *testing.T) {
	initTest(t, 3, 3)

	recv, status := EndpointCreate(22)
	if status != types.Success {
		t.Fatalf("expected Success creating recv endpoint, got %v", status)
	}
	send, status := EndpointGet(recv.Address(), 1000)
	if status != types.Success {
		t.Fatalf("expected Success getting send endpoint, got %v", status)
	}

	if status := ChannelOpenRecv(recv, types.ChannelPacket, 0); status != types.Success {
		t.Fatalf("expected Success opening recv side, got %v", status)
	}
	if status := ChannelOpenSend(send, types.ChannelPacket, 0); status != types.Success {
		t.Fatalf("expected Success opening send side, got %v", status)
	}

	payload := make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(i % 256)
	}

	if status := ChannelSend(send, payload, 0, 1000); status != types.Success {
		t.Fatalf("expected Success sending a packet, got %v", status)
	}

	buf := make([]byte, types.MaxPacketSize)
	n, status := ChannelRecv(recv, buf, 1000)
	if status != types.Success {
		t.Fatalf("expected Success receiving a packet, got %v", status)
	}
	if n != len(payload) {
		t.Errorf("expected %d bytes, got %d", len(payload), n)
	}
}
