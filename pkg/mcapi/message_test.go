//go:build linux

package mcapi

import (
	"testing"
	"time"

	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

func TestMsgSendRecv_RoundTrip(t *testing.T) {
	initTest(t, 2, 1)

	local, status := EndpointCreate(10)
	if status != types.Success {
		t.Fatalf("expected Success creating local endpoint, got %v", status)
	}

	addr := local.Address()
	peer, status := EndpointGet(addr, 1000)
	if status != types.Success {
		t.Fatalf("expected Success getting peer handle, got %v", status)
	}

	payload := []byte("ping")
	if status := MsgSend(peer, payload, 0, 1000); status != types.Success {
		t.Fatalf("expected Success sending, got %v", status)
	}

	buf := make([]byte, types.MaxMessageSize)
	n, status := MsgRecv(local, buf, 1000)
	if status != types.Success {
		t.Fatalf("expected Success receiving, got %v", status)
	}
	if string(buf[:n]) != string(payload) {
		t.Errorf("expected %q, got %q", payload, buf[:n])
	}
}

func TestMsgRecv_TimesOutOnEmptyQueue(t *testing.T) {
	initTest(t, 2, 2)

	local, status := EndpointCreate(11)
	if status != types.Success {
		t.Fatalf("expected Success creating local endpoint, got %v", status)
	}

	buf := make([]byte, types.MaxMessageSize)
	if _, status := MsgRecv(local, buf, 20); status != types.Timeout {
		t.Fatalf("expected Timeout, got %v", status)
	}
}

func TestMsgSendAsync_CompletesAndIsObservableByWait(t *testing.T) {
	initTest(t, 2, 3)

	local, status := EndpointCreate(12)
	if status != types.Success {
		t.Fatalf("expected Success creating local endpoint, got %v", status)
	}
	peer, status := EndpointGet(local.Address(), 1000)
	if status != types.Success {
		t.Fatalf("expected Success getting peer handle, got %v", status)
	}

	payload := []byte("async")
	req, status := MsgSendAsync(peer, payload, 0)
	if status != types.Success {
		t.Fatalf("expected Success starting async send, got %v", status)
	}

	size, status := RequestWait(req, 1000)
	if status != types.Success {
		t.Fatalf("expected Success waiting on the send, got %v", status)
	}
	if size != len(payload) {
		t.Errorf("expected completion size %d, got %d", len(payload), size)
	}
}

func TestMsgRecvAsync_CompletesOnceSenderWrites(t *testing.T) {
	initTest(t, 2, 4)

	local, status := EndpointCreate(13)
	if status != types.Success {
		t.Fatalf("expected Success creating local endpoint, got %v", status)
	}
	peer, status := EndpointGet(local.Address(), 1000)
	if status != types.Success {
		t.Fatalf("expected Success getting peer handle, got %v", status)
	}

	buf := make([]byte, types.MaxMessageSize)
	req, status := MsgRecvAsync(local, buf)
	if status != types.Success {
		t.Fatalf("expected Success starting async recv, got %v", status)
	}

	if _, status := RequestTest(req); status != types.Pending {
		t.Fatalf("expected Pending before the sender writes, got %v", status)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		MsgSend(peer, []byte("hi"), 0, 1000)
	}()

	size, status := RequestWait(req, 1000)
	if status != types.Success {
		t.Fatalf("expected Success waiting on the recv, got %v", status)
	}
	if size != 2 {
		t.Errorf("expected completion size 2, got %d", size)
	}
}

func TestMsgSend_RejectsNilEndpoint(t *testing.T) {
	initTest(t, 2, 5)

	var nilEndpoint *Endpoint
	if status := MsgSend(nilEndpoint, []byte("x"), 0, 0); status != types.ErrParameter {
		t.Fatalf("expected ErrParameter, got %v", status)
	}
}

// Validation order follows spec §4.6: initialization state first, then
// the endpoint handle, so a nil endpoint before Initialize still
// reports node-not-initialized, not a parameter error.
func TestMsgSend_InitStateCheckedBeforeHandle(t *testing.T) {
	defer reset(t)

	var nilEndpoint *Endpoint
	if status := MsgSend(nilEndpoint, []byte("x"), 0, 0); status != types.ErrNodeNotInitialized {
		t.Fatalf("expected ErrNodeNotInitialized, got %v", status)
	}
}
