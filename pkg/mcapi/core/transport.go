//go:build linux

package core

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/jabolina/go-mcapi/pkg/mcapi/definition"
	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// Timeout mirrors mcapi_timeout_t: a millisecond budget, with
// TimeoutInfinite as the blocking sentinel (spec §4.1).
type Timeout int64

// TimeoutInfinite maps to a blocking call with no deadline.
const TimeoutInfinite Timeout = -1

// Queue wraps a single POSIX message queue descriptor, translating
// MCAPI's timeout/priority/size semantics onto the raw mq_* syscalls,
// the direct Go analogue of the mq_* calls in
// original_source/src/pmq_layer.c. golang.org/x/sys/unix exposes the
// SYS_MQ_* syscall numbers but, unlike most of its POSIX surface,
// never wraps mqueue in Go-friendly functions, so the adapter calls
// unix.Syscall/unix.Syscall6 directly against them. The adapter never
// retries; retry policy belongs to callers (spec §4.1).
type Queue struct {
	fd   int
	name string
}

// mqAttr mirrors struct mq_attr from <mqueue.h>: four long fields
// followed by reserved padding the kernel also expects present in the
// argument it's handed, even though this adapter never inspects it.
type mqAttr struct {
	Flags    int64
	Maxmsg   int64
	Msgsize  int64
	Curmsgs  int64
	reserved [4]int64
}

// attr builds the attribute vector spec §6 fixes: blocking, a fixed
// max_msgs, a per-channel-type msg_size, and cur_msgs always zero.
func attr(msgSize int) *mqAttr {
	return &mqAttr{
		Flags:   0,
		Maxmsg:  int64(types.MaxQueueElements),
		Msgsize: int64(msgSize),
		Curmsgs: 0,
	}
}

// attrMatches performs the exact three-field comparison
// pmq_layer.c's create_epd and channel-recv-open both do: flags,
// max_msgs and msg_size must agree with what was requested. cur_msgs
// is deliberately excluded, as it is never under caller control.
func attrMatches(want *mqAttr, got *mqAttr) bool {
	return want.Flags == got.Flags &&
		want.Maxmsg == got.Maxmsg &&
		want.Msgsize == got.Msgsize
}

// errnoToError turns the raw errno a Syscall return carries back into
// a conventional error, nil on success.
func errnoToError(errno unix.Errno) error {
	if errno != 0 {
		return errno
	}
	return nil
}

// mqOpen calls mq_open(2) directly via SYS_MQ_OPEN, since
// golang.org/x/sys/unix declares the syscall number but no wrapper
// function for it.
func mqOpen(name string, flags int, mode uint32, a *mqAttr) (int, error) {
	namePtr, err := unix.BytePtrFromString(name)
	if err != nil {
		return -1, err
	}

	fd, _, errno := unix.Syscall6(
		unix.SYS_MQ_OPEN,
		uintptr(unsafe.Pointer(namePtr)),
		uintptr(flags),
		uintptr(mode),
		uintptr(unsafe.Pointer(a)),
		0, 0,
	)
	if errno != 0 {
		return -1, errnoToError(errno)
	}
	return int(fd), nil
}

// mqUnlink calls mq_unlink(2) via SYS_MQ_UNLINK.
func mqUnlink(name string) error {
	namePtr, err := unix.BytePtrFromString(name)
	if err != nil {
		return err
	}

	_, _, errno := unix.Syscall(unix.SYS_MQ_UNLINK, uintptr(unsafe.Pointer(namePtr)), 0, 0)
	return errnoToError(errno)
}

// mqGetSetAttr calls mq_getsetattr(2) via SYS_MQ_GETSETATTR. Passing a
// nil newAttr (as every caller here does) makes this a pure get.
func mqGetSetAttr(fd int, newAttr *mqAttr, oldAttr *mqAttr) error {
	_, _, errno := unix.Syscall(
		unix.SYS_MQ_GETSETATTR,
		uintptr(fd),
		uintptr(unsafe.Pointer(newAttr)),
		uintptr(unsafe.Pointer(oldAttr)),
	)
	return errnoToError(errno)
}

// bufPtr is unix.Syscall6's escape hatch for a possibly-empty buffer:
// &buf[0] panics on a zero-length slice, so callers that may pass one
// (priority-only scalar sends, zero-byte polls) route through this.
func bufPtr(buf []byte) unsafe.Pointer {
	if len(buf) == 0 {
		return unsafe.Pointer(nil)
	}
	return unsafe.Pointer(&buf[0])
}

// mqTimedsend calls mq_timedsend(2) via SYS_MQ_TIMEDSEND.
func mqTimedsend(fd int, buf []byte, priority uint, ts *unix.Timespec) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_MQ_TIMEDSEND,
		uintptr(fd),
		uintptr(bufPtr(buf)),
		uintptr(len(buf)),
		uintptr(priority),
		uintptr(unsafe.Pointer(ts)),
		0,
	)
	return errnoToError(errno)
}

// mqTimedreceive calls mq_timedreceive(2) via SYS_MQ_TIMEDRECEIVE.
func mqTimedreceive(fd int, buf []byte, priority *uint, ts *unix.Timespec) (int, error) {
	n, _, errno := unix.Syscall6(
		unix.SYS_MQ_TIMEDRECEIVE,
		uintptr(fd),
		uintptr(bufPtr(buf)),
		uintptr(len(buf)),
		uintptr(unsafe.Pointer(priority)),
		uintptr(unsafe.Pointer(ts)),
		0,
	)
	if errno != 0 {
		return 0, errnoToError(errno)
	}
	return int(n), nil
}

// createQueue opens name for read/write, creating it. If exclusive is
// true the open fails when the name already exists (used by create_epd
// and by the channel-receive side, per spec §4.2/§4.3); otherwise an
// existing queue with matching attributes is reused.
func createQueue(name string, msgSize int, exclusive bool) (*Queue, types.Status) {
	flags := unix.O_RDWR | unix.O_CREAT
	if exclusive {
		flags |= unix.O_EXCL
	}

	want := attr(msgSize)
	fd, err := mqOpen(name, flags, 0600, want)
	if err != nil {
		definition.FallbackErrorf("opening msq %s for create: %v", name, err)
		return nil, types.ErrGeneral
	}

	var got mqAttr
	if err := mqGetSetAttr(fd, nil, &got); err != nil {
		definition.FallbackErrorf("obtaining msq %s attributes for check: %v", name, err)
		unix.Close(fd)
		return nil, types.ErrGeneral
	}

	if !attrMatches(want, &got) {
		definition.FallbackErrorf("set msq %s attributes do not match", name)
		unix.Close(fd)
		return nil, types.ErrGeneral
	}

	return &Queue{fd: fd, name: name}, types.Success
}

// openQueueWriteOnly tries, once, to open an existing queue for
// writing without creating it. Used by the open_epd poll loop.
func openQueueWriteOnly(name string) (*Queue, error) {
	fd, err := mqOpen(name, unix.O_WRONLY, 0, nil)
	if err != nil {
		return nil, err
	}
	return &Queue{fd: fd, name: name}, nil
}

// openQueueReadWrite tries, once, to open an existing queue for
// read/write without creating it. Used by the channel send-side open.
func openQueueReadWrite(name string) (*Queue, error) {
	fd, err := mqOpen(name, unix.O_RDWR, 0, nil)
	if err != nil {
		return nil, err
	}
	return &Queue{fd: fd, name: name}, nil
}

// deadline converts a millisecond Timeout into an absolute
// unix.Timespec against CLOCK_REALTIME, carrying nanosecond overflow
// into seconds as pmq_layer.c's ADD_MILLIS_TO_NOW macro does. A failed
// ClockGettime leaves ts at its zero value, so the failure is surfaced
// instead of silently handing callers an already-elapsed deadline.
func deadline(timeout Timeout) (unix.Timespec, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return ts, err
	}
	ts.Sec += int64(timeout) / 1000
	ts.Nsec += (int64(timeout) % 1000) * int64(time.Millisecond)
	if ts.Nsec >= int64(time.Second) {
		ts.Sec += ts.Nsec / int64(time.Second)
		ts.Nsec = ts.Nsec % int64(time.Second)
	}
	return ts, nil
}

// Send transmits buf at the given priority. A deadline expiry maps to
// Timeout, not an error; any other failure maps to ErrTransmission.
func (q *Queue) Send(buf []byte, priority uint, timeout Timeout) types.Status {
	var err error
	if timeout == TimeoutInfinite {
		err = mqTimedsend(q.fd, buf, priority, nil)
	} else {
		ts, derr := deadline(timeout)
		if derr != nil {
			definition.FallbackErrorf("computing send deadline for %s: %v", q.name, derr)
			return types.ErrGeneral
		}
		err = mqTimedsend(q.fd, buf, priority, &ts)
	}

	if err != nil {
		if err == unix.ETIMEDOUT {
			return types.Timeout
		}
		definition.FallbackErrorf("mq_send on %s: %v", q.name, err)
		return types.ErrTransmission
	}
	return types.Success
}

// Recv blocks for up to timeout waiting for a message, writing it
// into buf and reporting its priority and length.
func (q *Queue) Recv(buf []byte, timeout Timeout) (n int, priority uint, status types.Status) {
	var err error
	if timeout == TimeoutInfinite {
		n, err = mqTimedreceive(q.fd, buf, &priority, nil)
	} else {
		ts, derr := deadline(timeout)
		if derr != nil {
			definition.FallbackErrorf("computing recv deadline for %s: %v", q.name, derr)
			return 0, 0, types.ErrGeneral
		}
		n, err = mqTimedreceive(q.fd, buf, &priority, &ts)
	}

	if err != nil {
		if err == unix.ETIMEDOUT {
			return 0, 0, types.Timeout
		}
		definition.FallbackErrorf("mq_recv on %s: %v", q.name, err)
		return 0, 0, types.ErrTransmission
	}
	return n, priority, types.Success
}

// TryRecv drains one message without blocking, using an
// already-elapsed deadline exactly as pmq_layer.c's pmq_delete_epd
// drain loop does. A Timeout result here means "queue is empty now".
func (q *Queue) TryRecv(buf []byte) (n int, status types.Status) {
	n, _, status = q.Recv(buf, 0)
	return n, status
}

// Avail returns the kernel-reported current message count.
func (q *Queue) Avail() (int, types.Status) {
	var got mqAttr
	if err := mqGetSetAttr(q.fd, nil, &got); err != nil {
		definition.FallbackErrorf("obtaining msq %s attributes to check count: %v", q.name, err)
		return 0, types.ErrGeneral
	}
	return int(got.Curmsgs), types.Success
}

// Close closes the descriptor without unlinking the kernel name.
func (q *Queue) Close() error {
	if err := unix.Close(q.fd); err != nil {
		return fmt.Errorf("closing msq %s: %w", q.name, err)
	}
	return nil
}

// Unlink removes the kernel-namespace name. Only the endpoint that
// created a queue is ever supposed to call this (spec §4.3's unlink
// flag).
func Unlink(name string) error {
	if err := mqUnlink(name); err != nil {
		return fmt.Errorf("unlinking msq %s: %w", name, err)
	}
	return nil
}
