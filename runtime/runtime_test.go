package runtime

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/amirmnoohi/demikernel/ethernet"
	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/scheduler"
	"github.com/amirmnoohi/demikernel/waker"
)

func newTestRuntime(t *testing.T) (*Runtime, *bytes.Buffer) {
	t.Helper()
	sched, err := scheduler.New()
	if err != nil {
		t.Fatalf("scheduler.New() error = %v", err)
	}
	t.Cleanup(func() { _ = sched.Close() })

	var buf bytes.Buffer
	rt := New(sched, ethernet.MAC{1, 2, 3, 4, 5, 6}, ipv4.Addr{10, 0, 0, 1}, NewWriterTransmitter(&buf))
	return rt, &buf
}

func TestRuntime_Addresses(t *testing.T) {
	rt, _ := newTestRuntime(t)
	if rt.LocalLinkAddr() != (ethernet.MAC{1, 2, 3, 4, 5, 6}) {
		t.Fatalf("LocalLinkAddr() = %v", rt.LocalLinkAddr())
	}
	if rt.LocalIPv4Addr() != (ipv4.Addr{10, 0, 0, 1}) {
		t.Fatalf("LocalIPv4Addr() = %v", rt.LocalIPv4Addr())
	}
}

func TestRuntime_Transmit(t *testing.T) {
	rt, buf := newTestRuntime(t)
	rt.Transmit([]byte("frame"))
	if buf.String() != "frame" {
		t.Fatalf("buffer = %q, want %q", buf.String(), "frame")
	}
}

func TestRuntime_CloneSharesTransmitter(t *testing.T) {
	rt, buf := newTestRuntime(t)
	clone := rt.Clone()
	clone.Transmit([]byte("via-clone"))
	if buf.String() != "via-clone" {
		t.Fatalf("buffer = %q, want %q", buf.String(), "via-clone")
	}
}

func TestRuntime_SpawnAndRun(t *testing.T) {
	rt, _ := newTestRuntime(t)

	done := make(chan struct{})
	rt.Spawn(scheduler.TaskFunc(func(n *waker.Notifier) bool {
		close(done)
		return true
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	go func() {
		select {
		case <-done:
		case <-time.After(50 * time.Millisecond):
		}
		rt.Shutdown()
	}()

	if err := rt.Run(ctx); err != nil && err != context.DeadlineExceeded {
		t.Fatalf("Run() error = %v", err)
	}

	select {
	case <-done:
	default:
		t.Fatal("spawned task was never polled")
	}
}
