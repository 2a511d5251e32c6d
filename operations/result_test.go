package operations

import (
	"testing"

	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/waker"
)

type fakePop struct {
	ready   bool
	remote  ipv4.Endpoint
	payload []byte
	err     error
}

func (p *fakePop) Poll(n *waker.Notifier) (ipv4.Endpoint, []byte, error, bool) {
	if !p.ready {
		return ipv4.Endpoint{}, nil, nil, false
	}
	return p.remote, p.payload, p.err, true
}

func TestResult_AcceptIsAlwaysAMalformedFailure(t *testing.T) {
	r := Accept(3, Malformedf(DetailOperationNotSupported))
	out := r.Project()
	if out.Kind != OutcomeFailed {
		t.Fatalf("Project().Kind = %v, want OutcomeFailed", out.Kind)
	}
	if out.Err == nil || out.Err.Error() != DetailOperationNotSupported {
		t.Fatalf("Project().Err = %v, want %q", out.Err, DetailOperationNotSupported)
	}
}

func TestResult_ConnectAndPush(t *testing.T) {
	if out := Connect(1, nil).Project(); out.Kind != OutcomeConnect || out.FD != 1 {
		t.Fatalf("Connect Project() = %+v", out)
	}
	if out := Push(2, nil).Project(); out.Kind != OutcomePush || out.FD != 2 {
		t.Fatalf("Push Project() = %+v", out)
	}
	failed := Push(2, Malformedf(DetailInvalidFDOnPush))
	if out := failed.Project(); out.Kind != OutcomeFailed {
		t.Fatalf("failed Push Project() = %+v", out)
	}
}

func TestResult_PopProjectingBeforeReadyPanics(t *testing.T) {
	r := PopResult(5, &fakePop{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic projecting a not-ready Pop result")
		}
	}()
	r.Project()
}

func TestResult_PopResolvesAndProjects(t *testing.T) {
	remote := ipv4.Endpoint{Addr: ipv4.Addr{10, 0, 0, 2}, Port: 1}
	pop := &fakePop{}
	r := PopResult(5, pop)

	if r.Poll(nil) {
		t.Fatal("Poll() returned done before the underlying future is ready")
	}

	pop.ready = true
	pop.remote = remote
	pop.payload = []byte("hi")

	if !r.Poll(nil) {
		t.Fatal("Poll() did not report done once the future resolved")
	}

	out := r.Project()
	if out.Kind != OutcomePop || out.FD != 5 || out.Remote != remote || string(out.Payload) != "hi" {
		t.Fatalf("Project() = %+v", out)
	}
}
