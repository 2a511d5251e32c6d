//go:build !linux

package scheduler

// wakeChan is the portable fallback wake primitive for platforms without
// eventfd: a capacity-1 channel acts as a binary semaphore. It has no fd
// (Fd returns -1), so it is not registered with the poller; Run only drains
// it and does not block on it.
type wakeChan struct {
	ch chan struct{}
}

func newWakeSource() (wakeSource, error) {
	return &wakeChan{ch: make(chan struct{}, 1)}, nil
}

func (w *wakeChan) Fd() int { return -1 }

func (w *wakeChan) Notify() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *wakeChan) Drain() {
	select {
	case <-w.ch:
	default:
	}
}

func (w *wakeChan) Close() error { return nil }
