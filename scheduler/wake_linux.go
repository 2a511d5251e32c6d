//go:build linux

package scheduler

import "golang.org/x/sys/unix"

// wakeFd is an eventfd-backed wake primitive: Notify() increments the
// kernel counter, Wait() blocks (via epoll, in poller_linux.go) until it is
// non-zero then drains it. Adapted from the teacher's eventfd wake pipe.
type wakeFd struct {
	fd int
}

func newWakeSource() (wakeSource, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &wakeFd{fd: fd}, nil
}

func (w *wakeFd) Fd() int { return w.fd }

func (w *wakeFd) Notify() {
	var buf [8]byte
	buf[7] = 1
	_, _ = unix.Write(w.fd, buf[:])
}

func (w *wakeFd) Drain() {
	var buf [8]byte
	for {
		_, err := unix.Read(w.fd, buf[:])
		if err != nil {
			return
		}
	}
}

func (w *wakeFd) Close() error {
	return unix.Close(w.fd)
}
