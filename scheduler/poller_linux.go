//go:build linux

package scheduler

import (
	"errors"
	"sync"

	"golang.org/x/sys/unix"
)

// maxPolledFDs bounds direct-indexed lookup; descriptors beyond this are
// rejected rather than falling back to a map, matching the teacher's
// fixed-capacity FastPoller design.
const maxPolledFDs = 4096

var (
	errFDOutOfRange    = errors.New("scheduler: fd out of range")
	errFDRegistered    = errors.New("scheduler: fd already registered")
	errFDNotRegistered = errors.New("scheduler: fd not registered")
)

type fdInfo struct {
	cb     IOCallback
	events IOEvents
	active bool
}

// epollPoller is an epoll(7)-backed Poller, adapted from the teacher's
// FastPoller: direct array indexing by fd instead of a map, a single
// preallocated event buffer, and an RWMutex guarding the fd table so
// dispatch never blocks registration for long.
type epollPoller struct {
	epfd int
	mu   sync.RWMutex
	fds  [maxPolledFDs]fdInfo
	buf  [128]unix.EpollEvent
}

func newPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd}, nil
}

func (p *epollPoller) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	if fd < 0 || fd >= maxPolledFDs {
		return errFDOutOfRange
	}
	p.mu.Lock()
	if p.fds[fd].active {
		p.mu.Unlock()
		return errFDRegistered
	}
	p.fds[fd] = fdInfo{cb: cb, events: events, active: true}
	p.mu.Unlock()

	ev := &unix.EpollEvent{Events: toEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		p.mu.Lock()
		p.fds[fd] = fdInfo{}
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *epollPoller) UnregisterFD(fd int) error {
	if fd < 0 || fd >= maxPolledFDs {
		return errFDOutOfRange
	}
	p.mu.Lock()
	if !p.fds[fd].active {
		p.mu.Unlock()
		return errFDNotRegistered
	}
	p.fds[fd] = fdInfo{}
	p.mu.Unlock()
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *epollPoller) Wait(timeoutMs int) (int, error) {
	n, err := unix.EpollWait(p.epfd, p.buf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := int(p.buf[i].Fd)
		if fd < 0 || fd >= maxPolledFDs {
			continue
		}
		p.mu.RLock()
		info := p.fds[fd]
		p.mu.RUnlock()
		if info.active && info.cb != nil {
			info.cb(fromEpoll(p.buf[i].Events))
		}
	}
	return n, nil
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}

func toEpoll(events IOEvents) uint32 {
	var e uint32
	if events&EventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&EventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func fromEpoll(events uint32) IOEvents {
	var e IOEvents
	if events&unix.EPOLLIN != 0 {
		e |= EventRead
	}
	if events&unix.EPOLLOUT != 0 {
		e |= EventWrite
	}
	if events&unix.EPOLLERR != 0 {
		e |= EventError
	}
	if events&unix.EPOLLHUP != 0 {
		e |= EventHangup
	}
	return e
}
