package udp

import (
	"sync"
	"sync/atomic"

	"github.com/amirmnoohi/demikernel/arp"
	"github.com/amirmnoohi/demikernel/ethernet"
	"github.com/amirmnoohi/demikernel/filetable"
	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/operations"
	"github.com/amirmnoohi/demikernel/runtime"
	"github.com/amirmnoohi/demikernel/scheduler"
	"github.com/amirmnoohi/demikernel/telemetry"
	"github.com/amirmnoohi/demikernel/waker"
)

// outgoingCapacity bounds the deferred-send channel; push/pushto never
// block on it; a full channel is a programming error.
const outgoingCapacity = 16

// outgoingDatagram is one item queued for the background task: the
// socket's optional local endpoint (for the source port), the destination,
// and the payload.
type outgoingDatagram struct {
	local   *ipv4.Endpoint
	remote  ipv4.Endpoint
	payload []byte
}

// Peer implements socket-style UDP semantics over a scheduler, an ARP
// resolver, and a runtime's transmit path. Its inner state is
// single-threaded cooperative: every exported method is a short,
// non-suspending borrow meant to run on the same goroutine that drives the
// owning scheduler. guard is not a serializing lock but a reentrancy
// assertion — a second goroutine calling in concurrently panics rather
// than blocking and silently racing.
type Peer struct {
	guard    reentryGuard
	rt       *runtime.Runtime
	resolver *arp.Resolver
	files    *filetable.Table
	logger   *telemetry.Logger

	sockets map[filetable.Descriptor]*socket
	bound   map[ipv4.Endpoint]*listener

	outgoing chan outgoingDatagram
	handle   scheduler.Handle
	bg       *backgroundSender

	shutdown sync.Once
}

// New constructs a Peer, spawning its background deferred-send task on
// rt's scheduler. The background task holds its own clones of rt and
// resolver and never borrows the Peer, so dropping the Peer (closing
// outgoing) is sufficient to let it exit.
func New(rt *runtime.Runtime, resolver *arp.Resolver, files *filetable.Table, opts ...Option) *Peer {
	p := &Peer{
		rt:       rt,
		resolver: resolver,
		files:    files,
		logger:   telemetry.New(),
		sockets:  make(map[filetable.Descriptor]*socket),
		bound:    make(map[ipv4.Endpoint]*listener),
		outgoing: make(chan outgoingDatagram, outgoingCapacity),
	}
	for _, o := range opts {
		o.apply(p)
	}

	bg := &backgroundSender{
		rt:       rt.Clone(),
		resolver: resolver,
		logger:   p.logger,
		outgoing: p.outgoing,
	}
	p.handle = rt.Spawn(bg)
	p.bg = bg

	return p
}

// Shutdown closes the outgoing channel, which causes the background task
// to see end-of-stream on its next poll and exit. Idempotent.
func (p *Peer) Shutdown() {
	p.shutdown.Do(func() {
		close(p.outgoing)
		p.bg.notify()
	})
}

// Accept always fails: this peer does not support a listen/accept model.
func (p *Peer) Accept() *operations.Fail {
	return operations.Malformedf(operations.DetailOperationNotSupported)
}

// Socket allocates a descriptor tagged as a UDP socket with an empty
// Socket record. Duplicate insertion for a freshly allocated descriptor is
// a programming error.
func (p *Peer) Socket() filetable.Descriptor {
	fd := p.files.Alloc(filetable.UdpSocket)

	p.guard.enter()
	defer p.guard.exit()
	if _, exists := p.sockets[fd]; exists {
		panic("udp: socket descriptor already registered")
	}
	p.sockets[fd] = &socket{}
	return fd
}

// Bind fixes fd's local endpoint, failing if addr is already bound or fd
// is unknown or already bound.
func (p *Peer) Bind(fd filetable.Descriptor, addr ipv4.Endpoint) *operations.Fail {
	p.guard.enter()
	defer p.guard.exit()

	if _, exists := p.bound[addr]; exists {
		return operations.Malformedf(operations.DetailPortAlreadyListening)
	}
	s, ok := p.sockets[fd]
	if !ok || s.local != nil {
		return operations.Malformedf(operations.DetailInvalidFDOnBind)
	}

	local := addr
	s.local = &local
	p.bound[addr] = &listener{}
	return nil
}

// Connect fixes fd's remote endpoint, failing if fd is unknown or already
// has one.
func (p *Peer) Connect(fd filetable.Descriptor, addr ipv4.Endpoint) *operations.Fail {
	p.guard.enter()
	defer p.guard.exit()

	s, ok := p.sockets[fd]
	if !ok || s.remote != nil {
		return operations.Malformedf(operations.DetailInvalidFDOnConnect)
	}
	remote := addr
	s.remote = &remote
	return nil
}

// Receive is invoked by the IPv4 layer with a fully-parsed IPv4 header and
// the UDP datagram that followed it. It demultiplexes onto the Listener
// bound at (ipv4Hdr.Dst, udp.dstPort), enqueuing (remote, payload) and
// waking at most one outstanding pop.
func (p *Peer) Receive(ipv4Hdr ipv4.Header, buf []byte) *operations.Fail {
	hdr, n, err := parseHeader(buf)
	if err != nil {
		return operations.Malformedf(err.Error())
	}
	payload := buf[n:]

	local := ipv4.Endpoint{Addr: ipv4Hdr.Dst, Port: hdr.dstPort}
	var remote *ipv4.Endpoint
	if hdr.srcPort != 0 {
		remote = &ipv4.Endpoint{Addr: ipv4Hdr.Src, Port: hdr.srcPort}
	}

	p.guard.enter()
	l, ok := p.bound[local]
	p.guard.exit()
	if !ok {
		// TODO: emit ICMPv4 port-unreachable once the IPv4 layer exposes it.
		return operations.Malformedf(operations.DetailPortNotBound)
	}

	l.enqueue(inboundDatagram{remote: remote, payload: payload})
	return nil
}

// Push sends buf to fd's connected remote, failing if fd has none.
func (p *Peer) Push(fd filetable.Descriptor, buf []byte) *operations.Fail {
	p.guard.enter()
	s, ok := p.sockets[fd]
	if !ok || s.remote == nil {
		p.guard.exit()
		return operations.Malformedf(operations.DetailInvalidFDOnPush)
	}
	local, remote := s.local, *s.remote
	p.guard.exit()

	p.sendDatagram(local, remote, buf)
	return nil
}

// PushTo sends buf to the given destination, using fd's optional local
// endpoint as the source. It fails only if fd is unknown.
func (p *Peer) PushTo(fd filetable.Descriptor, buf []byte, to ipv4.Endpoint) *operations.Fail {
	p.guard.enter()
	s, ok := p.sockets[fd]
	if !ok {
		p.guard.exit()
		return operations.Malformedf(operations.DetailInvalidFDOnPushTo)
	}
	local := s.local
	p.guard.exit()

	p.sendDatagram(local, to, buf)
	return nil
}

// Pop constructs a future that, once polled, yields the next (optional
// remote endpoint, payload) pair received on fd's bound local endpoint, or
// fails if fd is not currently bound.
func (p *Peer) Pop(fd filetable.Descriptor) *PopFuture {
	p.guard.enter()
	defer p.guard.exit()

	s, ok := p.sockets[fd]
	if !ok || s.local == nil {
		return newInvalidPopFuture(int(fd), operations.Malformedf(operations.DetailInvalidFileDescriptor))
	}
	l, ok := p.bound[*s.local]
	if !ok {
		panic("udp: bound socket missing its listener")
	}
	return newPopFuture(int(fd), l)
}

// Close removes fd's socket, its Listener if bound, and frees the
// descriptor.
func (p *Peer) Close(fd filetable.Descriptor) *operations.Fail {
	p.guard.enter()
	s, ok := p.sockets[fd]
	if !ok {
		p.guard.exit()
		return operations.Malformedf(operations.DetailInvalidFileDescriptor)
	}
	delete(p.sockets, fd)
	if s.local != nil {
		if _, ok := p.bound[*s.local]; !ok {
			p.guard.exit()
			panic("udp: bound socket's listener already removed")
		}
		delete(p.bound, *s.local)
	}
	p.guard.exit()

	p.files.Free(fd)
	return nil
}

// sendDatagram is the dual-path sender: if remote's link address is
// already cached, it composes and transmits the datagram immediately;
// otherwise it defers to the background task via the bounded outgoing
// channel.
func (p *Peer) sendDatagram(local *ipv4.Endpoint, remote ipv4.Endpoint, payload []byte) {
	if linkAddr, ok := p.resolver.TryQuery(remote.Addr); ok {
		frame := composeDatagram(p.rt.LocalLinkAddr(), linkAddr, p.rt.LocalIPv4Addr(), local, remote, payload)
		p.rt.Transmit(frame)
		return
	}

	select {
	case p.outgoing <- outgoingDatagram{local: local, remote: remote, payload: payload}:
		p.bg.notify()
	default:
		panic("udp: outgoing channel full")
	}
}

// composeDatagram builds a complete Ethernet/IPv4/UDP frame.
func composeDatagram(srcMAC, dstMAC ethernet.MAC, srcIP ipv4.Addr, local *ipv4.Endpoint, remote ipv4.Endpoint, payload []byte) []byte {
	var srcPort uint16
	if local != nil {
		srcPort = local.Port
	}

	udpHdr := header{
		srcPort:  srcPort,
		dstPort:  remote.Port,
		length:   uint16(HeaderLen + len(payload)),
		checksum: pseudoHeaderChecksum(srcIP, remote.Addr, srcPort, remote.Port, payload),
	}

	frame := make([]byte, ethernet.HeaderLen+ipv4.HeaderLen+HeaderLen+len(payload))
	off := 0
	n, _ := ethernet.Header{Dst: dstMAC, Src: srcMAC, EtherType: ethernet.EtherTypeIPv4}.MarshalTo(frame[off:])
	off += n
	n, _ = ipv4.Header{Protocol: ipv4.ProtocolUDP, Src: srcIP, Dst: remote.Addr, PayloadLen: HeaderLen + len(payload)}.MarshalTo(frame[off:])
	off += n
	n, _ = udpHdr.marshalTo(frame[off:])
	off += n
	copy(frame[off:], payload)

	return frame
}

// backgroundSender is the task spawned once per Peer that drains the
// deferred-send channel. For each item it resolves the destination's link
// address (suspending across the arp.Query), transmits on success, and
// logs and discards on failure; it terminates when the channel is closed.
// It holds a clone of the runtime, never the Peer, so it never borrows the
// peer's inner state across a suspension point.
type backgroundSender struct {
	rt       *runtime.Runtime
	resolver *arp.Resolver
	logger   *telemetry.Logger
	outgoing <-chan outgoingDatagram

	pending *outgoingDatagram
	query   *arp.Query

	self atomic.Pointer[waker.Notifier]
}

// notify wakes this task's slot so it is polled on the next Tick, used by
// Peer.sendDatagram after enqueuing an item so the task does not wait for
// an unrelated wake. A no-op before the task's first Poll call.
func (b *backgroundSender) notify() {
	if n := b.self.Load(); n != nil {
		n.WakeByRef()
	}
}

// Poll implements scheduler.Task.
func (b *backgroundSender) Poll(n *waker.Notifier) bool {
	if b.self.Load() == nil {
		b.self.Store(n.Clone())
	}
	for {
		if b.query != nil {
			linkAddr, err, done := b.query.Poll(n)
			if !done {
				return false
			}
			if err != nil {
				b.logger.Warn("udp: failed to send deferred datagram", "err", err.Error())
			} else {
				frame := composeDatagram(b.rt.LocalLinkAddr(), linkAddr, b.rt.LocalIPv4Addr(), b.pending.local, b.pending.remote, b.pending.payload)
				b.rt.Transmit(frame)
			}
			b.pending = nil
			b.query = nil
			continue
		}

		var item outgoingDatagram
		var ok bool
		select {
		case item, ok = <-b.outgoing:
		default:
			return false
		}
		if !ok {
			if self := b.self.Load(); self != nil {
				self.Drop()
			}
			return true
		}

		if linkAddr, ok := b.resolver.TryQuery(item.remote.Addr); ok {
			frame := composeDatagram(b.rt.LocalLinkAddr(), linkAddr, b.rt.LocalIPv4Addr(), item.local, item.remote, item.payload)
			b.rt.Transmit(frame)
			continue
		}

		b.pending = &item
		b.query = b.resolver.Query(item.remote.Addr, n)
	}
}
