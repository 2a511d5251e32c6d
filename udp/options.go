package udp

import "github.com/amirmnoohi/demikernel/telemetry"

// Option configures a Peer at construction time.
type Option interface {
	apply(*Peer)
}

type optionFunc func(*Peer)

func (f optionFunc) apply(p *Peer) { f(p) }

// WithLogger installs a telemetry.Logger for peer diagnostics (deferred
// send failures).
func WithLogger(l *telemetry.Logger) Option {
	return optionFunc(func(p *Peer) {
		if l != nil {
			p.logger = l
		}
	})
}
