package arp

import (
	"time"

	"github.com/amirmnoohi/demikernel/telemetry"
)

// Option configures a Resolver at construction time.
type Option interface {
	apply(*Resolver)
}

type optionFunc func(*Resolver)

func (f optionFunc) apply(r *Resolver) { f(r) }

// WithRateLimiter installs a rate limiter (typically *catrate.Limiter)
// used to throttle outbound ARP request emission per target address.
func WithRateLimiter(l RateLimiter) Option {
	return optionFunc(func(r *Resolver) { r.limiter = l })
}

// WithRetryInterval sets how often an unresolved Query re-emits a request
// while waiting. Defaults to 200ms.
func WithRetryInterval(d time.Duration) Option {
	return optionFunc(func(r *Resolver) { r.retryInterval = d })
}

// WithTimeout bounds how long a Query waits before failing. Defaults to 3s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(r *Resolver) { r.timeout = d })
}

// WithLogger installs a telemetry.Logger for resolver diagnostics.
func WithLogger(l *telemetry.Logger) Option {
	return optionFunc(func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	})
}
