package runtime

import "github.com/amirmnoohi/demikernel/telemetry"

// Option configures a Runtime at construction time.
type Option interface {
	apply(*Runtime)
}

type optionFunc func(*Runtime)

func (f optionFunc) apply(rt *Runtime) { f(rt) }

// WithLogger installs a telemetry.Logger for runtime diagnostics
// (transmit failures).
func WithLogger(l *telemetry.Logger) Option {
	return optionFunc(func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	})
}
