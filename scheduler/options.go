package scheduler

import "time"

// options holds Scheduler construction configuration.
type options struct {
	tickTimeout time.Duration
	logger      Logger
}

// Option configures a Scheduler at construction time.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithTickTimeout bounds how long a single Run iteration blocks waiting for
// a wake or I/O readiness event before re-checking for shutdown. Defaults
// to 100ms.
func WithTickTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) { o.tickTimeout = d })
}

// WithLogger installs a Logger used for scheduler-internal diagnostics
// (task panics). Defaults to a no-op Logger.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

func resolveOptions(opts []Option) *options {
	cfg := &options{
		tickTimeout: 100 * time.Millisecond,
		logger:      nopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(cfg)
		}
	}
	return cfg
}

// Logger is the minimal structured-logging surface the scheduler needs.
// telemetry.Logger satisfies this.
type Logger interface {
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
