package telemetry

import (
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger shared across the scheduler, arp, udp,
// and runtime packages. kv arguments to its methods are flattened
// key/value pairs (an odd trailing key is dropped).
type Logger struct {
	l *logiface.Logger[*stumpy.Event]
}

// New constructs a Logger backed by stumpy, passing opts through to
// stumpy.WithStumpy (e.g. to redirect the writer in tests).
func New(opts ...stumpy.Option) *Logger {
	return &Logger{l: stumpy.L.New(stumpy.L.WithStumpy(opts...))}
}

func (lg *Logger) Info(msg string, kv ...any) { lg.emit(lg.l.Info(), msg, kv) }

func (lg *Logger) Warn(msg string, kv ...any) { lg.emit(lg.l.Warning(), msg, kv) }

func (lg *Logger) Error(msg string, kv ...any) { lg.emit(lg.l.Err(), msg, kv) }

func (lg *Logger) emit(b *logiface.Builder[*stumpy.Event], msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b = b.Any(key, kv[i+1])
	}
	b.Log(msg)
}
