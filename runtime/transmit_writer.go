package runtime

import "io"

// WriterTransmitter is a Transmitter backed by an io.Writer, used in tests
// and on platforms without raw AF_PACKET socket support. Frames are
// written whole; no framing is added.
type WriterTransmitter struct {
	w io.Writer
}

// NewWriterTransmitter wraps w as a Transmitter. If w also implements
// io.Closer, Close delegates to it; otherwise Close is a no-op.
func NewWriterTransmitter(w io.Writer) *WriterTransmitter {
	return &WriterTransmitter{w: w}
}

func (t *WriterTransmitter) Transmit(frame []byte) error {
	_, err := t.w.Write(frame)
	return err
}

func (t *WriterTransmitter) Close() error {
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
