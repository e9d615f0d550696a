package packet

import (
	"errors"
	"io"
)

// ByteSource is the downward transport Layer.Run reads from. A
// net.Conn satisfies this directly.
type ByteSource interface {
	Read(p []byte) (int, error)
}

// readChunk is the per-Read buffer size; it has no bearing on packet
// boundaries, only on how many bytes Run asks the source for at once.
const readChunk = 16384

// Run drives Feed off src until src.Read returns an error (including
// io.EOF, which makes Run return nil) or Feed returns a fatal error,
// retaining whatever tail Feed did not consume and
// prepending it to the next read, per the socket contract spec.md §4.8
// describes ("on_data(bytes) -> n_consumed ... undelivered remainder
// is retained by the socket and re-presented, concatenated with new
// arrivals, on the next call").
//
// Run is a convenience for standalone use (see cmd/sshpktd); a caller
// driving its own event loop (e.g. one multiplexing several
// connections) should call Feed directly instead.
func (l *Layer) Run(src ByteSource) error {
	pending := make([]byte, 0, readChunk)
	buf := make([]byte, readChunk)
	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			// Feed itself loops over every complete packet currently
			// in pending; only the unconsumed tail needs retaining.
			consumed, err := l.Feed(pending)
			if consumed > 0 {
				pending = append(pending[:0], pending[consumed:]...)
			}
			if err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}
