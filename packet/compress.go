package packet

import (
	"bytes"
	"compress/flate"
	"errors"
	"io"
)

// maxWindow is flate's maximum LZ77 back-reference window; it bounds
// how much trailing plaintext we need to retain as a preset
// dictionary to keep later packets compressible against earlier ones.
const maxWindow = 32768

// errDecompOverflow is returned by decompress when maxOut is exceeded
// before the frame's output is fully drained — the DoS guard spec.md
// §4.2 requires.
var errDecompOverflow = errors.New("packet: decompressed output exceeds limit")

// compressStream is the per-direction zlib-style compression state
// (C2). The reference implementation (src/gzip.c) keeps one
// continuously-flushed zlib stream open for the session and drains
// it with Z_PARTIAL_FLUSH after every packet so the dictionary
// carries forward without ever finalizing the stream. Go's
// compress/flate does not expose a resumable streaming Reader that
// tolerates "no more input right now" without going terminal (its
// Read permanently latches the first error an underlying io.Reader
// returns), which is the wrong shape for a feed-driven, synchronous,
// non-blocking packet layer (spec.md §5).
//
// Instead each packet is deflated/inflated as a one-shot, independently
// terminated stream primed with a preset dictionary: the trailing
// window of plaintext already seen in this direction. That reproduces
// the property spec.md actually asks for — "each packet is
// independently decompressible in order but shares the dictionary
// with prior packets" — using the stdlib's documented preset-dictionary
// support (flate.NewWriterDict / flate.NewReaderDict) instead of
// fighting the streaming Reader's blocking assumptions.
type compressStream struct {
	level int
	dict  []byte
}

func newCompressStream(level int) *compressStream {
	return &compressStream{level: level}
}

func (c *compressStream) remember(plaintext []byte) {
	c.dict = append(c.dict, plaintext...)
	if len(c.dict) > maxWindow {
		c.dict = c.dict[len(c.dict)-maxWindow:]
	}
}

// compress deflates in, returning the compressed bytes. Matches
// gzip_compress: level 1-9, dictionary carried across calls.
func (c *compressStream) compress(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriterDict(&buf, c.level, c.dict)
	if err != nil {
		return nil, err
	}
	// flate.Writer already stages output internally; the reference
	// implementation's fixed 4KiB out_buf (BLOCKSIZE in gzip.c) is an
	// artifact of calling deflate() in a loop against a small C buffer
	// and is subsumed here by the Writer's own buffering.
	if _, err := w.Write(in); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	c.remember(in)
	return buf.Bytes(), nil
}

// decompress inflates in, returning at most maxOut bytes of plaintext.
// It returns errDecompOverflow if that bound would be exceeded.
func (c *compressStream) decompress(in []byte, maxOut int) ([]byte, error) {
	r := flate.NewReaderDict(bytes.NewReader(in), c.dict)
	defer r.Close()

	var out bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			out.Write(chunk[:n])
			if out.Len() > maxOut {
				return nil, errDecompOverflow
			}
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				// A one-shot dictionary-primed frame that the peer
				// closed with a short flush looks, from flate's point
				// of view, like a truncated stream. That is exactly
				// the Z_BUF_ERROR case src/gzip.c tolerates (input
				// exhausted, not corrupt) and must keep tolerating
				// per spec.md §9.
				break
			}
			return nil, err
		}
	}
	c.remember(out.Bytes())
	return out.Bytes(), nil
}
