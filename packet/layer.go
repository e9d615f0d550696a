package packet

import "io"

// Config holds the handful of knobs the packet layer itself owns.
// Everything downstream of key exchange (ciphers, host keys, channel
// windows) is out of scope (spec.md §1's Non-goals) and lives in the
// session/feature layer instead.
type Config struct {
	// CompressionLevel is the deflate level (1-9) used once
	// compression is enabled. It is passed to compress/flate as given;
	// 0 selects flate's NoCompression (stored, uncompressed blocks).
	CompressionLevel int
	// MaxPacketLen caps the accepted packet_length field. Zero, or any
	// value above MaxPacketLen, means MaxPacketLen (the RFC 4253
	// default), so the cap can only be tightened.
	MaxPacketLen uint32
	Role         Role
}

func (c Config) effectiveMaxPacketLen() uint32 {
	if c.MaxPacketLen == 0 || c.MaxPacketLen > MaxPacketLen {
		return MaxPacketLen
	}
	return c.MaxPacketLen
}

// Layer is the transport packet layer (C1-C10): one instance per
// connection, wired to a byte sink (conn) and a Phase the caller
// mutates as the session advances. It has no knowledge of key
// exchange, authentication, or channels beyond the state filter's
// preconditions (spec.md §4.6) — those belong to session.Session.
type Layer struct {
	cfg    Config
	crypto CryptoContext

	compressIn, compressOut     *compressStream
	doCompressIn, doCompressOut bool

	inBuf  *buffer
	outBuf *buffer

	seq seqCounters
	raw *RawCounter
	sink Sink

	dispatcher *Dispatcher
	phase      *Phase

	conn io.Writer

	inState      inState
	inPacketLen  uint32
	inFirstBlock []byte
	inPacket     InPacket
}

// NewLayer constructs a Layer with no crypto and no compression; call
// SetCrypto and EnableCompression once key exchange completes.
func NewLayer(cfg Config, conn io.Writer, phase *Phase) *Layer {
	return &Layer{
		cfg:        cfg,
		crypto:     NoCrypto(),
		inBuf:      newBuffer(),
		outBuf:     newBuffer(),
		sink:       noopSink{},
		dispatcher: &Dispatcher{},
		phase:      phase,
		conn:       conn,
	}
}

// SetCrypto installs the active cipher/MAC binding, normally called
// once per direction switchover after MSG_NEWKEYS (spec.md §4.3).
func (l *Layer) SetCrypto(ctx CryptoContext) {
	if ctx == nil {
		ctx = NoCrypto()
	}
	l.crypto = ctx
}

// EnableCompression turns on deflate in the requested directions using
// cfg.CompressionLevel. Calling it again resets the corresponding
// dictionary, matching "compression state resets across re-key" in
// practice (session layer decides when that happens).
func (l *Layer) EnableCompression(in, out bool) {
	if in {
		l.compressIn = newCompressStream(l.cfg.CompressionLevel)
		l.doCompressIn = true
	}
	if out {
		l.compressOut = newCompressStream(l.cfg.CompressionLevel)
		l.doCompressOut = true
	}
}

// SetSink installs a PCAP-style observer; pass nil to go back to
// discarding.
func (l *Layer) SetSink(s Sink) {
	if s == nil {
		s = noopSink{}
	}
	l.sink = s
}

// SetRawCounter attaches a byte/packet accounting block. Pass nil to
// stop counting.
func (l *Layer) SetRawCounter(r *RawCounter) {
	l.raw = r
}

// RegisterHandlerTable exposes the dispatcher's registration API
// directly on the layer, since session setup code only ever holds a
// *Layer (spec.md §6's upward API).
func (l *Layer) RegisterHandlerTable(start int, entries []HandlerFunc, userData any) {
	l.dispatcher.RegisterHandlerTable(start, entries, userData)
}

// Phase returns the oracle this layer consults for the state filter,
// so session code can mutate it as MSG handlers run.
func (l *Layer) Phase() *Phase { return l.phase }
