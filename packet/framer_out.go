package packet

// Send assembles, pads, optionally compresses, encrypts and writes one
// outgoing packet, mirroring packet_send2: compress the payload (type
// byte included) if compression is on, compute padding so
// 4+1+len(payload)+padding (length field included) is a multiple of
// the cipher blocksize with at least 4 bytes of padding, fill the
// padding with the PRNG, then hand the whole frame to the crypto
// binding. Any error returned drives the session state to StateError.
//
// msgType and payload are kept separate on this API (mirroring how
// Feed hands handlers msgType and payload separately) rather than
// requiring callers to prepend the type byte themselves.
func (l *Layer) Send(msgType byte, payload []byte) (err error) {
	if l.phase.Session == StateError {
		return fatal(ErrInvalidState, l.seq.send, nil)
	}
	defer func() {
		if err != nil {
			l.phase.Session = StateError
			logger.Warn("packet: fatal egress error", "kind", err.(*Error).Kind, "seq", l.seq.send)
		}
	}()

	full := make([]byte, 1+len(payload))
	full[0] = msgType
	copy(full[1:], payload)
	origLen := len(full)

	if l.doCompressOut && len(full) > 0 {
		c, err := l.compressOut.compress(full)
		if err != nil {
			return fatal(ErrCompCorrupt, l.seq.send, err)
		}
		full = c
	}

	blocksize := l.crypto.Blocksize()
	if blocksize == 0 {
		blocksize = 8
	}
	paddingLen := blocksize - ((len(full) + 5) % blocksize)
	if paddingLen < 4 {
		paddingLen += blocksize
	}
	packetLen := uint32(1 + len(full) + paddingLen)

	l.outBuf.reinit()
	lenField := l.outBuf.allocate(4)
	putBeUint32(lenField, packetLen)
	padLenField := l.outBuf.allocate(1)
	padLenField[0] = byte(paddingLen)
	l.outBuf.append(full)
	padding := l.outBuf.allocate(paddingLen)
	if err := l.crypto.PRNGFill(padding); err != nil {
		return fatal(ErrPRNGFail, l.seq.send, err)
	}

	// AEAD ciphers embed their tag in the returned ciphertext rather
	// than returning it separately, so the frame needs room for it
	// before Encrypt runs (spec.md §4.3's CryptoContext doc).
	aead := l.crypto.LenfieldBlocksize() == 0
	macLen := l.crypto.HMACDigestLen()
	if aead && macLen > 0 {
		l.outBuf.allocate(macLen)
	}

	seq := l.seq.nextSend()

	mac, err := l.crypto.Encrypt(l.outBuf.peek())
	if err != nil {
		return fatal(ErrInvalidState, seq, err)
	}
	if mac != nil {
		l.outBuf.append(mac)
	}

	wire := append([]byte(nil), l.outBuf.peek()...)
	l.sink.WriteOutgoing(wire)

	if _, err := l.conn.Write(l.outBuf.peek()); err != nil {
		return fatal(ErrInvalidState, seq, err)
	}

	if l.raw != nil {
		// out_bytes is counted pre-compression, matching the
		// reference implementation's payloadsize capture before
		// compress_buffer runs (spec.md §9 supplemented feature).
		l.raw.OutBytes += uint64(origLen)
		l.raw.OutPackets++
	}

	logger.Trace("packet: send", "type", msgType, "len", packetLen, "seq", seq)
	return nil
}

// SendUnimplemented replies to an unclaimed or unknown-type packet
// with MSG_UNIMPLEMENTED carrying the offending sequence number,
// exposed directly since both Feed and session code need to trigger
// it (spec.md §6).
func (l *Layer) SendUnimplemented(seq uint32) error {
	payload := make([]byte, 4)
	putBeUint32(payload, seq)
	return l.Send(MsgUnimplemented, payload)
}
