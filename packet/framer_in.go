package packet

// inState is the three-state incoming framer machine of spec.md §4.4.
// The reference implementation (packet.c's ssh_packet_socket_callback)
// encodes this with a tri-state field plus a recursive call on
// leftover bytes; per spec.md §9's design note this rewrite uses an
// explicit loop (see Feed) instead of recursion.
type inState int

const (
	stateInit inState = iota
	stateSizeRead
	stateProcessing
)

// MaxPacketLen is the default packet length cap (spec.md §6).
const MaxPacketLen = 35000

// InPacket mirrors the in-flight receive record of spec.md §3: zeroed
// at INIT, length set once the first block is decrypted, type parsed
// once the payload is assembled, and cleared when dispatch completes.
type InPacket struct {
	Length uint32
	Type   byte
	Valid  bool
}

// Feed is the downward-facing socket entry point (C8) fused with the
// incoming framer (C4): it consumes as many complete packets as data
// holds, dispatching each, and returns the number of bytes consumed.
// A return value less than len(data) means the socket must retain the
// remainder and call Feed again once more bytes arrive.
//
// Feed never blocks and never recurses; multiple packets in one call
// are handled by the for loop below, and a handler that synchronously
// calls Feed again while one packet is still being dispatched gets 0
// back immediately (spec.md §5's re-entrancy rule).
func (l *Layer) Feed(data []byte) (int, error) {
	if l.phase.Session == StateError {
		return 0, nil
	}
	total := 0
	for total < len(data) {
		if l.inState == stateProcessing {
			return total, nil
		}
		n, err := l.feedStep(data[total:])
		if err != nil {
			total += n
			l.phase.Session = StateError
			logger.Warn("packet: fatal ingress error", "kind", err.(*Error).Kind, "seq", l.seq.recv)
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
	return total, nil
}

// feedStep advances the framer by at most one packet. It returns
// (0, nil) when more bytes are needed (spec.md's SHORT_READ, which is
// never surfaced as an error).
func (l *Layer) feedStep(chunk []byte) (int, error) {
	rawLenBS := l.crypto.LenfieldBlocksize()
	effectiveLenBS := rawLenBS
	aead := rawLenBS == 0
	if aead {
		effectiveLenBS = 4
	}

	if l.inState == stateInit {
		if len(chunk) < effectiveLenBS {
			return 0, nil
		}
		firstBlockIn := chunk[:effectiveLenBS]
		firstBlockOut := make([]byte, effectiveLenBS)

		var packetLen uint32
		if aead {
			copy(firstBlockOut, firstBlockIn)
			packetLen = beUint32(firstBlockIn[:4])
		} else {
			packetLen = l.crypto.DecryptLen(firstBlockOut, firstBlockIn)
		}

		if packetLen > l.cfg.effectiveMaxPacketLen() {
			return 0, fatal(ErrLenTooLarge, l.seq.recv, nil)
		}
		toBeRead := int64(packetLen) - int64(effectiveLenBS) + 4
		if toBeRead < 0 {
			return 0, fatal(ErrLenNegativeRemainder, l.seq.recv, nil)
		}

		l.inPacketLen = packetLen
		l.inFirstBlock = firstBlockOut
		l.inState = stateSizeRead
	}

	// stateSizeRead
	macLen := l.crypto.HMACDigestLen()
	need := int(l.inPacketLen) + 4 + macLen
	if len(chunk) < need {
		return 0, nil
	}

	packetRemaining := int(l.inPacketLen) - (effectiveLenBS - 4)

	l.inBuf.reinit()
	l.inBuf.append(l.inFirstBlock)

	if packetRemaining > 0 {
		cipherTail := chunk[effectiveLenBS : effectiveLenBS+packetRemaining]
		plainTail := l.inBuf.allocate(packetRemaining)
		if err := l.crypto.Decrypt(plainTail, cipherTail, effectiveLenBS, packetRemaining); err != nil {
			return need, fatal(ErrDecryptFail, l.seq.recv, err)
		}
	}

	if macLen > 0 {
		macBytes := chunk[effectiveLenBS+packetRemaining : effectiveLenBS+packetRemaining+macLen]
		if !l.crypto.HMACVerify(l.inBuf.peek(), macBytes) {
			return need, fatal(ErrMACFail, l.seq.recv, nil)
		}
	}

	incomingSnapshot := append([]byte(nil), l.inBuf.peek()...)
	l.sink.WriteIncoming(incomingSnapshot)

	// Skip the length field, already accounted for.
	l.inBuf.consumeFront(4)

	if l.inBuf.len() < 1 {
		return need, fatal(ErrPaddingInvalid, l.seq.recv, nil)
	}
	paddingLen := l.inBuf.peek()[0]
	l.inBuf.consumeFront(1)
	if int(paddingLen) > l.inBuf.len() {
		return need, fatal(ErrPaddingInvalid, l.seq.recv, nil)
	}
	l.inBuf.consumeBack(int(paddingLen))

	if l.doCompressIn && l.inBuf.len() > 0 {
		out, err := l.compressIn.decompress(l.inBuf.peek(), int(l.cfg.effectiveMaxPacketLen()))
		if err != nil {
			if err == errDecompOverflow {
				return need, fatal(ErrDecompOverflow, l.seq.recv, err)
			}
			return need, fatal(ErrDecompCorrupt, l.seq.recv, err)
		}
		l.inBuf.reinit()
		l.inBuf.append(out)
	}

	// A zero-length decompressed payload is a fatal framing error: it
	// cannot even carry a type byte. spec.md §9 calls this out as
	// behavior worth preserving explicitly rather than letting it
	// surface later as a confusing "packet too short to read type".
	if l.inBuf.len() == 0 {
		return need, fatal(ErrInvalidState, l.seq.recv, nil)
	}

	payloadSize := l.inBuf.len()
	seq := l.seq.nextRecv()
	if l.raw != nil {
		l.raw.InBytes += uint64(payloadSize)
		l.raw.InPackets++
	}

	msgType := l.inBuf.peek()[0]
	l.inBuf.consumeFront(1)
	l.inPacket = InPacket{Length: l.inPacketLen, Type: msgType, Valid: true}
	l.inState = stateProcessing

	logger.Trace("packet: read", "type", msgType, "len", l.inPacketLen, "seq", seq)

	payload := l.inBuf.peek()
	result := filterIncoming(msgType, payload, l.phase)

	var stepErr error
	switch result {
	case FilterAllowed:
		hres, err := l.dispatcher.dispatch(msgType, payload)
		if err != nil {
			stepErr = fatal(ErrInvalidState, seq, err)
			break
		}
		if hres == NotUsed {
			logger.Trace("packet: no handler claimed packet, replying UNIMPLEMENTED", "type", msgType, "seq", seq)
			if err := l.SendUnimplemented(seq); err != nil {
				stepErr = fatal(ErrOOM, seq, err)
			}
		}
	case FilterDenied:
		logger.Warn("packet: filter denied packet", "type", msgType, "seq", seq, "session", l.phase.Session)
		stepErr = fatal(ErrFilterDenied, seq, nil)
	case FilterUnknown:
		if err := l.SendUnimplemented(seq); err != nil {
			stepErr = fatal(ErrOOM, seq, err)
		}
	}

	l.inPacket = InPacket{}
	l.inState = stateInit

	return need, stepErr
}
