package packet

// seqCounters tracks the per-direction, wrapping packet sequence
// numbers (spec.md §3). The crypto bindings keep their own counters
// for MAC and nonce input; these are not passed to them. Wrapping on
// overflow is intentional — it matches the wire protocol.
type seqCounters struct {
	send uint32
	recv uint32
}

func (s *seqCounters) nextSend() uint32 {
	v := s.send
	s.send++
	return v
}

func (s *seqCounters) nextRecv() uint32 {
	v := s.recv
	s.recv++
	return v
}

// RawCounter is the optional byte/packet accounting block
// (session->raw_counter in the reference). spec.md's supplemented
// feature C.4: out_bytes is updated with the pre-compression payload
// size, matching the reference's behavior of capturing payloadsize
// before compress_buffer runs.
type RawCounter struct {
	InBytes    uint64
	OutBytes   uint64
	InPackets  uint64
	OutPackets uint64
}
