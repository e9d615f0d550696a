package packet

// Sink receives a copy of every on-the-wire packet, post-encryption
// outbound and post-decryption inbound, matching the teacher source's
// ssh_pcap_context_write hook (spec.md §6, supplemented feature C.3).
// A nil Sink (the default) does nothing.
type Sink interface {
	WriteOutgoing(b []byte)
	WriteIncoming(b []byte)
}

type noopSink struct{}

func (noopSink) WriteOutgoing([]byte) {}
func (noopSink) WriteIncoming([]byte) {}
