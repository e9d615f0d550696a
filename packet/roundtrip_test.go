package packet

import (
	"bytes"
	"testing"
)

// wireLoop wraps a bytes.Buffer so a sender's Layer can write directly
// into the bytes a receiver's Layer feeds from.
type wireLoop struct {
	bytes.Buffer
}

func TestSendFeedRoundTripNoCrypto(t *testing.T) {
	var wire wireLoop
	sendPhase := &Phase{Session: StateAuthenticated, Role: RoleClient}
	recvPhase := &Phase{Session: StateAuthenticated, Role: RoleServer}

	sender := NewLayer(Config{Role: RoleClient}, &wire, sendPhase)
	receiver := NewLayer(Config{Role: RoleServer}, nil, recvPhase)

	var got []byte
	receiver.RegisterHandlerTable(MsgChannelData, []HandlerFunc{
		func(msgType byte, payload []byte, userData any) (HandlerResult, error) {
			got = append([]byte(nil), payload...)
			return Used, nil
		},
	}, nil)

	want := []byte("hello over the wire, rather a longer payload this time")
	if err := sender.Send(MsgChannelData, want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	n, err := receiver.Feed(wire.Bytes())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if n != wire.Len() {
		t.Fatalf("consumed %d, want %d (the whole frame)", n, wire.Len())
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("payload = %q, want %q", got, want)
	}
}

func TestSendFeedRoundTripWithCompression(t *testing.T) {
	var wire wireLoop
	sendPhase := &Phase{Session: StateAuthenticated, Role: RoleClient}
	recvPhase := &Phase{Session: StateAuthenticated, Role: RoleServer}

	sender := NewLayer(Config{Role: RoleClient, CompressionLevel: 6}, &wire, sendPhase)
	receiver := NewLayer(Config{Role: RoleServer, CompressionLevel: 6}, nil, recvPhase)
	sender.EnableCompression(false, true)
	receiver.EnableCompression(true, false)

	var got [][]byte
	receiver.RegisterHandlerTable(MsgChannelData, []HandlerFunc{
		func(msgType byte, payload []byte, userData any) (HandlerResult, error) {
			got = append(got, append([]byte(nil), payload...))
			return Used, nil
		},
	}, nil)

	messages := []string{
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	}
	for _, m := range messages {
		if err := sender.Send(MsgChannelData, []byte(m)); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	n, err := receiver.Feed(wire.Bytes())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if n != wire.Len() {
		t.Fatalf("consumed %d, want %d", n, wire.Len())
	}
	if len(got) != len(messages) {
		t.Fatalf("got %d packets, want %d", len(got), len(messages))
	}
	for i, m := range messages {
		if string(got[i]) != m {
			t.Fatalf("packet %d = %q, want %q", i, got[i], m)
		}
	}
}

func TestSendFeedRoundTripWithAEADCrypto(t *testing.T) {
	var wire wireLoop
	key := bytes.Repeat([]byte{0x42}, 32)

	sendCtx, err := NewAEADCryptoContext(key)
	if err != nil {
		t.Fatalf("NewAEADCryptoContext (send): %v", err)
	}
	recvCtx, err := NewAEADCryptoContext(key)
	if err != nil {
		t.Fatalf("NewAEADCryptoContext (recv): %v", err)
	}

	sendPhase := &Phase{Session: StateAuthenticated, Role: RoleClient}
	recvPhase := &Phase{Session: StateAuthenticated, Role: RoleServer}
	sender := NewLayer(Config{Role: RoleClient}, &wire, sendPhase)
	receiver := NewLayer(Config{Role: RoleServer}, nil, recvPhase)
	sender.SetCrypto(sendCtx)
	receiver.SetCrypto(recvCtx)

	var got []byte
	receiver.RegisterHandlerTable(MsgChannelData, []HandlerFunc{
		func(msgType byte, payload []byte, userData any) (HandlerResult, error) {
			got = append([]byte(nil), payload...)
			return Used, nil
		},
	}, nil)

	want := []byte("authenticated and encrypted payload")
	if err := sender.Send(MsgChannelData, want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	n, err := receiver.Feed(wire.Bytes())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if n != wire.Len() {
		t.Fatalf("consumed %d, want %d", n, wire.Len())
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("payload = %q, want %q", got, want)
	}
}

func TestSendFeedRoundTripWithCBCCrypto(t *testing.T) {
	var wire wireLoop
	key := bytes.Repeat([]byte{0x11}, 32)
	macKey := bytes.Repeat([]byte{0x22}, 32)
	iv := bytes.Repeat([]byte{0x33}, 16)
	flippedIV := append([]byte(nil), iv...)
	flippedIV[len(flippedIV)-1] ^= 0xff

	// NewCBCCryptoContext derives encStream from the iv it is given
	// and decStream from that iv with its last byte flipped; handing
	// the sender and receiver swapped ivs lines up sender.encStream
	// with receiver.decStream (and the reverse direction, unused
	// here, the same way).
	sendCtx, err := NewCBCCryptoContext(key, iv, macKey)
	if err != nil {
		t.Fatalf("NewCBCCryptoContext (send): %v", err)
	}
	recvCtx, err := NewCBCCryptoContext(key, flippedIV, macKey)
	if err != nil {
		t.Fatalf("NewCBCCryptoContext (recv): %v", err)
	}

	sendPhase := &Phase{Session: StateAuthenticated, Role: RoleClient}
	recvPhase := &Phase{Session: StateAuthenticated, Role: RoleServer}
	sender := NewLayer(Config{Role: RoleClient}, &wire, sendPhase)
	receiver := NewLayer(Config{Role: RoleServer}, nil, recvPhase)
	sender.SetCrypto(sendCtx)
	receiver.SetCrypto(recvCtx)

	var got []byte
	receiver.RegisterHandlerTable(MsgChannelData, []HandlerFunc{
		func(msgType byte, payload []byte, userData any) (HandlerResult, error) {
			got = append([]byte(nil), payload...)
			return Used, nil
		},
	}, nil)

	want := []byte("CTR-encrypted, HMAC-SHA256-authenticated payload")
	if err := sender.Send(MsgChannelData, want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	n, err := receiver.Feed(wire.Bytes())
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if n != wire.Len() {
		t.Fatalf("consumed %d, want %d", n, wire.Len())
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("payload = %q, want %q", got, want)
	}
}

func TestSendUnimplementedCarriesSequence(t *testing.T) {
	var wire wireLoop
	phase := &Phase{Session: StateAuthenticated}
	l := NewLayer(Config{}, &wire, phase)

	if err := l.SendUnimplemented(42); err != nil {
		t.Fatalf("SendUnimplemented: %v", err)
	}

	recvPhase := &Phase{Session: StateAuthenticated}
	receiver := NewLayer(Config{}, nil, recvPhase)
	var gotType byte
	var gotSeq uint32
	receiver.RegisterHandlerTable(MsgUnimplemented, []HandlerFunc{
		func(msgType byte, payload []byte, userData any) (HandlerResult, error) {
			gotType = msgType
			gotSeq = beUint32(payload)
			return Used, nil
		},
	}, nil)
	if _, err := receiver.Feed(wire.Bytes()); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if gotType != MsgUnimplemented {
		t.Fatalf("type = %d, want MsgUnimplemented", gotType)
	}
	if gotSeq != 42 {
		t.Fatalf("seq = %d, want 42", gotSeq)
	}
}
