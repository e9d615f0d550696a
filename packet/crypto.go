package packet

import "crypto/rand"

// CryptoContext is the opaque crypto binding the packet layer treats
// as a black box (spec.md §4.3). Implementations own the actual
// cipher/MAC/PRNG primitives; the packet layer only calls through
// this interface in the order framer_in.go / framer_out.go define.
//
// AEAD ciphers report LenfieldBlocksize() == 0 (length travels in the
// clear) and Encrypt returns a nil MAC, since the tag is embedded in
// the ciphertext; HMACDigestLen must then report the tag length so
// the framer knows how many trailing bytes belong to the frame.
type CryptoContext interface {
	// Blocksize is the cipher's fundamental block size.
	Blocksize() int
	// LenfieldBlocksize is the block size of the initial block
	// containing the length field; 0 means the length field travels
	// in cleartext (AEAD ciphers), and both framers read it directly.
	LenfieldBlocksize() int
	// HMACDigestLen is the MAC/tag length appended to the frame.
	HMACDigestLen() int

	// DecryptLen decrypts exactly LenfieldBlocksize() bytes from in,
	// writing cleartext into out (len(out) == len(in) ==
	// LenfieldBlocksize()), and returns the big-endian uint32 packet
	// length recovered from the first four cleartext bytes.
	DecryptLen(out, in []byte) uint32
	// Decrypt decrypts in into out. alreadyDone is how many leading
	// bytes of the logical ciphertext stream have already been
	// decrypted by a prior DecryptLen/Decrypt call (cipher state,
	// e.g. a counter, must account for it); remaining is len(in).
	Decrypt(out, in []byte, alreadyDone, remaining int) error
	// Encrypt encrypts packet in place and returns the MAC to append,
	// or nil if the cipher is AEAD and already embedded its tag in
	// packet.
	Encrypt(packet []byte) ([]byte, error)
	// HMACVerify checks expectedMAC against in using the algorithm
	// this context was constructed with, returning false (not an
	// error) on mismatch — the caller turns that into ErrMACFail.
	HMACVerify(in, expectedMAC []byte) bool

	// PRNGFill fills dst with n cryptographically random bytes, used
	// for padding once crypto is active.
	PRNGFill(dst []byte) error
}

// noCrypto is the pre-KEX identity binding: blocksize 8, no MAC, no
// padding randomness, matching spec.md §4.3's "When no crypto is
// active" paragraph.
type noCrypto struct{}

func (noCrypto) Blocksize() int                       { return 8 }
func (noCrypto) LenfieldBlocksize() int                { return 8 }
func (noCrypto) HMACDigestLen() int                    { return 0 }
func (noCrypto) DecryptLen(out, in []byte) uint32 {
	copy(out, in)
	return beUint32(in)
}
func (noCrypto) Decrypt(out, in []byte, alreadyDone, remaining int) error {
	copy(out, in)
	return nil
}
func (noCrypto) Encrypt(packet []byte) ([]byte, error) { return nil, nil }
func (noCrypto) HMACVerify(in, expectedMAC []byte) bool { return len(expectedMAC) == 0 }
func (noCrypto) PRNGFill(dst []byte) error {
	for i := range dst {
		dst[i] = 0
	}
	return nil
}

// NoCrypto returns the pre-key-exchange CryptoContext.
func NoCrypto() CryptoContext { return noCrypto{} }

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func putBeUint32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

// prngFill is the shared crypto/rand-backed padding filler both
// reference CryptoContext implementations use once a real cipher is
// active (spec.md §4.3: "padding is PRNG-filled once crypto is
// active").
func prngFill(dst []byte) error {
	_, err := rand.Read(dst)
	return err
}
