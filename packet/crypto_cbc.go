package packet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"
)

// cbcContext is a reference CryptoContext built directly on
// crypto/aes, crypto/cipher and crypto/hmac, the same stdlib packages
// the teacher's own p2p/rlpx framing uses for its AES-CTR + HMAC-SHA256
// frame MAC. No third-party cipher library in the retrieved corpus
// covers raw SSH-style CTR+HMAC framing any more directly than the
// standard library already does, so this binding (like the teacher's)
// goes straight to crypto/aes and crypto/cipher rather than through an
// extra dependency (see DESIGN.md).
//
// The CryptoContext contract calls Decrypt before HMACVerify, so this
// binding authenticates over the assembled cleartext rather than the
// wire ciphertext (Encrypt-and-MAC, not Encrypt-then-MAC). That is a
// weaker construction than RFC 4253's own hmac-sha2-256 but is exactly
// what the opaque, non-goal crypto contract this package exposes can
// support without reshaping itself around one MAC ordering.
type cbcContext struct {
	encStream cipher.Stream
	decStream cipher.Stream
	macKey    []byte

	sendSeq uint32
	recvSeq uint32
}

// NewCBCCryptoContext builds a CryptoContext from a 16/24/32-byte AES
// key, a 16-byte IV (used to derive independent send/receive CTR
// streams), and an HMAC-SHA256 key. Pass a nil macKey to disable
// authentication (HMACDigestLen returns 0).
func NewCBCCryptoContext(key, iv, macKey []byte) (CryptoContext, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("packet: aes init: %w", err)
	}
	sendIV := append([]byte(nil), iv...)
	recvIV := append([]byte(nil), iv...)
	// Distinguish the two directions' keystreams; a shared IV with a
	// shared key would otherwise let each side's stream collide with
	// the other's.
	recvIV[len(recvIV)-1] ^= 0xff

	return &cbcContext{
		encStream: cipher.NewCTR(block, sendIV),
		decStream: cipher.NewCTR(block, recvIV),
		macKey:    macKey,
	}, nil
}

func (c *cbcContext) Blocksize() int         { return aes.BlockSize }
func (c *cbcContext) LenfieldBlocksize() int { return aes.BlockSize }
func (c *cbcContext) HMACDigestLen() int {
	if c.macKey == nil {
		return 0
	}
	return sha256.Size
}

func (c *cbcContext) DecryptLen(out, in []byte) uint32 {
	c.decStream.XORKeyStream(out, in)
	return beUint32(out[:4])
}

func (c *cbcContext) Decrypt(out, in []byte, alreadyDone, remaining int) error {
	c.decStream.XORKeyStream(out, in)
	return nil
}

func (c *cbcContext) newMAC() hash.Hash {
	return hmac.New(sha256.New, c.macKey)
}

func (c *cbcContext) HMACVerify(in, expectedMAC []byte) bool {
	if c.macKey == nil {
		return len(expectedMAC) == 0
	}
	h := c.newMAC()
	var seqBytes [4]byte
	putBeUint32(seqBytes[:], c.recvSeq)
	h.Write(seqBytes[:])
	h.Write(in)
	c.recvSeq++
	return hmac.Equal(h.Sum(nil), expectedMAC)
}

func (c *cbcContext) Encrypt(packet []byte) ([]byte, error) {
	var mac []byte
	if c.macKey != nil {
		h := c.newMAC()
		var seqBytes [4]byte
		putBeUint32(seqBytes[:], c.sendSeq)
		h.Write(seqBytes[:])
		h.Write(packet)
		mac = h.Sum(nil)
	}
	c.encStream.XORKeyStream(packet, packet)
	c.sendSeq++
	return mac, nil
}

func (c *cbcContext) PRNGFill(dst []byte) error {
	return prngFill(dst)
}
