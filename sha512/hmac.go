package sha512

import "hash"

// hmac512 implements RFC 2104 HMAC over this package's own SHA-512 core,
// with the block size (128 bytes) SHA-512 requires for its pads
//.
type hmac512 struct {
	inner, outer hash.Hash
	ipad, opad   [BlockSize]byte
}

// NewHMAC returns a new HMAC-SHA-512 hash.Hash keyed with key. Keys
// longer than the block size are first hashed down to Size bytes, per
// RFC 2104 §2.
func NewHMAC(key []byte) hash.Hash {
	h := &hmac512{inner: New(), outer: New()}

	var padKey [BlockSize]byte
	if len(key) > BlockSize {
		sum := Sum512(key)
		copy(padKey[:], sum[:])
	} else {
		copy(padKey[:], key)
	}

	for i := 0; i < BlockSize; i++ {
		h.ipad[i] = padKey[i] ^ 0x36
		h.opad[i] = padKey[i] ^ 0x5c
	}
	for i := range padKey {
		padKey[i] = 0
	}

	h.inner.Write(h.ipad[:])
	return h
}

func (h *hmac512) Write(p []byte) (int, error) {
	return h.inner.Write(p)
}

func (h *hmac512) Sum(in []byte) []byte {
	innerSum := h.inner.Sum(nil)
	h.outer.Reset()
	h.outer.Write(h.opad[:])
	h.outer.Write(innerSum)
	return h.outer.Sum(in)
}

func (h *hmac512) Reset() {
	h.inner.Reset()
	h.inner.Write(h.ipad[:])
}

func (h *hmac512) Size() int { return Size }

func (h *hmac512) BlockSize() int { return BlockSize }
