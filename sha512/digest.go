package sha512

import (
	"encoding/binary"
	"hash"
)

// Digest is an incremental SHA-512 context: buffer a partial block, track
// total bytes hashed, and expose the init/update/finalize lifecycle
// through the standard hash.Hash interface so it can be used anywhere a
// hash.Hash is expected, including as a PBKDF2 PRF.
type Digest struct {
	h      [8]uint64
	buf    [BlockSize]byte
	nbuf   int
	length uint64 // total bytes absorbed so far
}

// New returns a new, reset Digest as a hash.Hash.
func New() hash.Hash {
	d := new(Digest)
	d.Reset()
	return d
}

// Sum512 computes the SHA-512 digest of data in one call.
func Sum512(data []byte) [Size]byte {
	d := new(Digest)
	d.Reset()
	d.Write(data)
	return d.checkSum()
}

// Reset returns the Digest to its initial state.
func (d *Digest) Reset() {
	d.h = iv
	d.nbuf = 0
	d.length = 0
}

// Size returns the digest length in bytes.
func (d *Digest) Size() int { return Size }

// BlockSize returns the underlying block size in bytes.
func (d *Digest) BlockSize() int { return BlockSize }

// Write absorbs p into the running hash state. It never returns an
// error, except that it panics if the total message length would exceed
// the 2^61-1 byte cap this implementation enforces instead of silently
// wrapping the length counter.
func (d *Digest) Write(p []byte) (int, error) {
	if d.length+uint64(len(p)) > maxMessageBytes || d.length+uint64(len(p)) < d.length {
		panic("sha512: message length exceeds 2^61-1 bytes")
	}
	d.length += uint64(len(p))
	d.absorb(p)
	return len(p), nil
}

// absorb feeds p through the block buffer into compress, with no length
// bookkeeping or bound checking of its own (used both by Write and by
// the padding machinery in checkSum).
func (d *Digest) absorb(p []byte) {
	if d.nbuf > 0 {
		n := copy(d.buf[d.nbuf:], p)
		d.nbuf += n
		p = p[n:]
		if d.nbuf == BlockSize {
			compress(&d.h, d.buf[:])
			d.nbuf = 0
		}
	}
	if len(p) >= BlockSize {
		n := len(p) - len(p)%BlockSize
		compress(&d.h, p[:n])
		p = p[n:]
	}
	if len(p) > 0 {
		d.nbuf = copy(d.buf[:], p)
	}
}

// Sum appends the current digest to in without modifying d, so writing
// can continue afterward (standard hash.Hash contract).
func (d *Digest) Sum(in []byte) []byte {
	d0 := *d
	sum := d0.checkSum()
	return append(in, sum[:]...)
}

// checkSum pads the message per FIPS 180-4 §5.1.2 (a single 0x80 bit,
// zeros, and a 128-bit big-endian bit length — of which only the low 64
// bits are ever non-zero, since length is capped well under 2^64 bits)
// and extracts the final state as big-endian bytes. It mutates d, so
// callers that must not disturb their own state (Sum) operate on a copy.
func (d *Digest) checkSum() [Size]byte {
	length := d.length

	var pad [BlockSize]byte
	pad[0] = 0x80
	mod := int(length % BlockSize)
	if mod < 112 {
		d.absorb(pad[:112-mod])
	} else {
		d.absorb(pad[:BlockSize+112-mod])
	}

	var lenBlock [16]byte
	binary.BigEndian.PutUint64(lenBlock[8:], length<<3)
	d.absorb(lenBlock[:])

	var out [Size]byte
	for i, s := range d.h {
		binary.BigEndian.PutUint64(out[8*i:8*i+8], s)
	}

	d.Destroy()
	return out
}

// Destroy zeroizes the running state and scratch buffer and returns d to
// its unkeyed-equivalent initial condition, matching the zeroization
// discipline aes.Context.Destroy applies to its round-key schedule.
// Sum calls this only on its own throwaway copy of d, so a live Digest's
// ability to keep absorbing writes after Sum is unaffected.
func (d *Digest) Destroy() {
	for i := range d.h {
		d.h[i] = 0
	}
	for i := range d.buf {
		d.buf[i] = 0
	}
	d.nbuf = 0
	d.length = 0
}
