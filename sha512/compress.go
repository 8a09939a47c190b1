package sha512

import "encoding/binary"

func rotr(x uint64, n uint) uint64 {
	return (x >> n) | (x << (64 - n))
}

func bigSigma0(x uint64) uint64 { return rotr(x, 28) ^ rotr(x, 34) ^ rotr(x, 39) }
func bigSigma1(x uint64) uint64 { return rotr(x, 14) ^ rotr(x, 18) ^ rotr(x, 41) }
func smallSigma0(x uint64) uint64 { return rotr(x, 1) ^ rotr(x, 8) ^ (x >> 7) }
func smallSigma1(x uint64) uint64 { return rotr(x, 19) ^ rotr(x, 61) ^ (x >> 6) }

func ch(x, y, z uint64) uint64  { return (x & y) ^ (^x & z) }
func maj(x, y, z uint64) uint64 { return (x & y) ^ (x & z) ^ (y & z) }

// compress processes one or more 128-byte blocks, extending each into an
// 80-word message schedule and folding it into state via the eighty
// compression rounds of FIPS 180-4 §6.4.2. blocks must be a multiple of
// BlockSize.
func compress(state *[8]uint64, blocks []byte) {
	var w [80]uint64

	for len(blocks) >= BlockSize {
		block := blocks[:BlockSize]

		for i := 0; i < 16; i++ {
			w[i] = binary.BigEndian.Uint64(block[8*i : 8*i+8])
		}
		for i := 16; i < 80; i++ {
			w[i] = smallSigma1(w[i-2]) + w[i-7] + smallSigma0(w[i-15]) + w[i-16]
		}

		a, b, c, d, e, f, g, h := state[0], state[1], state[2], state[3], state[4], state[5], state[6], state[7]

		for i := 0; i < 80; i++ {
			t1 := h + bigSigma1(e) + ch(e, f, g) + k[i] + w[i]
			t2 := bigSigma0(a) + maj(a, b, c)
			h, g, f = g, f, e
			e = d + t1
			d, c, b = c, b, a
			a = t1 + t2
		}

		state[0] += a
		state[1] += b
		state[2] += c
		state[3] += d
		state[4] += e
		state[5] += f
		state[6] += g
		state[7] += h

		a, b, c, d, e, f, g, h = 0, 0, 0, 0, 0, 0, 0, 0

		blocks = blocks[BlockSize:]
	}

	for i := range w {
		w[i] = 0
	}
}
