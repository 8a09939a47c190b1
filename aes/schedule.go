package aes

// word is one column of the key schedule: four bytes, XORed and
// substituted as a unit during expansion (FIPS-197 §5.2).
type word [wordSize]byte

func (w word) xor(o word) word {
	var r word
	for i := range r {
		r[i] = w[i] ^ o[i]
	}
	return r
}

func rotWord(w word) word {
	return word{w[1], w[2], w[3], w[0]}
}

func subWord(w word) word {
	var r word
	for i, b := range w {
		r[i] = sbox[b]
	}
	return r
}

// expandKeySchedule runs the FIPS-197 key expansion: the user key fills
// the first nk words, and each subsequent word is the XOR of the word nk
// positions earlier with the previous word — itself passed through
// RotWord -> SubWord -> XOR Rcon at every nk-th word, with an extra
// SubWord at the Nk/2 offset for 256-bit keys.
func expandKeySchedule(key []byte, nk, rounds int) []word {
	totalWords := 4 * (rounds + 1)
	w := make([]word, totalWords)

	for i := 0; i < nk; i++ {
		copy(w[i][:], key[4*i:4*i+4])
	}

	for i := nk; i < totalWords; i++ {
		temp := w[i-1]
		switch {
		case i%nk == 0:
			temp = subWord(rotWord(temp))
			temp[0] ^= rcon[i/nk]
		case nk > 6 && i%nk == 4:
			temp = subWord(temp)
		}
		w[i] = w[i-nk].xor(temp)
	}
	return w
}

// wordsToRoundKeys groups the expanded key schedule into rounds+1
// 16-byte round keys, one per AddRoundKey application.
func wordsToRoundKeys(words []word, count int) [][BlockSize]byte {
	keys := make([][BlockSize]byte, count)
	for r := 0; r < count; r++ {
		for c := 0; c < 4; c++ {
			copy(keys[r][4*c:4*c+4], words[4*r+c][:])
		}
	}
	return keys
}

// invMixColumnsBlock applies InvMixColumns to a round key so it can be
// consumed by the equivalent-inverse-cipher decryption routine: every
// round key other than the first and last is transformed by the
// inverse-mix-columns operation.
func invMixColumnsBlock(b [BlockSize]byte) [BlockSize]byte {
	var out [BlockSize]byte
	for c := 0; c < 4; c++ {
		col := b[4*c : 4*c+4]
		out[4*c+0] = gmul(col[0], 0x0e) ^ gmul(col[1], 0x0b) ^ gmul(col[2], 0x0d) ^ gmul(col[3], 0x09)
		out[4*c+1] = gmul(col[0], 0x09) ^ gmul(col[1], 0x0e) ^ gmul(col[2], 0x0b) ^ gmul(col[3], 0x0d)
		out[4*c+2] = gmul(col[0], 0x0d) ^ gmul(col[1], 0x09) ^ gmul(col[2], 0x0e) ^ gmul(col[3], 0x0b)
		out[4*c+3] = gmul(col[0], 0x0b) ^ gmul(col[1], 0x0d) ^ gmul(col[2], 0x09) ^ gmul(col[3], 0x0e)
	}
	return out
}

// decryptionSchedule derives the decryption round keys from the
// encryption schedule: the last and first keys pass through unchanged,
// every key in between is InvMixColumns-transformed, and the whole
// sequence is reversed.
func decryptionSchedule(encKeys [][BlockSize]byte) [][BlockSize]byte {
	n := len(encKeys)
	dec := make([][BlockSize]byte, n)
	for i := 0; i < n; i++ {
		src := encKeys[n-1-i]
		if i == 0 || i == n-1 {
			dec[i] = src
		} else {
			dec[i] = invMixColumnsBlock(src)
		}
	}
	return dec
}
