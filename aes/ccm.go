package aes

import "encoding/binary"

// CCM mode (SP 800-38C): counter-with-CBC-MAC
// authenticated encryption built entirely on top of the forward AES
// primitive. ctx must be keyed for DirEncrypt — CCM's CBC-MAC and CTR
// keystream both only ever use the encryption direction of the block
// cipher, even when decrypting a CCM ciphertext.

const (
	ccmMinNonceLen = 7
	ccmMaxNonceLen = 13
	ccmMinTagLen   = 4
	ccmMaxTagLen   = 16
)

func ccmLengthFieldSize(nonceLen int) int {
	return 15 - nonceLen
}

func ccmValidateParams(ctx *Context, nonce []byte, tagSize int) error {
	if ctx.Direction() != DirEncrypt {
		return errWrongDirection(DirEncrypt, ctx.Direction())
	}
	if len(nonce) < ccmMinNonceLen || len(nonce) > ccmMaxNonceLen {
		return errBadBlockLength(len(nonce))
	}
	if tagSize < ccmMinTagLen || tagSize > ccmMaxTagLen || tagSize%2 != 0 {
		return errBadBlockLength(tagSize)
	}
	return nil
}

// ccmCounterBlock formats counter block Ctr(i): flags byte (q-1, no AAD
// flag), nonce, then i encoded big-endian in the remaining q bytes.
func ccmCounterBlock(nonce []byte, i uint64, q int) [BlockSize]byte {
	var b [BlockSize]byte
	b[0] = byte(q - 1)
	copy(b[1:], nonce)
	var cbuf [8]byte
	binary.BigEndian.PutUint64(cbuf[:], i)
	copy(b[BlockSize-q:], cbuf[8-q:])
	return b
}

// ccmB0 formats the first CBC-MAC block: flags (AAD-present, tag-size,
// q-1), nonce, and the plaintext length encoded big-endian in q bytes.
func ccmB0(nonce []byte, q int, tagSize int, adataPresent bool, msgLen int) [BlockSize]byte {
	var b [BlockSize]byte
	flags := byte((tagSize-2)/2) << 3
	flags |= byte(q - 1)
	if adataPresent {
		flags |= 0x40
	}
	b[0] = flags
	copy(b[1:], nonce)
	var lbuf [8]byte
	binary.BigEndian.PutUint64(lbuf[:], uint64(msgLen))
	copy(b[BlockSize-q:], lbuf[8-q:])
	return b
}

// ccmMACBlocks builds the CBC-MAC input after B0: the AAD length prefix
// plus AAD, zero-padded to a block boundary, followed by the plaintext,
// zero-padded to a block boundary.
func ccmMACBlocks(aad, plaintext []byte) []byte {
	var buf []byte
	if len(aad) > 0 {
		var prefix [2]byte
		binary.BigEndian.PutUint16(prefix[:], uint16(len(aad)))
		buf = append(buf, prefix[:]...)
		buf = append(buf, aad...)
		if pad := (BlockSize - len(buf)%BlockSize) % BlockSize; pad != 0 {
			buf = append(buf, make([]byte, pad)...)
		}
	}
	buf = append(buf, plaintext...)
	if pad := (BlockSize - len(buf)%BlockSize) % BlockSize; pad != 0 {
		buf = append(buf, make([]byte, pad)...)
	}
	return buf
}

func ccmCBCMAC(ctx *Context, b0 [BlockSize]byte, rest []byte) ([BlockSize]byte, error) {
	var y, block [BlockSize]byte
	if err := ctx.EncryptBlock(&y, &b0); err != nil {
		return y, err
	}
	for off := 0; off < len(rest); off += BlockSize {
		copy(block[:], rest[off:off+BlockSize])
		for i := range block {
			block[i] ^= y[i]
		}
		if err := ctx.EncryptBlock(&y, &block); err != nil {
			return y, err
		}
	}
	return y, nil
}

func ccmCTR(ctx *Context, nonce []byte, q int, startCounter uint64, data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	var ks [BlockSize]byte
	for off := 0; off < len(data); off += BlockSize {
		cb := ccmCounterBlock(nonce, startCounter+uint64(off/BlockSize), q)
		if err := ctx.EncryptBlock(&ks, &cb); err != nil {
			return nil, err
		}
		n := BlockSize
		if rem := len(data) - off; rem < n {
			n = rem
		}
		for i := 0; i < n; i++ {
			out[off+i] = data[off+i] ^ ks[i]
		}
	}
	return out, nil
}

// CCMEncrypt seals plaintext with associated data aad, returning
// ciphertext || tag where tag is tagSize bytes.
func CCMEncrypt(ctx *Context, nonce, plaintext, aad []byte, tagSize int) ([]byte, error) {
	if err := ccmValidateParams(ctx, nonce, tagSize); err != nil {
		return nil, err
	}
	q := ccmLengthFieldSize(len(nonce))

	b0 := ccmB0(nonce, q, tagSize, len(aad) > 0, len(plaintext))
	macInput := ccmMACBlocks(aad, plaintext)
	mac, err := ccmCBCMAC(ctx, b0, macInput)
	if err != nil {
		return nil, err
	}

	s0cb := ccmCounterBlock(nonce, 0, q)
	var s0 [BlockSize]byte
	if err := ctx.EncryptBlock(&s0, &s0cb); err != nil {
		return nil, err
	}
	tag := make([]byte, tagSize)
	for i := range tag {
		tag[i] = mac[i] ^ s0[i]
	}

	ciphertext, err := ccmCTR(ctx, nonce, q, 1, plaintext)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(ciphertext)+tagSize)
	out = append(out, ciphertext...)
	out = append(out, tag...)
	return out, nil
}

// CCMDecrypt opens a ciphertext produced by CCMEncrypt. A tag mismatch
// always reports authentication failure, never any partial plaintext.
func CCMDecrypt(ctx *Context, nonce, sealed, aad []byte, tagSize int) ([]byte, error) {
	if err := ccmValidateParams(ctx, nonce, tagSize); err != nil {
		return nil, err
	}
	if len(sealed) < tagSize {
		return nil, errAuthenticationFailed()
	}
	q := ccmLengthFieldSize(len(nonce))

	ciphertext := sealed[:len(sealed)-tagSize]
	gotTag := sealed[len(sealed)-tagSize:]

	plaintext, err := ccmCTR(ctx, nonce, q, 1, ciphertext)
	if err != nil {
		return nil, err
	}

	b0 := ccmB0(nonce, q, tagSize, len(aad) > 0, len(plaintext))
	macInput := ccmMACBlocks(aad, plaintext)
	mac, err := ccmCBCMAC(ctx, b0, macInput)
	if err != nil {
		return nil, err
	}

	s0cb := ccmCounterBlock(nonce, 0, q)
	var s0 [BlockSize]byte
	if err := ctx.EncryptBlock(&s0, &s0cb); err != nil {
		return nil, err
	}

	wantTag := make([]byte, tagSize)
	mismatch := byte(0)
	for i := range wantTag {
		wantTag[i] = mac[i] ^ s0[i]
		mismatch |= wantTag[i] ^ gotTag[i]
	}
	if mismatch != 0 {
		return nil, errAuthenticationFailed()
	}
	return plaintext, nil
}
