package aes

// CBCCrypt processes src under ctx in CBC mode with the given 16-byte iv
//. dst and src may alias (in-place operation): on decrypt,
// the current ciphertext block is captured before the output buffer is
// overwritten, so chaining stays correct even when dst == src.
func CBCCrypt(ctx *Context, dst, src, iv []byte) error {
	if len(iv) != BlockSize {
		return errShortBlock(len(iv))
	}
	if len(src)%BlockSize != 0 {
		return errBadBlockLength(len(src))
	}
	if len(dst) != len(src) {
		return errBadBlockLength(len(dst))
	}

	var chain [BlockSize]byte
	copy(chain[:], iv)

	if ctx.Direction() == DirDecrypt {
		var in, out [BlockSize]byte
		for off := 0; off < len(src); off += BlockSize {
			copy(in[:], src[off:off+BlockSize]) // capture ciphertext before dst is written
			if err := ctx.DecryptBlock(&out, &in); err != nil {
				return err
			}
			for i := range out {
				out[i] ^= chain[i]
			}
			copy(dst[off:off+BlockSize], out[:])
			chain = in
		}
		return nil
	}

	var in, out [BlockSize]byte
	for off := 0; off < len(src); off += BlockSize {
		copy(in[:], src[off:off+BlockSize])
		for i := range in {
			in[i] ^= chain[i]
		}
		if err := ctx.EncryptBlock(&out, &in); err != nil {
			return err
		}
		copy(dst[off:off+BlockSize], out[:])
		chain = out
	}
	return nil
}
