package aes

// ECBCrypt processes src block-by-block under ctx, in the direction ctx
// was keyed for, with no chaining between blocks. len(src)
// must be a multiple of BlockSize (an empty src is accepted and processes
// nothing); dst may alias src.
func ECBCrypt(ctx *Context, dst, src []byte) error {
	if len(src)%BlockSize != 0 {
		return errBadBlockLength(len(src))
	}
	if len(dst) != len(src) {
		return errBadBlockLength(len(dst))
	}

	var in, out [BlockSize]byte
	for off := 0; off < len(src); off += BlockSize {
		copy(in[:], src[off:off+BlockSize])
		if err := cryptBlock(ctx, &out, &in); err != nil {
			return err
		}
		copy(dst[off:off+BlockSize], out[:])
	}
	return nil
}

// cryptBlock dispatches to EncryptBlock or DecryptBlock based on the
// Context's keyed direction, letting mode drivers stay direction-agnostic.
func cryptBlock(ctx *Context, dst, src *[BlockSize]byte) error {
	if ctx.Direction() == DirDecrypt {
		return ctx.DecryptBlock(dst, src)
	}
	return ctx.EncryptBlock(dst, src)
}
