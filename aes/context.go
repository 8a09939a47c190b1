package aes

// Context owns one prepared AES key schedule plus the direction it was
// prepared for. Unlike original_source/libcaes's context object, NewContext
// always returns a usable value (no separate "initialize" failure mode),
// and SetKey may be called repeatedly: each call replaces the schedule
// wholesale, keyed for whatever direction is passed.
type Context struct {
	dir       Direction
	rounds    int
	roundKeys [][BlockSize]byte
	keyed     bool
}

// NewContext allocates an unkeyed Context.
func NewContext() *Context {
	return &Context{}
}

// SetKey prepares ctx for dir using key, whose length selects AES-128,
// AES-192 or AES-256. A Context may be re-keyed any number of times; each
// call replaces the schedule wholesale rather than erroring on a context
// that is already keyed.
func (c *Context) SetKey(dir Direction, key []byte) error {
	if key == nil {
		return errNilKey()
	}

	rounds, nk, err := roundsForKeyBits(len(key) * 8)
	if err != nil {
		return err
	}

	words := expandKeySchedule(key, nk, rounds)
	encKeys := wordsToRoundKeys(words, rounds+1)

	c.rounds = rounds
	c.dir = dir
	if dir == DirDecrypt {
		c.roundKeys = decryptionSchedule(encKeys)
	} else {
		c.roundKeys = encKeys
	}
	c.keyed = true
	return nil
}

// Direction reports the direction this Context was keyed for.
func (c *Context) Direction() Direction {
	return c.dir
}

// Rounds reports the number of AES rounds this Context's key schedule uses.
func (c *Context) Rounds() int {
	return c.rounds
}

// EncryptBlock encrypts one 16-byte block. ctx must be keyed for DirEncrypt.
func (c *Context) EncryptBlock(dst, src *[BlockSize]byte) error {
	if !c.keyed {
		return errNotKeyed()
	}
	if c.dir != DirEncrypt {
		return errWrongDirection(DirEncrypt, c.dir)
	}
	*dst = encryptBlock(src, c.roundKeys)
	return nil
}

// DecryptBlock decrypts one 16-byte block. ctx must be keyed for DirDecrypt.
func (c *Context) DecryptBlock(dst, src *[BlockSize]byte) error {
	if !c.keyed {
		return errNotKeyed()
	}
	if c.dir != DirDecrypt {
		return errWrongDirection(DirDecrypt, c.dir)
	}
	*dst = decryptBlock(src, c.roundKeys)
	return nil
}

// Destroy zeroizes the key schedule and returns ctx to its unkeyed state,
// so it can be re-keyed or simply dropped without leaving key material
// resident.
func (c *Context) Destroy() {
	for i := range c.roundKeys {
		for j := range c.roundKeys[i] {
			c.roundKeys[i][j] = 0
		}
	}
	c.roundKeys = nil
	c.rounds = 0
	c.keyed = false
}
