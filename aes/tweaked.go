package aes

// TweakedContext owns two sibling Contexts for XTS: a data context keyed
// in the direction the caller wants (encrypt or decrypt), and a tweak
// context always keyed for encryption, since the tweak is always
// encrypted regardless of which direction the data is processed in
//.
type TweakedContext struct {
	data  *Context
	tweak *Context
}

// NewTweakedContext allocates an unkeyed TweakedContext.
func NewTweakedContext() *TweakedContext {
	return &TweakedContext{data: NewContext(), tweak: NewContext()}
}

// SetKeys keys both sibling contexts atomically: dataKey under dir, and
// tweakKey always under DirEncrypt. If keying the tweak context fails
// after the data context succeeded, the data context is destroyed so the
// TweakedContext is left fully unkeyed rather than half-keyed.
func (tc *TweakedContext) SetKeys(dir Direction, dataKey, tweakKey []byte) error {
	if err := tc.data.SetKey(dir, dataKey); err != nil {
		return err
	}
	if err := tc.tweak.SetKey(DirEncrypt, tweakKey); err != nil {
		tc.data.Destroy()
		return err
	}
	return nil
}

// Destroy zeroizes both sibling contexts.
func (tc *TweakedContext) Destroy() {
	tc.data.Destroy()
	tc.tweak.Destroy()
}
