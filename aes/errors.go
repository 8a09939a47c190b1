package aes

import "github.com/kholia/fvde2john/ferr"

func errUnsupportedKeyBits(bits int) error {
	return ferr.Newf(ferr.DomainArguments, ferr.CodeInvalidArgument,
		"unsupported AES key size: %d bits (want 128, 192 or 256)", bits)
}

func errNilKey() error {
	return ferr.New(ferr.DomainArguments, ferr.CodeMissing, "key is nil")
}

func errNotKeyed() error {
	return ferr.New(ferr.DomainRuntime, ferr.CodeMissing, "context has no key set")
}

func errWrongDirection(want, got Direction) error {
	return ferr.Newf(ferr.DomainArguments, ferr.CodeInvalidArgument,
		"context is keyed for %s, not %s", got, want)
}

func errBadBlockLength(n int) error {
	return ferr.Newf(ferr.DomainArguments, ferr.CodeInvalidArgument,
		"input length %d is not a multiple of the block size", n)
}

func errAuthenticationFailed() error {
	return ferr.New(ferr.DomainRuntime, ferr.CodeAuthenticationFail, "CCM authentication failed")
}

func errShortBlock(n int) error {
	return ferr.Newf(ferr.DomainArguments, ferr.CodeInvalidArgument,
		"input of %d bytes is shorter than one block", n)
}
