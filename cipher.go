package fvde

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/kholia/fvde2john/aes"
)

// CipherEngine provides AEAD encryption/decryption for whole files.
type CipherEngine interface {
	// Encrypt encrypts plaintext with the given nonce
	Encrypt(nonce, plaintext []byte) ([]byte, error)

	// Decrypt decrypts ciphertext with the given nonce
	Decrypt(nonce, ciphertext []byte) ([]byte, error)

	// NonceSize returns the size of nonces in bytes
	NonceSize() int

	// Overhead returns the authentication tag size
	Overhead() int
}

// aesCCMNonceSize and aesCCMTagSize fix a 12-byte nonce and the largest
// tag CCM allows (nonce 7-13 bytes, tag 4-16 even bytes).
const (
	aesCCMNonceSize = 12
	aesCCMTagSize   = 16
)

// AESCCMEngine implements CipherEngine using this module's own AES-CCM
// mode driver (aes.CCMEncrypt/aes.CCMDecrypt), not crypto/cipher's GCM.
type AESCCMEngine struct {
	ctx *aes.Context
}

// NewAESCCMEngine creates a new AES-CCM cipher engine for a 256-bit key.
func NewAESCCMEngine(key []byte) (*AESCCMEngine, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("AES-256 requires a 32-byte key, got %d bytes", len(key))
	}

	ctx := aes.NewContext()
	if err := ctx.SetKey(aes.DirEncrypt, key); err != nil {
		return nil, fmt.Errorf("failed to set AES key: %w", err)
	}

	return &AESCCMEngine{ctx: ctx}, nil
}

// Encrypt encrypts plaintext using AES-CCM.
func (e *AESCCMEngine) Encrypt(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}

	return aes.CCMEncrypt(e.ctx, nonce, plaintext, nil, aesCCMTagSize)
}

// Decrypt decrypts ciphertext using AES-CCM.
func (e *AESCCMEngine) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}

	plaintext, err := aes.CCMDecrypt(e.ctx, nonce, ciphertext, nil, aesCCMTagSize)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// NonceSize returns the nonce size this engine uses for AES-CCM.
func (e *AESCCMEngine) NonceSize() int {
	return aesCCMNonceSize
}

// Overhead returns the authentication tag size.
func (e *AESCCMEngine) Overhead() int {
	return aesCCMTagSize
}

// ChaCha20Poly1305Engine implements CipherEngine using ChaCha20-Poly1305.
// Kept alongside the AES-CCM engine as the module's alternate
// provider-backed AEAD suite.
type ChaCha20Poly1305Engine struct {
	aead cipher.AEAD
}

// NewChaCha20Poly1305Engine creates a new ChaCha20-Poly1305 cipher engine
func NewChaCha20Poly1305Engine(key []byte) (CipherEngine, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ChaCha20-Poly1305 requires a %d-byte key, got %d bytes",
			chacha20poly1305.KeySize, len(key))
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 cipher: %w", err)
	}

	return &ChaCha20Poly1305Engine{aead: aead}, nil
}

// Encrypt encrypts plaintext using ChaCha20-Poly1305.
func (e *ChaCha20Poly1305Engine) Encrypt(nonce, plaintext []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}

	return e.aead.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt decrypts ciphertext using ChaCha20-Poly1305.
func (e *ChaCha20Poly1305Engine) Decrypt(nonce, ciphertext []byte) ([]byte, error) {
	if len(nonce) != e.NonceSize() {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", e.NonceSize(), len(nonce))
	}

	plaintext, err := e.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// NonceSize returns the nonce size for ChaCha20-Poly1305.
func (e *ChaCha20Poly1305Engine) NonceSize() int {
	return e.aead.NonceSize()
}

// Overhead returns the authentication tag size.
func (e *ChaCha20Poly1305Engine) Overhead() int {
	return e.aead.Overhead()
}

// NewCipherEngine creates a new whole-file cipher engine based on the
// cipher suite. CipherAESXTS is not an AEAD construction and is served by
// the sector layer (see sector.go) instead of this function.
func NewCipherEngine(cipher CipherSuite, key []byte) (CipherEngine, error) {
	switch cipher {
	case CipherAESCCM:
		return NewAESCCMEngine(key)
	case CipherChaCha20Poly1305:
		return NewChaCha20Poly1305Engine(key)
	case CipherAuto:
		return NewAESCCMEngine(key)
	default:
		return nil, ErrUnsupportedCipher
	}
}

// GenerateNonce generates a random nonce for the given cipher.
func GenerateNonce(cipher CipherSuite) ([]byte, error) {
	var nonceSize int

	switch cipher {
	case CipherAESCCM:
		nonceSize = aesCCMNonceSize
	case CipherChaCha20Poly1305:
		nonceSize = chacha20poly1305.NonceSize
	case CipherAuto:
		nonceSize = aesCCMNonceSize
	default:
		return nil, ErrUnsupportedCipher
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	return nonce, nil
}
