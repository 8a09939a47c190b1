package fvde

import (
	"errors"
	"hash"

	"github.com/kholia/fvde2john/sha512"
)

// CipherSuite represents the encryption algorithm protecting a volume or file.
type CipherSuite uint8

const (
	// CipherAuto lets the consumer pick the default for its layer: whole-file
	// encryption resolves it to CipherAESCCM, the sector-indexed volume body
	// to CipherAESXTS.
	CipherAuto CipherSuite = iota
	// CipherAESCCM uses our own AES-CCM core for whole-file authenticated encryption.
	CipherAESCCM
	// CipherAESXTS uses our own AES-XTS core for sector-indexed volume bodies.
	CipherAESXTS
	// CipherChaCha20Poly1305 uses ChaCha20 stream cipher with Poly1305 MAC.
	CipherChaCha20Poly1305
)

// String returns the string representation of the cipher suite
func (c CipherSuite) String() string {
	switch c {
	case CipherAuto:
		return "auto"
	case CipherAESCCM:
		return "aes-ccm"
	case CipherAESXTS:
		return "aes-xts"
	case CipherChaCha20Poly1305:
		return "chacha20-poly1305"
	default:
		return "unknown"
	}
}

// FilenameEncryption represents the filename encryption mode
type FilenameEncryption uint8

const (
	// FilenameEncryptionNone does not encrypt filenames
	FilenameEncryptionNone FilenameEncryption = iota
	// FilenameEncryptionDeterministic uses SIV mode for deterministic encryption
	FilenameEncryptionDeterministic
	// FilenameEncryptionRandom uses random encryption with metadata database
	FilenameEncryptionRandom
)

// HashFunc represents hash function types for PBKDF2
type HashFunc uint8

const (
	// SHA512 selects our own sha512 core as the PBKDF2 PRF.
	SHA512 HashFunc = iota
)

// PBKDF2Params contains parameters for PBKDF2 key derivation
type PBKDF2Params struct {
	Iterations int      // Number of iterations (minimum 100,000 recommended)
	HashFunc   HashFunc // Hash function to use
	SaltSize   int      // Salt size in bytes (default 32)
	KeySize    int      // Derived key size in bytes (default 32 for AES-256)
}

// Argon2idParams contains parameters for Argon2id key derivation
type Argon2idParams struct {
	Memory      uint32 // Memory in KiB (e.g., 64*1024 for 64MB)
	Iterations  uint32 // Number of iterations (time parameter)
	Parallelism uint8  // Degree of parallelism
	SaltSize    int    // Salt size in bytes (default 32)
	KeySize     int    // Derived key size in bytes (default 32 for AES-256)
}

// Config contains configuration for the encrypted filesystem
type Config struct {
	// Cipher suite to use for encryption
	Cipher CipherSuite

	// KeyProvider supplies encryption keys
	KeyProvider KeyProvider

	// FilenameEncryption mode (Phase 3 feature)
	FilenameEncryption FilenameEncryption

	// PreserveExtensions keeps file extensions visible when using filename encryption
	PreserveExtensions bool

	// MetadataPath is the path to store metadata for random filename encryption
	MetadataPath string

	// ChunkSize for streaming encryption (Phase 4 feature)
	ChunkSize int

	// EnableSeek allows seeking within encrypted files (Phase 4 feature)
	EnableSeek bool

	// Parallel controls parallel chunk processing (chunked mode only)
	Parallel ParallelConfig
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config cannot be nil")
	}
	if c.KeyProvider == nil {
		return errors.New("key provider cannot be nil")
	}
	switch c.Cipher {
	case CipherAuto, CipherAESCCM, CipherAESXTS, CipherChaCha20Poly1305:
	default:
		return errors.New("unsupported cipher suite")
	}
	return nil
}

// KeyProvider is an interface for providing encryption keys
type KeyProvider interface {
	// DeriveKey derives an encryption key from the given salt
	DeriveKey(salt []byte) ([]byte, error)

	// GenerateSalt generates a new random salt
	GenerateSalt() ([]byte, error)
}

// HashFuncToHash converts HashFunc to a hash.Hash constructor. SHA512 is
// backed by our own sha512 core, not crypto/sha512, so PBKDF2 exercises the
// same compression routine the rest of this module does.
func HashFuncToHash(hf HashFunc) func() hash.Hash {
	switch hf {
	case SHA512:
		return sha512.New
	default:
		return sha512.New
	}
}
