// Package fvde provides a transparent forensic disk-encryption layer over
// the AbsFs filesystem abstraction, backed by this module's own AES and
// SHA-512 cores rather than crypto/aes or crypto/sha512.
//
// # Overview
//
// fvde implements the absfs.FileSystem interface (EncryptFS), wrapping any
// AbsFs-compatible filesystem with per-file authenticated encryption and
// optional filename encryption (deterministic or random). The volume
// header (VolumeHeader) and sector-indexed body encryption (SectorVolume)
// are separate types in this package; EncryptFS does not use them.
//
// # Supported Cipher Suites
//
// - AES-CCM: whole-file authenticated encryption (SP 800-38C), used for
//   individually wrapped files
// - AES-XTS: sector-indexed encryption (IEEE 1619), used for the volume
//   body so that sectors can be read and written independently
// - ChaCha20-Poly1305: kept as an alternate AEAD provider suite one layer
//   above the AES core, in the same spirit as the portable/platform
//   provider split the underlying cores are designed around
//
// # Basic Usage
//
//	base := osfs.New()
//
//	config := &fvde.Config{
//	    Cipher: fvde.CipherAESCCM,
//	    KeyProvider: fvde.NewPasswordKeyProvider(
//	        []byte("my-secure-password"),
//	        fvde.Argon2idParams{
//	            Memory:      64 * 1024,
//	            Iterations:  3,
//	            Parallelism: 4,
//	        },
//	    ),
//	}
//
//	fs, err := fvde.New(base, config)
//	if err != nil {
//	    panic(err)
//	}
//
//	file, _ := fs.Create("/secret.txt")
//	file.WriteString("This will be encrypted on disk")
//	file.Close()
//
// # Security Considerations
//
// Protected against unauthorized access to encrypted files at rest, data
// tampering on AES-CCM-wrapped files, and offline brute-force with strong
// key derivation. Not protected against memory dumps of decrypted data,
// side-channel attacks, or metadata leakage (file sizes, access patterns).
// AES-XTS sector encryption, used for the volume body, provides
// confidentiality but not integrity — consistent with IEEE 1619's own
// scope.
//
// # Key Derivation
//
// PBKDF2 and Argon2id are both supported; PBKDF2's PRF is this module's
// own sha512.New rather than crypto/sha512, so both the volume wrapping
// key and the legacy KDF path exercise the same compression routine.
//
// # Volume Format
//
// A volume opens with a header (see header.go): magic "FVDE", version,
// cipher suite, a uuid.UUID volume identifier, a KDF descriptor, and a
// wrapped volume key. The body is divided into fixed-size sectors, each
// independently encrypted under AES-XTS with the sector index as tweak.
//
// # Performance
//
// Both cores are written for clarity over throughput: no T-tables, no
// AES-NI. On resource-constrained platforms a provider-backed
// implementation behind the same interfaces (see design notes) would be
// the faster choice; this package stays with the portable reference
// form throughout.
package fvde
