package fvde

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/kholia/fvde2john/sha512"
)

// hmacSHA512 computes HMAC-SHA-512(key, data) via this module's own
// sha512 core.
func hmacSHA512(key, data []byte) []byte {
	mac := sha512.NewHMAC(key)
	mac.Write(data)
	return mac.Sum(nil)
}

// constantTimeEqual reports whether a and b hold the same bytes, in
// time independent of where they first differ.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// VolumeMagic identifies an fvde volume image (ASCII: "FVDE").
const VolumeMagic = uint32(0x46564445)

// VolumeVersion is the current on-disk volume header version.
const VolumeVersion = uint8(1)

// KDFKind selects the password-based key derivation function that
// protects a volume's wrapped key blob.
type KDFKind uint8

const (
	// KDFArgon2id derives the key-wrapping key with Argon2id.
	KDFArgon2id KDFKind = iota
	// KDFPBKDF2 derives the key-wrapping key with PBKDF2-HMAC-SHA-512.
	KDFPBKDF2
)

func (k KDFKind) String() string {
	switch k {
	case KDFArgon2id:
		return "argon2id"
	case KDFPBKDF2:
		return "pbkdf2-sha512"
	default:
		return "unknown"
	}
}

// KDFDescriptor records the parameters a *2john-style extractor needs to
// reproduce the key-wrapping key from a candidate password, without
// needing to read the rest of the volume.
type KDFDescriptor struct {
	Kind KDFKind
	Salt []byte

	// Argon2id parameters (ignored when Kind == KDFPBKDF2).
	Memory      uint32
	Time        uint32
	Parallelism uint8

	// PBKDF2 parameters (ignored when Kind == KDFArgon2id).
	Iterations uint32
}

// VolumeHeader is the fixed metadata block at the start of an fvde
// volume image: enough to locate the sector-encrypted body and to
// attempt a password recovery against the wrapped volume key without
// decrypting anything.
//
// Layout (all integers little-endian):
//
//	magic        uint32
//	version      uint8
//	cipher       uint8  (CipherSuite, always CipherAESXTS for the body)
//	volumeID     [16]byte (uuid.UUID)
//	kdfKind      uint8
//	kdfSaltSize  uint16
//	kdfSalt      []byte
//	kdfMemory    uint32
//	kdfTime      uint32
//	kdfParallel  uint8
//	kdfIters     uint32
//	sectorSize   uint32
//	wrapNonceLen uint16
//	wrapNonce    []byte
//	wrapKeyLen   uint16
//	wrapKey      []byte (AES-CCM sealed master key + tag)
//	tagLen       uint16
//	tag          []byte (HMAC-SHA-512 over every field before tagLen)
type VolumeHeader struct {
	VolumeID   uuid.UUID
	Cipher     CipherSuite
	KDF        KDFDescriptor
	SectorSize uint32

	WrapNonce []byte
	WrapKey   []byte // AES-CCM(keyWrappingKey, masterKey) ciphertext+tag

	Tag []byte // HMAC-SHA-512(keyWrappingKey, header-without-tag)
}

// NewVolumeHeader creates a volume header for a fresh volume. The
// caller is responsible for sealing masterKey into WrapNonce/WrapKey and
// computing Tag via SealKey/ComputeTag before writing it out.
func NewVolumeHeader(kdf KDFDescriptor, sectorSize uint32) *VolumeHeader {
	return &VolumeHeader{
		VolumeID:   uuid.New(),
		Cipher:     CipherAESXTS,
		KDF:        kdf,
		SectorSize: sectorSize,
	}
}

// SealKey wraps masterKey under keyWrappingKey using AES-CCM, keyed
// DirEncrypt, and populates WrapNonce/WrapKey.
func (h *VolumeHeader) SealKey(keyWrappingKey, masterKey []byte) error {
	engine, err := NewAESCCMEngine(keyWrappingKey)
	if err != nil {
		return fmt.Errorf("failed to create key-wrap engine: %w", err)
	}
	nonce, err := GenerateNonce(CipherAESCCM)
	if err != nil {
		return fmt.Errorf("failed to generate wrap nonce: %w", err)
	}
	wrapped, err := engine.Encrypt(nonce, masterKey)
	if err != nil {
		return fmt.Errorf("failed to wrap master key: %w", err)
	}
	h.WrapNonce = nonce
	h.WrapKey = wrapped
	return nil
}

// UnsealKey recovers the master key from WrapNonce/WrapKey under
// keyWrappingKey. Returns ErrAuthFailed if keyWrappingKey is wrong.
func (h *VolumeHeader) UnsealKey(keyWrappingKey []byte) ([]byte, error) {
	engine, err := NewAESCCMEngine(keyWrappingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create key-wrap engine: %w", err)
	}
	return engine.Decrypt(h.WrapNonce, h.WrapKey)
}

// bodyBytes serializes every header field except Tag, for tag
// computation and for the on-disk layout preceding the tag.
func (h *VolumeHeader) bodyBytes() ([]byte, error) {
	buf := new(bytes.Buffer)

	write := func(v any) error { return binary.Write(buf, binary.LittleEndian, v) }

	if err := write(VolumeMagic); err != nil {
		return nil, err
	}
	if err := write(VolumeVersion); err != nil {
		return nil, err
	}
	if err := write(uint8(h.Cipher)); err != nil {
		return nil, err
	}
	if _, err := buf.Write(h.VolumeID[:]); err != nil {
		return nil, err
	}
	if err := write(uint8(h.KDF.Kind)); err != nil {
		return nil, err
	}
	if err := write(uint16(len(h.KDF.Salt))); err != nil {
		return nil, err
	}
	if _, err := buf.Write(h.KDF.Salt); err != nil {
		return nil, err
	}
	if err := write(h.KDF.Memory); err != nil {
		return nil, err
	}
	if err := write(h.KDF.Time); err != nil {
		return nil, err
	}
	if err := write(h.KDF.Parallelism); err != nil {
		return nil, err
	}
	if err := write(h.KDF.Iterations); err != nil {
		return nil, err
	}
	if err := write(h.SectorSize); err != nil {
		return nil, err
	}
	if err := write(uint16(len(h.WrapNonce))); err != nil {
		return nil, err
	}
	if _, err := buf.Write(h.WrapNonce); err != nil {
		return nil, err
	}
	if err := write(uint16(len(h.WrapKey))); err != nil {
		return nil, err
	}
	if _, err := buf.Write(h.WrapKey); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ComputeTag derives Tag = HMAC-SHA-512(keyWrappingKey, body). Called
// after SealKey, before WriteTo.
func (h *VolumeHeader) ComputeTag(keyWrappingKey []byte) error {
	body, err := h.bodyBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize header body: %w", err)
	}
	h.Tag = hmacSHA512(keyWrappingKey, body)
	return nil
}

// VerifyTag reports whether Tag matches HMAC-SHA-512(keyWrappingKey, body).
func (h *VolumeHeader) VerifyTag(keyWrappingKey []byte) bool {
	body, err := h.bodyBytes()
	if err != nil {
		return false
	}
	want := hmacSHA512(keyWrappingKey, body)
	return constantTimeEqual(h.Tag, want)
}

// WriteTo writes the full header, including the trailing tag, to w.
func (h *VolumeHeader) WriteTo(w io.Writer) (int64, error) {
	body, err := h.bodyBytes()
	if err != nil {
		return 0, err
	}

	buf := new(bytes.Buffer)
	buf.Write(body)
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(h.Tag))); err != nil {
		return 0, err
	}
	buf.Write(h.Tag)

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// ReadFrom reads a volume header from r.
func (h *VolumeHeader) ReadFrom(r io.Reader) (int64, error) {
	var total int64

	read := func(v any, n int64) error {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
		total += n
		return nil
	}

	var magic uint32
	if err := read(&magic, 4); err != nil {
		return total, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != VolumeMagic {
		return total, ErrInvalidHeader
	}

	var version uint8
	if err := read(&version, 1); err != nil {
		return total, fmt.Errorf("failed to read version: %w", err)
	}
	if version > VolumeVersion {
		return total, ErrUnsupportedVersion
	}

	var cipher uint8
	if err := read(&cipher, 1); err != nil {
		return total, fmt.Errorf("failed to read cipher: %w", err)
	}
	h.Cipher = CipherSuite(cipher)

	if _, err := io.ReadFull(r, h.VolumeID[:]); err != nil {
		return total, fmt.Errorf("failed to read volume id: %w", err)
	}
	total += 16

	var kdfKind uint8
	if err := read(&kdfKind, 1); err != nil {
		return total, fmt.Errorf("failed to read kdf kind: %w", err)
	}
	h.KDF.Kind = KDFKind(kdfKind)

	var saltSize uint16
	if err := read(&saltSize, 2); err != nil {
		return total, fmt.Errorf("failed to read kdf salt size: %w", err)
	}
	h.KDF.Salt = make([]byte, saltSize)
	n, err := io.ReadFull(r, h.KDF.Salt)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("failed to read kdf salt: %w", err)
	}

	if err := read(&h.KDF.Memory, 4); err != nil {
		return total, fmt.Errorf("failed to read kdf memory: %w", err)
	}
	if err := read(&h.KDF.Time, 4); err != nil {
		return total, fmt.Errorf("failed to read kdf time: %w", err)
	}
	if err := read(&h.KDF.Parallelism, 1); err != nil {
		return total, fmt.Errorf("failed to read kdf parallelism: %w", err)
	}
	if err := read(&h.KDF.Iterations, 4); err != nil {
		return total, fmt.Errorf("failed to read kdf iterations: %w", err)
	}
	if err := read(&h.SectorSize, 4); err != nil {
		return total, fmt.Errorf("failed to read sector size: %w", err)
	}

	var wrapNonceLen uint16
	if err := read(&wrapNonceLen, 2); err != nil {
		return total, fmt.Errorf("failed to read wrap nonce length: %w", err)
	}
	h.WrapNonce = make([]byte, wrapNonceLen)
	n, err = io.ReadFull(r, h.WrapNonce)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("failed to read wrap nonce: %w", err)
	}

	var wrapKeyLen uint16
	if err := read(&wrapKeyLen, 2); err != nil {
		return total, fmt.Errorf("failed to read wrap key length: %w", err)
	}
	h.WrapKey = make([]byte, wrapKeyLen)
	n, err = io.ReadFull(r, h.WrapKey)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("failed to read wrap key: %w", err)
	}

	var tagLen uint16
	if err := read(&tagLen, 2); err != nil {
		return total, fmt.Errorf("failed to read tag length: %w", err)
	}
	h.Tag = make([]byte, tagLen)
	n, err = io.ReadFull(r, h.Tag)
	total += int64(n)
	if err != nil {
		return total, fmt.Errorf("failed to read tag: %w", err)
	}

	return total, nil
}
