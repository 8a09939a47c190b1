package fvde

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kholia/fvde2john/aes"
)

// DefaultSectorSize matches the 512-byte sectors BitLocker, FileVault2
// and LUKS all default to.
const DefaultSectorSize = 512

// MinSectorSize is the smallest sector size SectorCipher accepts: one
// AES block, below which XTS cannot process a sector at all.
const MinSectorSize = aes.BlockSize

// SectorCipher encrypts and decrypts individual sectors of a volume
// body under AES-XTS, using the sector index as the tweak. This is the
// standard disk/volume-encryption construction: each sector is an
// independently XTS-encrypted data unit, so a write to one sector never
// requires re-encrypting its neighbors.
type SectorCipher struct {
	encCtx     *aes.TweakedContext // keyed DirEncrypt, serves EncryptSector
	decCtx     *aes.TweakedContext // keyed DirDecrypt, serves DecryptSector
	sectorSize int
}

// NewSectorCipher creates a sector cipher for a 64-byte AES-XTS key
// (two 32-byte AES-256 keys, data and tweak, per IEEE 1619). A
// TweakedContext is usable in only one direction for its lifetime, so
// encryption and decryption each get their own context over the same
// keys.
func NewSectorCipher(key []byte, sectorSize int) (*SectorCipher, error) {
	if sectorSize < MinSectorSize {
		return nil, fmt.Errorf("sector size must be at least %d bytes, got %d", MinSectorSize, sectorSize)
	}
	if len(key) != 64 {
		return nil, fmt.Errorf("AES-XTS requires a 64-byte key, got %d bytes", len(key))
	}

	encCtx := aes.NewTweakedContext()
	if err := encCtx.SetKeys(aes.DirEncrypt, key[:32], key[32:]); err != nil {
		return nil, fmt.Errorf("failed to set XTS encrypt keys: %w", err)
	}
	decCtx := aes.NewTweakedContext()
	if err := decCtx.SetKeys(aes.DirDecrypt, key[:32], key[32:]); err != nil {
		return nil, fmt.Errorf("failed to set XTS decrypt keys: %w", err)
	}

	return &SectorCipher{encCtx: encCtx, decCtx: decCtx, sectorSize: sectorSize}, nil
}

// SectorSize returns the configured sector size.
func (s *SectorCipher) SectorSize() int {
	return s.sectorSize
}

// sectorTweak builds the little-endian 16-byte tweak XTS expects from a
// sector index, per IEEE 1619's data-unit-index convention.
func sectorTweak(index uint64) [aes.BlockSize]byte {
	var t [aes.BlockSize]byte
	binary.LittleEndian.PutUint64(t[:8], index)
	return t
}

// EncryptSector encrypts one sector's worth of plaintext into a newly
// allocated ciphertext slice; len(plaintext) must equal the configured sector size
// except possibly for a final short sector.
func (s *SectorCipher) EncryptSector(index uint64, plaintext []byte) ([]byte, error) {
	if len(plaintext) < MinSectorSize {
		return nil, fmt.Errorf("sector %d: payload too short for XTS (%d bytes)", index, len(plaintext))
	}

	ciphertext := make([]byte, len(plaintext))
	if err := aes.XTSCrypt(s.encCtx, ciphertext, plaintext, sectorTweak(index)); err != nil {
		return nil, fmt.Errorf("sector %d: encrypt failed: %w", index, err)
	}
	return ciphertext, nil
}

// DecryptSector reverses EncryptSector.
func (s *SectorCipher) DecryptSector(index uint64, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < MinSectorSize {
		return nil, fmt.Errorf("sector %d: payload too short for XTS (%d bytes)", index, len(ciphertext))
	}

	plaintext := make([]byte, len(ciphertext))
	if err := aes.XTSCrypt(s.decCtx, plaintext, ciphertext, sectorTweak(index)); err != nil {
		return nil, fmt.Errorf("sector %d: decrypt failed: %w", index, err)
	}
	return plaintext, nil
}

// SectorVolume presents a plaintext io.ReaderAt/io.WriterAt view over a
// ciphertext-backed volume body, translating byte offsets to sectors and
// running each sector through SectorCipher independently.
type SectorVolume struct {
	base   io.ReaderAt
	writer io.WriterAt
	cipher *SectorCipher
	offset int64 // byte offset in base where the sector body begins
}

// NewSectorVolume wraps base (positioned so the encrypted body starts at
// bodyOffset) with cipher.
func NewSectorVolume(base io.ReaderAt, writer io.WriterAt, cipher *SectorCipher, bodyOffset int64) *SectorVolume {
	return &SectorVolume{base: base, writer: writer, cipher: cipher, offset: bodyOffset}
}

// ReadAt reads len(p) plaintext bytes starting at plaintext offset off,
// decrypting every sector the range touches.
func (v *SectorVolume) ReadAt(p []byte, off int64) (int, error) {
	sectorSize := int64(v.cipher.SectorSize())
	total := 0

	for total < len(p) {
		absOff := off + int64(total)
		sectorIdx := uint64(absOff / sectorSize)
		sectorOff := int(absOff % sectorSize)

		ciphertext := make([]byte, sectorSize)
		n, err := v.base.ReadAt(ciphertext, v.offset+int64(sectorIdx)*sectorSize)
		if n < len(ciphertext) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			if n == 0 {
				return total, err
			}
			ciphertext = ciphertext[:n]
		}

		plaintext, decErr := v.cipher.DecryptSector(sectorIdx, ciphertext)
		if decErr != nil {
			return total, decErr
		}

		copied := copy(p[total:], plaintext[sectorOff:])
		total += copied

		if err != nil && err != io.EOF {
			return total, err
		}
		if copied == 0 {
			if err == io.EOF {
				return total, io.EOF
			}
			return total, io.ErrUnexpectedEOF
		}
	}

	return total, nil
}

// WriteAt writes len(p) plaintext bytes starting at plaintext offset
// off. A write that doesn't cover a whole sector first reads and
// decrypts that sector's current contents (read-modify-write), which is
// the standard behavior for sector-granular ciphers.
func (v *SectorVolume) WriteAt(p []byte, off int64) (int, error) {
	if v.writer == nil {
		return 0, fmt.Errorf("sector volume is read-only")
	}

	sectorSize := int64(v.cipher.SectorSize())
	total := 0

	for total < len(p) {
		absOff := off + int64(total)
		sectorIdx := uint64(absOff / sectorSize)
		sectorOff := int(absOff % sectorSize)

		n := len(p) - total
		if int64(sectorOff+n) > sectorSize {
			n = int(sectorSize) - sectorOff
		}

		var plaintext []byte
		if sectorOff != 0 || n != int(sectorSize) {
			plaintext = make([]byte, sectorSize)
			ciphertext := make([]byte, sectorSize)
			rn, err := v.base.ReadAt(ciphertext, v.offset+int64(sectorIdx)*sectorSize)
			if rn == len(ciphertext) {
				decoded, decErr := v.cipher.DecryptSector(sectorIdx, ciphertext)
				if decErr != nil {
					return total, decErr
				}
				copy(plaintext, decoded)
			} else if err != nil && err != io.EOF {
				return total, err
			}
		} else {
			plaintext = make([]byte, sectorSize)
		}

		copy(plaintext[sectorOff:sectorOff+n], p[total:total+n])

		ciphertext, err := v.cipher.EncryptSector(sectorIdx, plaintext)
		if err != nil {
			return total, err
		}

		if _, err := v.writer.WriteAt(ciphertext, v.offset+int64(sectorIdx)*sectorSize); err != nil {
			return total, err
		}

		total += n
	}

	return total, nil
}
