package envelope

import (
	"crypto/cipher"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrCiphertextTooShort = errors.New("envelope: ciphertext too short")
	ErrChunkAuth          = errors.New("envelope: chunk authentication failed")
)

// Sealer encrypts and authenticates chunks with ChaCha20-Poly1305.
// The 96-bit nonce is a 4-byte prefix derived from the content key followed
// by the big-endian 64-bit chunk index. Both peers derive the same sealer
// from the same content key, so no nonce travels on the wire, and a chunk
// can only be opened at the position it was sealed for.
type Sealer struct {
	aead   cipher.AEAD
	prefix [4]byte
}

// NewSealer derives a chunk sealer from a content key.
func NewSealer(contentKey []byte) (*Sealer, error) {
	if len(contentKey) != KeySize {
		return nil, errors.New("envelope: invalid content key size")
	}
	material, err := deriveKey(contentKey, nil, []byte("skiff chunk sealer v1"), KeySize+4)
	if err != nil {
		return nil, err
	}
	defer Zero(material)

	aead, err := chacha20poly1305.New(material[:KeySize])
	if err != nil {
		return nil, err
	}
	s := &Sealer{aead: aead}
	copy(s.prefix[:], material[KeySize:])
	return s, nil
}

func (s *Sealer) nonceAt(index uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize) // 12 bytes
	copy(nonce[:4], s.prefix[:])
	binary.BigEndian.PutUint64(nonce[4:], index)
	return nonce
}

// Seal encrypts and authenticates a chunk at the given stream position.
// Returns ciphertext || tag; the nonce is implicit in the index.
func (s *Sealer) Seal(plaintext, additionalData []byte, index uint64) []byte {
	return s.aead.Seal(nil, s.nonceAt(index), plaintext, additionalData)
}

// Open decrypts and verifies a chunk at the given stream position.
// A failed tag means tampering, corruption or reordering; the session must
// terminate immediately and no further chunks may be processed.
func (s *Sealer) Open(ciphertext, additionalData []byte, index uint64) ([]byte, error) {
	if len(ciphertext) < s.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := s.aead.Open(nil, s.nonceAt(index), ciphertext, additionalData)
	if err != nil {
		return nil, ErrChunkAuth
	}
	return plaintext, nil
}

// Overhead returns the authentication tag overhead.
func (s *Sealer) Overhead() int { return s.aead.Overhead() }
