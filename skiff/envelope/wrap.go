package envelope

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
)

var (
	ErrKeyWrap   = errors.New("envelope: key wrap failed")
	ErrKeyUnwrap = errors.New("envelope: key unwrap failed")
)

// Wrap encrypts the content key under the peer's public key using
// RSA-OAEP-SHA256. The resulting blob is opaque to the sender.
func Wrap(key []byte, peer *rsa.PublicKey) ([]byte, error) {
	if peer == nil {
		return nil, fmt.Errorf("%w: nil public key", ErrKeyWrap)
	}
	// OAEP payload limit: modulus size - 2*hash size - 2.
	if max := peer.Size() - 2*sha256.Size - 2; len(key) > max {
		return nil, fmt.Errorf("%w: key length %d exceeds OAEP capacity %d", ErrKeyWrap, len(key), max)
	}
	blob, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, peer, key, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyWrap, err)
	}
	return blob, nil
}

// Unwrap recovers the content key from a wrapped blob.
// Any decryption failure (tampered blob, mismatched key) is terminal:
// the caller must abort the session, never treat the payload as plaintext.
func Unwrap(blob []byte, priv *rsa.PrivateKey) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrKeyUnwrap)
	}
	key, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyUnwrap, err)
	}
	if len(key) != KeySize {
		Zero(key)
		return nil, fmt.Errorf("%w: unexpected key length %d", ErrKeyUnwrap, len(key))
	}
	return key, nil
}
