// Package integrity computes the content digest of a transfer and
// produces/verifies the sender signature over it.
//
// The digest is SHA-256 over the full plaintext, fed incrementally one
// chunk at a time in stream order. The signature is RSA PKCS#1 v1.5 over
// the digest, compatible with signatures produced by
// `openssl dgst -sha256 -sign`.
package integrity

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"hash"
)

var ErrSignatureMismatch = errors.New("integrity: signature verification failed")

// Digest accumulates the SHA-256 of the plaintext content.
// It implements io.Writer; Write is called once per chunk, in order.
type Digest struct {
	h hash.Hash
}

// NewDigest creates an empty digest state.
func NewDigest() *Digest {
	return &Digest{h: sha256.New()}
}

func (d *Digest) Write(p []byte) (int, error) {
	return d.h.Write(p)
}

// Sum finalizes and returns the digest.
func (d *Digest) Sum() []byte {
	return d.h.Sum(nil)
}

// Sign produces the sender's signature over a finalized digest.
func Sign(digest []byte, priv *rsa.PrivateKey) ([]byte, error) {
	return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest)
}

// Verify checks a signature over a finalized digest against the sender's
// known public key. A failure is a hard rejection: the reconstructed file
// must be discarded, never exposed as received.
func Verify(digest, signature []byte, pub *rsa.PublicKey) error {
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest, signature); err != nil {
		return ErrSignatureMismatch
	}
	return nil
}
