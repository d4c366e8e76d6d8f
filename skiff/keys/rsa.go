// Package keys loads, saves and generates the RSA keypairs a transfer
// depends on: the receiver's wrapping keypair and the sender's signing
// keypair. Keys travel as PEM (PKCS#8 private, PKIX public).
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

const (
	// MinBits is the smallest accepted modulus for generated keys.
	MinBits = 2048

	privatePEMType = "PRIVATE KEY"
	publicPEMType  = "PUBLIC KEY"
)

var (
	ErrBadPEM     = errors.New("keys: not a valid PEM block")
	ErrNotRSA     = errors.New("keys: key is not RSA")
	ErrKeyTooWeak = errors.New("keys: modulus below minimum size")
)

// Generate creates a new RSA keypair.
func Generate(bits int) (*rsa.PrivateKey, error) {
	if bits < MinBits {
		return nil, fmt.Errorf("%w: %d < %d", ErrKeyTooWeak, bits, MinBits)
	}
	return rsa.GenerateKey(rand.Reader, bits)
}

// MarshalPrivatePEM encodes a private key as PKCS#8 PEM.
func MarshalPrivatePEM(priv *rsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: privatePEMType, Bytes: der}), nil
}

// MarshalPublicPEM encodes a public key as PKIX PEM.
func MarshalPublicPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: publicPEMType, Bytes: der}), nil
}

// ParsePrivatePEM decodes a PKCS#8 PEM private key.
func ParsePrivatePEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != privatePEMType {
		return nil, ErrBadPEM
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	priv, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrNotRSA
	}
	return priv, nil
}

// ParsePublicPEM decodes a PKIX PEM public key.
func ParsePublicPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != publicPEMType {
		return nil, ErrBadPEM
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, ErrNotRSA
	}
	return pub, nil
}

// LoadPrivate reads a private key from a PEM file.
func LoadPrivate(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePrivatePEM(data)
}

// LoadPublic reads a public key from a PEM file.
func LoadPublic(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePublicPEM(data)
}

// SavePrivate writes a private key to a PEM file with owner-only mode.
func SavePrivate(path string, priv *rsa.PrivateKey) error {
	data, err := MarshalPrivatePEM(priv)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// SavePublic writes a public key to a PEM file.
func SavePublic(path string, pub *rsa.PublicKey) error {
	data, err := MarshalPublicPEM(pub)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
