package keys

import (
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
)

// Fingerprint is a stable identifier for a public key.
// It is defined as SHA-256 over the PKIX DER encoding.
type Fingerprint [32]byte

func FingerprintOf(pub *rsa.PublicKey) (Fingerprint, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return Fingerprint{}, err
	}
	return Fingerprint(sha256.Sum256(der)), nil
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 8 hex digits, enough for log lines.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:4])
}
