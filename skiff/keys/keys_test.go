package keys

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateRejectsWeakModulus(t *testing.T) {
	if _, err := Generate(1024); !errors.Is(err, ErrKeyTooWeak) {
		t.Fatalf("expected ErrKeyTooWeak, got %v", err)
	}
}

func TestPEMRoundTrip(t *testing.T) {
	priv, err := Generate(2048)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	privPEM, err := MarshalPrivatePEM(priv)
	if err != nil {
		t.Fatalf("MarshalPrivatePEM: %v", err)
	}
	gotPriv, err := ParsePrivatePEM(privPEM)
	if err != nil {
		t.Fatalf("ParsePrivatePEM: %v", err)
	}
	if !gotPriv.Equal(priv) {
		t.Fatalf("private key round trip mismatch")
	}

	pubPEM, err := MarshalPublicPEM(&priv.PublicKey)
	if err != nil {
		t.Fatalf("MarshalPublicPEM: %v", err)
	}
	gotPub, err := ParsePublicPEM(pubPEM)
	if err != nil {
		t.Fatalf("ParsePublicPEM: %v", err)
	}
	if !gotPub.Equal(&priv.PublicKey) {
		t.Fatalf("public key round trip mismatch")
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := ParsePrivatePEM([]byte("not pem")); !errors.Is(err, ErrBadPEM) {
		t.Fatalf("expected ErrBadPEM, got %v", err)
	}
	if _, err := ParsePublicPEM(nil); !errors.Is(err, ErrBadPEM) {
		t.Fatalf("expected ErrBadPEM, got %v", err)
	}
}

func TestLoadSaveFiles(t *testing.T) {
	dir := t.TempDir()
	priv, err := Generate(2048)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	privPath := filepath.Join(dir, "key.pem")
	pubPath := filepath.Join(dir, "pub.pem")
	if err := SavePrivate(privPath, priv); err != nil {
		t.Fatalf("SavePrivate: %v", err)
	}
	if err := SavePublic(pubPath, &priv.PublicKey); err != nil {
		t.Fatalf("SavePublic: %v", err)
	}

	info, err := os.Stat(privPath)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("private key mode %v, want 0600", info.Mode().Perm())
	}

	gotPriv, err := LoadPrivate(privPath)
	if err != nil {
		t.Fatalf("LoadPrivate: %v", err)
	}
	if !gotPriv.Equal(priv) {
		t.Fatalf("loaded private key mismatch")
	}
	gotPub, err := LoadPublic(pubPath)
	if err != nil {
		t.Fatalf("LoadPublic: %v", err)
	}
	if !gotPub.Equal(&priv.PublicKey) {
		t.Fatalf("loaded public key mismatch")
	}
}

func TestFingerprintStable(t *testing.T) {
	priv, err := Generate(2048)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	a, err := FingerprintOf(&priv.PublicKey)
	if err != nil {
		t.Fatalf("FingerprintOf: %v", err)
	}
	b, _ := FingerprintOf(&priv.PublicKey)
	if a != b {
		t.Fatalf("fingerprint not stable")
	}
	if len(a.String()) != 64 || len(a.Short()) != 8 {
		t.Fatalf("unexpected fingerprint formatting: %q / %q", a.String(), a.Short())
	}

	other, _ := Generate(2048)
	c, _ := FingerprintOf(&other.PublicKey)
	if a == c {
		t.Fatalf("distinct keys share a fingerprint")
	}
}
