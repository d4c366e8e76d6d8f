package integrity

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"testing"
)

func TestDigestIncremental(t *testing.T) {
	content := make([]byte, 200*1024)
	for i := range content {
		content[i] = byte(i)
	}

	d := NewDigest()
	for off := 0; off < len(content); off += 64 * 1024 {
		end := off + 64*1024
		if end > len(content) {
			end = len(content)
		}
		if _, err := d.Write(content[off:end]); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	want := sha256.Sum256(content)
	if !bytes.Equal(d.Sum(), want[:]) {
		t.Fatalf("incremental digest differs from one-shot digest")
	}
}

func TestSignVerify(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	d := NewDigest()
	d.Write([]byte("attested content"))
	digest := d.Sum()

	sig, err := Sign(digest, priv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := Verify(digest, sig, &priv.PublicKey); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	privA, _ := rsa.GenerateKey(rand.Reader, 2048)
	privB, _ := rsa.GenerateKey(rand.Reader, 2048)

	d := NewDigest()
	d.Write([]byte("attested content"))
	digest := d.Sum()

	sig, _ := Sign(digest, privA)
	if err := Verify(digest, sig, &privB.PublicKey); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestVerifyWrongDigest(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)

	d := NewDigest()
	d.Write([]byte("attested content"))
	sig, _ := Sign(d.Sum(), priv)

	other := NewDigest()
	other.Write([]byte("different content"))
	if err := Verify(other.Sum(), sig, &priv.PublicKey); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	priv, _ := rsa.GenerateKey(rand.Reader, 2048)

	d := NewDigest()
	d.Write([]byte("attested content"))
	digest := d.Sum()
	sig, _ := Sign(digest, priv)
	sig[len(sig)/2] ^= 0x01

	if err := Verify(digest, sig, &priv.PublicKey); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
}
