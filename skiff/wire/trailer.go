package wire

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DigestSize is the trailer digest length (SHA-256).
const DigestSize = sha256.Size

var ErrBadTrailer = errors.New("wire: malformed trailer")

// Trailer terminates the chunk stream. Wire layout:
//
//	32 bytes: digest of the full plaintext
//	2 bytes: signature length (0 when signing is disabled)
//	N bytes: signature
//
// Whether a signature is expected is decided once, from the header flag,
// not re-checked ad hoc: a signed stream with a zero-length signature is
// malformed, as is an unsigned stream carrying one.
type Trailer struct {
	Digest    []byte
	Signature []byte // nil when signing is disabled
}

// WriteTrailer emits the trailer.
func WriteTrailer(w io.Writer, t Trailer) error {
	if len(t.Digest) != DigestSize {
		return fmt.Errorf("%w: digest length %d", ErrBadTrailer, len(t.Digest))
	}
	buf := make([]byte, 0, DigestSize+2+len(t.Signature))
	buf = append(buf, t.Digest...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(t.Signature)))
	buf = append(buf, t.Signature...)
	_, err := w.Write(buf)
	return err
}

// ReadTrailer reads the trailer. signed must come from the already
// validated header.
func ReadTrailer(r io.Reader, signed bool, lim Limits) (Trailer, error) {
	var fixed [DigestSize + 2]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Trailer{}, err
	}
	t := Trailer{Digest: append([]byte(nil), fixed[:DigestSize]...)}
	sigLen := binary.BigEndian.Uint16(fixed[DigestSize:])
	if !signed {
		if sigLen != 0 {
			return Trailer{}, fmt.Errorf("%w: unexpected signature on unsigned stream", ErrBadTrailer)
		}
		return t, nil
	}
	if sigLen == 0 {
		return Trailer{}, fmt.Errorf("%w: missing signature on signed stream", ErrBadTrailer)
	}
	if sigLen > lim.MaxSignatureLen {
		return Trailer{}, fmt.Errorf("%w: signature length %d", ErrHeaderLimit, sigLen)
	}
	t.Signature = make([]byte, sigLen)
	if _, err := io.ReadFull(r, t.Signature); err != nil {
		return Trailer{}, err
	}
	return t, nil
}
