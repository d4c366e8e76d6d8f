// Package wire implements the transfer wire format over an ordered byte
// stream: a fixed-layout header, the wrapped content key, a stream of
// length-prefixed encrypted chunks, and a trailer carrying the plaintext
// digest and optional signature.
//
// Every length field is fixed-width big-endian and checked against
// configured maxima before any buffer sized from it is allocated, so a
// malicious peer cannot force the reader to buffer unbounded data.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Magic identifies a transfer stream.
const Magic = uint32(0x534B4631) // "SKF1"

// Version is the current protocol version.
const Version = uint8(1)

// Header flags.
const (
	FlagSigned     = uint8(1 << 0) // trailer carries a sender signature
	FlagCompressed = uint8(1 << 1) // chunks may be LZ4-compressed
)

var (
	ErrBadMagic    = errors.New("wire: bad stream magic")
	ErrBadVersion  = errors.New("wire: unsupported protocol version")
	ErrHeaderLimit = errors.New("wire: header field exceeds configured limit")
	ErrFrameSize   = errors.New("wire: frame exceeds negotiated bound")
)

// Limits bounds every attacker-controllable size in the stream.
type Limits struct {
	MaxFileSize      uint64
	MaxChunkSize     uint32
	MaxNameLen       uint16
	MaxWrappedKeyLen uint16
	MaxSignatureLen  uint16
}

// DefaultLimits returns the limits used when the caller does not set any.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:      1 << 40, // 1 TiB
		MaxChunkSize:     4 * 1024 * 1024,
		MaxNameLen:       1024,
		MaxWrappedKeyLen: 2048, // up to RSA-16384
		MaxSignatureLen:  2048,
	}
}

// Header is the fixed-format metadata preceding the chunk stream.
// Wire layout:
//
//	4 bytes: magic
//	1 byte: version
//	1 byte: flags
//	4 bytes: chunk size
//	8 bytes: file size
//	2 bytes: name length
//	N bytes: name (UTF-8)
type Header struct {
	Version   uint8
	Flags     uint8
	ChunkSize uint32
	FileSize  uint64
	Name      string
}

// Signed reports whether the trailer will carry a signature.
func (h Header) Signed() bool { return h.Flags&FlagSigned != 0 }

// Compressed reports whether chunks in the stream may be compressed.
func (h Header) Compressed() bool { return h.Flags&FlagCompressed != 0 }

// WriteHeader emits the header. The name must fit its 16-bit length
// field; anything longer would be silently truncated into a corrupt
// stream, so it is rejected here.
func WriteHeader(w io.Writer, h Header) error {
	name := []byte(h.Name)
	if len(name) == 0 || len(name) > math.MaxUint16 {
		return fmt.Errorf("%w: name length %d", ErrHeaderLimit, len(name))
	}
	buf := make([]byte, 0, 20+len(name))
	buf = binary.BigEndian.AppendUint32(buf, Magic)
	buf = append(buf, h.Version, h.Flags)
	buf = binary.BigEndian.AppendUint32(buf, h.ChunkSize)
	buf = binary.BigEndian.AppendUint64(buf, h.FileSize)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(name)))
	buf = append(buf, name...)
	_, err := w.Write(buf)
	return err
}

// ReadHeader parses and validates a header. Declared sizes are checked
// against lim before the name buffer is allocated.
func ReadHeader(r io.Reader, lim Limits) (Header, error) {
	var fixed [20]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return Header{}, err
	}
	if binary.BigEndian.Uint32(fixed[0:4]) != Magic {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Version:   fixed[4],
		Flags:     fixed[5],
		ChunkSize: binary.BigEndian.Uint32(fixed[6:10]),
		FileSize:  binary.BigEndian.Uint64(fixed[10:18]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrBadVersion, h.Version)
	}
	if h.ChunkSize == 0 || h.ChunkSize > lim.MaxChunkSize {
		return Header{}, fmt.Errorf("%w: chunk size %d", ErrHeaderLimit, h.ChunkSize)
	}
	if h.FileSize > lim.MaxFileSize {
		return Header{}, fmt.Errorf("%w: file size %d", ErrHeaderLimit, h.FileSize)
	}
	nameLen := binary.BigEndian.Uint16(fixed[18:20])
	if nameLen == 0 || nameLen > lim.MaxNameLen {
		return Header{}, fmt.Errorf("%w: name length %d", ErrHeaderLimit, nameLen)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return Header{}, err
	}
	h.Name = string(name)
	return h, nil
}

// WriteWrappedKey emits the wrapped content key record: u16 length || blob.
func WriteWrappedKey(w io.Writer, blob []byte) error {
	buf := make([]byte, 0, 2+len(blob))
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(blob)))
	buf = append(buf, blob...)
	_, err := w.Write(buf)
	return err
}

// ReadWrappedKey reads the wrapped content key record.
func ReadWrappedKey(r io.Reader, lim Limits) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	if n == 0 || n > lim.MaxWrappedKeyLen {
		return nil, fmt.Errorf("%w: wrapped key length %d", ErrHeaderLimit, n)
	}
	blob := make([]byte, n)
	if _, err := io.ReadFull(r, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// WriteChunk emits one sealed chunk frame: u32 length || ciphertext.
func WriteChunk(w io.Writer, ciphertext []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(ciphertext)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(ciphertext)
	return err
}

// ReadChunk reads one sealed chunk frame. A frame whose declared length
// exceeds maxFrame is rejected without reading its body.
func ReadChunk(r io.Reader, maxFrame uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 || n > maxFrame {
		return nil, fmt.Errorf("%w: chunk frame length %d", ErrFrameSize, n)
	}
	ciphertext := make([]byte, n)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return nil, err
	}
	return ciphertext, nil
}
