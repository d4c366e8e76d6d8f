package transfer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/marloweh/skiff/skiff/wire"
)

var (
	ErrCompressionFailed   = errors.New("transfer: compression failed")
	ErrDecompressionFailed = errors.New("transfer: decompression failed")
)

// Chunk payload markers. The marker byte is the first byte of the sealed
// plaintext, so it is covered by the chunk's authentication tag.
const (
	payloadRaw  = byte(0)
	payloadLZ4  = byte(1)
	payloadMark = 1 // marker overhead in bytes
)

// compressorPool reuses LZ4 writers to reduce allocations.
var compressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewWriter(nil)
	},
}

// decompressorPool reuses LZ4 readers.
var decompressorPool = sync.Pool{
	New: func() interface{} {
		return lz4.NewReader(nil)
	},
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := compressorPool.Get().(*lz4.Writer)
	defer compressorPool.Put(w)

	w.Reset(&buf)
	_ = w.Apply(lz4.CompressionLevelOption(lz4.Fast))

	if _, err := w.Write(data); err != nil {
		return nil, ErrCompressionFailed
	}
	if err := w.Close(); err != nil {
		return nil, ErrCompressionFailed
	}
	return buf.Bytes(), nil
}

// decompress inflates data, refusing to produce more than max bytes: a
// compressed chunk must never expand past the negotiated chunk size, no
// matter what its frame claims.
func decompress(data []byte, max int) ([]byte, error) {
	r := decompressorPool.Get().(*lz4.Reader)
	defer decompressorPool.Put(r)

	r.Reset(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, int64(max)+1)); err != nil {
		return nil, ErrDecompressionFailed
	}
	if buf.Len() > max {
		return nil, fmt.Errorf("%w: chunk decompresses beyond %d bytes", wire.ErrFrameSize, max)
	}
	return buf.Bytes(), nil
}

// packPayload builds the chunk plaintext: marker byte plus the chunk data,
// LZ4-compressed only when that actually shrinks it.
func packPayload(data []byte, tryCompress bool) []byte {
	if tryCompress {
		compressed, err := compress(data)
		if err == nil && len(compressed) < len(data) {
			out := make([]byte, payloadMark+len(compressed))
			out[0] = payloadLZ4
			copy(out[payloadMark:], compressed)
			return out
		}
	}
	out := make([]byte, payloadMark+len(data))
	out[0] = payloadRaw
	copy(out[payloadMark:], data)
	return out
}

// unpackPayload inverts packPayload. max bounds the recovered chunk.
func unpackPayload(payload []byte, max int) ([]byte, error) {
	if len(payload) < payloadMark {
		return nil, ErrDecompressionFailed
	}
	switch payload[0] {
	case payloadRaw:
		data := payload[payloadMark:]
		if len(data) > max {
			return nil, fmt.Errorf("%w: chunk length %d", wire.ErrFrameSize, len(data))
		}
		return data, nil
	case payloadLZ4:
		return decompress(payload[payloadMark:], max)
	default:
		return nil, ErrDecompressionFailed
	}
}
