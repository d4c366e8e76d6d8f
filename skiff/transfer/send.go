package transfer

import (
	"bytes"
	"context"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/marloweh/skiff/skiff/envelope"
	"github.com/marloweh/skiff/skiff/integrity"
	"github.com/marloweh/skiff/skiff/wire"
)

var ErrNoSigningKey = errors.New("transfer: signing enabled but no private key supplied")

// Sender drives the sending side of one transfer session.
type Sender struct {
	peerPub *rsa.PublicKey
	signKey *rsa.PrivateKey
	opts    Options
	state   State
}

// NewSender prepares a sender session. peerPub is the receiver's wrapping
// key; signKey may be nil unless opts.Sign is set.
func NewSender(peerPub *rsa.PublicKey, signKey *rsa.PrivateKey, opts Options) *Sender {
	return &Sender{
		peerPub: peerPub,
		signKey: signKey,
		opts:    opts.withDefaults(),
		state:   StateInit,
	}
}

// State returns the session state.
func (s *Sender) State() State { return s.state }

func (s *Sender) abort(err error) error {
	s.state = StateAborted
	return err
}

// Send streams one file over the channel. size must be the exact content
// length; the reader is consumed incrementally, one chunk at a time.
func (s *Sender) Send(ctx context.Context, channel io.Writer, name string, size uint64, content io.Reader) error {
	if s.state != StateInit {
		return ErrSessionConsumed
	}
	if s.opts.Sign && s.signKey == nil {
		return s.abort(ErrNoSigningKey)
	}

	key, err := envelope.NewContentKey()
	if err != nil {
		return s.abort(err)
	}
	defer envelope.Zero(key)

	blob, err := envelope.Wrap(key, s.peerPub)
	if err != nil {
		return s.abort(err)
	}
	sealer, err := envelope.NewSealer(key)
	if err != nil {
		return s.abort(err)
	}
	s.state = StateKeyExchanged

	var flags uint8
	if s.opts.Sign {
		flags |= wire.FlagSigned
	}
	if s.opts.Compress {
		flags |= wire.FlagCompressed
	}
	header := wire.Header{
		Version:   wire.Version,
		Flags:     flags,
		ChunkSize: s.opts.ChunkSize,
		FileSize:  size,
		Name:      name,
	}
	if err := wire.WriteHeader(channel, header); err != nil {
		return s.abort(channelErr(err))
	}
	if err := wire.WriteWrappedKey(channel, blob); err != nil {
		return s.abort(channelErr(err))
	}
	s.state = StateTransferring

	ad := headerAD(header)
	digest := integrity.NewDigest()
	buf := make([]byte, s.opts.ChunkSize)

	var index, sent uint64
	for sent < size {
		select {
		case <-ctx.Done():
			return s.abort(ctx.Err())
		default:
		}

		want := uint64(s.opts.ChunkSize)
		if remaining := size - sent; remaining < want {
			want = remaining
		}
		if _, err := io.ReadFull(content, buf[:want]); err != nil {
			return s.abort(fmt.Errorf("%w: %v", ErrSizeMismatch, err))
		}
		digest.Write(buf[:want])

		payload := packPayload(buf[:want], s.opts.Compress)
		if err := wire.WriteChunk(channel, sealer.Seal(payload, ad, index)); err != nil {
			return s.abort(channelErr(err))
		}
		sent += want
		index++
	}
	s.state = StateVerifying

	trailer := wire.Trailer{Digest: digest.Sum()}
	if s.opts.Sign {
		trailer.Signature, err = integrity.Sign(trailer.Digest, s.signKey)
		if err != nil {
			return s.abort(err)
		}
	}
	if err := wire.WriteTrailer(channel, trailer); err != nil {
		return s.abort(channelErr(err))
	}
	s.state = StateCompleted
	return nil
}

// headerAD binds every chunk to the header it was announced under: the
// additional data is the digest of the serialized header, so a chunk sealed
// for one session cannot be replayed under different metadata.
func headerAD(h wire.Header) []byte {
	var buf bytes.Buffer
	_ = wire.WriteHeader(&buf, h)
	sum := sha256.Sum256(buf.Bytes())
	return sum[:]
}
