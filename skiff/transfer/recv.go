package transfer

import (
	"bytes"
	"context"
	"crypto/rsa"
	"fmt"
	"io"

	"github.com/marloweh/skiff/skiff/envelope"
	"github.com/marloweh/skiff/skiff/integrity"
	"github.com/marloweh/skiff/skiff/wire"
)

// Result describes a completed, verified transfer.
type Result struct {
	Name   string // sanitized base name
	Size   uint64
	Digest []byte
	Signed bool
}

// Receiver drives the receiving side of one transfer session.
type Receiver struct {
	priv      *rsa.PrivateKey
	senderPub *rsa.PublicKey
	opts      Options
	state     State
}

// NewReceiver prepares a receiver session. priv unwraps the content key;
// senderPub verifies signatures on signed streams and may be nil when every
// accepted stream is unsigned.
func NewReceiver(priv *rsa.PrivateKey, senderPub *rsa.PublicKey, opts Options) *Receiver {
	return &Receiver{
		priv:      priv,
		senderPub: senderPub,
		opts:      opts.withDefaults(),
		state:     StateInit,
	}
}

// State returns the session state.
func (r *Receiver) State() State { return r.state }

func (r *Receiver) abort(err error) error {
	r.state = StateAborted
	return err
}

// Receive consumes one transfer from the channel. The sink is opened via
// the factory once the header has been validated, written incrementally,
// and committed only after the digest and signature checks pass; on every
// failure path the partial output is discarded.
func (r *Receiver) Receive(ctx context.Context, channel io.Reader, open SinkFactory) (Result, error) {
	if r.state != StateInit {
		return Result{}, ErrSessionConsumed
	}

	header, err := wire.ReadHeader(channel, r.opts.Limits)
	if err != nil {
		return Result{}, r.abort(channelErr(err))
	}
	if r.opts.RequireSignature && !header.Signed() {
		return Result{}, r.abort(ErrUnsignedStream)
	}
	if header.Signed() && r.senderPub == nil {
		return Result{}, r.abort(ErrMissingVerifyKey)
	}
	name, err := sanitizeName(header.Name)
	if err != nil {
		return Result{}, r.abort(err)
	}

	blob, err := wire.ReadWrappedKey(channel, r.opts.Limits)
	if err != nil {
		return Result{}, r.abort(channelErr(err))
	}
	key, err := envelope.Unwrap(blob, r.priv)
	if err != nil {
		return Result{}, r.abort(err)
	}
	defer envelope.Zero(key)

	sealer, err := envelope.NewSealer(key)
	if err != nil {
		return Result{}, r.abort(err)
	}
	r.state = StateKeyExchanged

	sink, err := open(name, header.FileSize)
	if err != nil {
		return Result{}, r.abort(err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = sink.Discard()
		}
	}()
	r.state = StateTransferring

	ad := headerAD(header)
	digest := integrity.NewDigest()
	// Sealed frame bound: chunk data + payload marker + auth tag.
	maxFrame := header.ChunkSize + payloadMark + uint32(sealer.Overhead())

	var index, received uint64
	for received < header.FileSize {
		select {
		case <-ctx.Done():
			return Result{}, r.abort(ctx.Err())
		default:
		}

		ciphertext, err := wire.ReadChunk(channel, maxFrame)
		if err != nil {
			return Result{}, r.abort(channelErr(err))
		}
		payload, err := sealer.Open(ciphertext, ad, index)
		if err != nil {
			return Result{}, r.abort(err)
		}
		data, err := unpackPayload(payload, int(header.ChunkSize))
		if err != nil {
			return Result{}, r.abort(err)
		}
		if len(data) == 0 || uint64(len(data)) > uint64(header.ChunkSize) ||
			received+uint64(len(data)) > header.FileSize {
			return Result{}, r.abort(fmt.Errorf("%w: chunk overruns negotiated bounds", wire.ErrFrameSize))
		}
		digest.Write(data)
		if _, err := sink.Write(data); err != nil {
			return Result{}, r.abort(err)
		}
		received += uint64(len(data))
		index++
	}
	r.state = StateVerifying

	trailer, err := wire.ReadTrailer(channel, header.Signed(), r.opts.Limits)
	if err != nil {
		return Result{}, r.abort(channelErr(err))
	}
	sum := digest.Sum()
	if !bytes.Equal(sum, trailer.Digest) {
		return Result{}, r.abort(ErrDigestMismatch)
	}
	if header.Signed() {
		if err := integrity.Verify(sum, trailer.Signature, r.senderPub); err != nil {
			return Result{}, r.abort(err)
		}
	}

	if err := sink.Commit(); err != nil {
		return Result{}, r.abort(err)
	}
	committed = true
	r.state = StateCompleted

	return Result{
		Name:   name,
		Size:   header.FileSize,
		Digest: sum,
		Signed: header.Signed(),
	}, nil
}
