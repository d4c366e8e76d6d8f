package transfer

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/marloweh/skiff/skiff/wire"
)

// State is the position of a session in its lifecycle.
type State int

const (
	StateInit State = iota
	StateKeyExchanged
	StateTransferring
	StateVerifying
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateKeyExchanged:
		return "KEY_EXCHANGED"
	case StateTransferring:
		return "TRANSFERRING"
	case StateVerifying:
		return "VERIFYING"
	case StateCompleted:
		return "COMPLETED"
	case StateAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrChannelClosed    = errors.New("transfer: channel closed")
	ErrDigestMismatch   = errors.New("transfer: content digest mismatch")
	ErrMissingVerifyKey = errors.New("transfer: signed stream but no sender public key configured")
	ErrUnsignedStream   = errors.New("transfer: unsigned stream rejected by policy")
	ErrSizeMismatch     = errors.New("transfer: content length differs from declared size")
	ErrSessionConsumed  = errors.New("transfer: session already ran")
)

// channelErr maps transport-level failures onto ErrChannelClosed so callers
// can distinguish a dropped peer from a protocol violation.
func channelErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	switch {
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", ErrChannelClosed, err)
	}
	return err
}

// DefaultChunkSize is used when the caller does not pick one.
const DefaultChunkSize = 64 * 1024

// Options configures a session.
type Options struct {
	ChunkSize        uint32      // sender-side chunk size (default 64 KiB)
	Sign             bool        // sender: attach a signature over the digest
	Compress         bool        // sender: LZ4-compress chunks that shrink
	RequireSignature bool        // receiver: reject unsigned streams
	Limits           wire.Limits // receiver-side bounds (zero value: defaults)
}

func (o Options) withDefaults() Options {
	if o.ChunkSize == 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Limits == (wire.Limits{}) {
		o.Limits = wire.DefaultLimits()
	}
	return o
}
