package skiff

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/marloweh/skiff/skiff/transfer"
	"github.com/marloweh/skiff/skiff/transport/tlstcp"
)

var ErrNotListening = errors.New("skiff: host is not listening")

// Host is a high-level helper that combines the TLS channel provider with
// transfer sessions. It intentionally stays small so applications can swap
// in their own transport or sink policy.
type Host struct {
	Key       *rsa.PrivateKey // local key: unwraps content keys, signs digests
	VerifyKey *rsa.PublicKey  // expected sender key for signed streams (may be nil)
	Options   transfer.Options

	listener *tlstcp.Listener
}

func NewHost(key *rsa.PrivateKey, opts transfer.Options) *Host {
	return &Host{Key: key, Options: opts}
}

func (h *Host) Listen(addr string) error {
	ln, err := tlstcp.Listen(addr)
	if err != nil {
		return err
	}
	h.listener = ln
	return nil
}

func (h *Host) ListenAddr() string {
	if h.listener == nil {
		return ""
	}
	return h.listener.AddrString()
}

func (h *Host) Close() error {
	if h.listener == nil {
		return nil
	}
	return h.listener.Close()
}

// Accept waits for the next sender connection. Each connection carries one
// transfer session; sessions share no state and may run concurrently.
func (h *Host) Accept() (net.Conn, error) {
	if h.listener == nil {
		return nil, ErrNotListening
	}
	return h.listener.Accept()
}

// Receive runs one receiver session on conn, committing the verified file
// into outDir. The connection is closed when the session ends.
func (h *Host) Receive(ctx context.Context, conn net.Conn, outDir string) (transfer.Result, error) {
	defer conn.Close()
	recv := transfer.NewReceiver(h.Key, h.VerifyKey, h.Options)
	return recv.Receive(ctx, conn, transfer.DirSink(outDir))
}

// SendFile dials addr and sends the file at path, wrapping the content key
// under peerPub. The host's private key signs the digest when signing is
// enabled in Options.
func (h *Host) SendFile(ctx context.Context, addr, path string, peerPub *rsa.PublicKey) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("skiff: %s is a directory", path)
	}

	conn, err := tlstcp.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	sender := transfer.NewSender(peerPub, h.Key, h.Options)
	return sender.Send(ctx, conn, info.Name(), uint64(info.Size()), f)
}
