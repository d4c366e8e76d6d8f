// Package quicchan provides a QUIC-backed transfer channel as an
// alternative to tlstcp. Each connection carries one bidirectional
// stream, and that stream carries one protocol run.
package quicchan

import (
	"context"
	"io"
	"net"

	q "github.com/quic-go/quic-go"

	"github.com/marloweh/skiff/skiff/transport/tlstcp"
)

type Listener struct {
	inner *q.Listener
}

func Listen(addr string) (*Listener, error) {
	tlsConf, err := tlstcp.NewServerTLSConfig()
	if err != nil {
		return nil, err
	}
	ln, err := q.ListenAddr(addr, tlsConf, &q.Config{})
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

// Accept waits for the next dialer. The transfer stream is negotiated
// separately via Conn.AcceptSession, so a dialer that never opens its
// stream cannot stall the accept loop.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	c, err := l.inner.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{inner: c}, nil
}

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) AddrString() string {
	if l.inner == nil {
		return ""
	}
	return l.inner.Addr().String()
}

func (l *Listener) Close() error { return l.inner.Close() }

// Conn is one accepted peer connection.
type Conn struct {
	inner q.Connection
}

func (c *Conn) RemoteAddr() net.Addr { return c.inner.RemoteAddr() }

func (c *Conn) Close() error { return c.inner.CloseWithError(0, "") }

// AcceptSession waits for the peer to open its transfer stream.
func (c *Conn) AcceptSession(ctx context.Context) (*Session, error) {
	st, err := c.inner.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{conn: c.inner, stream: st}, nil
}

// Dial connects to addr and opens the transfer stream.
func Dial(ctx context.Context, addr string) (*Session, error) {
	tlsConf, err := tlstcp.NewClientTLSConfig()
	if err != nil {
		return nil, err
	}
	c, err := q.DialAddr(ctx, addr, tlsConf, &q.Config{})
	if err != nil {
		return nil, err
	}
	st, err := c.OpenStreamSync(ctx)
	if err != nil {
		_ = c.CloseWithError(0, "")
		return nil, err
	}
	return &Session{conn: c, stream: st}, nil
}

// Session is the byte channel one protocol run uses.
type Session struct {
	conn   q.Connection
	stream io.ReadWriteCloser
}

func (s *Session) Read(p []byte) (int, error)  { return s.stream.Read(p) }
func (s *Session) Write(p []byte) (int, error) { return s.stream.Write(p) }

// CloseWrite signals end of data to the peer while keeping the read side
// open, so the sender can wait for the receiver's teardown.
func (s *Session) CloseWrite() error { return s.stream.Close() }

// Close tears down the stream and the whole connection.
func (s *Session) Close() error {
	_ = s.stream.Close()
	return s.conn.CloseWithError(0, "")
}
