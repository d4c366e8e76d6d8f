// Package tlstcp provides the default channel for a transfer: an ordered,
// confidential byte stream over TLS 1.3 on TCP. The protocol core only ever
// sees the resulting net.Conn.
package tlstcp

import (
	"context"
	"crypto/tls"
	"net"
)

type Listener struct {
	inner net.Listener
}

// Listen starts a TLS listener with the default self-signed config.
func Listen(addr string) (*Listener, error) {
	tlsConf, err := NewServerTLSConfig()
	if err != nil {
		return nil, err
	}
	return ListenConfig(addr, tlsConf)
}

// ListenConfig starts a TLS listener with a caller-supplied config.
func ListenConfig(addr string, tlsConf *tls.Config) (*Listener, error) {
	ln, err := tls.Listen("tcp", addr, tlsConf)
	if err != nil {
		return nil, err
	}
	return &Listener{inner: ln}, nil
}

func (l *Listener) Accept() (net.Conn, error) { return l.inner.Accept() }

func (l *Listener) Addr() net.Addr { return l.inner.Addr() }

func (l *Listener) AddrString() string {
	if l.inner == nil {
		return ""
	}
	return l.inner.Addr().String()
}

func (l *Listener) Close() error { return l.inner.Close() }

// Dial connects with the default client config.
func Dial(ctx context.Context, addr string) (net.Conn, error) {
	tlsConf, err := NewClientTLSConfig()
	if err != nil {
		return nil, err
	}
	return DialConfig(ctx, addr, tlsConf)
}

// DialConfig connects with a caller-supplied config.
func DialConfig(ctx context.Context, addr string, tlsConf *tls.Config) (net.Conn, error) {
	d := &tls.Dialer{Config: tlsConf}
	return d.DialContext(ctx, "tcp", addr)
}
