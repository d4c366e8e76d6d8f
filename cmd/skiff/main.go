// Command skiff sends and receives hybrid-encrypted files.
//
//	skiff keygen -out skiff            generate an RSA keypair
//	skiff send -addr host:port FILE    send one file
//	skiff recv                         receive files (configured via env)
package main

import (
	"context"
	"crypto/rsa"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/marloweh/skiff/config"
	"github.com/marloweh/skiff/skiff"
	"github.com/marloweh/skiff/skiff/keys"
	"github.com/marloweh/skiff/skiff/transfer"
	"github.com/marloweh/skiff/skiff/transport/quicchan"
	"github.com/marloweh/skiff/skiff/wire"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "keygen":
		err = runKeygen(os.Args[2:], log)
	case "send":
		err = runSend(os.Args[2:], log)
	case "recv":
		err = runRecv(log)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: skiff keygen|send|recv [flags]")
}

func runKeygen(args []string, log *logrus.Logger) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	out := fs.String("out", "skiff", "output path prefix (writes <out>_key.pem and <out>_pub.pem)")
	bits := fs.Int("bits", 3072, "RSA modulus size")
	_ = fs.Parse(args)

	priv, err := keys.Generate(*bits)
	if err != nil {
		return err
	}
	privPath := *out + "_key.pem"
	pubPath := *out + "_pub.pem"
	if err := keys.SavePrivate(privPath, priv); err != nil {
		return err
	}
	if err := keys.SavePublic(pubPath, &priv.PublicKey); err != nil {
		return err
	}
	fp, err := keys.FingerprintOf(&priv.PublicKey)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"private":     privPath,
		"public":      pubPath,
		"fingerprint": fp.Short(),
	}).Info("keypair generated")
	return nil
}

func runSend(args []string, log *logrus.Logger) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	addr := fs.String("addr", "", "receiver address (host:port)")
	peerPath := fs.String("peer", "", "receiver public key PEM")
	keyPath := fs.String("key", "", "local private key PEM (required with -sign)")
	sign := fs.Bool("sign", false, "sign the content digest")
	compress := fs.Bool("compress", false, "LZ4-compress chunks")
	chunk := fs.Uint("chunk", transfer.DefaultChunkSize, "chunk size in bytes")
	transportName := fs.String("transport", "tls", "channel transport: tls or quic")
	_ = fs.Parse(args)

	if *addr == "" || *peerPath == "" || fs.NArg() != 1 {
		return fmt.Errorf("need -addr, -peer and exactly one file")
	}
	path := fs.Arg(0)

	peerPub, err := keys.LoadPublic(*peerPath)
	if err != nil {
		return fmt.Errorf("load peer key: %w", err)
	}
	host := skiff.NewHost(nil, transfer.Options{
		ChunkSize: uint32(*chunk),
		Sign:      *sign,
		Compress:  *compress,
	})
	if *sign {
		if *keyPath == "" {
			return fmt.Errorf("-sign needs -key")
		}
		if host.Key, err = keys.LoadPrivate(*keyPath); err != nil {
			return fmt.Errorf("load private key: %w", err)
		}
	}

	fp, _ := keys.FingerprintOf(peerPub)
	log.WithFields(logrus.Fields{
		"addr":      *addr,
		"file":      path,
		"peer":      fp.Short(),
		"sign":      *sign,
		"transport": *transportName,
	}).Info("sending")

	ctx := context.Background()
	switch *transportName {
	case "tls":
		err = host.SendFile(ctx, *addr, path, peerPub)
	case "quic":
		err = sendQUIC(ctx, host, *addr, path, peerPub)
	default:
		return fmt.Errorf("unknown transport %q", *transportName)
	}
	if err != nil {
		return err
	}
	log.Info("transfer completed")
	return nil
}

func sendQUIC(ctx context.Context, host *skiff.Host, addr, path string, peerPub *rsa.PublicKey) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	sess, err := quicchan.Dial(ctx, addr)
	if err != nil {
		return err
	}
	defer sess.Close()

	sender := transfer.NewSender(peerPub, host.Key, host.Options)
	if err := sender.Send(ctx, sess, info.Name(), uint64(info.Size()), f); err != nil {
		return err
	}
	_ = sess.CloseWrite()
	// Wait for the receiver to close its side so the connection teardown
	// cannot race the trailer delivery.
	_, _ = io.Copy(io.Discard, sess)
	return nil
}

func runRecv(log *logrus.Logger) error {
	cfg := config.MustLoad()

	priv, err := keys.LoadPrivate(cfg.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("load private key: %w", err)
	}

	lim := wire.DefaultLimits()
	lim.MaxFileSize = cfg.MaxFileSize
	lim.MaxChunkSize = cfg.MaxChunkSize

	host := skiff.NewHost(priv, transfer.Options{
		RequireSignature: cfg.RequireSignature,
		Limits:           lim,
	})
	if cfg.SenderPublicKeyPath != "" {
		if host.VerifyKey, err = keys.LoadPublic(cfg.SenderPublicKeyPath); err != nil {
			return fmt.Errorf("load sender public key: %w", err)
		}
	}

	switch cfg.Transport {
	case "tls":
		return recvTLS(host, cfg, log)
	case "quic":
		return recvQUIC(host, cfg, log)
	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func recvTLS(host *skiff.Host, cfg *config.Config, log *logrus.Logger) error {
	if err := host.Listen(cfg.ListenAddr); err != nil {
		return err
	}
	defer host.Close()
	log.WithField("addr", host.ListenAddr()).Info("listening (tls)")

	for {
		conn, err := host.Accept()
		if err != nil {
			return err
		}
		go func() {
			remote := conn.RemoteAddr().String()
			res, err := host.Receive(context.Background(), conn, cfg.OutDir)
			logResult(log, remote, res, err)
		}()
	}
}

func recvQUIC(host *skiff.Host, cfg *config.Config, log *logrus.Logger) error {
	ln, err := quicchan.Listen(cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer ln.Close()
	log.WithField("addr", ln.AddrString()).Info("listening (quic)")

	ctx := context.Background()
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			return err
		}
		go func() {
			remote := conn.RemoteAddr().String()
			defer conn.Close()
			sess, err := conn.AcceptSession(ctx)
			if err != nil {
				log.WithField("remote", remote).Errorf("accept session: %v", err)
				return
			}
			recv := transfer.NewReceiver(host.Key, host.VerifyKey, host.Options)
			res, err := recv.Receive(ctx, sess, transfer.DirSink(cfg.OutDir))
			logResult(log, remote, res, err)
		}()
	}
}

func logResult(log *logrus.Logger, remote string, res transfer.Result, err error) {
	entry := log.WithField("remote", remote)
	if err != nil {
		entry.Errorf("transfer aborted: %v", err)
		return
	}
	entry.WithFields(logrus.Fields{
		"name":   res.Name,
		"size":   res.Size,
		"signed": res.Signed,
	}).Info("transfer completed")
}
