// Package skiff implements hybrid-encrypted single-file transfer over an
// authenticated channel.
//
// A transfer wraps a fresh ChaCha20-Poly1305 content key under the
// receiver's RSA public key, streams the file as order-bound authenticated
// chunks, and finishes with a plaintext digest plus an optional sender
// signature, all independent of the transport's own encryption. The
// subpackages supply the envelope codec, wire framing, digest/signature
// engine, session orchestration and channel providers; this package ties
// them together into a minimal host.
package skiff
