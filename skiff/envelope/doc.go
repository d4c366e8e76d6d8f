// Package envelope implements the hybrid encryption layer of a transfer:
// a random per-session content key, RSA-OAEP wrapping of that key under the
// receiver's public key, and ChaCha20-Poly1305 sealing of individual chunks
// with nonces derived deterministically from the chunk index.
//
// The content key is never transmitted in the clear, never persisted and
// never reused across sessions. Nonce uniqueness within a session comes from
// the chunk index; uniqueness across sessions comes from the fresh key.
package envelope
