// Package transfer orchestrates one hybrid-encrypted file transfer over an
// already-established authenticated channel.
//
// One protocol run moves exactly one file. A session walks
// Init -> KeyExchanged -> Transferring -> Verifying -> Completed, or ends in
// Aborted from any state. Chunks are processed strictly in order (nonces and
// the digest are position-dependent), at most one chunk is resident in
// memory per side, and the receiver commits its output file only after the
// digest and, when enabled, the sender signature have verified. No error is
// retried: chunk authentication and signature failures are security events,
// not transient conditions.
package transfer
