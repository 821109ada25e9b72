/*
signer.go - The external signing capability

PURPOSE:
  Write operations suspend while an externally supplied signer authorizes
  the message. For a browser wallet this can hang indefinitely, so signing
  takes a context and must honor cancellation; abandoning the operation
  locally is always possible, but it never retracts anything already
  submitted.

FAILURE MODES:
  ErrUserRejected      the capability refused to sign
  ErrSignerUnavailable the capability cannot be reached
  context errors       the caller gave up waiting
*/
package ledger

import (
	"context"
	"crypto/ed25519"
)

// Signer authorizes a serialized message on behalf of one identity.
type Signer interface {
	// PublicKey is the identity the signature will verify against.
	PublicKey() PublicKey

	// Sign returns the 64-byte signature over msg, or ErrUserRejected /
	// ErrSignerUnavailable. Implementations must return promptly once ctx
	// is done.
	Sign(ctx context.Context, msg []byte) ([]byte, error)
}

// Sign implements Signer for a locally held keypair. It never blocks, but
// still respects an already-cancelled context so callers get uniform
// behavior across local and interactive signers.
func (k *Keypair) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ed25519.Sign(k.priv, msg), nil
}

var _ Signer = (*Keypair)(nil)
