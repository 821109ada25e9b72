/*
errors.go - Centralized error types for the ledger protocol layer

PURPOSE:
  All protocol-level error types in one place. Domain packages wrap these
  with business context.

ERROR CATEGORIES:
  1. Derivation errors - bad seeds, malformed identities (local, no I/O)
  2. Signing errors    - the external signing capability declined or vanished
  3. Transport errors  - the RPC endpoint was unreachable
  4. Rejections        - the remote program refused the instruction
  5. Timeouts          - confirmation deadline passed with outcome UNKNOWN

THE TIMEOUT CONTRACT:
  ErrConfirmationTimeout means the outcome is unknown, not failed. Callers
  must re-read authoritative state before deciding anything; blindly
  retrying a funds-moving instruction after a timeout can double-spend.

USAGE:
  if errors.Is(err, ledger.ErrConfirmationTimeout) {
      // re-query entity state, do NOT resubmit
  }
  var rej *ledger.RejectionError
  if errors.As(err, &rej) && rej.AccountInUse() {
      // address collision: recompute seeds and retry
  }
*/
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidSeed is returned when address derivation input is malformed.
	ErrInvalidSeed = errors.New("invalid derivation seed")

	// ErrNotFound is returned by reads that target an absent account.
	// Collection reads return empty sequences instead.
	ErrNotFound = errors.New("account not found")

	// ErrUserRejected is returned when the signing capability refused to sign.
	ErrUserRejected = errors.New("signing rejected by user")

	// ErrSignerUnavailable is returned when the signing capability cannot be
	// reached at all.
	ErrSignerUnavailable = errors.New("signer unavailable")

	// ErrConfirmationTimeout is returned when the confirmation deadline
	// passed. The submitted instruction's outcome is UNKNOWN.
	ErrConfirmationTimeout = errors.New("confirmation deadline exceeded, outcome unknown")

	// ErrLedgerRejected is the sentinel behind every RejectionError.
	ErrLedgerRejected = errors.New("instruction rejected by ledger")

	// ErrTransport is the sentinel behind every TransportError.
	ErrTransport = errors.New("ledger endpoint unreachable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidSeedError reports why a derivation input was unusable.
type InvalidSeedError struct {
	Reason string
}

func (e *InvalidSeedError) Error() string { return "invalid seed: " + e.Reason }
func (e *InvalidSeedError) Unwrap() error { return ErrInvalidSeed }

// RejectionError is the remote program's refusal of an instruction,
// surfaced verbatim to the caller.
type RejectionError struct {
	Signature Signature
	Reason    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("ledger rejected %s: %s", e.Signature, e.Reason)
}

func (e *RejectionError) Unwrap() error { return ErrLedgerRejected }

// AccountInUse reports whether the rejection was an address collision on
// account creation. This is how the ledger resolves two clients racing for
// the same derived address: one wins, the other sees this and must
// recompute its seeds from fresh counters.
func (e *RejectionError) AccountInUse() bool {
	return strings.Contains(e.Reason, "already in use") ||
		strings.Contains(e.Reason, "AccountAlreadyExists")
}

// TimeoutError wraps ErrConfirmationTimeout with the submitted handle so the
// caller can keep watching it.
type TimeoutError struct {
	Signature Signature
	Target    Commitment
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("confirmation of %s at %q timed out, outcome unknown", e.Signature, e.Target)
}

func (e *TimeoutError) Unwrap() error { return ErrConfirmationTimeout }

// TransportError wraps an RPC-level failure. Read-only operations retry
// these; write submissions surface them (resubmission of the identical
// signed payload is the only safe retry).
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure on %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return ErrTransport }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryableRead reports whether a read-only operation may retry.
func IsRetryableRead(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsNotFound reports whether the error indicates an absent account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
