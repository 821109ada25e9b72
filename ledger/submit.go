/*
submit.go - The submit/confirm state machine

PURPOSE:
  Drives a state-changing operation through its lifecycle against an
  asynchronous, possibly-reordered, possibly-failing remote ledger:

    Built -> Signed -> Submitted -> Pending -> Finalized | Rejected

  This is the system's only two-phase protocol and its main source of
  partial-failure complexity.

PARTIAL FAILURE RULES:
  - Between Submitted and a resolved status, a crash or partition leaves the
    outcome UNKNOWN. The caller gets TimeoutError, never a fabricated
    failure, and must re-read authoritative state before acting again.
  - Transport failures during send re-send the SAME signed payload. The
    handle is the signature over the message, so a duplicate send is
    idempotent; rebuilding and re-signing would mint a new handle and risk a
    duplicate financial effect.
  - Cancellation abandons the operation locally. Once submitted, the
    instruction's effect belongs to the ledger alone.

CONFIRMATION:
  Status is polled with exponential backoff until the caller's target
  durability level is reached. "confirmed" gives read-after-write behavior;
  "finalized" is required before a mutation is treated as permanent.
*/
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// OpState is the lifecycle position of one write operation.
type OpState string

const (
	StateBuilt     OpState = "built"
	StateSigned    OpState = "signed"
	StateSubmitted OpState = "submitted"
	StatePending   OpState = "pending"
	StateFinalized OpState = "finalized"
	StateRejected  OpState = "rejected"
)

// Operation is one write's progress through the state machine.
type Operation struct {
	State     OpState
	Signature Signature
	wire      []byte
}

// Submitter executes write operations against a ledger endpoint.
type Submitter struct {
	Client Client
	Log    *zap.Logger

	// Commitment is the durability level that counts as done.
	// Defaults to finalized.
	Commitment Commitment

	// MaxSendAttempts bounds re-sends of the identical signed payload on
	// transport failure.
	MaxSendAttempts int

	// PollInterval is the initial status poll interval.
	PollInterval time.Duration
}

// NewSubmitter creates a Submitter with the durability level financial
// mutations require.
func NewSubmitter(client Client, log *zap.Logger) *Submitter {
	return &Submitter{
		Client:          client,
		Log:             log,
		Commitment:      CommitmentFinalized,
		MaxSendAttempts: 3,
		PollInterval:    400 * time.Millisecond,
	}
}

// Submit runs the full lifecycle and returns the confirmed handle.
func (s *Submitter) Submit(ctx context.Context, signer Signer, instructions ...Instruction) (Signature, error) {
	op, err := s.Do(ctx, signer, instructions...)
	if err != nil {
		return op.Signature, err
	}
	return op.Signature, nil
}

// Do runs the full lifecycle, returning the operation alongside any error
// so callers can inspect where it stopped.
func (s *Submitter) Do(ctx context.Context, signer Signer, instructions ...Instruction) (*Operation, error) {
	op := &Operation{State: StateBuilt}

	// The message embeds a recent blockhash, so assembly is the one read
	// this path performs before signing.
	blockhash, err := s.Client.GetLatestBlockhash(ctx)
	if err != nil {
		return op, err
	}
	msg, err := CompileMessage(signer.PublicKey(), blockhash, instructions)
	if err != nil {
		return op, err
	}
	msgBytes := msg.Serialize()

	// Signed: suspension point. The signing capability may never resolve;
	// the context is the caller's way out.
	sig, err := signer.Sign(ctx, msgBytes)
	if err != nil {
		return op, err
	}
	op.wire, err = SignMessage(msg, sig)
	if err != nil {
		return op, err
	}
	op.State = StateSigned

	// Submitted: transport failures re-send the identical payload.
	for attempt := 1; ; attempt++ {
		handle, err := s.Client.SendTransaction(ctx, op.wire)
		if err == nil {
			op.Signature = handle
			break
		}
		var rej *RejectionError
		if errors.As(err, &rej) {
			op.State = StateRejected
			return op, err
		}
		if attempt >= s.MaxSendAttempts || ctx.Err() != nil {
			return op, err
		}
		s.Log.Warn("resending signed payload",
			zap.Int("attempt", attempt), zap.Error(err))
	}
	op.State = StateSubmitted
	s.Log.Debug("submitted", zap.String("signature", string(op.Signature)))

	// Pending: poll until the target durability level, a rejection, or the
	// caller's deadline. A deadline means UNKNOWN, not failed.
	op.State = StatePending
	if err := s.awaitConfirmation(ctx, op); err != nil {
		return op, err
	}
	op.State = StateFinalized
	s.Log.Info("confirmed",
		zap.String("signature", string(op.Signature)),
		zap.String("commitment", string(s.Commitment)))
	return op, nil
}

func (s *Submitter) awaitConfirmation(ctx context.Context, op *Operation) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.PollInterval
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = 0 // the context is the deadline

	for {
		status, err := s.Client.GetSignatureStatus(ctx, op.Signature)
		switch {
		case err != nil && !IsRetryableRead(err):
			return err
		case err == nil && status != nil && status.Err != nil:
			op.State = StateRejected
			return &RejectionError{Signature: op.Signature, Reason: *status.Err}
		case err == nil && status != nil && status.Confirmation.AtLeast(s.Commitment):
			return nil
		}

		wait := policy.NextBackOff()
		select {
		case <-ctx.Done():
			return &TimeoutError{Signature: op.Signature, Target: s.Commitment}
		case <-time.After(wait):
		}
	}
}
