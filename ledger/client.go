/*
client.go - The narrow RPC contract with the remote ledger

PURPOSE:
  Defines the read/write surface domain services use. The remote ledger
  offers per-account reads and an unfiltered bulk scan per entity kind;
  there is no relational query. Reads tolerate skew: two calls are not a
  snapshot.

NOT-FOUND CONTRACT:
  GetAccountInfo returns (nil, nil) for an absent account. Absence is an
  explicit result, not an error; ErrNotFound exists for layers that need to
  wrap it.

SCANS:
  ScanAccounts performs ONE bulk network fetch and returns a lazy, finite,
  non-restartable sequence over the result. Re-iterating requires a fresh
  scan (and may observe different state).

SEE ALSO:
  - rpc.go: the JSON-RPC implementation
  - ledgertest: the in-memory implementation for tests
*/
package ledger

import "context"

// Client is the narrow contract with the remote ledger endpoint.
type Client interface {
	// GetAccountInfo fetches one account. Absent accounts return (nil, nil).
	GetAccountInfo(ctx context.Context, addr PublicKey) (*Account, error)

	// ScanAccounts bulk-fetches every account of one entity kind, selected
	// by owning program and 8-byte record discriminator.
	ScanAccounts(ctx context.Context, programID PublicKey, discriminator [8]byte) (*AccountSeq, error)

	// GetTokenAccountBalance reads a token custody account's balance in raw
	// base units, plus the token's decimal precision.
	GetTokenAccountBalance(ctx context.Context, addr PublicKey) (amount uint64, decimals uint8, err error)

	// GetLatestBlockhash fetches the recent blockhash a message must embed.
	GetLatestBlockhash(ctx context.Context) ([32]byte, error)

	// SendTransaction submits a signed wire payload and returns its handle.
	// Never retried internally; resubmission decisions belong to the
	// submit/confirm state machine.
	SendTransaction(ctx context.Context, wire []byte) (Signature, error)

	// GetSignatureStatus reports the confirmation state of a handle, or
	// (nil, nil) when the ledger has not seen it yet.
	GetSignatureStatus(ctx context.Context, sig Signature) (*SignatureStatus, error)
}

// =============================================================================
// ACCOUNT SEQUENCE - one bulk fetch, iterated once
// =============================================================================

// AccountSeq is a finite, non-restartable sequence of accounts backed by a
// single bulk fetch. Next returns false once exhausted; there is no rewind.
type AccountSeq struct {
	accounts []Account
	pos      int
}

// NewAccountSeq wraps an already-fetched result set.
func NewAccountSeq(accounts []Account) *AccountSeq {
	return &AccountSeq{accounts: accounts}
}

// Next yields the next account, or (nil, false) when the sequence is done.
func (s *AccountSeq) Next() (*Account, bool) {
	if s.pos >= len(s.accounts) {
		return nil, false
	}
	a := &s.accounts[s.pos]
	s.pos++
	return a, true
}

// Len reports the total number of accounts the fetch returned.
func (s *AccountSeq) Len() int { return len(s.accounts) }
