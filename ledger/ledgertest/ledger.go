/*
Package ledgertest provides an in-memory ledger endpoint for tests.

PURPOSE:
  Implements ledger.Client without a network. Accounts, token balances, and
  signature statuses live in maps; submitted transactions are decoded,
  signature-verified, and dispatched to a pluggable Execute handler that
  plays the role of the deployed program.

FAULT INJECTION:
  - FailSends:      the next N sends fail with a TransportError
  - ConfirmAfterPolls: statuses stay invisible for N polls before resolving,
    which exercises the Pending state and timeout path

This is the testing analog of a real endpoint: it resolves synchronously by
default so domain tests stay fast and deterministic.
*/
package ledgertest

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/mr-tron/base58"

	"github.com/warp/vesting-engine/ledger"
)

// TokenAccount is a custody balance tracked outside the program's records.
type TokenAccount struct {
	Mint     ledger.PublicKey
	Owner    ledger.PublicKey
	Amount   uint64
	Decimals uint8
}

// Ledger is an in-memory ledger.Client.
type Ledger struct {
	mu sync.Mutex

	// Execute plays the deployed program: it receives each decoded
	// instruction and mutates state. A returned error becomes the
	// transaction's rejection reason.
	Execute func(l *Ledger, ins ledger.Instruction) error

	// FailSends makes the next N SendTransaction calls fail with a
	// transport error without recording anything.
	FailSends int

	// ConfirmAfterPolls hides a signature's status for N polls.
	ConfirmAfterPolls int

	accounts map[ledger.PublicKey]*ledger.Account
	tokens   map[ledger.PublicKey]*TokenAccount
	statuses map[ledger.Signature]*ledger.SignatureStatus
	polls    map[ledger.Signature]int
	slot     uint64
}

// New creates an empty in-memory ledger.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[ledger.PublicKey]*ledger.Account),
		tokens:   make(map[ledger.PublicKey]*TokenAccount),
		statuses: make(map[ledger.Signature]*ledger.SignatureStatus),
		polls:    make(map[ledger.Signature]int),
	}
}

// =============================================================================
// STATE HELPERS - used by program handlers and test assertions
// =============================================================================

// SetAccount stores an account record.
func (l *Ledger) SetAccount(addr, owner ledger.PublicKey, data []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[addr] = &ledger.Account{Address: addr, Owner: owner, Lamports: 1, Data: data}
}

// Account returns the stored record, or nil.
func (l *Ledger) Account(addr ledger.PublicKey) *ledger.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accounts[addr]
}

// DeleteAccount removes a record (account closure).
func (l *Ledger) DeleteAccount(addr ledger.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, addr)
}

// SetTokenAccount seeds a custody balance.
func (l *Ledger) SetTokenAccount(addr ledger.PublicKey, acct TokenAccount) {
	l.mu.Lock()
	defer l.mu.Unlock()
	copied := acct
	l.tokens[addr] = &copied
}

// TokenBalance returns a custody balance, or nil.
func (l *Ledger) TokenBalance(addr ledger.PublicKey) *TokenAccount {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.tokens[addr]; ok {
		copied := *t
		return &copied
	}
	return nil
}

// TransferTokens moves base units between custody accounts, creating the
// destination if needed.
func (l *Ledger) TransferTokens(from, to ledger.PublicKey, mint ledger.PublicKey, owner ledger.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	src, ok := l.tokens[from]
	if !ok || src.Amount < amount {
		return fmt.Errorf("insufficient tokens in source account")
	}
	dst, ok := l.tokens[to]
	if !ok {
		dst = &TokenAccount{Mint: mint, Owner: owner, Decimals: src.Decimals}
		l.tokens[to] = dst
	}
	src.Amount -= amount
	dst.Amount += amount
	return nil
}

// =============================================================================
// ledger.Client IMPLEMENTATION
// =============================================================================

func (l *Ledger) GetAccountInfo(_ context.Context, addr ledger.PublicKey) (*ledger.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[addr]
	if !ok {
		return nil, nil
	}
	copied := *acct
	copied.Data = append([]byte(nil), acct.Data...)
	return &copied, nil
}

func (l *Ledger) ScanAccounts(_ context.Context, programID ledger.PublicKey, disc [8]byte) (*ledger.AccountSeq, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ledger.Account
	for _, acct := range l.accounts {
		if acct.Owner == programID && acct.HasDiscriminator(disc) {
			copied := *acct
			copied.Data = append([]byte(nil), acct.Data...)
			out = append(out, copied)
		}
	}
	return ledger.NewAccountSeq(out), nil
}

func (l *Ledger) GetTokenAccountBalance(_ context.Context, addr ledger.PublicKey) (uint64, uint8, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.tokens[addr]
	if !ok {
		return 0, 0, fmt.Errorf("token account %s not found", addr)
	}
	return t.Amount, t.Decimals, nil
}

func (l *Ledger) GetLatestBlockhash(_ context.Context) ([32]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.slot++
	return sha256.Sum256([]byte(fmt.Sprintf("blockhash-%d", l.slot))), nil
}

func (l *Ledger) SendTransaction(_ context.Context, wire []byte) (ledger.Signature, error) {
	l.mu.Lock()
	if l.FailSends > 0 {
		l.FailSends--
		l.mu.Unlock()
		return "", &ledger.TransportError{Method: "sendTransaction", Err: fmt.Errorf("connection reset")}
	}
	l.mu.Unlock()

	tx, err := ledger.DecodeTransaction(wire)
	if err != nil {
		return "", &ledger.RejectionError{Reason: "malformed transaction: " + err.Error()}
	}
	if len(tx.Signatures) == 0 || len(tx.Keys) == 0 {
		return "", &ledger.RejectionError{Reason: "missing signature"}
	}
	feePayer := tx.Keys[0]
	if !ed25519.Verify(ed25519.PublicKey(feePayer[:]), tx.Message, tx.Signatures[0]) {
		return "", &ledger.RejectionError{Reason: "signature verification failure"}
	}
	sig := ledger.Signature(base58.Encode(tx.Signatures[0]))

	l.mu.Lock()
	if _, seen := l.statuses[sig]; seen {
		// Duplicate send of an already-processed payload is a no-op.
		l.mu.Unlock()
		return sig, nil
	}
	l.slot++
	status := &ledger.SignatureStatus{Slot: l.slot, Confirmation: ledger.CommitmentFinalized}
	l.mu.Unlock()

	var execErr error
	for _, ins := range tx.Instructions {
		if l.Execute == nil {
			continue
		}
		if execErr = l.Execute(l, ins); execErr != nil {
			break
		}
	}
	if execErr != nil {
		text := execErr.Error()
		status.Err = &text
	}

	l.mu.Lock()
	l.statuses[sig] = status
	l.mu.Unlock()
	return sig, nil
}

func (l *Ledger) GetSignatureStatus(_ context.Context, sig ledger.Signature) (*ledger.SignatureStatus, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	status, ok := l.statuses[sig]
	if !ok {
		return nil, nil
	}
	if l.polls[sig] < l.ConfirmAfterPolls {
		l.polls[sig]++
		return nil, nil
	}
	copied := *status
	return &copied, nil
}

var _ ledger.Client = (*Ledger)(nil)
