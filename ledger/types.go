/*
Package ledger implements the client-side protocol layer for talking to a
remote, eventually-finalized ledger.

PURPOSE:
  This package contains everything that must be bit-for-bit compatible with
  the remote ledger: deterministic address derivation, explicit byte
  encodings for account and instruction payloads, transaction assembly and
  signing, and the submit/confirm state machine. Domain packages compose
  these primitives into business operations.

KEY CONCEPTS IN THIS FILE (types.go):
  - PublicKey: a 32-byte account identity, rendered as base58 text
  - Signature: a transaction handle returned by the ledger on submission
  - Commitment: the durability level of a submitted change
  - Account: a ledger-resident record fetched by address

DESIGN PRINCIPLES:
  1. Addresses are always recomputed from seeds, never trusted from caches
  2. All wire encodings are explicit; nothing depends on reflection or
     platform defaults
  3. The remote ledger is the sole source of truth; local values are
     advisory

SEE ALSO:
  - derive.go: Deterministic address derivation
  - submit.go: The submit/confirm state machine
  - client.go: Read/write RPC surface
*/
package ledger

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
)

// =============================================================================
// PUBLIC KEY - 32-byte account identity
// =============================================================================

// PublicKey identifies an account on the ledger. It is either an ed25519
// wallet key (on-curve) or a program-derived address (off-curve).
type PublicKey [32]byte

// ParsePublicKey decodes a base58-encoded public key.
// Malformed identities fail with InvalidSeedError because they cannot
// participate in address derivation.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, &InvalidSeedError{Reason: fmt.Sprintf("malformed identity %q: %v", s, err)}
	}
	if len(raw) != 32 {
		return PublicKey{}, &InvalidSeedError{Reason: fmt.Sprintf("identity %q is %d bytes, want 32", s, len(raw))}
	}
	var pk PublicKey
	copy(pk[:], raw)
	return pk, nil
}

// MustPublicKey parses a base58 key and panics on failure.
// Reserved for package-level constants that are known to be valid.
func MustPublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (pk PublicKey) String() string      { return base58.Encode(pk[:]) }
func (pk PublicKey) Bytes() []byte       { return pk[:] }
func (pk PublicKey) IsZero() bool        { return pk == PublicKey{} }
func (pk PublicKey) Equal(o PublicKey) bool { return pk == o }

// =============================================================================
// WELL-KNOWN PROGRAM ADDRESSES
// =============================================================================

var (
	// SystemProgramID owns plain wallet accounts and account creation.
	SystemProgramID = MustPublicKey("11111111111111111111111111111111")

	// TokenProgramID owns all token custody accounts.
	TokenProgramID = MustPublicKey("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// AssociatedTokenProgramID derives the canonical token account for a
	// (wallet, mint) pair.
	AssociatedTokenProgramID = MustPublicKey("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")

	// RentSysvarID is the rent parameter sysvar referenced by account
	// creation instructions.
	RentSysvarID = MustPublicKey("SysvarRent111111111111111111111111111111111")
)

// =============================================================================
// SIGNATURE - transaction handle
// =============================================================================

// Signature is the provisional handle the ledger returns on submission.
// It is the base58 form of the fee payer's signature over the message.
type Signature string

func (s Signature) IsZero() bool { return s == "" }

// =============================================================================
// COMMITMENT - durability levels
// =============================================================================

// Commitment names how final a submitted change is considered.
// The levels are strictly ordered: processed < confirmed < finalized.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// AtLeast reports whether c satisfies the target durability level.
func (c Commitment) AtLeast(target Commitment) bool {
	return c.rank() >= target.rank()
}

func (c Commitment) rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	}
	return 0
}

// =============================================================================
// ACCOUNT - a ledger-resident record
// =============================================================================

// Account is the raw state of a ledger account at read time.
// Data carries the owning program's serialized record, discriminator first.
type Account struct {
	Address  PublicKey
	Owner    PublicKey
	Lamports uint64
	Data     []byte
}

// HasDiscriminator reports whether the account payload starts with the
// given 8-byte record discriminator.
func (a *Account) HasDiscriminator(disc [8]byte) bool {
	return a != nil && len(a.Data) >= 8 && bytes.Equal(a.Data[:8], disc[:])
}

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot         uint64
	Confirmation Commitment
	// Err is the ledger's failure report, nil on success. The text is
	// surfaced verbatim inside RejectionError.
	Err *string
}

// =============================================================================
// KEYPAIR - local ed25519 identity
// =============================================================================

// Keypair is a locally held ed25519 signing identity. It implements Signer.
type Keypair struct {
	pub  PublicKey
	priv ed25519.PrivateKey
}

// NewKeypair generates a fresh random keypair.
func NewKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	var pk PublicKey
	copy(pk[:], pub)
	return &Keypair{pub: pk, priv: priv}, nil
}

// KeypairFromSeed derives a keypair from a 32-byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("keypair seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	var pk PublicKey
	copy(pk[:], priv.Public().(ed25519.PublicKey))
	return &Keypair{pub: pk, priv: priv}, nil
}

func (k *Keypair) PublicKey() PublicKey { return k.pub }
