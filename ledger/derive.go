/*
derive.go - Deterministic address derivation

PURPOSE:
  Reproduces, bit for bit, the derivation the remote ledger program performs
  when it maps (namespace, seeds) to an account address. Any divergence here
  silently targets the wrong account or fails on-chain, so this file is the
  single place derivation rules live.

THE DERIVATION:
  candidate = sha256(seed_0 || .. || seed_n || bump || program || marker)

  starting from bump 255 and walking down, the first candidate that is NOT a
  valid curve point wins. Off-curve is the point: the resulting address has
  no private key, so only the deploying program can authorize transfers out
  of it.

SEED ENCODINGS (explicit, platform-independent):
  - numeric ids:  fixed-width little-endian 8 bytes (SeedUint64)
  - identities:   raw 32-byte key material
  - namespaces:   raw ASCII bytes

INVARIANTS:
  - Pure: no I/O, no clock, no randomness
  - Deterministic: same seeds, same program, same address, always
  - Collision-resistant across namespaces: the namespace tag is always the
    first seed

SEE ALSO:
  - vesting/addresses.go: the domain's namespace catalog
*/
package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

const (
	// MaxSeeds and MaxSeedLen mirror the remote runtime's limits.
	MaxSeeds   = 16
	MaxSeedLen = 32
)

// derivationMarker is the domain separator the remote runtime appends.
var derivationMarker = []byte("ProgramDerivedAddress")

// ErrNoViableBump is returned in the astronomically unlikely case that all
// 256 bump candidates land on the curve.
var ErrNoViableBump = errors.New("no viable bump: all derivation candidates on curve")

// SeedUint64 encodes a numeric id seed as fixed-width little-endian bytes.
func SeedUint64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}

// OnCurve reports whether the key is a valid curve point. On-curve keys can
// have private keys and are usable as simple transfer destinations;
// off-curve keys are program-controlled.
func OnCurve(pk PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(pk[:])
	return err == nil
}

// CreateProgramAddress derives the address for an explicit seed list, which
// must already include the bump. It fails if the result lands on the curve.
func CreateProgramAddress(programID PublicKey, seeds ...[]byte) (PublicKey, error) {
	if err := validateSeeds(seeds); err != nil {
		return PublicKey{}, err
	}
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(derivationMarker)

	var out PublicKey
	copy(out[:], h.Sum(nil))
	if OnCurve(out) {
		return PublicKey{}, fmt.Errorf("derived address is on curve")
	}
	return out, nil
}

// FindProgramAddress searches bumps 255..0 for the canonical off-curve
// address of the seed list. The returned bump must be supplied back to the
// program when it re-derives the address on-chain.
func FindProgramAddress(programID PublicKey, seeds ...[]byte) (PublicKey, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return PublicKey{}, 0, err
	}
	if len(seeds) >= MaxSeeds {
		return PublicKey{}, 0, &InvalidSeedError{Reason: "no room for bump seed"}
	}
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(programID, withBump...)
		if err == nil {
			return addr, uint8(bump), nil
		}
	}
	return PublicKey{}, 0, ErrNoViableBump
}

// AssociatedTokenAddress derives the canonical custody account for a
// (owner, mint) pair. Program-derived owners are off-curve, so callers
// holding custody under a derived schedule address must pass
// allowOwnerOffCurve.
func AssociatedTokenAddress(owner, mint PublicKey, allowOwnerOffCurve bool) (PublicKey, error) {
	if !allowOwnerOffCurve && !OnCurve(owner) {
		return PublicKey{}, &InvalidSeedError{Reason: "token account owner is off curve"}
	}
	addr, _, err := FindProgramAddress(AssociatedTokenProgramID,
		owner[:], TokenProgramID[:], mint[:])
	return addr, err
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return &InvalidSeedError{Reason: fmt.Sprintf("%d seeds, max %d", len(seeds), MaxSeeds)}
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return &InvalidSeedError{Reason: fmt.Sprintf("seed %d is %d bytes, max %d", i, len(seed), MaxSeedLen)}
		}
	}
	return nil
}
