/*
addresses.go - The domain's derivation namespace catalog

PURPOSE:
  Every account the deployed program touches is addressed by (namespace,
  seeds, program id). This file is the complete catalog; nothing else in
  the repository composes seeds. Addresses are always recomputed here and
  never read back from caches or user input.

NAMESPACES:
  program_state    []                                  the singleton
  organization     [orgID]                             one per org id
  employee         [identity, orgID]                   one per identity per org
  vesting_schedule [orgID, identity, mint, scheduleID] many per employee
  custody vault    associated token address of (schedule, mint), owner
                   off-curve because the schedule address is derived
*/
package vesting

import (
	"github.com/warp/vesting-engine/ledger"
)

// Namespace tags. These must match the deployed program byte for byte.
const (
	seedProgramState = "program_state"
	seedOrganization = "organization"
	seedEmployee     = "employee"
	seedSchedule     = "vesting_schedule"
)

// DefaultProgramID is the deployed vesting program.
var DefaultProgramID = ledger.MustPublicKey("715ceC5BR6BkE5n3aaQct2N8YsouNJXqLHM1NcCspAha")

// Addresses derives every account address for one deployed program.
type Addresses struct {
	ProgramID ledger.PublicKey
}

// ProgramState derives the singleton's address from the namespace alone.
func (a Addresses) ProgramState() (ledger.PublicKey, error) {
	addr, _, err := ledger.FindProgramAddress(a.ProgramID, []byte(seedProgramState))
	return addr, err
}

// Organization derives the address for one organization id.
func (a Addresses) Organization(orgID uint64) (ledger.PublicKey, error) {
	addr, _, err := ledger.FindProgramAddress(a.ProgramID,
		[]byte(seedOrganization), ledger.SeedUint64(orgID))
	return addr, err
}

// Employee derives the address for an (identity, orgID) pair. The pair is
// the key: one identity holds at most one employee record per organization.
func (a Addresses) Employee(employee ledger.PublicKey, orgID uint64) (ledger.PublicKey, error) {
	addr, _, err := ledger.FindProgramAddress(a.ProgramID,
		[]byte(seedEmployee), employee[:], ledger.SeedUint64(orgID))
	return addr, err
}

// Schedule derives the address for one vesting schedule. The composite key
// allows multiple concurrent schedules per employee per token.
func (a Addresses) Schedule(orgID uint64, employee, mint ledger.PublicKey, scheduleID uint64) (ledger.PublicKey, error) {
	addr, _, err := ledger.FindProgramAddress(a.ProgramID,
		[]byte(seedSchedule),
		ledger.SeedUint64(orgID),
		employee[:],
		mint[:],
		ledger.SeedUint64(scheduleID))
	return addr, err
}

// Vault derives the schedule's token custody account. The owner is the
// schedule address itself, which is off-curve, so the off-curve allowance
// is required.
func (a Addresses) Vault(schedule, mint ledger.PublicKey) (ledger.PublicKey, error) {
	return ledger.AssociatedTokenAddress(schedule, mint, true)
}

// WalletTokenAccount derives a wallet's canonical custody account for a
// mint. Wallets are on-curve; the allowance stays off.
func (a Addresses) WalletTokenAccount(wallet, mint ledger.PublicKey) (ledger.PublicKey, error) {
	return ledger.AssociatedTokenAddress(wallet, mint, false)
}
