/*
errors.go - Centralized error types for the vesting domain

PURPOSE:
  All domain-level errors in one place. Validation errors are rejected
  before any network call; ledger rejections and confirmation timeouts pass
  through from the protocol layer unchanged (see ledger/errors.go).

CATEGORIES:
  1. Validation - bad local input, never reaches the network
  2. Not-found  - reads that located no record (explicit absent results)
  3. Authorization - the signer is not the actor the operation requires

USAGE:
  if errors.Is(err, vesting.ErrNotRevocable) {
      // the schedule's revocable flag is false; nothing was submitted
  }
*/
package vesting

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAlreadyInitialized is returned when the program state singleton
	// already exists.
	ErrAlreadyInitialized = errors.New("program already initialized")

	// ErrNotInitialized is returned when an operation needs the program
	// state singleton and it does not exist yet.
	ErrNotInitialized = errors.New("program not initialized")

	// ErrEmptyName rejects blank organization or employee names locally.
	ErrEmptyName = errors.New("name must not be blank")

	// ErrNameTooLong and ErrPositionTooLong mirror the program's caps.
	ErrNameTooLong     = errors.New("name exceeds maximum length")
	ErrPositionTooLong = errors.New("position exceeds maximum length")

	// ErrOrganizationNotFound / ErrEmployeeNotFound / ErrScheduleNotFound
	// report absent records.
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrScheduleNotFound     = errors.New("vesting schedule not found")

	// ErrAlreadyMember is the address-collision outcome of joining an
	// organization twice with the same identity.
	ErrAlreadyMember = errors.New("identity already holds an employee record in this organization")

	// ErrInvalidTimeParameters rejects schedules that violate
	// start <= cliff <= end.
	ErrInvalidTimeParameters = errors.New("invalid time parameters: want start <= cliff <= end")

	// ErrInvalidTotalAmount rejects zero-value schedules.
	ErrInvalidTotalAmount = errors.New("total amount must be greater than zero")

	// ErrInsufficientFunds is the local fast-fail when the employer custody
	// balance cannot cover the schedule. The ledger re-checks
	// authoritatively.
	ErrInsufficientFunds = errors.New("employer token balance below schedule total")

	// ErrNothingToClaim gates claim submission when the local calculator
	// sees no claimable amount.
	ErrNothingToClaim = errors.New("no tokens claimable yet")

	// ErrNotRevocable is returned before any submission when the
	// schedule's revocable flag is false.
	ErrNotRevocable = errors.New("vesting schedule is not revocable")

	// ErrAlreadyRevoked is returned when the schedule was revoked earlier.
	ErrAlreadyRevoked = errors.New("vesting schedule already revoked")

	// ErrUnauthorized is returned when the signer is not the actor the
	// operation requires (owner, employer, or employee).
	ErrUnauthorized = errors.New("signer not authorized for this operation")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InsufficientFundsError reports the custody shortfall of the local
// precheck.
type InsufficientFundsError struct {
	Available uint64
	Required  uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: available %d, required %d", e.Available, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// IsNotFound reports whether err is one of the domain's absent-record
// results.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrganizationNotFound) ||
		errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrNotInitialized)
}
