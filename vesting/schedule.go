/*
schedule.go - Vesting schedule lifecycle

PURPOSE:
  Creation, claiming, and revocation of vesting schedules. Every operation
  validates locally first: invalid time parameters, zero totals, missing
  membership, custody shortfalls, unclaimable or unrevocable schedules all
  fail before a single byte is signed. The program re-validates everything;
  the local checks only save the round trip and the fee.

FUNDS FLOW:
  Creation moves TotalAmount from the employer's token account into the
  schedule's custody vault. Claims drain vault -> employee; revocation
  returns the unvested remainder vault -> employer.
*/
package vesting

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/warp/vesting-engine/ledger"
)

// InitializeVestingSchedule creates and funds a schedule for an existing
// employee and returns its assigned id. The schedule id comes from the
// global counter, so creation shares the next-id collision handling with
// organizations.
func (s *Service) InitializeVestingSchedule(ctx context.Context, employer ledger.Signer, p ScheduleParams) (uint64, ledger.Signature, error) {
	if p.TotalAmount == 0 {
		return 0, "", ErrInvalidTotalAmount
	}
	if p.StartTime > p.CliffTime || p.CliffTime > p.EndTime || p.StartTime >= p.EndTime {
		return 0, "", ErrInvalidTimeParameters
	}

	org, err := s.FetchOrganization(ctx, p.OrgID)
	if err != nil {
		return 0, "", err
	}
	if org.Owner != employer.PublicKey() {
		return 0, "", ErrUnauthorized
	}
	emp, err := s.FetchEmployee(ctx, p.Employee, p.OrgID)
	if err != nil {
		return 0, "", err
	}
	if !emp.Active {
		return 0, "", ErrEmployeeNotFound
	}

	// Custody precheck: the transfer into the vault happens atomically with
	// creation, so a shortfall would reject on-ledger anyway. Failing here
	// gives the caller the exact numbers instead.
	source, err := s.Addresses.WalletTokenAccount(employer.PublicKey(), p.TokenMint)
	if err != nil {
		return 0, "", err
	}
	available, _, err := s.Client.GetTokenAccountBalance(ctx, source)
	if err != nil {
		return 0, "", err
	}
	if available < p.TotalAmount {
		return 0, "", &InsufficientFundsError{Available: available, Required: p.TotalAmount}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 0

	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		state, err := s.fetchState(ctx)
		if err != nil {
			return 0, "", err
		}
		nextID := state.TotalVestingSchedules + 1

		ins, err := s.Addresses.BuildInitializeVestingSchedule(employer.PublicKey(), nextID, p)
		if err != nil {
			return 0, "", err
		}
		sig, err := s.Submitter.Submit(ctx, employer, ins)
		if err == nil {
			return nextID, sig, nil
		}

		var rej *ledger.RejectionError
		if !errors.As(err, &rej) || !rej.AccountInUse() {
			return 0, sig, err
		}
		lastErr = err
		s.Log.Warn("schedule id contended, retrying with fresh counter",
			zap.Uint64("schedule_id", nextID), zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return 0, "", ctx.Err()
		case <-time.After(policy.NextBackOff()):
		}
	}
	return 0, "", lastErr
}

// ClaimTokens pays the signer whatever the program computes as claimable.
// The local calculator gates submission: a schedule with nothing claimable
// never reaches the network.
func (s *Service) ClaimTokens(ctx context.Context, employee ledger.Signer, orgID uint64, mint ledger.PublicKey, scheduleID uint64) (ledger.Signature, error) {
	addr, err := s.Addresses.Schedule(orgID, employee.PublicKey(), mint, scheduleID)
	if err != nil {
		return "", err
	}
	sched, err := s.fetchSchedule(ctx, addr)
	if err != nil {
		return "", err
	}
	if sched.Employee != employee.PublicKey() {
		return "", ErrUnauthorized
	}
	if sched.ClaimableAmount(time.Now().Unix()) == 0 {
		return "", ErrNothingToClaim
	}

	ins, err := s.Addresses.BuildClaimTokens(employee.PublicKey(), addr, mint)
	if err != nil {
		return "", err
	}
	return s.Submitter.Submit(ctx, employee, ins)
}

// RevokeVesting stops a schedule's accrual and returns the unvested
// remainder to the employer. Non-revocable and already-revoked schedules
// fail here, before anything is built or signed.
func (s *Service) RevokeVesting(ctx context.Context, employer ledger.Signer, orgID uint64, employee, mint ledger.PublicKey, scheduleID uint64) (ledger.Signature, error) {
	addr, err := s.Addresses.Schedule(orgID, employee, mint, scheduleID)
	if err != nil {
		return "", err
	}
	sched, err := s.fetchSchedule(ctx, addr)
	if err != nil {
		return "", err
	}
	switch {
	case sched.Employer != employer.PublicKey():
		return "", ErrUnauthorized
	case !sched.Revocable:
		return "", ErrNotRevocable
	case sched.Revoked:
		return "", ErrAlreadyRevoked
	}

	ins, err := s.Addresses.BuildRevokeVesting(employer.PublicKey(), addr, mint)
	if err != nil {
		return "", err
	}
	return s.Submitter.Submit(ctx, employer, ins)
}

// FetchVestingSchedule reads one schedule by its composite key.
func (s *Service) FetchVestingSchedule(ctx context.Context, orgID uint64, employee, mint ledger.PublicKey, scheduleID uint64) (*VestingSchedule, error) {
	addr, err := s.Addresses.Schedule(orgID, employee, mint, scheduleID)
	if err != nil {
		return nil, err
	}
	return s.fetchSchedule(ctx, addr)
}

// FetchAllSchedules scans every vesting schedule record.
func (s *Service) FetchAllSchedules(ctx context.Context) ([]*VestingSchedule, error) {
	seq, err := s.Client.ScanAccounts(ctx, s.Addresses.ProgramID, DiscVestingSchedule)
	if err != nil {
		return nil, err
	}
	schedules := make([]*VestingSchedule, 0, seq.Len())
	for {
		acct, ok := seq.Next()
		if !ok {
			break
		}
		sched, err := DecodeVestingSchedule(acct.Data)
		if err != nil {
			s.Log.Warn("skipping undecodable schedule record",
				zap.String("address", acct.Address.String()), zap.Error(err))
			continue
		}
		schedules = append(schedules, sched)
	}
	return schedules, nil
}

// VaultBalance reads the live custody balance of a schedule's vault.
func (s *Service) VaultBalance(ctx context.Context, orgID uint64, employee, mint ledger.PublicKey, scheduleID uint64) (uint64, error) {
	addr, err := s.Addresses.Schedule(orgID, employee, mint, scheduleID)
	if err != nil {
		return 0, err
	}
	vault, err := s.Addresses.Vault(addr, mint)
	if err != nil {
		return 0, err
	}
	amount, _, err := s.Client.GetTokenAccountBalance(ctx, vault)
	return amount, err
}

func (s *Service) fetchSchedule(ctx context.Context, addr ledger.PublicKey) (*VestingSchedule, error) {
	acct, err := s.fetchAccount(ctx, addr, ErrScheduleNotFound)
	if err != nil {
		return nil, err
	}
	return DecodeVestingSchedule(acct.Data)
}
