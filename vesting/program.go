/*
program.go - One-time program initialization
*/
package vesting

import (
	"context"
	"errors"

	"github.com/warp/vesting-engine/ledger"
)

// InitializeProgram creates the program state singleton with the signer as
// admin. Running it twice returns ErrAlreadyInitialized: the fast path is a
// local precheck, and the ledger's address collision backstops the race.
func (s *Service) InitializeProgram(ctx context.Context, admin ledger.Signer) (ledger.Signature, error) {
	if _, err := s.fetchState(ctx); err == nil {
		return "", ErrAlreadyInitialized
	} else if !errors.Is(err, ErrNotInitialized) {
		return "", err
	}

	ins, err := s.Addresses.BuildInitializeProgram(admin.PublicKey())
	if err != nil {
		return "", err
	}
	sig, err := s.Submitter.Submit(ctx, admin, ins)
	if err != nil {
		var rej *ledger.RejectionError
		if errors.As(err, &rej) && rej.AccountInUse() {
			return sig, ErrAlreadyInitialized
		}
		return sig, err
	}
	return sig, nil
}

// ProgramStats reads the global counters off the singleton.
func (s *Service) ProgramStats(ctx context.Context) (*DashboardStats, error) {
	state, err := s.fetchState(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		TotalOrganizations:    state.TotalOrganizations,
		TotalEmployees:        state.TotalEmployees,
		TotalVestingSchedules: state.TotalVestingSchedules,
	}, nil
}
