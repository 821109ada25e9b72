/*
service.go - The domain service

PURPOSE:
  Service is the single entry point for every business operation: it wires
  the address catalog, the ledger client, and the submit/confirm state
  machine together. Each operation validates locally, derives every address
  it touches, and only then goes to the network.

CONSISTENCY:
  Reads go through the client at its configured durability level. Writes go
  through the Submitter and are not reported done before finalization.
  Counter reads (next org id, next schedule id) are advisory; the address
  collision on the ledger is the real uniqueness check.
*/
package vesting

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/vesting-engine/ledger"
)

// Service executes vesting domain operations against one deployed program.
type Service struct {
	Addresses Addresses
	Client    ledger.Client
	Submitter *ledger.Submitter
	Log       *zap.Logger
}

// NewService wires a service against one program id and ledger endpoint.
func NewService(client ledger.Client, programID ledger.PublicKey, log *zap.Logger) *Service {
	return &Service{
		Addresses: Addresses{ProgramID: programID},
		Client:    client,
		Submitter: ledger.NewSubmitter(client, log),
		Log:       log,
	}
}

// =============================================================================
// SHARED READS
// =============================================================================

// fetchState reads the program state singleton. Absence means the one-time
// initialization has not run.
func (s *Service) fetchState(ctx context.Context) (*ProgramState, error) {
	addr, err := s.Addresses.ProgramState()
	if err != nil {
		return nil, err
	}
	acct, err := s.Client.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrNotInitialized
	}
	return DecodeProgramState(acct.Data)
}

// fetchAccount reads one account and reports absence with the caller's
// domain sentinel instead of the generic one.
func (s *Service) fetchAccount(ctx context.Context, addr ledger.PublicKey, absent error) (*ledger.Account, error) {
	acct, err := s.Client.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, absent
	}
	return acct, nil
}
