/*
organization.go - Organization lifecycle and reads

PURPOSE:
  Creation, ownership checks, and the organization read paths. Creation is
  the canonical next-id race: two concurrent creators read the same counter,
  derive the same address, and exactly one wins. The loser re-reads the
  counter and retries at the fresh address.
*/
package vesting

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/warp/vesting-engine/ledger"
)

// maxCreateAttempts bounds next-id retries. Each loss means another creator
// won a counter slot, so more than a few losses in a row signals something
// other than contention.
const maxCreateAttempts = 4

// CreateOrganization registers a new organization owned by the signer and
// returns its assigned id. The id is read from the global counter, so a
// concurrent creation can collide on the derived address; collisions retry
// with a fresh counter read under jittered backoff.
func (s *Service) CreateOrganization(ctx context.Context, owner ledger.Signer, name string) (uint64, ledger.Signature, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, "", ErrEmptyName
	}
	if len(name) > MaxOrgNameLen {
		return 0, "", ErrNameTooLong
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
		nextID := state.TotalOrganizations + 1

		ins, err := s.Addresses.BuildCreateOrganization(owner.PublicKey(), nextID, name)
		if err != nil {
			return 0, "", err
		}
		sig, err := s.Submitter.Submit(ctx, owner, ins)
		if err == nil {
			return nextID, sig, nil
		}

		var rej *ledger.RejectionError
		if !errors.As(err, &rej) || !rej.AccountInUse() {
			return 0, sig, err
		}
		lastErr = err
		s.Log.Warn("organization id contended, retrying with fresh counter",
			zap.Uint64("org_id", nextID), zap.Int("attempt", attempt))

		select {
		case <-ctx.Done():
			return 0, "", ctx.Err()
		case <-time.After(policy.NextBackOff()):
		}
	}
	return 0, "", lastErr
}

// FetchOrganization reads one organization by id.
func (s *Service) FetchOrganization(ctx context.Context, orgID uint64) (*Organization, error) {
	addr, err := s.Addresses.Organization(orgID)
	if err != nil {
		return nil, err
	}
	acct, err := s.fetchAccount(ctx, addr, ErrOrganizationNotFound)
	if err != nil {
		return nil, err
	}
	return DecodeOrganization(acct.Data)
}

// FetchAllOrganizations scans every organization record. The scan is one
// bulk fetch; entries are not a snapshot relative to any other read.
func (s *Service) FetchAllOrganizations(ctx context.Context) ([]*Organization, error) {
	seq, err := s.Client.ScanAccounts(ctx, s.Addresses.ProgramID, DiscOrganization)
	if err != nil {
		return nil, err
	}
	orgs := make([]*Organization, 0, seq.Len())
	for {
		acct, ok := seq.Next()
		if !ok {
			break
		}
		org, err := DecodeOrganization(acct.Data)
		if err != nil {
			s.Log.Warn("skipping undecodable organization record",
				zap.String("address", acct.Address.String()), zap.Error(err))
			continue
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

// FetchOrganizationsByOwner scans organizations and keeps those owned by
// the given identity.
func (s *Service) FetchOrganizationsByOwner(ctx context.Context, owner ledger.PublicKey) ([]*Organization, error) {
	all, err := s.FetchAllOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	owned := all[:0]
	for _, org := range all {
		if org.Owner == owner {
			owned = append(owned, org)
		}
	}
	return owned, nil
}

// IsOrganizationOwner reports whether the identity owns the organization.
// Absent organizations are simply not owned.
func (s *Service) IsOrganizationOwner(ctx context.Context, orgID uint64, identity ledger.PublicKey) (bool, error) {
	org, err := s.FetchOrganization(ctx, orgID)
	if errors.Is(err, ErrOrganizationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return org.Owner == identity, nil
}
