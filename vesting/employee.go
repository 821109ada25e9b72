/*
employee.go - Employee membership lifecycle and reads

MEMBERSHIP KEY:
  The (identity, orgID) pair derives the employee address, so one identity
  holds at most one employee record per organization. Joining twice
  collides on that address; the collision surfaces as ErrAlreadyMember.
*/
package vesting

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/warp/vesting-engine/ledger"
)

// JoinOrganization self-registers the signer as an employee of the
// organization. The organization must exist; joining twice with the same
// identity fails.
func (s *Service) JoinOrganization(ctx context.Context, employee ledger.Signer, orgID uint64, name, position string) (ledger.Signature, error) {
	name = strings.TrimSpace(name)
	position = strings.TrimSpace(position)
	switch {
	case name == "":
		return "", ErrEmptyName
	case len(name) > MaxEmployeeNameLen:
		return "", ErrNameTooLong
	case len(position) > MaxEmployeePositionLen:
		return "", ErrPositionTooLong
	}

	// Fast local prechecks. The program re-validates both.
	if _, err := s.FetchOrganization(ctx, orgID); err != nil {
		return "", err
	}
	existing, err := s.FetchEmployee(ctx, employee.PublicKey(), orgID)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return "", err
	}
	if existing != nil {
		return "", ErrAlreadyMember
	}

	ins, err := s.Addresses.BuildJoinOrganization(employee.PublicKey(), orgID, name, position)
	if err != nil {
		return "", err
	}
	sig, err := s.Submitter.Submit(ctx, employee, ins)
	if err != nil {
		var rej *ledger.RejectionError
		if errors.As(err, &rej) && rej.AccountInUse() {
			return sig, ErrAlreadyMember
		}
		return sig, err
	}
	return sig, nil
}

// RemoveEmployee removes an employee record. Owner-only: the check runs
// locally before anything is signed, and the program enforces it again.
func (s *Service) RemoveEmployee(ctx context.Context, owner ledger.Signer, orgID uint64, employee ledger.PublicKey) (ledger.Signature, error) {
	org, err := s.FetchOrganization(ctx, orgID)
	if err != nil {
		return "", err
	}
	if org.Owner != owner.PublicKey() {
		return "", ErrUnauthorized
	}
	if _, err := s.FetchEmployee(ctx, employee, orgID); err != nil {
		return "", err
	}

	ins, err := s.Addresses.BuildRemoveEmployee(owner.PublicKey(), orgID, employee)
	if err != nil {
		return "", err
	}
	return s.Submitter.Submit(ctx, owner, ins)
}

// FetchEmployee reads one employee record by (identity, orgID).
func (s *Service) FetchEmployee(ctx context.Context, employee ledger.PublicKey, orgID uint64) (*Employee, error) {
	addr, err := s.Addresses.Employee(employee, orgID)
	if err != nil {
		return nil, err
	}
	acct, err := s.fetchAccount(ctx, addr, ErrEmployeeNotFound)
	if err != nil {
		return nil, err
	}
	return DecodeEmployee(acct.Data)
}

// FetchAllEmployees scans every employee record across all organizations.
func (s *Service) FetchAllEmployees(ctx context.Context) ([]*Employee, error) {
	seq, err := s.Client.ScanAccounts(ctx, s.Addresses.ProgramID, DiscEmployee)
	if err != nil {
		return nil, err
	}
	employees := make([]*Employee, 0, seq.Len())
	for {
		acct, ok := seq.Next()
		if !ok {
			break
		}
		emp, err := DecodeEmployee(acct.Data)
		if err != nil {
			s.Log.Warn("skipping undecodable employee record",
				zap.String("address", acct.Address.String()), zap.Error(err))
			continue
		}
		employees = append(employees, emp)
	}
	return employees, nil
}

// FetchOrganizationEmployees scans employees and keeps the organization's.
func (s *Service) FetchOrganizationEmployees(ctx context.Context, orgID uint64) ([]*Employee, error) {
	all, err := s.FetchAllEmployees(ctx)
	if err != nil {
		return nil, err
	}
	members := all[:0]
	for _, emp := range all {
		if emp.OrgID == orgID {
			members = append(members, emp)
		}
	}
	return members, nil
}

// FetchEmployeeMemberships scans employees and keeps the identity's records
// across every organization it belongs to.
func (s *Service) FetchEmployeeMemberships(ctx context.Context, identity ledger.PublicKey) ([]*Employee, error) {
	all, err := s.FetchAllEmployees(ctx)
	if err != nil {
		return nil, err
	}
	mine := all[:0]
	for _, emp := range all {
		if emp.Employee == identity {
			mine = append(mine, emp)
		}
	}
	return mine, nil
}

// IsEmployeeOfOrganization reports active membership of an identity in an
// organization.
func (s *Service) IsEmployeeOfOrganization(ctx context.Context, identity ledger.PublicKey, orgID uint64) (bool, error) {
	emp, err := s.FetchEmployee(ctx, identity, orgID)
	if errors.Is(err, ErrEmployeeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return emp.Active, nil
}
