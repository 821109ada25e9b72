/*
instructions.go - Instruction builders

PURPOSE:
  Assembles each program invocation with its FULL account list. Every
  address is derived explicitly right here; nothing is left for a framework
  to resolve. Building is pure: no network call happens until the
  instruction reaches the submit state machine.

DATA LAYOUT:
  method discriminator (8 bytes) followed by the arguments in declaration
  order, encoded with the explicit wire codec.
*/
package vesting

import (
	"github.com/warp/vesting-engine/ledger"
)

// Method discriminators.
var (
	methodInitializeProgram         = ledger.InstructionDiscriminator("initialize_program")
	methodCreateOrganization        = ledger.InstructionDiscriminator("create_organization")
	methodJoinOrganization          = ledger.InstructionDiscriminator("join_organization")
	methodInitializeVestingSchedule = ledger.InstructionDiscriminator("initialize_vesting_schedule")
	methodClaimTokens               = ledger.InstructionDiscriminator("claim_tokens")
	methodRevokeVesting             = ledger.InstructionDiscriminator("revoke_vesting")
	methodRemoveEmployeeFromOrg     = ledger.InstructionDiscriminator("remove_employee_from_org")
)

// BuildInitializeProgram creates the one-time program state singleton.
func (a Addresses) BuildInitializeProgram(admin ledger.PublicKey) (ledger.Instruction, error) {
	state, err := a.ProgramState()
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: a.ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableMeta(state),
			ledger.SignerMeta(admin),
			ledger.Meta(ledger.SystemProgramID),
		},
		Data: ledger.NewEncoder().Discriminator(methodInitializeProgram).Bytes(),
	}, nil
}

// BuildCreateOrganization registers an organization at the address derived
// from nextOrgID. The id is advisory; the program assigns counter+1 and the
// derivation must agree or the creation collides.
func (a Addresses) BuildCreateOrganization(owner ledger.PublicKey, nextOrgID uint64, name string) (ledger.Instruction, error) {
	state, err := a.ProgramState()
	if err != nil {
		return ledger.Instruction{}, err
	}
	org, err := a.Organization(nextOrgID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: a.ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableMeta(state),
			ledger.WritableMeta(org),
			ledger.SignerMeta(owner),
			ledger.Meta(ledger.SystemProgramID),
		},
		Data: ledger.NewEncoder().Discriminator(methodCreateOrganization).String(name).Bytes(),
	}, nil
}

// BuildJoinOrganization self-registers an identity into an organization.
func (a Addresses) BuildJoinOrganization(employeeSigner ledger.PublicKey, orgID uint64, name, position string) (ledger.Instruction, error) {
	state, err := a.ProgramState()
	if err != nil {
		return ledger.Instruction{}, err
	}
	org, err := a.Organization(orgID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	employee, err := a.Employee(employeeSigner, orgID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: a.ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableMeta(state),
			ledger.WritableMeta(org),
			ledger.WritableMeta(employee),
			ledger.SignerMeta(employeeSigner),
			ledger.Meta(ledger.SystemProgramID),
		},
		Data: ledger.NewEncoder().
			Discriminator(methodJoinOrganization).
			Uint64(orgID).
			String(name).
			String(position).
			Bytes(),
	}, nil
}

// ScheduleParams are the arguments of a vesting schedule creation.
type ScheduleParams struct {
	OrgID       uint64
	Employee    ledger.PublicKey
	TokenMint   ledger.PublicKey
	TotalAmount uint64
	StartTime   int64
	CliffTime   int64
	EndTime     int64
	Revocable   bool
}

// BuildInitializeVestingSchedule creates and funds a schedule at the address
// derived from nextScheduleID.
func (a Addresses) BuildInitializeVestingSchedule(employer ledger.PublicKey, nextScheduleID uint64, p ScheduleParams) (ledger.Instruction, error) {
	state, err := a.ProgramState()
	if err != nil {
		return ledger.Instruction{}, err
	}
	org, err := a.Organization(p.OrgID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	employee, err := a.Employee(p.Employee, p.OrgID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	schedule, err := a.Schedule(p.OrgID, p.Employee, p.TokenMint, nextScheduleID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	vault, err := a.Vault(schedule, p.TokenMint)
	if err != nil {
		return ledger.Instruction{}, err
	}
	employerTokens, err := a.WalletTokenAccount(employer, p.TokenMint)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: a.ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableMeta(state),
			ledger.WritableMeta(org),
			ledger.WritableMeta(employee),
			ledger.WritableMeta(schedule),
			ledger.WritableMeta(vault),
			ledger.WritableMeta(employerTokens),
			ledger.Meta(p.TokenMint),
			ledger.SignerMeta(employer),
			ledger.Meta(ledger.TokenProgramID),
			ledger.Meta(ledger.SystemProgramID),
			ledger.Meta(ledger.RentSysvarID),
		},
		Data: ledger.NewEncoder().
			Discriminator(methodInitializeVestingSchedule).
			Uint64(p.OrgID).
			Uint64(p.TotalAmount).
			Int64(p.StartTime).
			Int64(p.CliffTime).
			Int64(p.EndTime).
			Bool(p.Revocable).
			Bytes(),
	}, nil
}

// BuildClaimTokens pays out whatever the program computes as claimable at
// execution time. No amount travels with the instruction.
func (a Addresses) BuildClaimTokens(employee ledger.PublicKey, schedule, mint ledger.PublicKey) (ledger.Instruction, error) {
	vault, err := a.Vault(schedule, mint)
	if err != nil {
		return ledger.Instruction{}, err
	}
	employeeTokens, err := a.WalletTokenAccount(employee, mint)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: a.ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableMeta(schedule),
			ledger.WritableMeta(vault),
			ledger.WritableMeta(employeeTokens),
			ledger.SignerMeta(employee),
			ledger.Meta(ledger.TokenProgramID),
		},
		Data: ledger.NewEncoder().Discriminator(methodClaimTokens).Bytes(),
	}, nil
}

// BuildRevokeVesting stops accrual and returns unvested funds to the
// employer's token account.
func (a Addresses) BuildRevokeVesting(employer ledger.PublicKey, schedule, mint ledger.PublicKey) (ledger.Instruction, error) {
	vault, err := a.Vault(schedule, mint)
	if err != nil {
		return ledger.Instruction{}, err
	}
	employerTokens, err := a.WalletTokenAccount(employer, mint)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: a.ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableMeta(schedule),
			ledger.WritableMeta(vault),
			ledger.WritableMeta(employerTokens),
			ledger.SignerMeta(employer),
			ledger.Meta(ledger.TokenProgramID),
		},
		Data: ledger.NewEncoder().Discriminator(methodRevokeVesting).Bytes(),
	}, nil
}

// BuildRemoveEmployee removes an employee record; owner-only.
func (a Addresses) BuildRemoveEmployee(owner ledger.PublicKey, orgID uint64, employee ledger.PublicKey) (ledger.Instruction, error) {
	org, err := a.Organization(orgID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	employeeAddr, err := a.Employee(employee, orgID)
	if err != nil {
		return ledger.Instruction{}, err
	}
	return ledger.Instruction{
		ProgramID: a.ProgramID,
		Accounts: []ledger.AccountMeta{
			ledger.WritableMeta(org),
			ledger.WritableMeta(employeeAddr),
			ledger.SignerMeta(owner),
		},
		Data: ledger.NewEncoder().Discriminator(methodRemoveEmployeeFromOrg).Uint64(orgID).Bytes(),
	}, nil
}
