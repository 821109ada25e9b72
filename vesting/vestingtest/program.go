/*
Package vestingtest emulates the deployed vesting program for tests.

PURPOSE:
  Program implements the on-ledger semantics of every instruction - id
  assignment, address-collision uniqueness, custody transfers, claim and
  revocation accounting - against a ledgertest.Ledger. Domain and API tests
  plug it in via Install and get end-to-end behavior with no network.

CLOCK:
  The program evaluates vesting at execution time. Tests override Clock to
  pin "now"; the default is the wall clock.

FIDELITY NOTES:
  Rejection reasons use the remote ledger's phrasing where callers match on
  it, most importantly "already in use" for address collisions.
*/
package vestingtest

import (
	"fmt"
	"time"

	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/ledger/ledgertest"
	"github.com/warp/vesting-engine/vesting"
)

// Method discriminators, recomputed here so the emulator dispatches on the
// same bytes the builders emit.
var (
	methodInitializeProgram         = ledger.InstructionDiscriminator("initialize_program")
	methodCreateOrganization        = ledger.InstructionDiscriminator("create_organization")
	methodJoinOrganization          = ledger.InstructionDiscriminator("join_organization")
	methodInitializeVestingSchedule = ledger.InstructionDiscriminator("initialize_vesting_schedule")
	methodClaimTokens               = ledger.InstructionDiscriminator("claim_tokens")
	methodRevokeVesting             = ledger.InstructionDiscriminator("revoke_vesting")
	methodRemoveEmployeeFromOrg     = ledger.InstructionDiscriminator("remove_employee_from_org")
)

// Program emulates one deployed vesting program instance.
type Program struct {
	ID        ledger.PublicKey
	Addresses vesting.Addresses

	// Clock supplies execution time. Defaults to the wall clock.
	Clock func() int64
}

// New creates an emulator for the given program id.
func New(programID ledger.PublicKey) *Program {
	return &Program{
		ID:        programID,
		Addresses: vesting.Addresses{ProgramID: programID},
		Clock:     func() int64 { return time.Now().Unix() },
	}
}

// Install wires the emulator into a test ledger and returns the ledger for
// chaining.
func (p *Program) Install(l *ledgertest.Ledger) *ledgertest.Ledger {
	l.Execute = p.Execute
	return l
}

// Execute dispatches one decoded instruction.
func (p *Program) Execute(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if ins.ProgramID != p.ID {
		return fmt.Errorf("unknown program %s", ins.ProgramID)
	}
	if len(ins.Data) < 8 {
		return fmt.Errorf("missing method discriminator")
	}
	var method [8]byte
	copy(method[:], ins.Data[:8])

	switch method {
	case methodInitializeProgram:
		return p.initializeProgram(l, ins)
	case methodCreateOrganization:
		return p.createOrganization(l, ins)
	case methodJoinOrganization:
		return p.joinOrganization(l, ins)
	case methodInitializeVestingSchedule:
		return p.initializeVestingSchedule(l, ins)
	case methodClaimTokens:
		return p.claimTokens(l, ins)
	case methodRevokeVesting:
		return p.revokeVesting(l, ins)
	case methodRemoveEmployeeFromOrg:
		return p.removeEmployee(l, ins)
	default:
		return fmt.Errorf("unknown method discriminator %x", method)
	}
}

// =============================================================================
// INSTRUCTION HANDLERS
// =============================================================================

// accounts: [programState w, admin ws, system]
func (p *Program) initializeProgram(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if len(ins.Accounts) < 3 {
		return fmt.Errorf("not enough accounts")
	}
	stateAddr := ins.Accounts[0].Key
	if l.Account(stateAddr) != nil {
		return fmt.Errorf("allocate: account %s already in use", stateAddr)
	}
	state := &vesting.ProgramState{Initialized: true, Admin: ins.Accounts[1].Key}
	l.SetAccount(stateAddr, p.ID, state.Encode())
	return nil
}

// accounts: [programState w, organization w, owner ws, system]
func (p *Program) createOrganization(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if len(ins.Accounts) < 4 {
		return fmt.Errorf("not enough accounts")
	}
	d := ledger.NewDecoder(ins.Data)
	d.Discriminator(methodCreateOrganization)
	name := d.String()
	if err := d.Err(); err != nil {
		return err
	}
	if name == "" || len(name) > vesting.MaxOrgNameLen {
		return fmt.Errorf("invalid organization name")
	}

	state, err := p.readState(l, ins.Accounts[0].Key)
	if err != nil {
		return err
	}
	orgAddr := ins.Accounts[1].Key
	if l.Account(orgAddr) != nil {
		return fmt.Errorf("allocate: account %s already in use", orgAddr)
	}

	// The program assigns counter+1; the caller's derivation must agree.
	orgID := state.TotalOrganizations + 1
	expected, err := p.Addresses.Organization(orgID)
	if err != nil {
		return err
	}
	if expected != orgAddr {
		return fmt.Errorf("seeds constraint violated for organization %d", orgID)
	}

	org := &vesting.Organization{
		OrgID:     orgID,
		Name:      name,
		Owner:     ins.Accounts[2].Key,
		CreatedAt: p.Clock(),
		Active:    true,
	}
	l.SetAccount(orgAddr, p.ID, org.Encode())

	state.TotalOrganizations = orgID
	l.SetAccount(ins.Accounts[0].Key, p.ID, state.Encode())
	return nil
}

// accounts: [programState w, organization w, employee w, employeeSigner ws, system]
func (p *Program) joinOrganization(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if len(ins.Accounts) < 5 {
		return fmt.Errorf("not enough accounts")
	}
	d := ledger.NewDecoder(ins.Data)
	d.Discriminator(methodJoinOrganization)
	orgID := d.Uint64()
	name := d.String()
	position := d.String()
	if err := d.Err(); err != nil {
		return err
	}
	if name == "" || len(name) > vesting.MaxEmployeeNameLen || len(position) > vesting.MaxEmployeePositionLen {
		return fmt.Errorf("invalid employee fields")
	}

	state, err := p.readState(l, ins.Accounts[0].Key)
	if err != nil {
		return err
	}
	org, err := p.readOrganization(l, ins.Accounts[1].Key)
	if err != nil {
		return err
	}
	if org.OrgID != orgID || !org.Active {
		return fmt.Errorf("organization %d not joinable", orgID)
	}
	if org.TotalEmployees >= vesting.MaxEmployeesPerOrg {
		return fmt.Errorf("organization %d is full", orgID)
	}

	empAddr := ins.Accounts[2].Key
	if l.Account(empAddr) != nil {
		return fmt.Errorf("allocate: account %s already in use", empAddr)
	}

	emp := &vesting.Employee{
		Employee: ins.Accounts[3].Key,
		Name:     name,
		Position: position,
		OrgID:    orgID,
		JoinedAt: p.Clock(),
		Active:   true,
	}
	l.SetAccount(empAddr, p.ID, emp.Encode())

	org.TotalEmployees++
	l.SetAccount(ins.Accounts[1].Key, p.ID, org.Encode())
	state.TotalEmployees++
	l.SetAccount(ins.Accounts[0].Key, p.ID, state.Encode())
	return nil
}

// accounts: [programState w, organization w, employee w, schedule w, vault w,
//
//	employerTokens w, mint, employer ws, token, system, rent]
func (p *Program) initializeVestingSchedule(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if len(ins.Accounts) < 11 {
		return fmt.Errorf("not enough accounts")
	}
	d := ledger.NewDecoder(ins.Data)
	d.Discriminator(methodInitializeVestingSchedule)
	orgID := d.Uint64()
	total := d.Uint64()
	start := d.Int64()
	cliff := d.Int64()
	end := d.Int64()
	revocable := d.Bool()
	if err := d.Err(); err != nil {
		return err
	}
	if total == 0 {
		return fmt.Errorf("total amount must be greater than zero")
	}
	if start > cliff || cliff > end || start >= end {
		return fmt.Errorf("invalid time parameters")
	}

	state, err := p.readState(l, ins.Accounts[0].Key)
	if err != nil {
		return err
	}
	org, err := p.readOrganization(l, ins.Accounts[1].Key)
	if err != nil {
		return err
	}
	emp, err := p.readEmployee(l, ins.Accounts[2].Key)
	if err != nil {
		return err
	}
	if !emp.Active || emp.OrgID != orgID {
		return fmt.Errorf("employee not active in organization %d", orgID)
	}
	if org.Owner != ins.Accounts[7].Key {
		return fmt.Errorf("signer is not the organization owner")
	}

	schedAddr := ins.Accounts[3].Key
	if l.Account(schedAddr) != nil {
		return fmt.Errorf("allocate: account %s already in use", schedAddr)
	}
	scheduleID := state.TotalVestingSchedules + 1
	mint := ins.Accounts[6].Key
	expected, err := p.Addresses.Schedule(orgID, emp.Employee, mint, scheduleID)
	if err != nil {
		return err
	}
	if expected != schedAddr {
		return fmt.Errorf("seeds constraint violated for schedule %d", scheduleID)
	}

	// Funding transfer is atomic with creation: a shortfall rejects the
	// whole instruction and nothing is written.
	vault := ins.Accounts[4].Key
	source := ins.Accounts[5].Key
	if err := l.TransferTokens(source, vault, mint, schedAddr, total); err != nil {
		return err
	}

	sched := &vesting.VestingSchedule{
		OrgID:       orgID,
		Employer:    ins.Accounts[7].Key,
		Employee:    emp.Employee,
		TokenMint:   mint,
		TotalAmount: total,
		StartTime:   start,
		CliffTime:   cliff,
		EndTime:     end,
		Revocable:   revocable,
		ScheduleID:  scheduleID,
		CreatedAt:   p.Clock(),
	}
	l.SetAccount(schedAddr, p.ID, sched.Encode())

	state.TotalVestingSchedules = scheduleID
	l.SetAccount(ins.Accounts[0].Key, p.ID, state.Encode())
	org.TotalVestingSchedules++
	l.SetAccount(ins.Accounts[1].Key, p.ID, org.Encode())
	emp.TotalVestingSchedules++
	l.SetAccount(ins.Accounts[2].Key, p.ID, emp.Encode())
	return nil
}

// accounts: [schedule w, vault w, employeeTokens w, employee ws, token]
func (p *Program) claimTokens(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if len(ins.Accounts) < 5 {
		return fmt.Errorf("not enough accounts")
	}
	schedAddr := ins.Accounts[0].Key
	sched, err := p.readSchedule(l, schedAddr)
	if err != nil {
		return err
	}
	if sched.Employee != ins.Accounts[3].Key {
		return fmt.Errorf("signer is not the schedule's employee")
	}

	claimable := sched.ClaimableAmount(p.Clock())
	if claimable == 0 {
		return fmt.Errorf("nothing claimable")
	}
	if err := l.TransferTokens(ins.Accounts[1].Key, ins.Accounts[2].Key, sched.TokenMint, sched.Employee, claimable); err != nil {
		return err
	}
	sched.ClaimedAmount += claimable
	l.SetAccount(schedAddr, p.ID, sched.Encode())
	return nil
}

// accounts: [schedule w, vault w, employerTokens w, employer ws, token]
func (p *Program) revokeVesting(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if len(ins.Accounts) < 5 {
		return fmt.Errorf("not enough accounts")
	}
	schedAddr := ins.Accounts[0].Key
	sched, err := p.readSchedule(l, schedAddr)
	if err != nil {
		return err
	}
	switch {
	case sched.Employer != ins.Accounts[3].Key:
		return fmt.Errorf("signer is not the schedule's employer")
	case !sched.Revocable:
		return fmt.Errorf("schedule is not revocable")
	case sched.Revoked:
		return fmt.Errorf("schedule already revoked")
	}

	now := p.Clock()
	unvested := sched.UnvestedAmount(now)
	if unvested > 0 {
		if err := l.TransferTokens(ins.Accounts[1].Key, ins.Accounts[2].Key, sched.TokenMint, sched.Employer, unvested); err != nil {
			return err
		}
	}
	sched.Revoked = true
	sched.RevokeTime = &now
	l.SetAccount(schedAddr, p.ID, sched.Encode())
	return nil
}

// accounts: [organization w, employee w, owner ws]
func (p *Program) removeEmployee(l *ledgertest.Ledger, ins ledger.Instruction) error {
	if len(ins.Accounts) < 3 {
		return fmt.Errorf("not enough accounts")
	}
	d := ledger.NewDecoder(ins.Data)
	d.Discriminator(methodRemoveEmployeeFromOrg)
	orgID := d.Uint64()
	if err := d.Err(); err != nil {
		return err
	}

	org, err := p.readOrganization(l, ins.Accounts[0].Key)
	if err != nil {
		return err
	}
	if org.OrgID != orgID {
		return fmt.Errorf("organization account mismatch")
	}
	if org.Owner != ins.Accounts[2].Key {
		return fmt.Errorf("signer is not the organization owner")
	}
	emp, err := p.readEmployee(l, ins.Accounts[1].Key)
	if err != nil {
		return err
	}
	if emp.OrgID != orgID {
		return fmt.Errorf("employee account mismatch")
	}

	l.DeleteAccount(ins.Accounts[1].Key)
	if org.TotalEmployees > 0 {
		org.TotalEmployees--
	}
	l.SetAccount(ins.Accounts[0].Key, p.ID, org.Encode())
	return nil
}

// =============================================================================
// RECORD ACCESS
// =============================================================================

func (p *Program) readState(l *ledgertest.Ledger, addr ledger.PublicKey) (*vesting.ProgramState, error) {
	acct := l.Account(addr)
	if acct == nil {
		return nil, fmt.Errorf("program state not initialized")
	}
	return vesting.DecodeProgramState(acct.Data)
}

func (p *Program) readOrganization(l *ledgertest.Ledger, addr ledger.PublicKey) (*vesting.Organization, error) {
	acct := l.Account(addr)
	if acct == nil {
		return nil, fmt.Errorf("organization account missing")
	}
	return vesting.DecodeOrganization(acct.Data)
}

func (p *Program) readEmployee(l *ledgertest.Ledger, addr ledger.PublicKey) (*vesting.Employee, error) {
	acct := l.Account(addr)
	if acct == nil {
		return nil, fmt.Errorf("employee account missing")
	}
	return vesting.DecodeEmployee(acct.Data)
}

func (p *Program) readSchedule(l *ledgertest.Ledger, addr ledger.PublicKey) (*vesting.VestingSchedule, error) {
	acct := l.Account(addr)
	if acct == nil {
		return nil, fmt.Errorf("schedule account missing")
	}
	return vesting.DecodeVestingSchedule(acct.Data)
}
