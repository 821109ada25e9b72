/*
Package vesting implements the token-vesting domain on top of the ledger
protocol layer: organizations, employees, cliff+linear vesting schedules,
and the business operations that create and mutate them.

KEY CONCEPTS IN THIS FILE (types.go):
  - ProgramState: the singleton carrying the global counters that assign
    organization and schedule ids
  - Organization / Employee / VestingSchedule: the ledger-resident records
  - Explicit wire codecs for each record, field by field, matching the
    deployed program's layout exactly

ID ASSIGNMENT:
  New ids are previous counter + 1, assigned by the program. Reading a
  counter locally is advisory only; uniqueness is enforced remotely by
  address collision.
*/
package vesting

import (
	"github.com/warp/vesting-engine/ledger"
)

// Record caps enforced locally before submission, mirroring the program.
const (
	MaxOrgNameLen          = 64
	MaxEmployeeNameLen     = 64
	MaxEmployeePositionLen = 64
	MaxEmployeesPerOrg     = 100
)

// Record discriminators, the first 8 bytes of every account payload.
var (
	DiscProgramState    = ledger.AccountDiscriminator("ProgramState")
	DiscOrganization    = ledger.AccountDiscriminator("Organization")
	DiscEmployee        = ledger.AccountDiscriminator("Employee")
	DiscVestingSchedule = ledger.AccountDiscriminator("VestingSchedule")
)

// =============================================================================
// PROGRAM STATE - singleton with the global counters
// =============================================================================

type ProgramState struct {
	Initialized           bool
	TotalOrganizations    uint64
	TotalEmployees        uint64
	TotalVestingSchedules uint64
	Admin                 ledger.PublicKey
}

func (s *ProgramState) Encode() []byte {
	return ledger.NewEncoder().
		Discriminator(DiscProgramState).
		Bool(s.Initialized).
		Uint64(s.TotalOrganizations).
		Uint64(s.TotalEmployees).
		Uint64(s.TotalVestingSchedules).
		PublicKey(s.Admin).
		Bytes()
}

func DecodeProgramState(data []byte) (*ProgramState, error) {
	d := ledger.NewDecoder(data)
	d.Discriminator(DiscProgramState)
	s := &ProgramState{
		Initialized:           d.Bool(),
		TotalOrganizations:    d.Uint64(),
		TotalEmployees:        d.Uint64(),
		TotalVestingSchedules: d.Uint64(),
		Admin:                 d.PublicKey(),
	}
	return s, d.Err()
}

// =============================================================================
// ORGANIZATION
// =============================================================================

type Organization struct {
	OrgID                 uint64
	Name                  string
	Owner                 ledger.PublicKey
	TotalEmployees        uint64
	TotalVestingSchedules uint64
	CreatedAt             int64
	Active                bool
}

func (o *Organization) Encode() []byte {
	return ledger.NewEncoder().
		Discriminator(DiscOrganization).
		Uint64(o.OrgID).
		String(o.Name).
		PublicKey(o.Owner).
		Uint64(o.TotalEmployees).
		Uint64(o.TotalVestingSchedules).
		Int64(o.CreatedAt).
		Bool(o.Active).
		Bytes()
}

func DecodeOrganization(data []byte) (*Organization, error) {
	d := ledger.NewDecoder(data)
	d.Discriminator(DiscOrganization)
	o := &Organization{
		OrgID:                 d.Uint64(),
		Name:                  d.String(),
		Owner:                 d.PublicKey(),
		TotalEmployees:        d.Uint64(),
		TotalVestingSchedules: d.Uint64(),
		CreatedAt:             d.Int64(),
		Active:                d.Bool(),
	}
	return o, d.Err()
}

// =============================================================================
// EMPLOYEE - keyed by (identity, orgID): one record per identity per org
// =============================================================================

type Employee struct {
	Employee              ledger.PublicKey
	Name                  string
	Position              string
	OrgID                 uint64
	JoinedAt              int64
	Active                bool
	TotalVestingSchedules uint64
}

func (e *Employee) Encode() []byte {
	return ledger.NewEncoder().
		Discriminator(DiscEmployee).
		PublicKey(e.Employee).
		String(e.Name).
		String(e.Position).
		Uint64(e.OrgID).
		Int64(e.JoinedAt).
		Bool(e.Active).
		Uint64(e.TotalVestingSchedules).
		Bytes()
}

func DecodeEmployee(data []byte) (*Employee, error) {
	d := ledger.NewDecoder(data)
	d.Discriminator(DiscEmployee)
	e := &Employee{
		Employee:              d.PublicKey(),
		Name:                  d.String(),
		Position:              d.String(),
		OrgID:                 d.Uint64(),
		JoinedAt:              d.Int64(),
		Active:                d.Bool(),
		TotalVestingSchedules: d.Uint64(),
	}
	return e, d.Err()
}

// =============================================================================
// VESTING SCHEDULE
// =============================================================================

type VestingSchedule struct {
	OrgID         uint64
	Employer      ledger.PublicKey
	Employee      ledger.PublicKey
	TokenMint     ledger.PublicKey
	TotalAmount   uint64
	StartTime     int64
	CliffTime     int64
	EndTime       int64
	ClaimedAmount uint64
	Revoked       bool
	Revocable     bool
	RevokeTime    *int64
	ScheduleID    uint64
	CreatedAt     int64
}

func (v *VestingSchedule) Encode() []byte {
	return ledger.NewEncoder().
		Discriminator(DiscVestingSchedule).
		Uint64(v.OrgID).
		PublicKey(v.Employer).
		PublicKey(v.Employee).
		PublicKey(v.TokenMint).
		Uint64(v.TotalAmount).
		Int64(v.StartTime).
		Int64(v.CliffTime).
		Int64(v.EndTime).
		Uint64(v.ClaimedAmount).
		Bool(v.Revoked).
		Bool(v.Revocable).
		OptionInt64(v.RevokeTime).
		Uint64(v.ScheduleID).
		Int64(v.CreatedAt).
		Bytes()
}

func DecodeVestingSchedule(data []byte) (*VestingSchedule, error) {
	d := ledger.NewDecoder(data)
	d.Discriminator(DiscVestingSchedule)
	v := &VestingSchedule{
		OrgID:         d.Uint64(),
		Employer:      d.PublicKey(),
		Employee:      d.PublicKey(),
		TokenMint:     d.PublicKey(),
		TotalAmount:   d.Uint64(),
		StartTime:     d.Int64(),
		CliffTime:     d.Int64(),
		EndTime:       d.Int64(),
		ClaimedAmount: d.Uint64(),
		Revoked:       d.Bool(),
		Revocable:     d.Bool(),
		RevokeTime:    d.OptionInt64(),
		ScheduleID:    d.Uint64(),
		CreatedAt:     d.Int64(),
	}
	return v, d.Err()
}

// =============================================================================
// AGGREGATED VIEWS - shaped for the query surface
// =============================================================================

// VestingInfo is a schedule joined with its employee record and the
// calculator's advisory amounts at view time.
type VestingInfo struct {
	Schedule         VestingSchedule
	ScheduleAddress  ledger.PublicKey
	EmployeeName     string
	EmployeePosition string
	VestedAmount     uint64
	ClaimableAmount  uint64
	UnvestedAmount   uint64
}

// DashboardStats are the counters shown on an organization dashboard.
type DashboardStats struct {
	TotalOrganizations    uint64
	TotalEmployees        uint64
	TotalVestingSchedules uint64
}
