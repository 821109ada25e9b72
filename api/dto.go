/*
dto.go - Data Transfer Objects for API responses

PURPOSE:
  Defines the JSON structures for the read-only query surface. These types
  decouple the ledger-resident records from the external API contract:
  addresses render as base58 strings, timestamps as RFC3339, and token
  amounts carry both the raw base-unit integer and a decimal display string.

AMOUNT RENDERING:
  Raw base units are authoritative and travel as strings (uint64 does not
  survive JSON number precision in every client). The display field shifts
  by the mint's decimal precision for humans.

NAMING CONVENTION:
  *DTO: response types returned to clients

SEE ALSO:
  - handlers.go: builds these from vesting.Service reads
*/
package api

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// OrganizationDTO represents an organization record.
type OrganizationDTO struct {
	OrgID                 uint64 `json:"org_id"`
	Name                  string `json:"name"`
	Owner                 string `json:"owner"`
	TotalEmployees        uint64 `json:"total_employees"`
	TotalVestingSchedules uint64 `json:"total_vesting_schedules"`
	CreatedAt             string `json:"created_at"`
	Active                bool   `json:"active"`
}

// OwnershipDTO answers an ownership probe.
type OwnershipDTO struct {
	OrgID    uint64 `json:"org_id"`
	Identity string `json:"identity"`
	IsOwner  bool   `json:"is_owner"`
}

// EmployeeDTO represents an employee membership record.
type EmployeeDTO struct {
	Employee              string `json:"employee"`
	Name                  string `json:"name"`
	Position              string `json:"position"`
	OrgID                 uint64 `json:"org_id"`
	JoinedAt              string `json:"joined_at"`
	Active                bool   `json:"active"`
	TotalVestingSchedules uint64 `json:"total_vesting_schedules"`
}

// ScheduleDTO represents a vesting schedule joined with its live amounts.
type ScheduleDTO struct {
	Address          string    `json:"address"`
	OrgID            uint64    `json:"org_id"`
	ScheduleID       uint64    `json:"schedule_id"`
	Employer         string    `json:"employer"`
	Employee         string    `json:"employee"`
	EmployeeName     string    `json:"employee_name,omitempty"`
	EmployeePosition string    `json:"employee_position,omitempty"`
	TokenMint        string    `json:"token_mint"`
	StartTime        string    `json:"start_time"`
	CliffTime        string    `json:"cliff_time"`
	EndTime          string    `json:"end_time"`
	CreatedAt        string    `json:"created_at"`
	Revocable        bool      `json:"revocable"`
	Revoked          bool      `json:"revoked"`
	RevokeTime       *string   `json:"revoke_time,omitempty"`
	Total            AmountDTO `json:"total"`
	Claimed          AmountDTO `json:"claimed"`
	Vested           AmountDTO `json:"vested"`
	Claimable        AmountDTO `json:"claimable"`
	Unvested         AmountDTO `json:"unvested"`
}

// AmountDTO carries a token amount in raw base units plus a shifted
// display string.
type AmountDTO struct {
	Raw     string `json:"raw"`
	Display string `json:"display"`
}

// StatsDTO carries the global or per-organization counters.
type StatsDTO struct {
	TotalOrganizations    uint64 `json:"total_organizations"`
	TotalEmployees        uint64 `json:"total_employees"`
	TotalVestingSchedules uint64 `json:"total_vesting_schedules"`
}

// EmployerDashboardDTO is the full employer view of one organization.
type EmployerDashboardDTO struct {
	Organization OrganizationDTO `json:"organization"`
	Employees    []EmployeeDTO   `json:"employees"`
	Schedules    []ScheduleDTO   `json:"schedules"`
	Stats        StatsDTO        `json:"stats"`
}

// EmployeeDashboardDTO is one identity's cross-organization view.
type EmployeeDashboardDTO struct {
	Memberships []EmployeeDTO `json:"memberships"`
	Schedules   []ScheduleDTO `json:"schedules"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toOrganizationDTO(o *vesting.Organization) OrganizationDTO {
	return OrganizationDTO{
		OrgID:                 o.OrgID,
		Name:                  o.Name,
		Owner:                 o.Owner.String(),
		TotalEmployees:        o.TotalEmployees,
		TotalVestingSchedules: o.TotalVestingSchedules,
		CreatedAt:             formatUnix(o.CreatedAt),
		Active:                o.Active,
	}
}

func toEmployeeDTO(e *vesting.Employee) EmployeeDTO {
	return EmployeeDTO{
		Employee:              e.Employee.String(),
		Name:                  e.Name,
		Position:              e.Position,
		OrgID:                 e.OrgID,
		JoinedAt:              formatUnix(e.JoinedAt),
		Active:                e.Active,
		TotalVestingSchedules: e.TotalVestingSchedules,
	}
}

func toEmployeeDTOs(employees []*vesting.Employee) []EmployeeDTO {
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	return dtos
}

func toScheduleDTO(info vesting.VestingInfo, decimals uint8) ScheduleDTO {
	s := info.Schedule
	dto := ScheduleDTO{
		Address:          info.ScheduleAddress.String(),
		OrgID:            s.OrgID,
		ScheduleID:       s.ScheduleID,
		Employer:         s.Employer.String(),
		Employee:         s.Employee.String(),
		EmployeeName:     info.EmployeeName,
		EmployeePosition: info.EmployeePosition,
		TokenMint:        s.TokenMint.String(),
		StartTime:        formatUnix(s.StartTime),
		CliffTime:        formatUnix(s.CliffTime),
		EndTime:          formatUnix(s.EndTime),
		CreatedAt:        formatUnix(s.CreatedAt),
		Revocable:        s.Revocable,
		Revoked:          s.Revoked,
		Total:            toAmountDTO(s.TotalAmount, decimals),
		Claimed:          toAmountDTO(s.ClaimedAmount, decimals),
		Vested:           toAmountDTO(info.VestedAmount, decimals),
		Claimable:        toAmountDTO(info.ClaimableAmount, decimals),
		Unvested:         toAmountDTO(info.UnvestedAmount, decimals),
	}
	if s.RevokeTime != nil {
		ts := formatUnix(*s.RevokeTime)
		dto.RevokeTime = &ts
	}
	return dto
}

func toScheduleDTOs(infos []vesting.VestingInfo, decimals uint8) []ScheduleDTO {
	dtos := make([]ScheduleDTO, len(infos))
	for i, info := range infos {
		dtos[i] = toScheduleDTO(info, decimals)
	}
	return dtos
}

func toAmountDTO(raw uint64, decimals uint8) AmountDTO {
	v := decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -int32(decimals))
	return AmountDTO{
		Raw:     new(big.Int).SetUint64(raw).String(),
		Display: v.String(),
	}
}

func formatUnix(ts int64) string {
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}
