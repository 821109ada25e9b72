/*
dashboard.go - The read-model aggregator

PURPOSE:
  Joins the ledger's flat per-kind scans into the views the query surface
  serves: an employer's org-wide vesting picture and an employee's personal
  one. The remote ledger has no relational query, so joins happen here, in
  memory, over bulk scans.

CONSISTENCY:
  Each scan is one fetch, but two scans are not a snapshot of each other. A
  schedule may reference an employee record the employee scan no longer
  sees; the join degrades to blank display fields rather than failing.
*/
package vesting

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/warp/vesting-engine/ledger"
)

// EmployerDashboard is everything an organization owner sees: the member
// roster and every schedule the organization funds, with live amounts.
type EmployerDashboard struct {
	Organization *Organization
	Employees    []*Employee
	Schedules    []VestingInfo
	Stats        DashboardStats
}

// EmployeeDashboard is one identity's view across all organizations it
// belongs to.
type EmployeeDashboard struct {
	Memberships []*Employee
	Schedules   []VestingInfo
}

// FetchEmployerDashboard aggregates the full employer view for one
// organization.
func (s *Service) FetchEmployerDashboard(ctx context.Context, orgID uint64) (*EmployerDashboard, error) {
	org, err := s.FetchOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	employees, err := s.FetchOrganizationEmployees(ctx, orgID)
	if err != nil {
		return nil, err
	}
	all, err := s.FetchAllSchedules(ctx)
	if err != nil {
		return nil, err
	}

	var mine []*VestingSchedule
	for _, sched := range all {
		if sched.OrgID == orgID {
			mine = append(mine, sched)
		}
	}
	infos := s.JoinScheduleInfo(mine, employees, time.Now().Unix())

	return &EmployerDashboard{
		Organization: org,
		Employees:    employees,
		Schedules:    infos,
		Stats: DashboardStats{
			TotalOrganizations:    1,
			TotalEmployees:        uint64(len(employees)),
			TotalVestingSchedules: uint64(len(infos)),
		},
	}, nil
}

// FetchEmployeeDashboard aggregates one identity's memberships and
// schedules across every organization.
func (s *Service) FetchEmployeeDashboard(ctx context.Context, identity ledger.PublicKey) (*EmployeeDashboard, error) {
	memberships, err := s.FetchEmployeeMemberships(ctx, identity)
	if err != nil {
		return nil, err
	}
	all, err := s.FetchAllSchedules(ctx)
	if err != nil {
		return nil, err
	}

	var mine []*VestingSchedule
	for _, sched := range all {
		if sched.Employee == identity {
			mine = append(mine, sched)
		}
	}
	infos := s.JoinScheduleInfo(mine, memberships, time.Now().Unix())

	return &EmployeeDashboard{
		Memberships: memberships,
		Schedules:   infos,
	}, nil
}

// JoinScheduleInfo decorates schedules with their derived address, their
// employee's display fields, and the calculator's amounts at time now.
// Schedules whose employee record is missing keep blank display fields.
func (s *Service) JoinScheduleInfo(schedules []*VestingSchedule, employees []*Employee, now int64) []VestingInfo {
	type memberKey struct {
		identity ledger.PublicKey
		orgID    uint64
	}
	roster := make(map[memberKey]*Employee, len(employees))
	for _, emp := range employees {
		roster[memberKey{emp.Employee, emp.OrgID}] = emp
	}

	infos := make([]VestingInfo, 0, len(schedules))
	for _, sched := range schedules {
		addr, err := s.Addresses.Schedule(sched.OrgID, sched.Employee, sched.TokenMint, sched.ScheduleID)
		if err != nil {
			s.Log.Warn("skipping underivable schedule",
				zap.Uint64("schedule_id", sched.ScheduleID), zap.Error(err))
			continue
		}
		info := VestingInfo{
			Schedule:        *sched,
			ScheduleAddress: addr,
			VestedAmount:    sched.VestedAmount(now),
			ClaimableAmount: sched.ClaimableAmount(now),
			UnvestedAmount:  sched.UnvestedAmount(now),
		}
		if emp, ok := roster[memberKey{sched.Employee, sched.OrgID}]; ok {
			info.EmployeeName = emp.Name
			info.EmployeePosition = emp.Position
		}
		infos = append(infos, info)
	}

	// Stable presentation order: newest schedules first.
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].Schedule.CreatedAt > infos[j].Schedule.CreatedAt
	})
	return infos
}
