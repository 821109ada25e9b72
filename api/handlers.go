/*
handlers.go - HTTP handlers for the read-only query surface

PURPOSE:
  Exposes the vesting read model over REST. Handlers parse and validate
  URL input, delegate to the domain service, and render DTOs. This surface
  is strictly read-only: every write goes through the domain service with a
  local signer, never through HTTP.

ENDPOINTS:
  Stats:
    GET /api/stats                                   Global program counters

  Organizations:
    GET /api/organizations                           List organizations
    GET /api/organizations/{orgID}                   Get one organization
    GET /api/organizations/{orgID}/owner             Ownership probe (?identity=)
    GET /api/organizations/{orgID}/employees         Member roster
    GET /api/organizations/{orgID}/dashboard         Full employer dashboard
    GET /api/organizations/{orgID}/dashboard/stats   Per-org counters

  Employees:
    GET /api/employees                               List employees (?org= filter)
    GET /api/employees/{identity}                    One identity's memberships
    GET /api/employees/{identity}/dashboard          Full employee dashboard

  Vesting:
    GET /api/vesting/schedules                       List all schedules
    GET /api/vesting/schedules/{orgID}/{employee}/{mint}/{scheduleID}
                                                     One schedule with live amounts

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed ids or addresses
  - 404: Record not found on the ledger
  - 502: Ledger endpoint unreachable
  - 500: Everything else

CONSISTENCY NOTE:
  Responses are assembled from bulk scans that are not snapshots of each
  other. Clients should treat amounts as advisory display values; the
  ledger recomputes everything at execution time.

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *vesting.Service
	Log     *zap.Logger

	// TokenDecimals shifts raw base units into display amounts. One surface
	// serves one mint's precision; 9 matches the common native convention.
	TokenDecimals uint8
}

// NewHandler creates a handler over the given domain service.
func NewHandler(service *vesting.Service, log *zap.Logger) *Handler {
	return &Handler{Service: service, Log: log, TokenDecimals: 9}
}

// =============================================================================
// STATS
// =============================================================================

// GetStats returns the global program counters.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.ProgramStats(r.Context())
	if err != nil {
		h.writeDomainError(w, "failed to read program stats", err)
		return
	}
	writeJSON(w, http.StatusOK, StatsDTO{
		TotalOrganizations:    stats.TotalOrganizations,
		TotalEmployees:        stats.TotalEmployees,
		TotalVestingSchedules: stats.TotalVestingSchedules,
	})
}

// =============================================================================
// ORGANIZATION HANDLERS
// =============================================================================

// ListOrganizations returns every organization, optionally filtered by
// owner (?owner=identity).
func (h *Handler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	var (
		orgs []*vesting.Organization
		err  error
	)
	if ownerParam := r.URL.Query().Get("owner"); ownerParam != "" {
		owner, perr := ledger.ParsePublicKey(ownerParam)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid owner address", perr)
			return
		}
		orgs, err = h.Service.FetchOrganizationsByOwner(r.Context(), owner)
	} else {
		orgs, err = h.Service.FetchAllOrganizations(r.Context())
	}
	if err != nil {
		h.writeDomainError(w, "failed to list organizations", err)
		return
	}

	dtos := make([]OrganizationDTO, len(orgs))
	for i, org := range orgs {
		dtos[i] = toOrganizationDTO(org)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetOrganization returns one organization by id.
func (h *Handler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgIDParam(w, r)
	if !ok {
		return
	}
	org, err := h.Service.FetchOrganization(r.Context(), orgID)
	if err != nil {
		h.writeDomainError(w, "failed to get organization", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationDTO(org))
}

// GetOrganizationOwner answers whether ?identity= owns the organization.
func (h *Handler) GetOrganizationOwner(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgIDParam(w, r)
	if !ok {
		return
	}
	identityParam := r.URL.Query().Get("identity")
	identity, err := ledger.ParsePublicKey(identityParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid identity address", err)
		return
	}
	isOwner, err := h.Service.IsOrganizationOwner(r.Context(), orgID, identity)
	if err != nil {
		h.writeDomainError(w, "failed to check ownership", err)
		return
	}
	writeJSON(w, http.StatusOK, OwnershipDTO{
		OrgID:    orgID,
		Identity: identity.String(),
		IsOwner:  isOwner,
	})
}

// ListOrganizationEmployees returns an organization's member roster.
func (h *Handler) ListOrganizationEmployees(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgIDParam(w, r)
	if !ok {
		return
	}
	employees, err := h.Service.FetchOrganizationEmployees(r.Context(), orgID)
	if err != nil {
		h.writeDomainError(w, "failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

// GetEmployerDashboard returns the full employer view of one organization.
func (h *Handler) GetEmployerDashboard(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgIDParam(w, r)
	if !ok {
		return
	}
	dash, err := h.Service.FetchEmployerDashboard(r.Context(), orgID)
	if err != nil {
		h.writeDomainError(w, "failed to build employer dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, EmployerDashboardDTO{
		Organization: toOrganizationDTO(dash.Organization),
		Employees:    toEmployeeDTOs(dash.Employees),
		Schedules:    toScheduleDTOs(dash.Schedules, h.TokenDecimals),
		Stats: StatsDTO{
			TotalOrganizations:    dash.Stats.TotalOrganizations,
			TotalEmployees:        dash.Stats.TotalEmployees,
			TotalVestingSchedules: dash.Stats.TotalVestingSchedules,
		},
	})
}

// GetOrganizationStats returns the per-organization counters.
func (h *Handler) GetOrganizationStats(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgIDParam(w, r)
	if !ok {
		return
	}
	org, err := h.Service.FetchOrganization(r.Context(), orgID)
	if err != nil {
		h.writeDomainError(w, "failed to get organization", err)
		return
	}
	writeJSON(w, http.StatusOK, StatsDTO{
		TotalOrganizations:    1,
		TotalEmployees:        org.TotalEmployees,
		TotalVestingSchedules: org.TotalVestingSchedules,
	})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns every employee record, optionally filtered by
// organization (?org=id).
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	var (
		employees []*vesting.Employee
		err       error
	)
	if orgParam := r.URL.Query().Get("org"); orgParam != "" {
		orgID, perr := strconv.ParseUint(orgParam, 10, 64)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid org id", perr)
			return
		}
		employees, err = h.Service.FetchOrganizationEmployees(r.Context(), orgID)
	} else {
		employees, err = h.Service.FetchAllEmployees(r.Context())
	}
	if err != nil {
		h.writeDomainError(w, "failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

// GetEmployeeMemberships returns one identity's records across every
// organization it belongs to.
func (h *Handler) GetEmployeeMemberships(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identityParam(w, r)
	if !ok {
		return
	}
	memberships, err := h.Service.FetchEmployeeMemberships(r.Context(), identity)
	if err != nil {
		h.writeDomainError(w, "failed to list memberships", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(memberships))
}

// GetEmployeeDashboard returns one identity's full cross-organization view.
func (h *Handler) GetEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identityParam(w, r)
	if !ok {
		return
	}
	dash, err := h.Service.FetchEmployeeDashboard(r.Context(), identity)
	if err != nil {
		h.writeDomainError(w, "failed to build employee dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, EmployeeDashboardDTO{
		Memberships: toEmployeeDTOs(dash.Memberships),
		Schedules:   toScheduleDTOs(dash.Schedules, h.TokenDecimals),
	})
}

// =============================================================================
// VESTING HANDLERS
// =============================================================================

// ListSchedules returns every vesting schedule with live amounts.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.Service.FetchAllSchedules(r.Context())
	if err != nil {
		h.writeDomainError(w, "failed to list schedules", err)
		return
	}
	employees, err := h.Service.FetchAllEmployees(r.Context())
	if err != nil {
		h.writeDomainError(w, "failed to list employees", err)
		return
	}
	infos := h.Service.JoinScheduleInfo(schedules, employees, time.Now().Unix())
	writeJSON(w, http.StatusOK, toScheduleDTOs(infos, h.TokenDecimals))
}

// GetSchedule returns one schedule by its composite key.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.ParseUint(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid org id", err)
		return
	}
	employee, err := ledger.ParsePublicKey(chi.URLParam(r, "employee"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid employee address", err)
		return
	}
	mint, err := ledger.ParsePublicKey(chi.URLParam(r, "mint"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid mint address", err)
		return
	}
	scheduleID, err := strconv.ParseUint(chi.URLParam(r, "scheduleID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid schedule id", err)
		return
	}

	sched, err := h.Service.FetchVestingSchedule(r.Context(), orgID, employee, mint, scheduleID)
	if err != nil {
		h.writeDomainError(w, "failed to get schedule", err)
		return
	}
	emp, err := h.Service.FetchEmployee(r.Context(), employee, orgID)
	if err != nil && !errors.Is(err, vesting.ErrEmployeeNotFound) {
		h.writeDomainError(w, "failed to get employee", err)
		return
	}

	var employees []*vesting.Employee
	if emp != nil {
		employees = append(employees, emp)
	}
	infos := h.Service.JoinScheduleInfo([]*vesting.VestingSchedule{sched}, employees, time.Now().Unix())
	if len(infos) == 0 {
		writeError(w, http.StatusInternalServerError, "failed to derive schedule address", nil)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(infos[0], h.TokenDecimals))
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) orgIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	orgID, err := strconv.ParseUint(chi.URLParam(r, "orgID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid org id", err)
		return 0, false
	}
	return orgID, true
}

func (h *Handler) identityParam(w http.ResponseWriter, r *http.Request) (ledger.PublicKey, bool) {
	identity, err := ledger.ParsePublicKey(chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid identity address", err)
		return ledger.PublicKey{}, false
	}
	return identity, true
}

// writeDomainError maps domain and transport errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case vesting.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, ledger.ErrTransport):
		h.Log.Error("ledger endpoint unreachable", zap.Error(err))
		writeError(w, http.StatusBadGateway, "ledger endpoint unreachable", err)
	default:
		h.Log.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
