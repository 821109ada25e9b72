package vesting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/vesting-engine/ledger"
	"github.com/warp/vesting-engine/ledger/ledgertest"
	"github.com/warp/vesting-engine/vesting"
	"github.com/warp/vesting-engine/vesting/vestingtest"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type scheduleFixture struct {
	svc      *vesting.Service
	ledger   *ledgertest.Ledger
	program  *vestingtest.Program
	employer *ledger.Keypair
	employee *ledger.Keypair
	mint     ledger.PublicKey
	orgID    uint64

	employerTokens ledger.PublicKey
}

// newScheduleFixture builds an initialized program with one organization,
// one member, and a funded employer wallet.
func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	svc, l, prog, _ := initializedService(t)
	employer := newKeypair(t)
	employee := newKeypair(t)
	mint := newKeypair(t).PublicKey()
	ctx := context.Background()

	orgID, _, err := svc.CreateOrganization(ctx, employer, "Warp Industries")
	require.NoError(t, err)
	_, err = svc.JoinOrganization(ctx, employee, orgID, "Ada Lovelace", "Engineer")
	require.NoError(t, err)

	employerTokens := fundWallet(t, svc, l, employer.PublicKey(), mint, 10_000)

	return &scheduleFixture{
		svc:            svc,
		ledger:         l,
		program:        prog,
		employer:       employer,
		employee:       employee,
		mint:           mint,
		orgID:          orgID,
		employerTokens: employerTokens,
	}
}

// pastParams returns schedule parameters fully in the past relative to the
// wall clock, so the emulator's pinned clock alone decides the amounts.
func (f *scheduleFixture) pastParams(total uint64) (vesting.ScheduleParams, int64) {
	base := time.Now().Unix() - 10
	return vesting.ScheduleParams{
		OrgID:       f.orgID,
		Employee:    f.employee.PublicKey(),
		TokenMint:   f.mint,
		TotalAmount: total,
		StartTime:   base - 1000,
		CliffTime:   base - 900,
		EndTime:     base,
		Revocable:   true,
	}, base
}

func (f *scheduleFixture) vaultBalance(t *testing.T) uint64 {
	t.Helper()
	amount, err := f.svc.VaultBalance(context.Background(), f.orgID, f.employee.PublicKey(), f.mint, 1)
	require.NoError(t, err)
	return amount
}

func (f *scheduleFixture) walletBalance(t *testing.T, addr ledger.PublicKey) uint64 {
	t.Helper()
	tok := f.ledger.TokenBalance(addr)
	if tok == nil {
		return 0
	}
	return tok.Amount
}

// =============================================================================
// CREATION
// =============================================================================

func TestInitializeVestingSchedule(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()
	params, _ := f.pastParams(1000)

	scheduleID, sig, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), scheduleID)
	assert.NotEmpty(t, sig)

	// Creation moved the full grant into the custody vault.
	assert.Equal(t, uint64(1000), f.vaultBalance(t))
	assert.Equal(t, uint64(9000), f.walletBalance(t, f.employerTokens))

	sched, err := f.svc.FetchVestingSchedule(ctx, f.orgID, f.employee.PublicKey(), f.mint, scheduleID)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), sched.TotalAmount)
	assert.Zero(t, sched.ClaimedAmount)
	assert.True(t, sched.Revocable)
	assert.False(t, sched.Revoked)
}

func TestInitializeVestingSchedule_Validation(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	t.Run("zero total rejected", func(t *testing.T) {
		params, _ := f.pastParams(0)
		_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
		assert.ErrorIs(t, err, vesting.ErrInvalidTotalAmount)
	})

	t.Run("cliff before start rejected", func(t *testing.T) {
		params, _ := f.pastParams(100)
		params.CliffTime = params.StartTime - 1
		_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
		assert.ErrorIs(t, err, vesting.ErrInvalidTimeParameters)
	})

	t.Run("end before cliff rejected", func(t *testing.T) {
		params, _ := f.pastParams(100)
		params.EndTime = params.CliffTime - 1
		_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
		assert.ErrorIs(t, err, vesting.ErrInvalidTimeParameters)
	})

	t.Run("non-owner rejected", func(t *testing.T) {
		params, _ := f.pastParams(100)
		_, _, err := f.svc.InitializeVestingSchedule(ctx, newKeypair(t), params)
		assert.ErrorIs(t, err, vesting.ErrUnauthorized)
	})

	t.Run("non-member employee rejected", func(t *testing.T) {
		params, _ := f.pastParams(100)
		params.Employee = newKeypair(t).PublicKey()
		_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
		assert.ErrorIs(t, err, vesting.ErrEmployeeNotFound)
	})
}

func TestInitializeVestingSchedule_InsufficientFunds(t *testing.T) {
	// The custody precheck reports the exact shortfall before any
	// submission.
	f := newScheduleFixture(t)
	ctx := context.Background()
	params, _ := f.pastParams(50_000)

	_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.Error(t, err)

	var shortfall *vesting.InsufficientFundsError
	require.ErrorAs(t, err, &shortfall)
	assert.Equal(t, uint64(10_000), shortfall.Available)
	assert.Equal(t, uint64(50_000), shortfall.Required)
	assert.ErrorIs(t, err, vesting.ErrInsufficientFunds)
}

// =============================================================================
// CLAIMING
// =============================================================================

func TestClaimTokens_PartialThenRest(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()
	params, base := f.pastParams(1000)

	_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.NoError(t, err)

	// Pin execution midway: floor(1000 * 500/1000) = 500 vested.
	f.program.Clock = func() int64 { return base - 500 }

	_, err = f.svc.ClaimTokens(ctx, f.employee, f.orgID, f.mint, 1)
	require.NoError(t, err)

	sched, err := f.svc.FetchVestingSchedule(ctx, f.orgID, f.employee.PublicKey(), f.mint, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), sched.ClaimedAmount)
	assert.Equal(t, uint64(500), f.vaultBalance(t))

	employeeTokens, err := f.svc.Addresses.WalletTokenAccount(f.employee.PublicKey(), f.mint)
	require.NoError(t, err)
	assert.Equal(t, uint64(500), f.walletBalance(t, employeeTokens))

	// After the end everything left is claimable.
	f.program.Clock = func() int64 { return base + 1 }
	_, err = f.svc.ClaimTokens(ctx, f.employee, f.orgID, f.mint, 1)
	require.NoError(t, err)

	sched, err = f.svc.FetchVestingSchedule(ctx, f.orgID, f.employee.PublicKey(), f.mint, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), sched.ClaimedAmount)
	assert.Zero(t, f.vaultBalance(t))
	assert.Equal(t, uint64(1000), f.walletBalance(t, employeeTokens))
}

func TestClaimTokens_NothingClaimableBeforeCliff(t *testing.T) {
	// A schedule whose cliff is in the future never reaches the network.
	f := newScheduleFixture(t)
	ctx := context.Background()
	now := time.Now().Unix()

	params := vesting.ScheduleParams{
		OrgID:       f.orgID,
		Employee:    f.employee.PublicKey(),
		TokenMint:   f.mint,
		TotalAmount: 1000,
		StartTime:   now,
		CliffTime:   now + 1000,
		EndTime:     now + 2000,
	}
	_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.NoError(t, err)

	_, err = f.svc.ClaimTokens(ctx, f.employee, f.orgID, f.mint, 1)
	assert.ErrorIs(t, err, vesting.ErrNothingToClaim)
}

func TestClaimTokens_WrongIdentity(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()
	params, _ := f.pastParams(1000)

	_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.NoError(t, err)

	// The composite key includes the employee, so another identity simply
	// finds no schedule at the derived address.
	_, err = f.svc.ClaimTokens(ctx, newKeypair(t), f.orgID, f.mint, 1)
	assert.ErrorIs(t, err, vesting.ErrScheduleNotFound)
}

// =============================================================================
// REVOCATION
// =============================================================================

func TestRevokeVesting(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()
	params, base := f.pastParams(1000)

	_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.NoError(t, err)

	// Revoke midway: 500 vested stays in the vault for the employee, 500
	// unvested returns to the employer.
	f.program.Clock = func() int64 { return base - 500 }
	_, err = f.svc.RevokeVesting(ctx, f.employer, f.orgID, f.employee.PublicKey(), f.mint, 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(9500), f.walletBalance(t, f.employerTokens))
	assert.Equal(t, uint64(500), f.vaultBalance(t))

	sched, err := f.svc.FetchVestingSchedule(ctx, f.orgID, f.employee.PublicKey(), f.mint, 1)
	require.NoError(t, err)
	assert.True(t, sched.Revoked)
	require.NotNil(t, sched.RevokeTime)
	assert.Equal(t, base-500, *sched.RevokeTime)

	// The freeze holds: long after, only the frozen 500 is claimable.
	f.program.Clock = func() int64 { return base + 100_000 }
	assert.Equal(t, uint64(500), sched.ClaimableAmount(base+100_000))

	_, err = f.svc.ClaimTokens(ctx, f.employee, f.orgID, f.mint, 1)
	require.NoError(t, err)
	assert.Zero(t, f.vaultBalance(t))

	// Revoking twice fails locally.
	_, err = f.svc.RevokeVesting(ctx, f.employer, f.orgID, f.employee.PublicKey(), f.mint, 1)
	assert.ErrorIs(t, err, vesting.ErrAlreadyRevoked)
}

func TestRevokeVesting_NotRevocable(t *testing.T) {
	// GIVEN: a schedule created with the revocable flag off
	// WHEN: the employer tries to revoke it
	// THEN: the operation fails before anything is submitted and the
	//       schedule keeps accruing

	f := newScheduleFixture(t)
	ctx := context.Background()
	params, _ := f.pastParams(1000)
	params.Revocable = false

	_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.NoError(t, err)

	_, err = f.svc.RevokeVesting(ctx, f.employer, f.orgID, f.employee.PublicKey(), f.mint, 1)
	assert.ErrorIs(t, err, vesting.ErrNotRevocable)

	sched, err := f.svc.FetchVestingSchedule(ctx, f.orgID, f.employee.PublicKey(), f.mint, 1)
	require.NoError(t, err)
	assert.False(t, sched.Revoked)
	assert.Equal(t, uint64(1000), f.vaultBalance(t))
}

func TestRevokeVesting_EmployerOnly(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()
	params, _ := f.pastParams(1000)

	_, _, err := f.svc.InitializeVestingSchedule(ctx, f.employer, params)
	require.NoError(t, err)

	_, err = f.svc.RevokeVesting(ctx, newKeypair(t), f.orgID, f.employee.PublicKey(), f.mint, 1)
	assert.ErrorIs(t, err, vesting.ErrUnauthorized)
}
