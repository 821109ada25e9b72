package vesting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// linearSchedule: total 1000 over [0, 1000] with cliff at 100.
func linearSchedule() *vesting.VestingSchedule {
	return &vesting.VestingSchedule{
		TotalAmount: 1000,
		StartTime:   0,
		CliffTime:   100,
		EndTime:     1000,
	}
}

// =============================================================================
// THE CURVE
// =============================================================================

func TestVestedAmount_LinearWithCliff(t *testing.T) {
	tests := []struct {
		name string
		now  int64
		want uint64
	}{
		{"before cliff nothing vests", 99, 0},
		{"at the cliff the accrued portion releases", 100, 100},
		{"midway through", 500, 500},
		{"just before the end", 999, 999},
		{"at the end everything", 1000, 1000},
		{"long after the end still everything", 1_000_000, 1000},
		{"at start, before cliff", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := linearSchedule()
			assert.Equal(t, tt.want, v.VestedAmount(tt.now))
		})
	}
}

func TestVestedAmount_CliffBoundaryIsExact(t *testing.T) {
	// One second is the difference between zero and the full accrued slice.
	v := linearSchedule()
	assert.Zero(t, v.VestedAmount(99))
	assert.Equal(t, uint64(100), v.VestedAmount(100))
}

func TestVestedAmount_FlooringNeverOverpays(t *testing.T) {
	// 7 tokens over 3 seconds: intermediate points must floor.
	v := &vesting.VestingSchedule{TotalAmount: 7, StartTime: 0, CliffTime: 0, EndTime: 3}
	assert.Equal(t, uint64(2), v.VestedAmount(1)) // floor(7/3)
	assert.Equal(t, uint64(4), v.VestedAmount(2)) // floor(14/3)
	assert.Equal(t, uint64(7), v.VestedAmount(3))
}

func TestVestedAmount_NoOverflowAtFullScale(t *testing.T) {
	// total * elapsed overflows 64 bits midway; the 128-bit intermediate
	// must carry it.
	v := &vesting.VestingSchedule{
		TotalAmount: 1 << 63,
		StartTime:   0,
		CliffTime:   0,
		EndTime:     1 << 40,
	}
	half := int64(1) << 39
	assert.Equal(t, uint64(1)<<62, v.VestedAmount(half))
	assert.Equal(t, v.TotalAmount, v.VestedAmount(v.EndTime))
}

func TestVestedAmount_Monotonic(t *testing.T) {
	v := linearSchedule()
	prev := uint64(0)
	for now := int64(0); now <= 1100; now += 13 {
		got := v.VestedAmount(now)
		assert.GreaterOrEqual(t, got, prev, "vested amount regressed at t=%d", now)
		prev = got
	}
}

func TestVestedAmount_InstantVesting(t *testing.T) {
	// start == cliff == a point in the past with end just after: once past
	// the end everything is vested at once.
	v := &vesting.VestingSchedule{TotalAmount: 500, StartTime: 10, CliffTime: 10, EndTime: 11}
	assert.Zero(t, v.VestedAmount(9))
	assert.Equal(t, uint64(500), v.VestedAmount(11))
}

// =============================================================================
// CLAIMABLE
// =============================================================================

func TestClaimableAmount(t *testing.T) {
	v := linearSchedule()
	v.ClaimedAmount = 300

	assert.Zero(t, v.ClaimableAmount(99), "nothing claimable before cliff")
	assert.Zero(t, v.ClaimableAmount(200), "vested 200 < claimed 300 saturates at zero")
	assert.Equal(t, uint64(200), v.ClaimableAmount(500))
	assert.Equal(t, uint64(700), v.ClaimableAmount(2000))
}

func TestClaimableAmount_FullyClaimedScheduleStaysZero(t *testing.T) {
	v := linearSchedule()
	v.ClaimedAmount = 1000
	assert.Zero(t, v.ClaimableAmount(5000))
}

// =============================================================================
// REVOCATION FREEZE
// =============================================================================

func TestRevokedSchedule_FreezesAtRevokeTime(t *testing.T) {
	revokeAt := int64(400)
	v := linearSchedule()
	v.Revoked = true
	v.RevokeTime = &revokeAt

	// Evaluation clamps to the revoke instant and never grows afterwards.
	assert.Equal(t, uint64(400), v.VestedAmount(400))
	assert.Equal(t, uint64(400), v.VestedAmount(10_000))
	assert.Equal(t, uint64(600), v.UnvestedAmount(10_000))

	// Before the revoke instant, history is unchanged.
	assert.Equal(t, uint64(200), v.VestedAmount(200))
}

func TestRevokedBeforeCliff_StaysZeroForever(t *testing.T) {
	revokeAt := int64(50)
	v := linearSchedule()
	v.Revoked = true
	v.RevokeTime = &revokeAt

	assert.Zero(t, v.VestedAmount(10_000))
	assert.Zero(t, v.ClaimableAmount(10_000))
	assert.Equal(t, uint64(1000), v.UnvestedAmount(10_000))
}

// =============================================================================
// FRACTION FORM
// =============================================================================

func TestVestedFraction(t *testing.T) {
	v := linearSchedule()

	num, den := v.VestedFraction(99)
	assert.Zero(t, num)
	assert.Equal(t, uint64(1), den)

	num, den = v.VestedFraction(250)
	assert.Equal(t, uint64(250), num)
	assert.Equal(t, uint64(1000), den)

	num, den = v.VestedFraction(1000)
	assert.Equal(t, uint64(1), num)
	assert.Equal(t, uint64(1), den)
}
