/*
calc.go - The vesting calculator

PURPOSE:
  Pure integer computation of vested and claimable amounts from a
  schedule's parameters and a query time. No floating point anywhere:
  the remote program computes with integers, and any local rounding drift
  would disagree with the amounts it actually pays out.

THE CURVE:
  Accrual is linear from StartTime to EndTime but gated by the cliff:
  nothing is payable before CliffTime, and at the cliff the full linearly
  accrued portion since StartTime releases at once.

      t <  cliff        vested = 0
      t >= end          vested = total
      otherwise         vested = floor(total * (t-start) / (end-start))

REVOCATION:
  A revoked schedule freezes at the revoke instant: evaluation clamps the
  query time to RevokeTime, so the vested amount never grows afterwards.
  Revoked before the cliff means zero, permanently.

AUTHORITY:
  These results are advisory, for display and for deciding whether a claim
  is worth submitting. The amount actually paid is whatever the program
  computes at execution time.
*/
package vesting

import "math/bits"

// VestedFraction reports the vested portion at time now as an exact
// (numerator, denominator) pair, avoiding any float representation.
// The denominator is 1 for the fully-vested and not-yet-cliffed cases.
func (v *VestingSchedule) VestedFraction(now int64) (num, den uint64) {
	t := v.effectiveTime(now)
	switch {
	case t < v.CliffTime:
		return 0, 1
	case t >= v.EndTime:
		return 1, 1
	case t < v.StartTime:
		return 0, 1
	default:
		return uint64(t - v.StartTime), uint64(v.EndTime - v.StartTime)
	}
}

// VestedAmount computes floor(total * fraction) at time now with 128-bit
// intermediate precision, clamped to [0, TotalAmount].
func (v *VestingSchedule) VestedAmount(now int64) uint64 {
	num, den := v.VestedFraction(now)
	if num == 0 {
		return 0
	}
	if num >= den {
		return v.TotalAmount
	}
	// num < den guarantees the quotient fits in 64 bits.
	hi, lo := bits.Mul64(v.TotalAmount, num)
	q, _ := bits.Div64(hi, lo, den)
	return q
}

// ClaimableAmount is the vested amount not yet claimed, saturating at zero.
// It is monotonically non-decreasing in now until revocation and constant
// thereafter.
func (v *VestingSchedule) ClaimableAmount(now int64) uint64 {
	vested := v.VestedAmount(now)
	if vested <= v.ClaimedAmount {
		return 0
	}
	return vested - v.ClaimedAmount
}

// UnvestedAmount is what a revocation at time now would return to the
// employer.
func (v *VestingSchedule) UnvestedAmount(now int64) uint64 {
	return v.TotalAmount - v.VestedAmount(now)
}

// effectiveTime clamps the query time to the revoke instant once revoked.
func (v *VestingSchedule) effectiveTime(now int64) int64 {
	if v.Revoked && v.RevokeTime != nil && now > *v.RevokeTime {
		return *v.RevokeTime
	}
	return now
}
