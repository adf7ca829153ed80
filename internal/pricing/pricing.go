/**
 * @description
 * This package is the pure cost model for a session: total court cost, the
 * equal split across committed guests, and the rounding remainder the host
 * absorbs. It has no I/O and no dependencies beyond the standard library, so
 * the rest of the system can call it from inside database transactions.
 *
 * @notes
 * - Everything is int64 cents. Division rounds half away from zero, so a
 *   48.00 split across 5 guests is exactly 9.60 and 100.00 across 3 is 33.33
 *   with the host covering the leftover cent.
 * - The host remainder can be negative: rounding a share up means the guests
 *   collectively overpay by a few cents and the host keeps the difference.
 */
package pricing

// CostParams are the inputs the owner fixes when proposing a session.
type CostParams struct {
	Courts         int
	OwnerRateCents int64 // per court, billed to the owner by the venue
	SplitRateCents int64 // per court, the rate the group splits
}

// CostBreakdown is the result of splitting a session's cost across guests.
type CostBreakdown struct {
	OwnerCostCents     int64
	SplitCostCents     int64
	Guests             int
	GuestShareCents    int64
	HostRemainderCents int64 // splitCost - share*guests, may be negative
}

// OwnerCostCents returns what the venue bills the reserving owner.
func OwnerCostCents(p CostParams) int64 {
	return int64(p.Courts) * p.OwnerRateCents
}

// SplitCostCents returns the total the group divides among committed guests.
func SplitCostCents(p CostParams) int64 {
	return int64(p.Courts) * p.SplitRateCents
}

// GuestShareCents returns the per-guest share of splitTotalCents, rounded half
// away from zero to whole cents. Zero guests yields zero; callers enforce the
// roster minimum before pricing anything.
func GuestShareCents(splitTotalCents int64, guests int) int64 {
	if guests <= 0 {
		return 0
	}
	return divideRoundHalfAway(splitTotalCents, int64(guests))
}

// Breakdown assembles the full cost picture for a session with the given
// number of committed guests.
func Breakdown(p CostParams, guests int) CostBreakdown {
	splitTotal := SplitCostCents(p)
	share := GuestShareCents(splitTotal, guests)
	var remainder int64
	if guests > 0 {
		remainder = splitTotal - share*int64(guests)
	}
	return CostBreakdown{
		OwnerCostCents:     OwnerCostCents(p),
		SplitCostCents:     splitTotal,
		Guests:             guests,
		GuestShareCents:    share,
		HostRemainderCents: remainder,
	}
}

// divideRoundHalfAway divides numerator by denominator rounding half away
// from zero, using integer arithmetic only.
func divideRoundHalfAway(numerator, denominator int64) int64 {
	quotient := numerator / denominator
	remainder := numerator % denominator
	if remainder == 0 {
		return quotient
	}
	if 2*abs64(remainder) >= abs64(denominator) {
		if (numerator < 0) != (denominator < 0) {
			return quotient - 1
		}
		return quotient + 1
	}
	return quotient
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
