package utils

// Dynamic pricing tiers: the fare steps up as confirmed inventory depletes.
// Thresholds are on remaining/total; the charged fare is always the tier in
// effect before the reservation decrements the counter.
const (
	tierHalfPct    = 10 // <= 50% remaining
	tierQuarterPct = 25 // <= 25% remaining
	tierLastPct    = 50 // <= 10% remaining
)

// TieredFare returns the per-seat fare for a class given its remaining
// confirmed inventory. total <= 0 falls back to the base fare; pricing a
// misconfigured record is the caller's error to surface.
func TieredFare(base int64, total, remaining int) int64 {
	if total <= 0 {
		return base
	}
	if remaining < 0 {
		remaining = 0
	}
	ratio := remaining * 100 / total
	switch {
	case ratio <= 10:
		return base + base*tierLastPct/100
	case ratio <= 25:
		return base + base*tierQuarterPct/100
	case ratio <= 50:
		return base + base*tierHalfPct/100
	default:
		return base
	}
}
