package metrics

import "math"

// wilsonZ is the z-score for a 95% interval.
const wilsonZ = 1.96

// WilsonCI returns the Wilson score confidence interval for a proportion,
// clamped to [0, 1] and rounded to four decimals. Returns (0, 0) when
// total is zero.
func WilsonCI(successes, total int) (float64, float64) {
	if total <= 0 {
		return 0, 0
	}
	n := float64(total)
	p := float64(successes) / n
	z2 := wilsonZ * wilsonZ
	denom := 1 + z2/n
	centre := p + z2/(2*n)
	spread := wilsonZ * math.Sqrt((p*(1-p)+z2/(4*n))/n)
	lower := (centre - spread) / denom
	upper := (centre + spread) / denom
	return round4(math.Max(0, lower)), round4(math.Min(1, upper))
}
