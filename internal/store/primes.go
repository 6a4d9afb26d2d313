package store

// primeSchedule produces successive table sizes for Shard resizes. It starts
// near 2053 and thins out the primes it returns as the magnitude grows, so
// early resizes happen often (small tables are cheap to rehash) and late
// resizes happen rarely (large tables are expensive to rehash).
//
// Growth factor relative to the last returned prime:
//
//	< 1e5  : ~4x
//	< 1e6  : ~1.5x
//	< 1e7  : ~1.2x
//	< 1e8  : ~1.1x
//	else   : ~1.05x
type primeSchedule struct {
	last uint64
}

func newPrimeSchedule() *primeSchedule {
	return &primeSchedule{last: firstPrimeAtOrAbove(2053)}
}

func growthFactor(magnitude uint64) float64 {
	switch {
	case magnitude < 1e5:
		return 4.0
	case magnitude < 1e6:
		return 1.5
	case magnitude < 1e7:
		return 1.2
	case magnitude < 1e8:
		return 1.1
	default:
		return 1.05
	}
}

// Next returns the next table size to grow into, strictly greater than the
// previous one returned (or than 2053 on the first call).
func (p *primeSchedule) Next() uint64 {
	target := uint64(float64(p.last) * growthFactor(p.last))
	if target <= p.last {
		target = p.last + 1
	}
	next := firstPrimeAtOrAbove(target)
	p.last = next
	return next
}

// Current reports the most recently returned size without advancing.
func (p *primeSchedule) Current() uint64 { return p.last }

// firstPrimeAtOrAbove finds the smallest prime >= n using a segmented sieve
// over successive windows, so it never has to materialize primes below n.
func firstPrimeAtOrAbove(n uint64) uint64 {
	if n < 2 {
		return 2
	}
	const segment = 1 << 16
	lo := n
	for {
		hi := lo + segment
		sieve := make([]bool, hi-lo) // sieve[i] == true means composite
		for d := uint64(2); d*d < hi; d++ {
			if !isPrimeTrial(d) {
				continue
			}
			start := lo
			if start%d != 0 {
				start += d - start%d
			} else if start == d {
				start += d
			}
			if start < d*d {
				start = d * d
			}
			for x := start; x < hi; x += d {
				if x >= lo {
					sieve[x-lo] = true
				}
			}
		}
		for i, composite := range sieve {
			candidate := lo + uint64(i)
			if candidate < 2 || composite {
				continue
			}
			if isPrimeTrial(candidate) {
				return candidate
			}
		}
		lo = hi
	}
}

// isPrimeTrial is a plain trial-division primality check used only to seed
// the segmented sieve's small-prime list and to double-check sieve survivors
// (cheap at the sizes this schedule ever reaches).
func isPrimeTrial(n uint64) bool {
	if n < 2 {
		return false
	}
	if n%2 == 0 {
		return n == 2
	}
	for d := uint64(3); d*d <= n; d += 2 {
		if n%d == 0 {
			return false
		}
	}
	return true
}
