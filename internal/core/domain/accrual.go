package domain

import (
	"math"
	"time"
)

// Accrue computes the whole coins earned by the owned generators over an
// elapsed wall-clock interval, together with the portion of the interval those
// coins account for. The remainder is deliberately left unconsumed: callers
// keep it in their accrual baseline so sub-coin progress survives across
// ticks, and a stream of short ticks pays exactly what one long catch-up over
// the same span would. Catalog rates are defined per hour.
//
// Non-positive elapsed intervals (clock skew) earn nothing and consume
// nothing. With no earning generators the whole interval is consumed, since it
// can never convert into coins; holding it back would retroactively pay out
// once a generator is bought.
func Accrue(counts map[string]int, generators map[string]GeneratorType, elapsed time.Duration) (int64, time.Duration) {
	if elapsed <= 0 {
		return 0, 0
	}

	var perHour float64
	for id, n := range counts {
		if n <= 0 {
			continue
		}
		gen, ok := generators[id]
		if !ok {
			continue
		}
		perHour += gen.CoinsPerHour * float64(n)
	}
	if perHour == 0 {
		return 0, elapsed
	}

	earned := int64(math.Floor(elapsed.Seconds() * perHour / 3600))
	if earned == 0 {
		return 0, 0
	}

	consumed := time.Duration(float64(earned) * 3600 / perHour * float64(time.Second))
	if consumed > elapsed {
		consumed = elapsed
	}
	return earned, consumed
}
