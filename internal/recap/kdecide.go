package recap

import "github.com/ishaan-bit/reverie/internal/seedrand"

// DetermineK decides how many moments a build should select for a pool of
// n candidates. Small pools are taken whole; larger pools draw K from a
// tier using the seeded generator so the count varies day to day but is
// reproducible for a given seed.
//
// A feasibility pass then shrinks K until every moment keeps at least
// minSlotSeconds of display time. K=0 is a valid "no build" outcome.
func DetermineK(n int, r *seedrand.Rand) int {
	if n <= 0 {
		return 0
	}

	var k int
	switch {
	case n <= 3:
		k = n
	case n <= 5:
		k = r.IntRange(3, 4)
	case n <= 8:
		k = r.IntRange(4, 6)
	default:
		k = r.IntRange(6, 8)
	}
	if k > n {
		k = n
	}

	for k > 0 && slotDuration(k) < minSlotSeconds {
		k--
	}
	return k
}
