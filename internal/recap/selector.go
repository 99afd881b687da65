package recap

import (
	"math"
	"sort"

	"github.com/ishaan-bit/reverie/internal/seedrand"
)

// Same-calendar-day limits for selected moments. The relaxed limit is only
// used when the strict one cannot reach the target count.
const (
	strictDayLimit  = 2
	relaxedDayLimit = 3
)

// Selection is the selector's result. Shortfall is how far short of the
// target the diversity constraints left us; it is surfaced, never padded
// over by relaxing the per-mood cap.
type Selection struct {
	Items     []ScoredMoment
	Shortfall int
}

// moodCap is the per-mood selection ceiling for a target of k moments.
func moodCap(k int) int {
	limit := int(math.Ceil(float64(k) * 0.5))
	if limit > 3 {
		limit = 3
	}
	return limit
}

// SelectCores picks up to k moments from the scored pool under the
// diversity constraints, in playback order:
//
//  1. shuffle the mood labels into a build-specific priority order
//  2. warm start: the best candidate from each of the first two non-empty
//     priority moods, covering two distinct moods immediately
//  3. round-robin over the priority order under the per-mood cap,
//     preferring candidates whose time bucket differs from the last two
//     picks and whose calendar day is not already saturated
//  4. a final scan swaps next-but-one neighbors so adjacent beats never
//     share both mood and calendar date
//
// All candidate ordering uses the deterministic score/recency/id
// comparator, so a fixed seed fully fixes the output.
func SelectCores(pool []ScoredMoment, k int, r *seedrand.Rand) Selection {
	if k <= 0 || len(pool) == 0 {
		return Selection{Shortfall: k}
	}
	if k > len(pool) {
		k = len(pool)
	}

	order := make([]Mood, len(AllMoods))
	copy(order, AllMoods)
	seedrand.Shuffle(r, order)

	byMood := make(map[Mood][]ScoredMoment, len(order))
	for _, c := range pool {
		byMood[c.Mood] = append(byMood[c.Mood], c)
	}
	for m := range byMood {
		sortCandidates(byMood[m])
	}

	st := &selectState{
		byMood:  byMood,
		cap:     moodCap(k),
		perMood: map[Mood]int{},
		perDay:  map[string]int{},
	}

	// Warm start: two distinct moods up front when available.
	warm := 0
	for _, m := range order {
		if warm == 2 || len(st.selected) == k {
			break
		}
		if len(st.byMood[m]) == 0 {
			continue
		}
		st.take(m, 0)
		warm++
	}

	st.roundRobin(order, k, strictDayLimit)
	if len(st.selected) < k {
		st.roundRobin(order, k, relaxedDayLimit)
	}

	items := reorderForPlayback(st.selected)
	return Selection{Items: items, Shortfall: k - len(items)}
}

type selectState struct {
	byMood   map[Mood][]ScoredMoment
	selected []ScoredMoment
	cap      int
	perMood  map[Mood]int
	perDay   map[string]int
}

// take removes candidate idx of mood m from the pool and appends it.
func (st *selectState) take(m Mood, idx int) {
	c := st.byMood[m][idx]
	st.byMood[m] = append(st.byMood[m][:idx:idx], st.byMood[m][idx+1:]...)
	st.selected = append(st.selected, c)
	st.perMood[m]++
	st.perDay[c.Day()]++
}

// recentBuckets returns the time buckets of the last two picks.
func (st *selectState) recentBuckets() []int {
	n := len(st.selected)
	var out []int
	for i := n - 2; i < n; i++ {
		if i >= 0 {
			out = append(out, st.selected[i].TimeBucket)
		}
	}
	return out
}

// pickFrom finds the best candidate of mood m under the day limit,
// preferring a time bucket unseen in the last two picks and falling back
// to any bucket when none qualifies. Returns false when the mood cannot
// contribute.
func (st *selectState) pickFrom(m Mood, dayLimit int) bool {
	if st.perMood[m] >= st.cap {
		return false
	}
	cands := st.byMood[m]
	if len(cands) == 0 {
		return false
	}

	recent := st.recentBuckets()
	fresh := func(bucket int) bool {
		for _, b := range recent {
			if b == bucket {
				return false
			}
		}
		return true
	}

	fallback := -1
	for i, c := range cands {
		if st.perDay[c.Day()] >= dayLimit {
			continue
		}
		if fresh(c.TimeBucket) {
			st.take(m, i)
			return true
		}
		if fallback == -1 {
			fallback = i
		}
	}
	if fallback >= 0 {
		st.take(m, fallback)
		return true
	}
	return false
}

// roundRobin walks the mood priority order until k moments are selected or
// a full pass contributes nothing.
func (st *selectState) roundRobin(order []Mood, k, dayLimit int) {
	for len(st.selected) < k {
		progressed := false
		for _, m := range order {
			if len(st.selected) == k {
				break
			}
			if st.pickFrom(m, dayLimit) {
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// sortCandidates orders by composite score descending, then creation time
// descending, then id ascending, so tied scores stay deterministic.
func sortCandidates(cands []ScoredMoment) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		if !cands[i].CreatedAt.Equal(cands[j].CreatedAt) {
			return cands[i].CreatedAt.After(cands[j].CreatedAt)
		}
		return cands[i].ID < cands[j].ID
	})
}

// reorderForPlayback breaks up visually repetitive pairs: whenever two
// adjacent moments share both mood and calendar date, the second is
// swapped with its next neighbor.
func reorderForPlayback(items []ScoredMoment) []ScoredMoment {
	out := make([]ScoredMoment, len(items))
	copy(out, items)
	for i := 0; i+2 < len(out); i++ {
		if out[i].Mood == out[i+1].Mood && out[i].Day() == out[i+1].Day() {
			out[i+1], out[i+2] = out[i+2], out[i+1]
		}
	}
	return out
}
