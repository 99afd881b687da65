package recap

import (
	"sort"
	"time"
)

// Pool construction constants.
const (
	minPoolSize      = 3  // filters below this size are relaxed or rolled back
	minQualityChars  = 30 // norm text shorter than this needs a signal to qualify
	maxReadmittedIDs = 1  // previously-used moments re-admitted when starved
)

// PoolOptions sets the recency windows the pool builder tries, narrow first.
type PoolOptions struct {
	NarrowDays int
	WideDays   int
}

// DefaultPoolOptions matches the product cadence: prefer the last month,
// reach back a quarter when the journal is thin.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{NarrowDays: 30, WideDays: 90}
}

// BuildPool filters a user's moments into the eligible candidate pool.
// An empty result is a valid terminal state (the build reports "no data"),
// not an error. The steps, each applied only while at least minPoolSize
// candidates survive:
//
//  1. restrict to the narrow recency window, widening if too few qualify
//  2. prefer moments created after the previous build, if enough exist
//  3. drop low-quality moments (short text, no emotional signal)
//  4. exclude moments used by the previous build, re-admitting at most one
//     when exclusion would starve the pool
func BuildPool(records []Moment, now time.Time, lastBuiltAt *time.Time, prevUsed map[string]bool, opts PoolOptions) []Moment {
	pool := withinWindow(records, now, opts.NarrowDays)
	if len(pool) < minPoolSize {
		pool = withinWindow(records, now, opts.WideDays)
	}

	if lastBuiltAt != nil {
		fresh := make([]Moment, 0, len(pool))
		for _, m := range pool {
			if m.CreatedAt.After(*lastBuiltAt) {
				fresh = append(fresh, m)
			}
		}
		if len(fresh) >= minPoolSize {
			pool = fresh
		}
	}

	qualified := make([]Moment, 0, len(pool))
	for _, m := range pool {
		if len(m.NormText) >= minQualityChars || m.Valence != nil || m.Arousal != nil {
			qualified = append(qualified, m)
		}
	}
	pool = qualified

	unused := make([]Moment, 0, len(pool))
	used := make([]Moment, 0, len(pool))
	for _, m := range pool {
		if prevUsed[m.ID] {
			used = append(used, m)
		} else {
			unused = append(unused, m)
		}
	}
	if len(unused) >= minPoolSize || len(used) == 0 {
		return unused
	}

	// Starved: re-admit the most recent previously-used moment, never more.
	sort.Slice(used, func(i, j int) bool {
		if !used[i].CreatedAt.Equal(used[j].CreatedAt) {
			return used[i].CreatedAt.After(used[j].CreatedAt)
		}
		return used[i].ID < used[j].ID
	})
	return append(unused, used[:maxReadmittedIDs]...)
}

func withinWindow(records []Moment, now time.Time, days int) []Moment {
	cutoff := now.AddDate(0, 0, -days)
	out := make([]Moment, 0, len(records))
	for _, m := range records {
		if !m.CreatedAt.Before(cutoff) && !m.CreatedAt.After(now) {
			out = append(out, m)
		}
	}
	return out
}
