package recap

import (
	"math"
	"time"
)

// Scoring weights and shape constants. Composite weights sum to 1 so the
// score stays in [0,1].
const (
	weightRecency   = 0.50
	weightIntensity = 0.25
	weightNovelty   = 0.15
	weightRichness  = 0.10

	decayHalfLifeDays = 14.0 // e-folding time for recency decay
	richnessFullChars = 120  // norm text length that saturates richness

	defaultSignal = 0.5 // missing valence/arousal assumed neutral
)

// Score derives a ScoredMoment from a moment. Pure and deterministic: no
// randomness, no side effects, same inputs always give the same score.
func Score(m Moment, now time.Time, prevUsed map[string]bool) ScoredMoment {
	days := now.Sub(m.CreatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}

	decay := math.Exp(-days / decayHalfLifeDays)

	valence, arousal := defaultSignal, defaultSignal
	if m.Valence != nil {
		valence = *m.Valence
	}
	if m.Arousal != nil {
		arousal = *m.Arousal
	}
	intensity := clamp01(math.Max(valence, arousal))

	novelty := 1.0
	if prevUsed[m.ID] {
		novelty = 0
	}

	richness := math.Min(1, float64(len(m.NormText))/richnessFullChars)

	return ScoredMoment{
		Moment:       m,
		Score:        weightRecency*decay + weightIntensity*intensity + weightNovelty*novelty + weightRichness*richness,
		RecencyDecay: decay,
		Intensity:    intensity,
		Novelty:      novelty,
		TextRichness: richness,
		DaysSince:    days,
		TimeBucket:   timeBucket(days),
	}
}

// ScoreAll scores every moment in the pool.
func ScoreAll(pool []Moment, now time.Time, prevUsed map[string]bool) []ScoredMoment {
	out := make([]ScoredMoment, 0, len(pool))
	for _, m := range pool {
		out = append(out, Score(m, now, prevUsed))
	}
	return out
}

// timeBucket maps days-since-creation onto one of 5 ordinal recency bands.
// The selector uses bucket diversity to avoid picking three items from the
// same stretch of the user's history.
func timeBucket(days float64) int {
	switch {
	case days <= 7:
		return 0
	case days <= 21:
		return 1
	case days <= 45:
		return 2
	case days <= 90:
		return 3
	default:
		return 4
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
