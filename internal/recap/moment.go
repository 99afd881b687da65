// Package recap builds reverie playback scripts: it curates a small,
// diverse subset of a user's past moments and renders them into a
// fixed-duration beat timeline. The whole package is a pure synchronous
// computation except for the orchestrator in build.go, which talks to the
// moment store and the bookkeeping/script store at the edges.
package recap

import (
	"strings"
	"time"
)

// Moment is one timestamped emotional record. Immutable once read; the
// core never writes moments back.
type Moment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
	NormText  string    `json:"norm_text"`
	Mood      Mood      `json:"mood"`

	// Optional emotional signals in [0,1]; nil when the client sent none.
	Valence *float64 `json:"valence,omitempty"`
	Arousal *float64 `json:"arousal,omitempty"`
}

// Day returns the moment's calendar date, used for same-day diversity caps.
func (m Moment) Day() string {
	return m.CreatedAt.Format("2006-01-02")
}

// NormalizeText collapses runs of whitespace and trims the result. Applied
// once at write time; the scorer and selectors only ever see NormText.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ScoredMoment wraps a Moment with the derived fields the selector works
// from. Recomputed on every build, never persisted.
type ScoredMoment struct {
	Moment

	Score        float64 `json:"score"`
	RecencyDecay float64 `json:"recency_decay"`
	Intensity    float64 `json:"intensity"`
	Novelty      float64 `json:"novelty"`
	TextRichness float64 `json:"text_richness"`
	DaysSince    float64 `json:"days_since"`
	TimeBucket   int     `json:"time_bucket"`
}

// Bookkeeping records the outcome of a user's last successful build. Read
// once at build start, overwritten once at build end.
type Bookkeeping struct {
	LastBuiltAt time.Time `json:"last_built_at"`
	LastKind    Kind      `json:"last_kind"`
	UsedIDs     []string  `json:"used_ids"`
}

// UsedIDSet returns the previous build's ids as a lookup set.
func (b *Bookkeeping) UsedIDSet() map[string]bool {
	if b == nil {
		return map[string]bool{}
	}
	set := make(map[string]bool, len(b.UsedIDs))
	for _, id := range b.UsedIDs {
		set[id] = true
	}
	return set
}
