package recap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ishaan-bit/reverie/internal/seedrand"
)

// Kind tags the cadence a build belongs to.
type Kind string

const (
	KindDaily  Kind = "daily"
	KindWeekly Kind = "weekly"
)

// ParseKind validates a raw build kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDaily, KindWeekly:
		return Kind(s), nil
	case "":
		return KindDaily, nil
	}
	return "", fmt.Errorf("invalid build kind %q", s)
}

// Status is the symbolic outcome of a build attempt. Non-build outcomes
// are expected terminal states, not errors.
type Status string

const (
	StatusBuilt      Status = "built"
	StatusIneligible Status = "ineligible"
	StatusSkipped    Status = "sporadic-skip"
	StatusNoData     Status = "no-data"
)

// Outcome is what a build attempt returns to the caller. Script is set
// only when Status is StatusBuilt.
type Outcome struct {
	Status Status  `json:"status"`
	Script *Script `json:"script,omitempty"`
}

// Sentinel errors surfaced across the orchestrator boundary.
var (
	// ErrInvariant marks a timeline or selection invariant violation. The
	// build attempt is aborted rather than returning a partially-valid script.
	ErrInvariant = errors.New("recap invariant violated")

	// ErrAlreadyBuilt means another writer won the per-day build identity;
	// stores return it from PutScript.
	ErrAlreadyBuilt = errors.New("script already built for this period")
)

// RecordProvider supplies a user's moments. The core assumes no ordering.
type RecordProvider interface {
	ListMomentsSince(ctx context.Context, userID string, since time.Time) ([]Moment, error)
}

// BookkeepingStore holds per-user build bookkeeping. Get returns (nil, nil)
// for a user with no recorded build.
type BookkeepingStore interface {
	GetBookkeeping(ctx context.Context, userID string) (*Bookkeeping, error)
	PutBookkeeping(ctx context.Context, userID string, bk Bookkeeping) error
}

// ScriptStore persists produced scripts. PutScript must enforce
// at-most-one-write-wins per (user, date, kind) and return ErrAlreadyBuilt
// to the losing writer.
type ScriptStore interface {
	PutScript(ctx context.Context, script *Script) error
}

// Options tunes the orchestrator. Zero value is unusable; use DefaultOptions.
type Options struct {
	Pool PoolOptions

	// SkipChance is the sporadic gate's probability of declining an
	// otherwise eligible build.
	SkipChance float64

	// Minimum time since the last build before another may run.
	DailyInterval  time.Duration
	WeeklyInterval time.Duration

	// ScriptTTL sets each script's expiry, independent of bookkeeping expiry.
	ScriptTTL time.Duration
}

// DefaultOptions returns the product defaults.
func DefaultOptions() Options {
	return Options{
		Pool:           DefaultPoolOptions(),
		SkipChance:     0.15,
		DailyInterval:  20 * time.Hour,
		WeeklyInterval: 6 * 24 * time.Hour,
		ScriptTTL:      72 * time.Hour,
	}
}

// Builder sequences one build: eligibility, the sporadic gate, pool
// construction, K determination, selection, and timeline generation. It is
// the only piece of the package that performs I/O, and all of it happens
// before or after the pure core computation.
type Builder struct {
	Records RecordProvider
	Books   BookkeepingStore
	Scripts ScriptStore
	Opts    Options

	// Now is the clock, swappable in tests. Defaults to time.Now.
	Now func() time.Time

	Log zerolog.Logger
}

// NewBuilder wires a Builder with default options.
func NewBuilder(records RecordProvider, books BookkeepingStore, scripts ScriptStore, log zerolog.Logger) *Builder {
	return &Builder{
		Records: records,
		Books:   books,
		Scripts: scripts,
		Opts:    DefaultOptions(),
		Now:     time.Now,
		Log:     log,
	}
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b *Builder) minInterval(kind Kind) time.Duration {
	if kind == KindWeekly {
		return b.Opts.WeeklyInterval
	}
	return b.Opts.DailyInterval
}

// Build runs one build attempt for a user. Expected non-build outcomes
// (ineligible, sporadic-skip, no-data) come back as Outcome statuses with
// a nil error; errors are reserved for invariant violations and
// collaborator failures. Retry policy, if any, belongs to the caller.
func (b *Builder) Build(ctx context.Context, userID string, kind Kind) (Outcome, error) {
	now := b.now()
	date := now.Format("2006-01-02")
	log := b.Log.With().Str("user_id", userID).Str("kind", string(kind)).Logger()

	bk, err := b.Books.GetBookkeeping(ctx, userID)
	if err != nil {
		return Outcome{}, fmt.Errorf("read bookkeeping: %w", err)
	}

	if bk != nil && now.Sub(bk.LastBuiltAt) < b.minInterval(kind) {
		log.Debug().Time("last_built_at", bk.LastBuiltAt).Msg("build ineligible, too soon")
		return Outcome{Status: StatusIneligible}, nil
	}

	gate := seedrand.New(seedrand.Join(userID, date, string(kind), "gate"))
	if gate.Chance(b.Opts.SkipChance) {
		log.Debug().Msg("sporadic gate declined build")
		return Outcome{Status: StatusSkipped}, nil
	}

	since := now.AddDate(0, 0, -b.Opts.Pool.WideDays)
	records, err := b.Records.ListMomentsSince(ctx, userID, since)
	if err != nil {
		return Outcome{}, fmt.Errorf("list moments: %w", err)
	}

	var lastBuiltAt *time.Time
	if bk != nil {
		t := bk.LastBuiltAt
		lastBuiltAt = &t
	}
	prevUsed := bk.UsedIDSet()

	pool := BuildPool(records, now, lastBuiltAt, prevUsed, b.Opts.Pool)
	if len(pool) == 0 {
		log.Debug().Int("records", len(records)).Msg("empty pool, no build")
		return Outcome{Status: StatusNoData}, nil
	}

	scored := ScoreAll(pool, now, prevUsed)

	k := DetermineK(len(pool), seedrand.New(seedrand.Join(userID, date, string(kind), "count")))
	if k == 0 {
		return Outcome{Status: StatusNoData}, nil
	}

	sel := SelectCores(scored, k, seedrand.New(seedrand.Join(userID, date, string(kind), "order")))
	if len(sel.Items) == 0 {
		return Outcome{Status: StatusNoData}, nil
	}
	if sel.Shortfall > 0 {
		log.Debug().Int("k", k).Int("selected", len(sel.Items)).Msg("diversity caps left selection short")
	}

	lines := make([]string, len(sel.Items))
	for i, it := range sel.Items {
		lines[i] = LineFor(it.Moment, seedrand.New(seedrand.Join(userID, date, string(kind), "line", it.ID)))
	}

	beats, duration, err := GenerateTimeline(sel.Items, lines)
	if err != nil {
		return Outcome{}, err
	}

	usedIDs := make([]string, len(sel.Items))
	for i, it := range sel.Items {
		usedIDs[i] = it.ID
	}

	script := &Script{
		ID:            uuid.New().String(),
		UserID:        userID,
		Kind:          kind,
		CreatedAt:     now,
		ExpiresAt:     now.Add(b.Opts.ScriptTTL),
		Duration:      duration,
		Palette:       dominantMood(sel.Items),
		Opening:       OpeningLine(kind, seedrand.New(seedrand.Join(userID, date, string(kind), "opening"))),
		Beats:         beats,
		UsedMomentIDs: usedIDs,
	}

	if err := b.Scripts.PutScript(ctx, script); err != nil {
		if errors.Is(err, ErrAlreadyBuilt) {
			// A concurrent build for the same period won the write.
			log.Debug().Msg("concurrent build already persisted a script")
			return Outcome{Status: StatusIneligible}, nil
		}
		return Outcome{}, fmt.Errorf("persist script: %w", err)
	}

	if err := b.Books.PutBookkeeping(ctx, userID, Bookkeeping{
		LastBuiltAt: now,
		LastKind:    kind,
		UsedIDs:     usedIDs,
	}); err != nil {
		return Outcome{}, fmt.Errorf("write bookkeeping: %w", err)
	}

	log.Info().
		Str("script_id", script.ID).
		Int("pool", len(pool)).
		Int("k", len(sel.Items)).
		Str("palette", string(script.Palette)).
		Msg("reverie built")

	return Outcome{Status: StatusBuilt, Script: script}, nil
}

// dominantMood returns the most frequent mood among the selected moments,
// breaking ties toward the earlier playback position.
func dominantMood(items []ScoredMoment) Mood {
	counts := map[Mood]int{}
	best := items[0].Mood
	for _, it := range items {
		counts[it.Mood]++
	}
	for _, it := range items {
		if counts[it.Mood] > counts[best] {
			best = it.Mood
		}
	}
	return best
}
