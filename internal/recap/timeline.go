package recap

import (
	"fmt"
	"time"
)

// Timeline shape. The script always plays for totalSeconds: takeoff, a
// drift interlude, K moment slots, then the resolve tail. Drift shortens
// as K grows so the moment slots keep enough room.
const (
	totalSeconds   = 18.0
	takeoffSeconds = 2.0
	resolveSeconds = 3.5

	// minSlotSeconds is the fatal floor for per-moment display time. The K
	// determiner decrements K until this holds; the generator re-checks and
	// treats a violation as an invariant failure.
	minSlotSeconds = 1.2

	// durationTolerance bounds the allowed drift of the assembled script's
	// total duration around totalSeconds.
	durationTolerance = 0.3
)

// BeatKind discriminates timeline events.
type BeatKind string

const (
	BeatTakeoff BeatKind = "takeoff"
	BeatDrift   BeatKind = "drift"
	BeatMoment  BeatKind = "moment"
	BeatResolve BeatKind = "resolve"
)

// Beat is one timed event in the playback script. Moment beats carry the
// selected moment's id, mood and display line; the resolve beat carries the
// focus mood the closing animation settles on.
type Beat struct {
	Offset float64  `json:"offset"`
	Kind   BeatKind `json:"kind"`

	MomentID  string `json:"moment_id,omitempty"`
	Mood      Mood   `json:"mood,omitempty"`
	Line      string `json:"line,omitempty"`
	FocusMood Mood   `json:"focus_mood,omitempty"`
}

// Script is the build's output: a self-contained playback script the
// client animates. Immutable once produced.
type Script struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Kind          Kind      `json:"kind"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	Duration      float64   `json:"duration"`
	Palette       Mood      `json:"palette"`
	Opening       string    `json:"opening"`
	Beats         []Beat    `json:"beats"`
	UsedMomentIDs []string  `json:"used_moment_ids"`
}

func driftSeconds(k int) float64 {
	switch {
	case k <= 4:
		return 3.0
	case k <= 6:
		return 2.5
	default:
		return 2.0
	}
}

// slotDuration returns the per-moment display time for k moments, the
// remainder of the budget after takeoff, drift and resolve.
func slotDuration(k int) float64 {
	if k <= 0 {
		return 0
	}
	return (totalSeconds - takeoffSeconds - driftSeconds(k) - resolveSeconds) / float64(k)
}

// GenerateTimeline lays the selected moments onto the fixed duration
// budget and validates the result. lines must be parallel to items. Any
// violation is fatal for the build attempt and reported via ErrInvariant.
func GenerateTimeline(items []ScoredMoment, lines []string) ([]Beat, float64, error) {
	k := len(items)
	if k == 0 {
		return nil, 0, fmt.Errorf("%w: no moments to lay out", ErrInvariant)
	}
	if len(lines) != k {
		return nil, 0, fmt.Errorf("%w: %d lines for %d moments", ErrInvariant, len(lines), k)
	}

	slot := slotDuration(k)
	if slot < minSlotSeconds {
		return nil, 0, fmt.Errorf("%w: slot %.3fs below %.1fs floor for k=%d", ErrInvariant, slot, minSlotSeconds, k)
	}

	drift := driftSeconds(k)
	beats := make([]Beat, 0, k+3)
	beats = append(beats, Beat{Offset: 0, Kind: BeatTakeoff})
	beats = append(beats, Beat{Offset: takeoffSeconds, Kind: BeatDrift})
	for i, it := range items {
		beats = append(beats, Beat{
			Offset:   takeoffSeconds + drift + float64(i)*slot,
			Kind:     BeatMoment,
			MomentID: it.ID,
			Mood:     it.Mood,
			Line:     lines[i],
		})
	}
	beats = append(beats, Beat{
		Offset:    totalSeconds - resolveSeconds,
		Kind:      BeatResolve,
		FocusMood: items[0].Mood,
	})

	duration := beats[len(beats)-1].Offset + resolveSeconds
	if err := validateTimeline(beats, k, duration); err != nil {
		return nil, 0, err
	}
	return beats, duration, nil
}

func validateTimeline(beats []Beat, k int, duration float64) error {
	moments := 0
	for _, b := range beats {
		if b.Kind == BeatMoment {
			moments++
		}
	}
	if moments != k {
		return fmt.Errorf("%w: %d moment beats, want %d", ErrInvariant, moments, k)
	}
	for i := 1; i < len(beats); i++ {
		if beats[i].Offset <= beats[i-1].Offset {
			return fmt.Errorf("%w: beat offsets not strictly increasing at index %d (%.3f after %.3f)",
				ErrInvariant, i, beats[i].Offset, beats[i-1].Offset)
		}
	}
	if duration < totalSeconds-durationTolerance || duration > totalSeconds+durationTolerance {
		return fmt.Errorf("%w: duration %.3fs outside [%.1f, %.1f]",
			ErrInvariant, duration, totalSeconds-durationTolerance, totalSeconds+durationTolerance)
	}
	return nil
}
