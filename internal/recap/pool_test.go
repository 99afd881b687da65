package recap

import (
	"testing"
	"time"
)

const qualityText = "a moment with enough text to clear the quality floor"

func TestBuildPoolEmptyInput(t *testing.T) {
	pool := BuildPool(nil, testNow, nil, nil, DefaultPoolOptions())
	if len(pool) != 0 {
		t.Errorf("pool = %d items, want 0", len(pool))
	}
}

func TestBuildPoolNarrowWindowPreferred(t *testing.T) {
	records := []Moment{
		mkMoment("a", 2, MoodJoy, qualityText),
		mkMoment("b", 10, MoodCalm, qualityText),
		mkMoment("c", 25, MoodFear, qualityText),
		mkMoment("d", 60, MoodAnger, qualityText), // outside narrow window
	}

	pool := BuildPool(records, testNow, nil, nil, DefaultPoolOptions())
	if len(pool) != 3 {
		t.Fatalf("pool = %d items, want 3 (narrow window)", len(pool))
	}
	for _, m := range pool {
		if m.ID == "d" {
			t.Error("record outside narrow window included despite sufficient pool")
		}
	}
}

func TestBuildPoolWidensWhenThin(t *testing.T) {
	records := []Moment{
		mkMoment("a", 2, MoodJoy, qualityText),
		mkMoment("b", 60, MoodCalm, qualityText),
		mkMoment("c", 80, MoodFear, qualityText),
		mkMoment("d", 200, MoodAnger, qualityText), // outside even the wide window
	}

	pool := BuildPool(records, testNow, nil, nil, DefaultPoolOptions())
	if len(pool) != 3 {
		t.Fatalf("pool = %d items, want 3 (wide window fallback)", len(pool))
	}
}

func TestBuildPoolPrefersAfterLastBuild(t *testing.T) {
	lastBuild := testNow.AddDate(0, 0, -5)
	records := []Moment{
		mkMoment("new1", 1, MoodJoy, qualityText),
		mkMoment("new2", 2, MoodCalm, qualityText),
		mkMoment("new3", 3, MoodFear, qualityText),
		mkMoment("old1", 10, MoodAnger, qualityText),
	}

	pool := BuildPool(records, testNow, &lastBuild, nil, DefaultPoolOptions())
	if len(pool) != 3 {
		t.Fatalf("pool = %d items, want 3", len(pool))
	}
	for _, m := range pool {
		if m.ID == "old1" {
			t.Error("pre-build record kept although three fresh records exist")
		}
	}
}

func TestBuildPoolKeepsOlderWhenFreshTooFew(t *testing.T) {
	lastBuild := testNow.AddDate(0, 0, -5)
	records := []Moment{
		mkMoment("new1", 1, MoodJoy, qualityText),
		mkMoment("new2", 2, MoodCalm, qualityText),
		mkMoment("old1", 10, MoodAnger, qualityText),
		mkMoment("old2", 12, MoodFear, qualityText),
	}

	pool := BuildPool(records, testNow, &lastBuild, nil, DefaultPoolOptions())
	if len(pool) != 4 {
		t.Fatalf("pool = %d items, want 4 (stricter filter rolled back)", len(pool))
	}
}

func TestBuildPoolQualityFloor(t *testing.T) {
	short := mkMoment("short", 1, MoodJoy, "meh")
	withSignal := mkMoment("signal", 2, MoodCalm, "ok")
	withSignal.Arousal = ptr(0.8)
	long := mkMoment("long", 3, MoodFear, qualityText)

	pool := BuildPool([]Moment{short, withSignal, long}, testNow, nil, nil, DefaultPoolOptions())

	ids := map[string]bool{}
	for _, m := range pool {
		ids[m.ID] = true
	}
	if ids["short"] {
		t.Error("short signal-less record passed the quality floor")
	}
	if !ids["signal"] {
		t.Error("short record with a signal was dropped")
	}
	if !ids["long"] {
		t.Error("long record was dropped")
	}
}

func TestBuildPoolExcludesPreviouslyUsed(t *testing.T) {
	records := []Moment{
		mkMoment("a", 1, MoodJoy, qualityText),
		mkMoment("b", 2, MoodCalm, qualityText),
		mkMoment("c", 3, MoodFear, qualityText),
		mkMoment("d", 4, MoodAnger, qualityText),
	}
	prevUsed := map[string]bool{"d": true}

	pool := BuildPool(records, testNow, nil, prevUsed, DefaultPoolOptions())
	if len(pool) != 3 {
		t.Fatalf("pool = %d items, want 3", len(pool))
	}
	for _, m := range pool {
		if m.ID == "d" {
			t.Error("previously used record kept although pool was large enough")
		}
	}
}

// Scenario E: previous build's id set fully overlaps the only available
// pool; at most one previously-used record is re-admitted.
func TestBuildPoolReadmitsAtMostOne(t *testing.T) {
	records := []Moment{
		mkMoment("a", 1, MoodJoy, qualityText),
		mkMoment("b", 2, MoodCalm, qualityText),
		mkMoment("c", 3, MoodFear, qualityText),
	}
	prevUsed := map[string]bool{"a": true, "b": true, "c": true}

	pool := BuildPool(records, testNow, nil, prevUsed, DefaultPoolOptions())
	if len(pool) != 1 {
		t.Fatalf("pool = %d items, want exactly 1 re-admitted", len(pool))
	}
	// The most recent previously-used record is the one re-admitted.
	if pool[0].ID != "a" {
		t.Errorf("re-admitted %q, want most recent (a)", pool[0].ID)
	}
}

func TestBuildPoolReadmissionTopsUpSmallPool(t *testing.T) {
	records := []Moment{
		mkMoment("fresh", 1, MoodJoy, qualityText),
		mkMoment("used1", 2, MoodCalm, qualityText),
		mkMoment("used2", 3, MoodFear, qualityText),
	}
	prevUsed := map[string]bool{"used1": true, "used2": true}

	pool := BuildPool(records, testNow, nil, prevUsed, DefaultPoolOptions())
	if len(pool) != 2 {
		t.Fatalf("pool = %d items, want 2 (one fresh, one re-admitted)", len(pool))
	}

	var readmitted int
	for _, m := range pool {
		if prevUsed[m.ID] {
			readmitted++
		}
	}
	if readmitted != 1 {
		t.Errorf("re-admitted %d used records, want 1", readmitted)
	}
}

func TestBuildPoolIgnoresFutureRecords(t *testing.T) {
	future := Moment{
		ID:        "future",
		UserID:    "u1",
		CreatedAt: testNow.Add(24 * time.Hour),
		Text:      qualityText,
		NormText:  qualityText,
		Mood:      MoodJoy,
	}
	pool := BuildPool([]Moment{future}, testNow, nil, nil, DefaultPoolOptions())
	if len(pool) != 0 {
		t.Errorf("future-dated record entered the pool")
	}
}
