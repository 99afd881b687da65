package recap

import (
	"fmt"
	"strings"

	"github.com/ishaan-bit/reverie/internal/seedrand"
)

// Display copy for the playback client. Each mood has a small set of line
// templates; the variant for a given moment is drawn from a stream seeded
// with that moment's id, so re-running a build reproduces the same copy.

const excerptMaxChars = 48

var momentTemplates = map[Mood][]string{
	MoodJoy: {
		"A little spark from that day: %q",
		"This one still glows: %q",
		"You were lit up when you wrote %q",
	},
	MoodCalm: {
		"A quiet stretch: %q",
		"You found some stillness here: %q",
		"Breathing room, in your words: %q",
	},
	MoodSadness: {
		"This one sat heavy: %q",
		"A softer day: %q",
		"You let yourself feel it: %q",
	},
	MoodAnger: {
		"This one burned: %q",
		"You didn't hold back: %q",
		"Still sharp around the edges: %q",
	},
	MoodFear: {
		"You named the worry: %q",
		"This one took courage to write: %q",
		"A shaky moment, kept anyway: %q",
	},
	MoodSurprise: {
		"Out of nowhere: %q",
		"You didn't see this coming: %q",
		"A curveball of a day: %q",
	},
}

var openingTemplates = map[Kind][]string{
	KindDaily: {
		"A few moments worth another look.",
		"Here's what's been on your mind lately.",
		"Some echoes from your recent days.",
	},
	KindWeekly: {
		"Your week, in a handful of moments.",
		"Seven days, distilled.",
		"A look back across the week.",
	},
}

// LineFor renders the display line for one selected moment.
func LineFor(m Moment, r *seedrand.Rand) string {
	templates, ok := momentTemplates[m.Mood]
	if !ok {
		templates = momentTemplates[MoodCalm]
	}
	return fmt.Sprintf(seedrand.Pick(r, templates), excerpt(m.NormText))
}

// OpeningLine renders the script's opening line for a build kind.
func OpeningLine(kind Kind, r *seedrand.Rand) string {
	templates, ok := openingTemplates[kind]
	if !ok {
		templates = openingTemplates[KindDaily]
	}
	return seedrand.Pick(r, templates)
}

// excerpt trims the moment text to a display-sized fragment, cutting at a
// word boundary when one is close enough.
func excerpt(s string) string {
	if len(s) <= excerptMaxChars {
		return s
	}
	cut := s[:excerptMaxChars]
	if idx := strings.LastIndexByte(cut, ' '); idx > excerptMaxChars-16 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + "…"
}
