package recap

import "fmt"

// Mood is the closed emotional-category enum attached to every moment.
type Mood string

const (
	MoodJoy      Mood = "joy"
	MoodCalm     Mood = "calm"
	MoodSadness  Mood = "sadness"
	MoodAnger    Mood = "anger"
	MoodFear     Mood = "fear"
	MoodSurprise Mood = "surprise"
)

// AllMoods lists every mood in canonical order. Callers that need a build-
// specific ordering shuffle a copy; this slice itself is never reordered.
var AllMoods = []Mood{MoodJoy, MoodCalm, MoodSadness, MoodAnger, MoodFear, MoodSurprise}

// ParseMood validates a raw string against the closed enum.
func ParseMood(s string) (Mood, error) {
	switch Mood(s) {
	case MoodJoy, MoodCalm, MoodSadness, MoodAnger, MoodFear, MoodSurprise:
		return Mood(s), nil
	}
	return "", fmt.Errorf("invalid mood %q", s)
}

// MoodStyle is the per-mood presentation table entry: display label, the
// palette tint the client animates with, and an ambient audio tag.
type MoodStyle struct {
	Label string
	Tint  string
	Audio string
}

// StyleFor returns the presentation entry for a mood.
func StyleFor(m Mood) MoodStyle {
	switch m {
	case MoodJoy:
		return MoodStyle{Label: "Joy", Tint: "#f6c94c", Audio: "bright"}
	case MoodCalm:
		return MoodStyle{Label: "Calm", Tint: "#7fb8a4", Audio: "still"}
	case MoodSadness:
		return MoodStyle{Label: "Sadness", Tint: "#5b7fa6", Audio: "low"}
	case MoodAnger:
		return MoodStyle{Label: "Anger", Tint: "#c9543e", Audio: "pulse"}
	case MoodFear:
		return MoodStyle{Label: "Fear", Tint: "#6e5b8f", Audio: "hollow"}
	case MoodSurprise:
		return MoodStyle{Label: "Surprise", Tint: "#e08a4e", Audio: "spark"}
	}
	return MoodStyle{Label: string(m), Tint: "#888888", Audio: "still"}
}
