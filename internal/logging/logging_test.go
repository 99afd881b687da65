package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupWriterEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter("info", false, &buf)

	log.Info().Str("user_id", "u1").Msg("built")

	out := buf.String()
	if !strings.Contains(out, `"user_id":"u1"`) || !strings.Contains(out, `"message":"built"`) {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := SetupWriter("warn", false, &buf)

	log.Debug().Msg("hidden")
	log.Warn().Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug line emitted at warn level")
	}
	if !strings.Contains(out, "visible") {
		t.Error("warn line missing")
	}
}

func TestParseLevelFallback(t *testing.T) {
	if got := parseLevel("nonsense"); got != zerolog.InfoLevel {
		t.Errorf("parseLevel(nonsense) = %v, want info", got)
	}
	if got := parseLevel("DEBUG"); got != zerolog.DebugLevel {
		t.Errorf("parseLevel(DEBUG) = %v, want debug", got)
	}
}
