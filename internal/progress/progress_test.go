package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestStageAnnouncements(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.StartStage(StageValidate)
	r.StageComplete("Valid midi file")

	out := buf.String()
	if !strings.Contains(out, "[1/4]") {
		t.Errorf("missing stage counter: %q", out)
	}
	if !strings.Contains(out, "Valid midi file") {
		t.Errorf("missing completion line: %q", out)
	}
}

func TestUpdateRespectsVerbosity(t *testing.T) {
	var quiet bytes.Buffer
	NewReporter(&quiet, false).Update("parsed %d notes", 12)
	if quiet.Len() != 0 {
		t.Errorf("non-verbose reporter should drop updates, got %q", quiet.String())
	}

	var loud bytes.Buffer
	NewReporter(&loud, true).Update("parsed %d notes", 12)
	if !strings.Contains(loud.String(), "parsed 12 notes") {
		t.Errorf("verbose reporter should print updates, got %q", loud.String())
	}
}

func TestDoneAndWarning(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf, false)

	r.Warning("cache save failed: %v", "disk full")
	r.Done("Chopin")

	out := buf.String()
	if !strings.Contains(out, "Warning: cache save failed: disk full") {
		t.Errorf("missing warning: %q", out)
	}
	if !strings.Contains(out, "Most likely composer: Chopin") {
		t.Errorf("missing done line: %q", out)
	}
	if !strings.Contains(out, "Completed in") {
		t.Errorf("missing elapsed line: %q", out)
	}
}
