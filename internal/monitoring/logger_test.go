package monitoring

import (
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("test")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()

	Logf("test message: %s", "value")
}

func TestRecorder(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	rec := &Recorder{}
	SetLogger(rec.Logf)
	Logf("[export] skipped %d objects", 3)
	Logf("[geometry] %s", "warning")

	lines := rec.Lines()
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "[export] skipped 3 objects" {
		t.Errorf("Unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "[geometry]") {
		t.Errorf("Unexpected second line %q", lines[1])
	}

	// Lines returns a copy
	lines[0] = "mutated"
	if rec.Lines()[0] == "mutated" {
		t.Error("Lines should return a copy")
	}
}
