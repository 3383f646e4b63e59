// Package testutil provides shared test helpers for parsing payloads,
// writing fixture files and capturing log output.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/monitoring"
	"github.com/banshee-data/coco-export/internal/ontology"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// MustRows parses each payload (a label row object or an array of them)
// and concatenates the rows.
func MustRows(t testing.TB, payloads ...string) []labels.LabelRow {
	t.Helper()
	var rows []labels.LabelRow
	for _, p := range payloads {
		r, err := labels.ParseLabelRows([]byte(p))
		AssertNoError(t, err)
		rows = append(rows, r...)
	}
	return rows
}

// MustOntology parses an ontology structure.
func MustOntology(t testing.TB, data string) *ontology.Structure {
	t.Helper()
	s, err := ontology.Parse([]byte(data))
	AssertNoError(t, err)
	return s
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(t testing.TB, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	AssertNoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	AssertNoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

// MuteLogs routes monitoring output into a Recorder until the test ends.
func MuteLogs(t testing.TB) *monitoring.Recorder {
	t.Helper()
	prev := monitoring.Logf
	rec := &monitoring.Recorder{}
	monitoring.SetLogger(rec.Logf)
	t.Cleanup(func() { monitoring.SetLogger(prev) })
	return rec
}
