package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/coco-export/internal/coco"
	"github.com/banshee-data/coco-export/internal/store"
	"github.com/banshee-data/coco-export/internal/testutil"
)

func writeDocument(t *testing.T, dir string) string {
	t.Helper()
	desc := "street scenes"
	doc := coco.NewDocument()
	doc.Info.Description = &desc
	doc.Categories = []coco.Category{
		{Supercategory: "bounding_box", ID: 1, Name: "Car"},
		{Supercategory: "polygon", ID: 2, Name: "Person"},
	}
	doc.Images = []coco.Image{{ID: 0, FileName: "images/a.png"}, {ID: 1, FileName: "images/b.png"}}
	doc.Annotations = []coco.Annotation{
		{ID: 0, ImageID: 0, CategoryID: 1, Area: 100},
		{ID: 1, ImageID: 0, CategoryID: 1, Area: 300},
		{ID: 2, ImageID: 0, CategoryID: 2, Area: 40},
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Encode(&buf))
	return testutil.WriteFile(t, dir, "coco.json", buf.String())
}

func TestRunSummary(t *testing.T) {
	dir := t.TempDir()
	input := writeDocument(t, dir)
	htmlPath := filepath.Join(dir, "report.html")
	pngPath := filepath.Join(dir, "categories.png")

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-input", input, "-html", htmlPath, "-png", pngPath}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	out := stdout.String()
	assert.True(t, strings.HasPrefix(out, "street scenes\n"))
	assert.Contains(t, out, "images: 2 (1 without annotations)")
	assert.Contains(t, out, "annotations: 3")
	assert.Regexp(t, `1\s+Car\s+bounding_box\s+2\s+200.0`, out)

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Person")

	info, err := os.Stat(pngPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunHistory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = s.RecordRun(ctx, historyRun(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), 7, ""))
	require.NoError(t, err)
	_, err = s.RecordRun(ctx, historyRun(time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), 0, "feature hash not found"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	var stdout bytes.Buffer
	require.NoError(t, run(ctx, []string{"-history-db", dbPath}, &stdout, &bytes.Buffer{}))

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "feature hash not found", "newest run first")
	assert.Contains(t, lines[2], "ok")
}

func TestRunUsage(t *testing.T) {
	var stdout bytes.Buffer
	assert.Error(t, run(context.Background(), nil, &stdout, &bytes.Buffer{}))

	require.NoError(t, run(context.Background(), []string{"-version"}, &stdout, &bytes.Buffer{}))
	assert.Contains(t, stdout.String(), "coco-stats")

	err := run(context.Background(), []string{"-input", filepath.Join(t.TempDir(), "missing.json")}, &stdout, &bytes.Buffer{})
	assert.Error(t, err)
}

func historyRun(started time.Time, annotations int, errMsg string) store.Run {
	return store.Run{StartedAt: started, Annotations: annotations, Images: 1, Error: errMsg}
}
