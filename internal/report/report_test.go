package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/coco-export/internal/coco"
	"github.com/banshee-data/coco-export/internal/store"
)

func track(id int) *int { return &id }

func testDocument() *coco.Document {
	doc := coco.NewDocument()
	doc.Categories = []coco.Category{
		{Supercategory: "bounding_box", ID: 1, Name: "Car"},
		{Supercategory: "polygon", ID: 2, Name: "Person"},
		{Supercategory: "point", ID: 3, Name: "Tip"},
	}
	doc.Images = []coco.Image{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}}
	doc.Annotations = []coco.Annotation{
		{ID: 0, ImageID: 0, CategoryID: 1, Area: 100, Attributes: coco.Attributes{TrackID: track(0)}},
		{ID: 1, ImageID: 1, CategoryID: 1, Area: 300, Attributes: coco.Attributes{TrackID: track(0)}},
		{ID: 2, ImageID: 1, CategoryID: 2, Area: 50, IsCrowd: 1, Attributes: coco.Attributes{TrackID: track(1)}},
		{ID: 3, ImageID: 2, CategoryID: 2, Area: 10},
	}
	return doc
}

func TestSummarize(t *testing.T) {
	s := Summarize(testDocument())

	assert.Equal(t, 4, s.Images)
	assert.Equal(t, 4, s.Annotations)
	assert.Equal(t, 3, s.Categories)
	assert.Equal(t, 1, s.Crowd)
	assert.Equal(t, 2, s.Tracks)
	assert.Equal(t, 1, s.Unannotated)
	assert.InDelta(t, 1.0, s.AnnotationsPerImage, 1e-9)
	assert.InDelta(t, 115.0, s.MeanArea, 1e-9)
	// empirical median of 10, 50, 100, 300
	assert.InDelta(t, 50.0, s.MedianArea, 1e-9)

	require.Len(t, s.PerCategory, 3)
	car := s.PerCategory[0]
	assert.Equal(t, "Car", car.Name)
	assert.Equal(t, 2, car.Annotations)
	assert.InDelta(t, 200.0, car.MeanArea, 1e-9)
	assert.InDelta(t, 141.42135623730951, car.StdDevArea, 1e-9)

	tip := s.PerCategory[2]
	assert.Equal(t, 0, tip.Annotations)
	assert.Zero(t, tip.MeanArea)

	assert.Equal(t, map[string]int{"Car": 2, "Person": 2, "Tip": 0}, s.CategoryCounts())
}

func TestSummarizeSingleAndEmpty(t *testing.T) {
	s := Summarize(coco.NewDocument())
	assert.Zero(t, s.Annotations)
	assert.Zero(t, s.AnnotationsPerImage)
	assert.Empty(t, s.PerCategory)

	doc := testDocument()
	doc.Annotations = doc.Annotations[:1]
	s = Summarize(doc)
	assert.InDelta(t, 100.0, s.MeanArea, 1e-9)
	assert.Zero(t, s.StdDevArea)
	assert.Zero(t, s.PerCategory[0].StdDevArea)
}

func TestWriteHTML(t *testing.T) {
	history := []store.Run{
		{StartedAt: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC), Annotations: 4},
		{StartedAt: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), Annotations: 3},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, "street scenes", Summarize(testDocument()), history))

	html := buf.String()
	assert.Contains(t, html, "street scenes")
	assert.Contains(t, html, "Person")
	assert.Contains(t, html, "Export history")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("2024-03-01 09:00")), bytes.Index(buf.Bytes(), []byte("2024-03-02 09:00")))

	buf.Reset()
	require.NoError(t, WriteHTML(&buf, "no history", Summarize(testDocument()), nil))
	assert.NotContains(t, buf.String(), "Export history")
}

func TestSavePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "categories.png")
	require.NoError(t, SavePNG(path, "street scenes", Summarize(testDocument())))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	assert.Error(t, SavePNG(path, "empty", Summarize(coco.NewDocument())))
}
