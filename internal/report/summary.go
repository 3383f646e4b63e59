// Package report summarises COCO documents and renders the summaries as
// an HTML page or a PNG chart.
package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/coco-export/internal/coco"
)

// CategoryStats describes the annotations of one category.
type CategoryStats struct {
	ID            int
	Name          string
	Supercategory string
	Annotations   int
	MeanArea      float64
	StdDevArea    float64
}

// Summary holds document-wide counts and area statistics.
type Summary struct {
	Images      int
	Annotations int
	Categories  int
	Crowd       int
	Tracks      int
	// Unannotated counts images without annotations.
	Unannotated int

	AnnotationsPerImage float64
	MeanArea            float64
	StdDevArea          float64
	MedianArea          float64

	// PerCategory follows the category order of the document.
	PerCategory []CategoryStats
}

// Summarize computes the statistics of doc.
func Summarize(doc *coco.Document) Summary {
	s := Summary{
		Images:      len(doc.Images),
		Annotations: len(doc.Annotations),
		Categories:  len(doc.Categories),
	}

	areas := make([]float64, 0, len(doc.Annotations))
	byCategory := make(map[int][]float64)
	annotated := make(map[int]bool)
	tracks := make(map[int]bool)
	for _, a := range doc.Annotations {
		areas = append(areas, a.Area)
		byCategory[a.CategoryID] = append(byCategory[a.CategoryID], a.Area)
		annotated[a.ImageID] = true
		if a.IsCrowd == 1 {
			s.Crowd++
		}
		if a.Attributes.TrackID != nil {
			tracks[*a.Attributes.TrackID] = true
		}
	}
	s.Tracks = len(tracks)
	for _, img := range doc.Images {
		if !annotated[img.ID] {
			s.Unannotated++
		}
	}
	if s.Images > 0 {
		s.AnnotationsPerImage = float64(s.Annotations) / float64(s.Images)
	}
	if len(areas) > 0 {
		s.MeanArea, s.StdDevArea = meanStdDev(areas)
		sort.Float64s(areas)
		s.MedianArea = stat.Quantile(0.5, stat.Empirical, areas, nil)
	}

	for _, c := range doc.Categories {
		cs := CategoryStats{ID: c.ID, Name: c.Name, Supercategory: c.Supercategory}
		if a := byCategory[c.ID]; len(a) > 0 {
			cs.Annotations = len(a)
			cs.MeanArea, cs.StdDevArea = meanStdDev(a)
		}
		s.PerCategory = append(s.PerCategory, cs)
	}
	return s
}

// meanStdDev is stat.MeanStdDev with a zero deviation for single values.
func meanStdDev(x []float64) (mean, std float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

// CategoryCounts maps category name to annotation count. Categories
// sharing a name are added together.
func (s Summary) CategoryCounts() map[string]int {
	counts := make(map[string]int, len(s.PerCategory))
	for _, c := range s.PerCategory {
		counts[c.Name] += c.Annotations
	}
	return counts
}
