package report

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// SavePNG writes a bar chart of annotations per category. The format
// follows the file extension of path, as with plot.Save.
func SavePNG(path, title string, s Summary) error {
	if len(s.PerCategory) == 0 {
		return fmt.Errorf("no categories to plot")
	}

	values := make(plotter.Values, len(s.PerCategory))
	names := make([]string, len(s.PerCategory))
	for i, c := range s.PerCategory {
		values[i] = float64(c.Annotations)
		names[i] = c.Name
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "Annotations"
	p.Y.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("failed to create bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(names...)

	width := vg.Length(len(names))*vg.Centimeter + 8*vg.Centimeter
	if err := p.Save(width, 10*vg.Centimeter, path); err != nil {
		return fmt.Errorf("failed to save chart %s: %w", path, err)
	}
	return nil
}
