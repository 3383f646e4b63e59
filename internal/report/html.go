package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/coco-export/internal/store"
)

// WriteHTML renders s as an interactive page: annotations and mean area
// per category, and when history is not empty, annotation counts of past
// runs, oldest first.
func WriteHTML(w io.Writer, title string, s Summary, history []store.Run) error {
	names := make([]string, len(s.PerCategory))
	counts := make([]opts.BarData, len(s.PerCategory))
	areas := make([]opts.BarData, len(s.PerCategory))
	for i, c := range s.PerCategory {
		names[i] = c.Name
		counts[i] = opts.BarData{Value: c.Annotations}
		areas[i] = opts.BarData{Value: fmt.Sprintf("%.1f", c.MeanArea)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "560px"}),
		charts.WithTitleOpts(opts.Title{
			Title: title,
			Subtitle: fmt.Sprintf("images=%d annotations=%d categories=%d crowd=%d",
				s.Images, s.Annotations, s.Categories, s.Crowd),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
	)
	bar.SetXAxis(names).
		AddSeries("annotations", counts,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		).
		AddSeries("mean area (px)", areas)

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(bar)

	if len(history) > 0 {
		x := make([]string, len(history))
		y := make([]opts.LineData, len(history))
		// history arrives newest first
		for i, run := range history {
			j := len(history) - 1 - i
			x[j] = run.StartedAt.Format("2006-01-02 15:04")
			y[j] = opts.LineData{Value: run.Annotations}
		}
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px"}),
			charts.WithTitleOpts(opts.Title{Title: "Export history", Subtitle: fmt.Sprintf("runs=%d", len(history))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		)
		line.SetXAxis(x).AddSeries("annotations", y)
		page.AddCharts(line)
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}
