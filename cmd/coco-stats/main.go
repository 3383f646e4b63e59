// Command coco-stats summarises a COCO file and the export history.
//
//	coco-stats -input coco.json [-html report.html] [-png categories.png]
//	coco-stats -history-db runs.db [-runs 20]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/coco-export/internal/coco"
	"github.com/banshee-data/coco-export/internal/report"
	"github.com/banshee-data/coco-export/internal/store"
	"github.com/banshee-data/coco-export/internal/version"
)

type options struct {
	input     string
	htmlPath  string
	pngPath   string
	historyDB string
	runs      int
	title     string
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("coco-stats: %v", err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	fs := flag.NewFlagSet("coco-stats", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.input, "input", "", "COCO file to summarise")
	fs.StringVar(&opts.htmlPath, "html", "", "write an interactive HTML report here")
	fs.StringVar(&opts.pngPath, "png", "", "write a per-category bar chart here (.png, .svg or .pdf)")
	fs.StringVar(&opts.historyDB, "history-db", "", "export history database")
	fs.IntVar(&opts.runs, "runs", 10, "number of recent runs to list")
	fs.StringVar(&opts.title, "title", "", "report title (default: the dataset description or file name)")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *showVersion {
		fmt.Fprintln(stdout, version.String("coco-stats"))
		return nil
	}
	if opts.input == "" && opts.historyDB == "" {
		fs.Usage()
		return errors.New("nothing to do: set -input or -history-db")
	}

	var history []store.Run
	if opts.historyDB != "" {
		s, err := store.Open(opts.historyDB)
		if err != nil {
			return err
		}
		defer s.Close()
		if history, err = s.Runs(ctx, opts.runs); err != nil {
			return err
		}
		printRuns(stdout, history)
	}

	if opts.input == "" {
		return nil
	}
	doc, err := readDocument(opts.input)
	if err != nil {
		return err
	}
	title := opts.title
	if title == "" {
		title = filepath.Base(opts.input)
		if doc.Info.Description != nil && *doc.Info.Description != "" {
			title = *doc.Info.Description
		}
	}

	sum := report.Summarize(doc)
	printSummary(stdout, title, sum)

	if opts.htmlPath != "" {
		if err := writeHTML(opts.htmlPath, title, sum, history); err != nil {
			return err
		}
	}
	if opts.pngPath != "" {
		if err := report.SavePNG(opts.pngPath, title, sum); err != nil {
			return err
		}
	}
	return nil
}

func readDocument(path string) (*coco.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open COCO file: %w", err)
	}
	defer f.Close()
	return coco.Decode(f)
}

func writeHTML(path, title string, sum report.Summary, history []store.Run) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return report.WriteHTML(f, title, sum, history)
}

func printSummary(w io.Writer, title string, s report.Summary) {
	fmt.Fprintf(w, "%s\n", title)
	fmt.Fprintf(w, "images: %d (%d without annotations)\n", s.Images, s.Unannotated)
	fmt.Fprintf(w, "annotations: %d (%.2f per image, %d crowd, %d tracks)\n",
		s.Annotations, s.AnnotationsPerImage, s.Crowd, s.Tracks)
	fmt.Fprintf(w, "area: mean %.1f, std %.1f, median %.1f\n\n", s.MeanArea, s.StdDevArea, s.MedianArea)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tSHAPE\tANNOTATIONS\tMEAN AREA\tSTD AREA")
	for _, c := range s.PerCategory {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%.1f\t%.1f\n",
			c.ID, c.Name, c.Supercategory, c.Annotations, c.MeanArea, c.StdDevArea)
	}
	tw.Flush()
}

func printRuns(w io.Writer, runs []store.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no export runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tRUN\tIMAGES\tANNOTATIONS\tDURATION\tRESULT")
	for _, r := range runs {
		result := "ok"
		if r.Error != "" {
			result = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.ID, r.Images, r.Annotations,
			r.Duration.Round(time.Millisecond), result)
	}
	tw.Flush()
	fmt.Fprintln(w)
}
