package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/coco-export/internal/coco"
	"github.com/banshee-data/coco-export/internal/config"
	"github.com/banshee-data/coco-export/internal/download"
	"github.com/banshee-data/coco-export/internal/export"
	"github.com/banshee-data/coco-export/internal/fsutil"
	"github.com/banshee-data/coco-export/internal/httputil"
	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/monitoring"
	"github.com/banshee-data/coco-export/internal/ontology"
	"github.com/banshee-data/coco-export/internal/report"
	"github.com/banshee-data/coco-export/internal/store"
	"github.com/banshee-data/coco-export/internal/timeutil"
)

// exporter runs one export with injectable collaborators.
type exporter struct {
	fs        fsutil.FileSystem
	client    httputil.HTTPClient
	extractor download.FrameExtractor
	clock     timeutil.Clock
	stdout    io.Writer
}

// run exports, then records the run in the history database when one is
// configured. Failed exports are recorded too. A history failure is
// logged and does not fail the export.
func (e *exporter) run(ctx context.Context, cfg *config.ExportConfig) error {
	started := e.clock.Now()
	doc, err := e.export(ctx, cfg)

	rec := store.Run{
		StartedAt: started,
		Duration:  e.clock.Since(started),
		Labels:    cfg.GetLabels(),
		Ontology:  cfg.GetOntology(),
		Results:   cfg.GetResults(),
	}
	if err != nil {
		rec.Error = err.Error()
	} else {
		s := report.Summarize(doc)
		rec.Images = s.Images
		rec.Annotations = s.Annotations
		rec.Categories = s.Categories
		rec.CategoryCounts = s.CategoryCounts()
		monitoring.Logf("[export] %d images, %d annotations, %d categories in %s",
			s.Images, s.Annotations, s.Categories, rec.Duration)
	}

	if path := cfg.GetHistoryDB(); path != "" {
		if herr := e.record(ctx, path, rec); herr != nil {
			monitoring.Logf("[history] failed to record export run: %v", herr)
		}
	}
	return err
}

func (e *exporter) record(ctx context.Context, path string, rec store.Run) error {
	s, err := store.Open(path, store.WithClock(e.clock))
	if err != nil {
		return err
	}
	defer s.Close()
	rec, err = s.RecordRun(ctx, rec)
	if err != nil {
		return err
	}
	monitoring.Logf("[history] recorded run %s", rec.ID)
	return nil
}

func (e *exporter) export(ctx context.Context, cfg *config.ExportConfig) (*coco.Document, error) {
	rows, err := e.readLabels(cfg.GetLabels())
	if err != nil {
		return nil, err
	}
	structure, err := e.readOntology(cfg.GetOntology())
	if err != nil {
		return nil, err
	}

	if cfg.GetDownloadFiles() {
		d := download.New(cfg.GetDownloadFilePath(),
			download.WithHTTPClient(e.client),
			download.WithFileSystem(e.fs),
			download.WithFrameExtractor(e.extractor),
			download.WithWorkers(cfg.GetDownloadWorkers()),
			download.WithTimeout(cfg.GetDownloadTimeout()),
			download.WithVideos(cfg.GetIncludeVideos()),
		)
		sum, err := d.Download(ctx, rows)
		if err != nil {
			return nil, err
		}
		monitoring.Logf("[download] fetched %d images and %d videos (%d bytes)", sum.Images, sum.Videos, sum.Bytes)
	}

	doc, err := export.New(rows, structure,
		export.WithOptions(cfg.ExportOptions()),
		export.WithFileSystem(e.fs),
	).Export()
	if err != nil {
		return nil, err
	}

	if err := e.writeResults(cfg.GetResults(), doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (e *exporter) readLabels(path string) ([]labels.LabelRow, error) {
	if path == "" {
		return nil, errors.New("no labels file given; set -labels or labels in the config")
	}
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	rows, err := labels.ParseLabelRows(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse labels %s: %w", path, err)
	}
	return rows, nil
}

// readOntology returns an empty structure when no file is given.
func (e *exporter) readOntology(path string) (*ontology.Structure, error) {
	if path == "" {
		return &ontology.Structure{}, nil
	}
	data, err := e.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ontology: %w", err)
	}
	s, err := ontology.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ontology %s: %w", path, err)
	}
	return s, nil
}

func (e *exporter) writeResults(path string, doc *coco.Document) (err error) {
	if path == "" || path == "-" {
		return doc.Encode(e.stdout)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	w, err := e.fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer func() {
		err = errors.Join(err, w.Close())
	}()
	return doc.Encode(w)
}
