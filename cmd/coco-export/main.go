// Command coco-export converts label rows and their ontology into a COCO
// dataset.
//
// Settings come from an optional config file (-config); flags given on the
// command line override the file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/banshee-data/coco-export/internal/config"
	"github.com/banshee-data/coco-export/internal/download"
	"github.com/banshee-data/coco-export/internal/fsutil"
	"github.com/banshee-data/coco-export/internal/httputil"
	"github.com/banshee-data/coco-export/internal/timeutil"
	"github.com/banshee-data/coco-export/internal/version"
)

func main() {
	cfg, showVersion, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("coco-export: %v", err)
	}
	if showVersion {
		fmt.Println(version.String("coco-export"))
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := &exporter{
		fs:        fsutil.OSFileSystem{},
		client:    httputil.NewStandardClient(nil, version.UserAgent()),
		extractor: download.FFmpeg{},
		clock:     timeutil.RealClock{},
		stdout:    os.Stdout,
	}
	if err := e.run(ctx, cfg); err != nil {
		log.Fatalf("coco-export: %v", err)
	}
}

// parseArgs builds the export config from the config file and the flags
// that were set explicitly.
func parseArgs(args []string, stderr io.Writer) (cfg *config.ExportConfig, showVersion bool, err error) {
	fs := flag.NewFlagSet("coco-export", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "export config file (.json, .yaml or .yml)")
	versionFlag := fs.Bool("version", false, "print version information and exit")

	labelsPath := fs.String("labels", "", "label rows JSON file")
	ontologyPath := fs.String("ontology", "", "ontology JSON file")
	results := fs.String("results", "", "COCO output file (default stdout)")

	includeVideos := fs.Bool("include-videos", true, "export video frames")
	includeUnannotated := fs.Bool("include-unannotated-videos", false, "export every extracted video frame, labelled or not")
	includeTrackID := fs.Bool("include-track-id", true, "write track ids")
	includeRotation := fs.Bool("include-bounding-box-rotation", true, "write rotatable box angles")
	includeFlat := fs.Bool("include-flat-classifications", true, "write resolved classification answers")

	downloadFiles := fs.Bool("download-files", false, "download images and videos before exporting")
	downloadPath := fs.String("download-file-path", ".", "media root for downloads and extracted frames")
	downloadWorkers := fs.Int("download-workers", download.DefaultWorkers, "concurrent downloads")
	downloadTimeout := fs.Duration("download-timeout", download.DefaultTimeout, "time limit per downloaded file")

	historyDB := fs.String("history-db", "", "sqlite file to record export runs in")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}
	if fs.NArg() > 0 {
		return nil, false, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *versionFlag {
		return nil, true, nil
	}

	cfg = config.EmptyExportConfig()
	if *configPath != "" {
		if cfg, err = config.LoadExportConfig(*configPath); err != nil {
			return nil, false, err
		}
		cfg.ResolvePaths(filepath.Dir(*configPath))
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "labels":
			cfg.Labels = labelsPath
		case "ontology":
			cfg.Ontology = ontologyPath
		case "results":
			cfg.Results = results
		case "include-videos":
			cfg.IncludeVideos = includeVideos
		case "include-unannotated-videos":
			cfg.IncludeUnannotatedVideos = includeUnannotated
		case "include-track-id":
			cfg.IncludeTrackID = includeTrackID
		case "include-bounding-box-rotation":
			cfg.IncludeBoundingBoxRotation = includeRotation
		case "include-flat-classifications":
			cfg.IncludeFlatClassifications = includeFlat
		case "download-files":
			cfg.DownloadFiles = downloadFiles
		case "download-file-path":
			cfg.DownloadFilePath = downloadPath
		case "download-workers":
			cfg.DownloadWorkers = downloadWorkers
		case "download-timeout":
			s := downloadTimeout.Round(time.Millisecond).String()
			cfg.DownloadTimeout = &s
		case "history-db":
			cfg.HistoryDB = historyDB
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}
