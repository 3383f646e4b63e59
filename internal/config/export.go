// Package config loads export settings from JSON or YAML files.
//
// Every field is a pointer so a partial file leaves unset options at their
// defaults; the Get* accessors apply those defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/coco-export/internal/export"
)

// ExampleConfigPath is the checked-in example configuration.
const ExampleConfigPath = "config/coco-export.example.yaml"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// ExportConfig is the configuration of one export run. Paths are relative
// to the working directory unless made absolute by ResolvePaths.
type ExportConfig struct {
	// Labels is a JSON file holding an array of label rows.
	Labels *string `json:"labels,omitempty" yaml:"labels,omitempty"`
	// Ontology is a JSON file holding the ontology structure.
	Ontology *string `json:"ontology,omitempty" yaml:"ontology,omitempty"`
	// Results is where the COCO document is written. Empty means stdout.
	Results *string `json:"results,omitempty" yaml:"results,omitempty"`

	IncludeVideos              *bool `json:"include_videos,omitempty" yaml:"include_videos,omitempty"`
	IncludeUnannotatedVideos   *bool `json:"include_unannotated_videos,omitempty" yaml:"include_unannotated_videos,omitempty"`
	IncludeTrackID             *bool `json:"include_track_id,omitempty" yaml:"include_track_id,omitempty"`
	IncludeBoundingBoxRotation *bool `json:"include_bounding_box_rotation,omitempty" yaml:"include_bounding_box_rotation,omitempty"`
	IncludeFlatClassifications *bool `json:"include_flat_classifications,omitempty" yaml:"include_flat_classifications,omitempty"`

	DownloadFiles    *bool   `json:"download_files,omitempty" yaml:"download_files,omitempty"`
	DownloadFilePath *string `json:"download_file_path,omitempty" yaml:"download_file_path,omitempty"`
	DownloadWorkers  *int    `json:"download_workers,omitempty" yaml:"download_workers,omitempty"`
	DownloadTimeout  *string `json:"download_timeout,omitempty" yaml:"download_timeout,omitempty"` // duration string like "5m"

	// HistoryDB is the sqlite file export runs are recorded in. Empty
	// disables the history.
	HistoryDB *string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}

func ptrBool(v bool) *bool       { return &v }
func ptrInt(v int) *int          { return &v }
func ptrString(v string) *string { return &v }

// EmptyExportConfig returns a config with every field unset.
func EmptyExportConfig() *ExportConfig {
	return &ExportConfig{}
}

// LoadExportConfig reads a .json, .yaml or .yml file of at most 1MB.
func LoadExportConfig(path string) (*ExportConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyExportConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values that are set.
func (c *ExportConfig) Validate() error {
	if c.DownloadWorkers != nil {
		if *c.DownloadWorkers < 1 || *c.DownloadWorkers > 64 {
			return fmt.Errorf("download_workers must be between 1 and 64, got %d", *c.DownloadWorkers)
		}
	}

	if c.DownloadTimeout != nil && *c.DownloadTimeout != "" {
		d, err := time.ParseDuration(*c.DownloadTimeout)
		if err != nil {
			return fmt.Errorf("invalid download_timeout '%s': %w", *c.DownloadTimeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("download_timeout must be positive, got %s", d)
		}
	}

	if c.GetIncludeUnannotatedVideos() && !c.GetIncludeVideos() {
		return fmt.Errorf("include_unannotated_videos requires include_videos")
	}
	return nil
}

// ResolvePaths makes relative file paths relative to dir, normally the
// directory of the config file.
func (c *ExportConfig) ResolvePaths(dir string) {
	for _, p := range []*string{c.Labels, c.Ontology, c.Results, c.DownloadFilePath, c.HistoryDB} {
		if p != nil && *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// ExportOptions converts the config to exporter options.
func (c *ExportConfig) ExportOptions() export.Options {
	return export.Options{
		IncludeVideos:              c.GetIncludeVideos(),
		IncludeUnannotatedVideos:   c.GetIncludeUnannotatedVideos(),
		IncludeTrackID:             c.GetIncludeTrackID(),
		IncludeBoundingBoxRotation: c.GetIncludeBoundingBoxRotation(),
		IncludeFlatClassifications: c.GetIncludeFlatClassifications(),
		DownloadFilePath:           c.GetDownloadFilePath(),
	}
}

func (c *ExportConfig) GetLabels() string   { return getString(c.Labels, "") }
func (c *ExportConfig) GetOntology() string { return getString(c.Ontology, "") }
func (c *ExportConfig) GetResults() string  { return getString(c.Results, "") }

// GetIncludeVideos defaults to true.
func (c *ExportConfig) GetIncludeVideos() bool { return getBool(c.IncludeVideos, true) }

func (c *ExportConfig) GetIncludeUnannotatedVideos() bool {
	return getBool(c.IncludeUnannotatedVideos, false)
}

func (c *ExportConfig) GetIncludeTrackID() bool { return getBool(c.IncludeTrackID, true) }

func (c *ExportConfig) GetIncludeBoundingBoxRotation() bool {
	return getBool(c.IncludeBoundingBoxRotation, true)
}

func (c *ExportConfig) GetIncludeFlatClassifications() bool {
	return getBool(c.IncludeFlatClassifications, true)
}

func (c *ExportConfig) GetDownloadFiles() bool { return getBool(c.DownloadFiles, false) }

// GetDownloadFilePath defaults to the working directory.
func (c *ExportConfig) GetDownloadFilePath() string { return getString(c.DownloadFilePath, ".") }

// GetDownloadWorkers returns the download pool size, 4 by default.
func (c *ExportConfig) GetDownloadWorkers() int {
	if c.DownloadWorkers == nil {
		return 4
	}
	return *c.DownloadWorkers
}

// GetDownloadTimeout parses DownloadTimeout, 5 minutes by default.
func (c *ExportConfig) GetDownloadTimeout() time.Duration {
	if c.DownloadTimeout == nil || *c.DownloadTimeout == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(*c.DownloadTimeout)
	if err != nil {
		return 5 * time.Minute
	}
	return d
}

func (c *ExportConfig) GetHistoryDB() string { return getString(c.HistoryDB, "") }

func getBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func getString(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}
