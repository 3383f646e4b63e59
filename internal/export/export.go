// Package export assembles a COCO document from label rows and the ontology
// they were labelled against.
//
// An export runs three passes over the rows: categories from the ontology,
// images from the data units, then annotations from the labelled objects.
// Every Export call owns its own id counters and lookup tables, so calling
// Export twice gives identical output and separate Exporters can run
// concurrently.
package export

import (
	"errors"
	"fmt"

	"github.com/banshee-data/coco-export/internal/coco"
	"github.com/banshee-data/coco-export/internal/fsutil"
	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/ontology"
)

// ErrUnknownFeatureHash is matched by errors for objects whose class is not
// in the ontology.
var ErrUnknownFeatureHash = errors.New("feature hash not found in ontology")

// EncodingError aborts an export. The labels and the ontology do not match.
type EncodingError struct {
	FeatureHash string
	ObjectHash  string
	Err         error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("the feature hash %q of object %q was not found in the provided ontology; "+
		"ensure that the ontology matches the labels provided", e.FeatureHash, e.ObjectHash)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Options toggle optional output.
type Options struct {
	IncludeVideos              bool
	IncludeUnannotatedVideos   bool
	IncludeTrackID             bool
	IncludeBoundingBoxRotation bool
	IncludeFlatClassifications bool

	// DownloadFilePath is the media root. Extracted video frames are looked
	// up under {DownloadFilePath}/videos/{data hash}/.
	DownloadFilePath string
}

// DefaultOptions includes videos and every optional attribute.
func DefaultOptions() Options {
	return Options{
		IncludeVideos:              true,
		IncludeTrackID:             true,
		IncludeBoundingBoxRotation: true,
		IncludeFlatClassifications: true,
	}
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithOptions replaces the default options.
func WithOptions(o Options) Option {
	return func(e *Exporter) { e.opts = o }
}

// WithFileSystem sets the filesystem used to find extracted video frames.
func WithFileSystem(fs fsutil.FileSystem) Option {
	return func(e *Exporter) { e.fs = fs }
}

// Exporter converts label rows to COCO. It never mutates its inputs.
type Exporter struct {
	rows      []labels.LabelRow
	structure *ontology.Structure
	index     *ontology.Index
	opts      Options
	fs        fsutil.FileSystem
}

// New returns an exporter over rows and the ontology structure.
func New(rows []labels.LabelRow, structure *ontology.Structure, opts ...Option) *Exporter {
	if structure == nil {
		structure = &ontology.Structure{}
	}
	e := &Exporter{
		rows:      rows,
		structure: structure,
		index:     ontology.NewIndex(structure),
		opts:      DefaultOptions(),
		fs:        fsutil.OSFileSystem{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export builds the document. On an *EncodingError no document is returned.
func (e *Exporter) Export() (*coco.Document, error) {
	r := newRun(e)
	r.info()
	r.categories()
	if err := r.images(); err != nil {
		return nil, err
	}
	if err := r.annotations(); err != nil {
		return nil, err
	}
	return r.doc, nil
}

type imageKey struct {
	dataHash string
	frame    int
}

// run holds the state of one Export call.
type run struct {
	*Exporter

	doc         *coco.Document
	categoryIDs map[string]int
	imageIDs    map[imageKey]int
	trackIDs    map[string]int
	nextID      int
}

func newRun(e *Exporter) *run {
	return &run{
		Exporter:    e,
		doc:         coco.NewDocument(),
		categoryIDs: make(map[string]int),
		imageIDs:    make(map[imageKey]int),
		trackIDs:    make(map[string]int),
	}
}

func (r *run) info() {
	if len(r.rows) > 0 {
		desc := r.rows[0].DataTitle
		r.doc.Info.Description = &desc
	}
}

// categories assigns 1-based ids to the visual ontology objects in order.
// Mask consumers paint category ids into bitmaps, so 0 stays background.
func (r *run) categories() {
	for _, o := range r.structure.Objects {
		if !o.Shape.Visual() {
			continue
		}
		c := coco.Category{
			Supercategory: o.Shape.String(),
			ID:            len(r.doc.Categories) + 1,
			Name:          o.Name,
		}
		if c.Supercategory == "point" {
			c.Keypoints = []string{"keypoint"}
			c.Skeleton = &[][2]int{}
		}
		r.categoryIDs[o.Hash] = c.ID
		r.doc.Categories = append(r.doc.Categories, c)
	}
}

func (r *run) trackID(objectHash string) int {
	id, ok := r.trackIDs[objectHash]
	if !ok {
		id = len(r.trackIDs)
		r.trackIDs[objectHash] = id
	}
	return id
}
