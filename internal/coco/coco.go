// Package coco defines the COCO dataset document written by the exporter.
//
// Struct field order fixes the JSON key order, and map-valued fields are
// written with sorted keys, so encoding the same document twice yields the
// same bytes.
package coco

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/coco-export/internal/mask"
)

// Document is a COCO dataset.
type Document struct {
	Info        Info         `json:"info"`
	Licenses    []License    `json:"licenses"`
	Categories  []Category   `json:"categories"`
	Images      []Image      `json:"images"`
	Annotations []Annotation `json:"annotations"`
}

// NewDocument returns a document whose lists encode as [] rather than null.
func NewDocument() *Document {
	return &Document{
		Licenses:    []License{},
		Categories:  []Category{},
		Images:      []Image{},
		Annotations: []Annotation{},
	}
}

// Info describes the dataset. Unknown fields are written as null.
type Info struct {
	Description *string `json:"description"`
	Contributor *string `json:"contributor"`
	DateCreated *string `json:"date_created"`
	URL         *string `json:"url"`
	Version     *string `json:"version"`
	Year        *int    `json:"year"`
}

// License is never populated by the exporter.
type License struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Category is one ontology object class. Point classes carry keypoint
// metadata.
type Category struct {
	Supercategory string    `json:"supercategory"`
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Keypoints     []string  `json:"keypoints,omitempty"`
	Skeleton      *[][2]int `json:"skeleton,omitempty"`
}

// Image is one image, video frame, DICOM instance or NIfTI slice.
type Image struct {
	CocoURL    string `json:"coco_url"`
	ID         int    `json:"id"`
	ImageTitle string `json:"image_title,omitempty"`
	VideoTitle string `json:"video_title,omitempty"`
	FileName   string `json:"file_name"`
	Height     int    `json:"height"`
	Width      int    `json:"width"`
}

// Annotation is one object instance on one image.
type Annotation struct {
	Area         float64      `json:"area"`
	BBox         [4]float64   `json:"bbox"`
	CategoryID   int          `json:"category_id"`
	ImageID      int          `json:"image_id"`
	IsCrowd      int          `json:"iscrowd"`
	Segmentation Segmentation `json:"segmentation"`
	Keypoints    []float64    `json:"keypoints"`
	NumKeypoints *int         `json:"num_keypoints"`
	ID           int          `json:"id"`
	Attributes   Attributes   `json:"attributes"`
}

// Attributes are the platform extensions of an annotation. Nil fields are
// omitted.
type Attributes struct {
	TrackID          *int           `json:"track_id,omitempty"`
	EncordTrackUUID  *string        `json:"encord_track_uuid,omitempty"`
	Rotation         *float64       `json:"rotation,omitempty"`
	Classifications  map[string]any `json:"classifications,omitzero"`
	ManualAnnotation *bool          `json:"manual_annotation,omitempty"`
}

// Segmentation is either a list of flat polygons or an RLE mask.
type Segmentation struct {
	Polygons [][]float64
	RLE      *mask.RLE
}

type rleJSON struct {
	Counts string `json:"counts"`
	Size   [2]int `json:"size"`
}

// MarshalJSON writes {"counts", "size"} for masks, otherwise the polygon
// list. An empty segmentation is [].
func (s Segmentation) MarshalJSON() ([]byte, error) {
	if s.RLE != nil {
		return json.Marshal(rleJSON{Counts: s.RLE.String(), Size: s.RLE.Size})
	}
	if s.Polygons == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Polygons)
}

// UnmarshalJSON accepts both forms. Uncompressed RLE counts (a list of
// integers) are accepted too.
func (s *Segmentation) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = Segmentation{}
		return nil
	}
	switch data[0] {
	case '[':
		var polys [][]float64
		if err := json.Unmarshal(data, &polys); err != nil {
			return fmt.Errorf("segmentation polygons: %w", err)
		}
		*s = Segmentation{Polygons: polys}
		return nil
	case '{':
		var raw struct {
			Counts json.RawMessage `json:"counts"`
			Size   [2]int          `json:"size"`
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("segmentation mask: %w", err)
		}
		var rle mask.RLE
		var compressed string
		if err := json.Unmarshal(raw.Counts, &compressed); err == nil {
			rle = mask.FromString(compressed, raw.Size[0], raw.Size[1])
		} else {
			rle.Size = raw.Size
			if err := json.Unmarshal(raw.Counts, &rle.Counts); err != nil {
				return fmt.Errorf("segmentation counts: %w", err)
			}
		}
		*s = Segmentation{RLE: &rle}
		return nil
	}
	return fmt.Errorf("segmentation: unexpected JSON %.20q", data)
}

// Encode writes the document as indented JSON.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("failed to encode COCO document: %w", err)
	}
	return nil
}

// Decode reads a document written by Encode or by other COCO tooling.
func Decode(r io.Reader) (*Document, error) {
	d := NewDocument()
	if err := json.NewDecoder(r).Decode(d); err != nil {
		return nil, fmt.Errorf("failed to decode COCO document: %w", err)
	}
	return d, nil
}
