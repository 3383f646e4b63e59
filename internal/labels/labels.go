// Package labels decodes label row payloads into typed records.
//
// Field names follow the platform's JSON contract exactly. Maps whose
// iteration order drives id assignment (data units, frames) are decoded
// into ordered slices that keep document order.
package labels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Label row data types.
const (
	DataTypeImage      = "image"
	DataTypeImageGroup = "img_group"
	DataTypeVideo      = "video"
	DataTypeDICOM      = "dicom"
	DataTypeNIfTI      = "nifti"
	DataTypeAudio      = "audio"
	DataTypeText       = "text"
	DataTypePDF        = "pdf"
)

// LabelRow is the full annotation payload for one data asset.
type LabelRow struct {
	LabelHash     string                   `json:"label_hash"`
	DataHash      string                   `json:"data_hash"`
	DataTitle     string                   `json:"data_title"`
	DataType      string                   `json:"data_type"`
	DataUnits     DataUnits                `json:"data_units"`
	ObjectAnswers map[string]ObjectAnswer  `json:"object_answers"`
	ObjectActions map[string]ObjectActions `json:"object_actions"`
}

// IsAudio reports whether the row annotates audio, which has no pixels.
func (r *LabelRow) IsAudio() bool {
	return strings.EqualFold(r.DataType, DataTypeAudio)
}

// DataUnit is one file of a label row: an image, a video, a DICOM series
// or a NIfTI volume.
type DataUnit struct {
	Hash     string          `json:"data_hash"`
	Title    string          `json:"data_title"`
	Type     string          `json:"data_type"`
	Link     string          `json:"data_link"`
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Sequence int             `json:"data_sequence"`
	Labels   json.RawMessage `json:"labels"`
}

// Object is one annotated instance within a frame.
type Object struct {
	ObjectHash       string `json:"objectHash"`
	FeatureHash      string `json:"featureHash"`
	Shape            string `json:"shape"`
	ManualAnnotation bool   `json:"manualAnnotation"`
	Name             string `json:"name"`
	Color            string `json:"color"`
	Value            string `json:"value"`

	// Raw is the complete object JSON; geometry is read from it by shape.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the common fields and keeps the raw payload.
func (o *Object) UnmarshalJSON(data []byte) error {
	type plain Object
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*o = Object(p)
	o.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON writes back the raw payload when present.
func (o Object) MarshalJSON() ([]byte, error) {
	if len(o.Raw) > 0 {
		return o.Raw, nil
	}
	type plain Object
	return json.Marshal(plain(o))
}

// DicomMetadata is attached to DICOM frame labels.
type DicomMetadata struct {
	DicomInstanceUID      string `json:"dicom_instance_uid"`
	MultiframeFrameNumber *int   `json:"multiframe_frame_number"`
	FileURI               string `json:"file_uri"`
	Width                 int    `json:"width"`
	Height                int    `json:"height"`
}

// FrameLabels holds the objects of one frame. For single images Frame is 0.
type FrameLabels struct {
	Frame           int               `json:"-"`
	Objects         []Object          `json:"objects"`
	Classifications []json.RawMessage `json:"classifications"`
	Metadata        *DicomMetadata    `json:"metadata,omitempty"`
}

// ObjectAnswer carries the static classification answers of one object.
type ObjectAnswer struct {
	ObjectHash      string   `json:"objectHash"`
	Classifications []Answer `json:"classifications"`
}

// Answer is one answered attribute.
type Answer struct {
	Name             string  `json:"name"`
	Value            string  `json:"value"`
	FeatureHash      string  `json:"featureHash"`
	ManualAnnotation bool    `json:"manualAnnotation"`
	Answers          Answers `json:"answers"`
}

// ObjectActions carries the dynamic, frame-ranged answers of one object.
type ObjectActions struct {
	ObjectHash string   `json:"objectHash"`
	Actions    []Action `json:"actions"`
}

// Action is a dynamic answer valid over inclusive frame ranges.
type Action struct {
	FeatureHash string   `json:"featureHash"`
	Name        string   `json:"name"`
	Value       string   `json:"value"`
	Range       [][2]int `json:"range"`
	Answers     Answers  `json:"answers"`
	Dynamic     bool     `json:"dynamic"`
}

// AnswerOption is one selected option.
type AnswerOption struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	FeatureHash string `json:"featureHash"`
}

// Answers is either free text (text attributes) or a list of selected
// options (radio and checklist attributes).
type Answers struct {
	Text    *string
	Options []AnswerOption
}

// TextAnswers returns answers holding free text.
func TextAnswers(s string) Answers { return Answers{Text: &s} }

// UnmarshalJSON accepts a string, a list of options or null.
func (a *Answers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*a = Answers{}
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Answers{Text: &s}
	case data[0] == '[':
		var opts []AnswerOption
		if err := json.Unmarshal(data, &opts); err != nil {
			return err
		}
		*a = Answers{Options: opts}
	default:
		return fmt.Errorf("answers: unexpected JSON %.20q", data)
	}
	return nil
}

// MarshalJSON writes the text or the option list.
func (a Answers) MarshalJSON() ([]byte, error) {
	if a.Text != nil {
		return json.Marshal(*a.Text)
	}
	if a.Options == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a.Options)
}
