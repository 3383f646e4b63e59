package labels

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// DataUnits is the data_units map decoded in document order.
type DataUnits []DataUnit

// UnmarshalJSON walks the object with gjson so that iteration order matches
// the payload. A data unit without data_hash takes its map key.
func (d *DataUnits) UnmarshalJSON(data []byte) error {
	root := gjson.ParseBytes(data)
	if root.Type == gjson.Null {
		*d = nil
		return nil
	}
	if !root.IsObject() {
		return fmt.Errorf("data_units: expected object")
	}

	var units DataUnits
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		var du DataUnit
		if err = json.Unmarshal([]byte(value.Raw), &du); err != nil {
			err = fmt.Errorf("data unit %q: %w", key.String(), err)
			return false
		}
		if du.Hash == "" {
			du.Hash = key.String()
		}
		units = append(units, du)
		return true
	})
	if err != nil {
		return err
	}
	*d = units
	return nil
}

// MarshalJSON writes the units back as an object keyed by data hash.
func (d DataUnits) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, du := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(du.Hash)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(du)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ImageLabels decodes labels of a single-image data unit.
func (du DataUnit) ImageLabels() (FrameLabels, error) {
	var fl FrameLabels
	if len(bytes.TrimSpace(du.Labels)) == 0 {
		return fl, nil
	}
	if err := json.Unmarshal(du.Labels, &fl); err != nil {
		return FrameLabels{}, fmt.Errorf("labels of data unit %s: %w", du.Hash, err)
	}
	return fl, nil
}

// Frames decodes per-frame labels of a video, DICOM or NIfTI data unit in
// document order. Keys that are not frame numbers are ignored.
func (du DataUnit) Frames() ([]FrameLabels, error) {
	root := gjson.ParseBytes(du.Labels)
	if !root.IsObject() {
		return nil, nil
	}

	var frames []FrameLabels
	var err error
	root.ForEach(func(key, value gjson.Result) bool {
		n, convErr := strconv.Atoi(key.String())
		if convErr != nil {
			return true
		}
		var fl FrameLabels
		if value.IsObject() {
			if err = json.Unmarshal([]byte(value.Raw), &fl); err != nil {
				err = fmt.Errorf("frame %d of data unit %s: %w", n, du.Hash, err)
				return false
			}
		}
		fl.Frame = n
		frames = append(frames, fl)
		return true
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// ParseLabelRows decodes a JSON array of label rows, or a single row.
func ParseLabelRows(data []byte) ([]LabelRow, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var row LabelRow
		if err := json.Unmarshal(trimmed, &row); err != nil {
			return nil, fmt.Errorf("failed to parse label row: %w", err)
		}
		return []LabelRow{row}, nil
	}
	var rows []LabelRow
	if err := json.Unmarshal(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse label rows: %w", err)
	}
	return rows, nil
}
