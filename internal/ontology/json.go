package ontology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/banshee-data/coco-export/internal/geometry"
)

// flexID accepts ids written either as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type structureJSON struct {
	Objects         []objectJSON         `json:"objects"`
	Classifications []classificationJSON `json:"classifications"`
}

type objectJSON struct {
	ID              flexID          `json:"id"`
	Name            string          `json:"name"`
	Color           string          `json:"color"`
	Shape           string          `json:"shape"`
	FeatureNodeHash string          `json:"featureNodeHash"`
	Required        bool            `json:"required"`
	Attributes      []attributeJSON `json:"attributes,omitempty"`
}

type classificationJSON struct {
	ID              flexID          `json:"id"`
	FeatureNodeHash string          `json:"featureNodeHash"`
	Required        bool            `json:"required,omitempty"`
	Attributes      []attributeJSON `json:"attributes"`
}

type attributeJSON struct {
	ID              flexID       `json:"id"`
	Name            string       `json:"name"`
	Type            string       `json:"type"`
	FeatureNodeHash string       `json:"featureNodeHash"`
	Required        bool         `json:"required"`
	Dynamic         bool         `json:"dynamic"`
	Options         []optionJSON `json:"options,omitempty"`
}

type optionJSON struct {
	ID              flexID          `json:"id"`
	Label           string          `json:"label"`
	Value           string          `json:"value"`
	FeatureNodeHash string          `json:"featureNodeHash"`
	Options         []attributeJSON `json:"options,omitempty"`
}

// Parse decodes an ontology structure payload.
func Parse(data []byte) (*Structure, error) {
	var raw structureJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse ontology JSON: %w", err)
	}

	s := &Structure{}
	for i, o := range raw.Objects {
		if o.FeatureNodeHash == "" {
			return nil, fmt.Errorf("ontology object %d (%q): missing featureNodeHash", i, o.Name)
		}
		shape, err := geometry.ParseShape(o.Shape)
		if err != nil {
			return nil, fmt.Errorf("ontology object %q: %w", o.Name, err)
		}
		attrs, err := decodeAttributes(o.Attributes)
		if err != nil {
			return nil, fmt.Errorf("ontology object %q: %w", o.Name, err)
		}
		s.Objects = append(s.Objects, &Object{
			UID:        string(o.ID),
			Name:       o.Name,
			Color:      o.Color,
			Shape:      shape,
			Hash:       o.FeatureNodeHash,
			Required:   o.Required,
			Attributes: attrs,
		})
	}

	for i, c := range raw.Classifications {
		if c.FeatureNodeHash == "" {
			return nil, fmt.Errorf("ontology classification %d: missing featureNodeHash", i)
		}
		attrs, err := decodeAttributes(c.Attributes)
		if err != nil {
			return nil, fmt.Errorf("ontology classification %q: %w", c.FeatureNodeHash, err)
		}
		s.Classifications = append(s.Classifications, &Classification{
			UID:        string(c.ID),
			Hash:       c.FeatureNodeHash,
			Required:   c.Required,
			Attributes: attrs,
		})
	}
	return s, nil
}

func decodeAttributes(raw []attributeJSON) ([]Attribute, error) {
	out := make([]Attribute, 0, len(raw))
	for _, a := range raw {
		if a.FeatureNodeHash == "" {
			return nil, fmt.Errorf("attribute %q: missing featureNodeHash", a.Name)
		}
		base := AttributeBase{
			UID:      string(a.ID),
			Hash:     a.FeatureNodeHash,
			Name:     a.Name,
			Required: a.Required,
			Dynamic:  a.Dynamic,
		}
		switch Kind(a.Type) {
		case KindText:
			out = append(out, &TextAttribute{AttributeBase: base})
		case KindRadio:
			opts := make([]*NestableOption, 0, len(a.Options))
			for _, o := range a.Options {
				if o.FeatureNodeHash == "" {
					return nil, fmt.Errorf("option %q of %q: missing featureNodeHash", o.Label, a.Name)
				}
				nested, err := decodeAttributes(o.Options)
				if err != nil {
					return nil, err
				}
				opts = append(opts, &NestableOption{
					UID:        string(o.ID),
					Hash:       o.FeatureNodeHash,
					Label:      o.Label,
					Value:      o.Value,
					Attributes: nested,
				})
			}
			out = append(out, &RadioAttribute{AttributeBase: base, Options: opts})
		case KindChecklist:
			opts := make([]*FlatOption, 0, len(a.Options))
			for _, o := range a.Options {
				if o.FeatureNodeHash == "" {
					return nil, fmt.Errorf("option %q of %q: missing featureNodeHash", o.Label, a.Name)
				}
				opts = append(opts, &FlatOption{
					UID:   string(o.ID),
					Hash:  o.FeatureNodeHash,
					Label: o.Label,
					Value: o.Value,
				})
			}
			out = append(out, &ChecklistAttribute{AttributeBase: base, Options: opts})
		default:
			return nil, fmt.Errorf("attribute %q: unknown type %q", a.Name, a.Type)
		}
	}
	return out, nil
}

// MarshalJSON writes the structure in the payload shape Parse reads.
func (s *Structure) MarshalJSON() ([]byte, error) {
	raw := structureJSON{
		Objects:         make([]objectJSON, 0, len(s.Objects)),
		Classifications: make([]classificationJSON, 0, len(s.Classifications)),
	}
	for _, o := range s.Objects {
		raw.Objects = append(raw.Objects, objectJSON{
			ID:              flexID(o.UID),
			Name:            o.Name,
			Color:           o.Color,
			Shape:           o.Shape.String(),
			FeatureNodeHash: o.Hash,
			Required:        o.Required,
			Attributes:      encodeAttributes(o.Attributes),
		})
	}
	for _, c := range s.Classifications {
		raw.Classifications = append(raw.Classifications, classificationJSON{
			ID:              flexID(c.UID),
			FeatureNodeHash: c.Hash,
			Required:        c.Required,
			Attributes:      encodeAttributes(c.Attributes),
		})
	}
	return json.Marshal(raw)
}

func encodeAttributes(attrs []Attribute) []attributeJSON {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attributeJSON, 0, len(attrs))
	for _, a := range attrs {
		b := a.Base()
		aj := attributeJSON{
			ID:              flexID(b.UID),
			Name:            b.Name,
			Type:            string(a.Kind()),
			FeatureNodeHash: b.Hash,
			Required:        b.Required,
			Dynamic:         b.Dynamic,
		}
		switch v := a.(type) {
		case *RadioAttribute:
			for _, o := range v.Options {
				aj.Options = append(aj.Options, optionJSON{
					ID:              flexID(o.UID),
					Label:           o.Label,
					Value:           o.Value,
					FeatureNodeHash: o.Hash,
					Options:         encodeAttributes(o.Attributes),
				})
			}
		case *ChecklistAttribute:
			for _, o := range v.Options {
				aj.Options = append(aj.Options, optionJSON{
					ID:              flexID(o.UID),
					Label:           o.Label,
					Value:           o.Value,
					FeatureNodeHash: o.Hash,
				})
			}
		}
		out = append(out, aj)
	}
	return out
}

// nextID returns the nested id of the n-th (1-based) child under parent.
func nextID(parent string, n int) string {
	if parent == "" {
		return strconv.Itoa(n)
	}
	return parent + "." + strconv.Itoa(n)
}
