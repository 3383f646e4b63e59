package ontology

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/coco-export/internal/geometry"
)

// newFeatureHash returns a short random feature hash. Tests may replace it.
var newFeatureHash = func() string {
	return uuid.NewString()[:8]
}

var whitespace = regexp.MustCompile(`\s`)

// optionValue derives the machine value of an option from its label.
func optionValue(label string) string {
	return strings.ToLower(whitespace.ReplaceAllString(label, "_"))
}

// AddObject appends a new object class with a generated feature hash.
func (s *Structure) AddObject(name string, shape geometry.Shape) *Object {
	o := &Object{
		UID:   nextID("", len(s.Objects)+1),
		Name:  name,
		Shape: shape,
		Hash:  newFeatureHash(),
	}
	s.Objects = append(s.Objects, o)
	return o
}

// AddClassification appends a frame-level classification whose single
// top-level attribute is of the given kind.
func (s *Structure) AddClassification(kind Kind, name string) (*Classification, Attribute) {
	c := &Classification{
		UID:  nextID("", len(s.Classifications)+1),
		Hash: newFeatureHash(),
	}
	a := addAttribute(&c.Attributes, c.UID, kind, name, false)
	s.Classifications = append(s.Classifications, c)
	return c, a
}

// AddTextAttribute appends a text attribute to the object.
func (o *Object) AddTextAttribute(name string, dynamic bool) *TextAttribute {
	return addAttribute(&o.Attributes, o.UID, KindText, name, dynamic).(*TextAttribute)
}

// AddRadioAttribute appends a radio attribute to the object.
func (o *Object) AddRadioAttribute(name string, dynamic bool) *RadioAttribute {
	return addAttribute(&o.Attributes, o.UID, KindRadio, name, dynamic).(*RadioAttribute)
}

// AddChecklistAttribute appends a checklist attribute to the object.
func (o *Object) AddChecklistAttribute(name string, dynamic bool) *ChecklistAttribute {
	return addAttribute(&o.Attributes, o.UID, KindChecklist, name, dynamic).(*ChecklistAttribute)
}

// AddOption appends a radio option.
func (a *RadioAttribute) AddOption(label string) *NestableOption {
	o := &NestableOption{
		UID:   nextID(a.UID, len(a.Options)+1),
		Hash:  newFeatureHash(),
		Label: label,
		Value: optionValue(label),
	}
	a.Options = append(a.Options, o)
	return o
}

// AddOption appends a checklist option.
func (a *ChecklistAttribute) AddOption(label string) *FlatOption {
	o := &FlatOption{
		UID:   nextID(a.UID, len(a.Options)+1),
		Hash:  newFeatureHash(),
		Label: label,
		Value: optionValue(label),
	}
	a.Options = append(a.Options, o)
	return o
}

// AddAttribute nests an attribute under a radio option.
func (o *NestableOption) AddAttribute(kind Kind, name string) Attribute {
	return addAttribute(&o.Attributes, o.UID, kind, name, false)
}

func addAttribute(list *[]Attribute, parentUID string, kind Kind, name string, dynamic bool) Attribute {
	base := AttributeBase{
		UID:     nextID(parentUID, len(*list)+1),
		Hash:    newFeatureHash(),
		Name:    name,
		Dynamic: dynamic,
	}
	var a Attribute
	switch kind {
	case KindRadio:
		a = &RadioAttribute{AttributeBase: base}
	case KindChecklist:
		a = &ChecklistAttribute{AttributeBase: base}
	default:
		a = &TextAttribute{AttributeBase: base}
	}
	*list = append(*list, a)
	return a
}
