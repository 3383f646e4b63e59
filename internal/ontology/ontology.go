// Package ontology models the tree of annotatable object classes and their
// classification attributes.
//
// The tree is a closed set of variants. Objects and classifications are
// roots; attributes are *TextAttribute, *RadioAttribute or
// *ChecklistAttribute; options are *FlatOption (checklists) or
// *NestableOption (radios, which may carry further attributes to any
// depth). Consumers dispatch with a single type switch.
package ontology

import (
	"github.com/banshee-data/coco-export/internal/geometry"
)

// Element is any node of the tree addressable by feature hash.
type Element interface {
	FeatureHash() string
	Title() string
	children() []Element
}

// Structure is the root of an ontology.
type Structure struct {
	Objects         []*Object
	Classifications []*Classification
}

// Object is a class of annotatable thing, e.g. "Car".
type Object struct {
	UID        string
	Name       string
	Color      string
	Shape      geometry.Shape
	Hash       string
	Required   bool
	Attributes []Attribute
}

// Classification is a frame-level question. Its title is the name of its
// first attribute.
type Classification struct {
	UID        string
	Hash       string
	Required   bool
	Attributes []Attribute
}

// Kind is the attribute type tag used in ontology JSON.
type Kind string

const (
	KindText      Kind = "text"
	KindRadio     Kind = "radio"
	KindChecklist Kind = "checklist"
)

// Attribute is implemented by *TextAttribute, *RadioAttribute and
// *ChecklistAttribute.
type Attribute interface {
	Element
	Base() *AttributeBase
	Kind() Kind
}

// AttributeBase holds the fields common to every attribute kind.
type AttributeBase struct {
	UID      string
	Hash     string
	Name     string
	Required bool
	Dynamic  bool
}

func (a *AttributeBase) FeatureHash() string  { return a.Hash }
func (a *AttributeBase) Title() string        { return a.Name }
func (a *AttributeBase) Base() *AttributeBase { return a }

// TextAttribute takes a free-text answer.
type TextAttribute struct {
	AttributeBase
}

// RadioAttribute takes exactly one option.
type RadioAttribute struct {
	AttributeBase
	Options []*NestableOption
}

// ChecklistAttribute takes any subset of its options.
type ChecklistAttribute struct {
	AttributeBase
	Options []*FlatOption
}

func (*TextAttribute) Kind() Kind      { return KindText }
func (*RadioAttribute) Kind() Kind     { return KindRadio }
func (*ChecklistAttribute) Kind() Kind { return KindChecklist }

// Option is implemented by *FlatOption and *NestableOption.
type Option interface {
	Element
	OptionLabel() string
}

// FlatOption is a checklist option.
type FlatOption struct {
	UID   string
	Hash  string
	Label string
	Value string
}

// NestableOption is a radio option which may carry nested attributes.
type NestableOption struct {
	UID        string
	Hash       string
	Label      string
	Value      string
	Attributes []Attribute
}

func (s *Structure) FeatureHash() string { return "" }
func (s *Structure) Title() string       { return "" }
func (s *Structure) children() []Element {
	out := make([]Element, 0, len(s.Objects)+len(s.Classifications))
	for _, o := range s.Objects {
		out = append(out, o)
	}
	for _, c := range s.Classifications {
		out = append(out, c)
	}
	return out
}

func (o *Object) FeatureHash() string { return o.Hash }
func (o *Object) Title() string       { return o.Name }
func (o *Object) children() []Element { return attributeElements(o.Attributes) }

func (c *Classification) FeatureHash() string { return c.Hash }
func (c *Classification) Title() string {
	if len(c.Attributes) == 0 {
		return ""
	}
	return c.Attributes[0].Title()
}
func (c *Classification) children() []Element { return attributeElements(c.Attributes) }

func (*TextAttribute) children() []Element { return nil }

func (a *RadioAttribute) children() []Element {
	out := make([]Element, len(a.Options))
	for i, o := range a.Options {
		out[i] = o
	}
	return out
}

func (a *ChecklistAttribute) children() []Element {
	out := make([]Element, len(a.Options))
	for i, o := range a.Options {
		out[i] = o
	}
	return out
}

func (o *FlatOption) FeatureHash() string { return o.Hash }
func (o *FlatOption) Title() string       { return o.Label }
func (o *FlatOption) OptionLabel() string { return o.Label }
func (o *FlatOption) children() []Element { return nil }

func (o *NestableOption) FeatureHash() string { return o.Hash }
func (o *NestableOption) Title() string       { return o.Label }
func (o *NestableOption) OptionLabel() string { return o.Label }
func (o *NestableOption) children() []Element { return attributeElements(o.Attributes) }

func attributeElements(attrs []Attribute) []Element {
	out := make([]Element, len(attrs))
	for i, a := range attrs {
		out[i] = a
	}
	return out
}

// walk visits every element below root in depth-first order.
func walk(root Element, visit func(Element)) {
	for _, child := range root.children() {
		visit(child)
		walk(child, visit)
	}
}
