package ontology

// Index is a read-only lookup table over a Structure, built once per export.
type Index struct {
	objects    map[string]*Object
	attributes map[string]Attribute
	// top-level attribute hash -> owning object hash
	owners map[string]string
}

// NewIndex walks every object's attribute tree, nested radio attributes
// included, and records each attribute by feature hash.
func NewIndex(s *Structure) *Index {
	ix := &Index{
		objects:    make(map[string]*Object, len(s.Objects)),
		attributes: make(map[string]Attribute),
		owners:     make(map[string]string),
	}
	for _, o := range s.Objects {
		ix.objects[o.Hash] = o
		for _, a := range o.Attributes {
			ix.owners[a.FeatureHash()] = o.Hash
		}
		walk(o, func(e Element) {
			if a, ok := e.(Attribute); ok {
				ix.attributes[a.FeatureHash()] = a
			}
		})
	}
	return ix
}

// Object returns the ontology object with the given feature hash.
func (ix *Index) Object(hash string) (*Object, bool) {
	o, ok := ix.objects[hash]
	return o, ok
}

// Attribute returns the attribute with the given feature hash at any depth.
func (ix *Index) Attribute(hash string) (Attribute, bool) {
	a, ok := ix.attributes[hash]
	return a, ok
}

// TopLevel returns the attribute if it sits directly under the object with
// hash objectHash. Nested attributes are not top-level.
func (ix *Index) TopLevel(objectHash, attributeHash string) (Attribute, bool) {
	if ix.owners[attributeHash] != objectHash {
		return nil, false
	}
	return ix.Attribute(attributeHash)
}

// Attributes returns the top-level attributes of the object, or nil.
func (ix *Index) Attributes(objectHash string) []Attribute {
	if o, ok := ix.objects[objectHash]; ok {
		return o.Attributes
	}
	return nil
}

// Owner returns the hash of the object that holds the attribute at the top
// level.
func (ix *Index) Owner(attributeHash string) (string, bool) {
	o, ok := ix.owners[attributeHash]
	return o, ok
}
