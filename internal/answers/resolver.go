// Package answers flattens the classification answers attached to an
// annotated object into a single {attribute name: value} map.
//
// Static answers come from a label row's object_answers; dynamic answers
// come from object_actions and hold over inclusive frame ranges. Dynamic
// answers win over static ones for the frame they cover. Attributes that
// were never answered are filled with defaults so that every top-level
// attribute of the object's class is present: false per checklist option,
// nil for text and radio attributes.
//
// Only top-level attributes of the object's ontology class are exported.
// Answers to attributes nested under radio options are skipped.
package answers

import (
	"github.com/banshee-data/coco-export/internal/labels"
	"github.com/banshee-data/coco-export/internal/monitoring"
	"github.com/banshee-data/coco-export/internal/ontology"
)

// Values maps an attribute name (or checklist option label) to a string,
// a bool or nil.
type Values map[string]any

// entry is the decoded value set of one action and the inclusive frame
// ranges it holds over.
type entry struct {
	attributeHash string
	values        Values
	ranges        [][2]int
}

func (e entry) covers(frame int) bool {
	for _, rng := range e.ranges {
		if rng[0] <= frame && frame <= rng[1] {
			return true
		}
	}
	return false
}

// Resolver resolves answers for the objects of one label row. The dynamic
// answer table is built on first use and reused for the rest of the row.
// A Resolver is not safe for concurrent use.
type Resolver struct {
	index *ontology.Index
	row   *labels.LabelRow

	dynamic map[string][]entry
}

// New returns a resolver over the label row.
func New(index *ontology.Index, row *labels.LabelRow) *Resolver {
	return &Resolver{index: index, row: row}
}

// Resolve returns the flattened answers of the object with hash objectHash
// and ontology class featureHash at the given frame.
func (r *Resolver) Resolve(frame int, objectHash, featureHash string) Values {
	out := r.static(objectHash, featureHash)
	r.fillDefaults(out, featureHash, false)

	dyn := Values{}
	for _, e := range r.dynamicTable()[objectHash] {
		if !e.covers(frame) {
			continue
		}
		if _, ok := r.index.TopLevel(featureHash, e.attributeHash); !ok {
			continue
		}
		for k, v := range e.values {
			dyn[k] = v
		}
	}
	r.fillDefaults(dyn, featureHash, true)

	for k, v := range dyn {
		out[k] = v
	}
	return out
}

func (r *Resolver) static(objectHash, featureHash string) Values {
	out := Values{}
	// An object without an object_answers entry has no static answers.
	oa, ok := r.row.ObjectAnswers[objectHash]
	if !ok {
		return out
	}
	for _, a := range oa.Classifications {
		attr, ok := r.index.TopLevel(featureHash, a.FeatureHash)
		if !ok {
			continue
		}
		decode(attr, a.Answers, out)
	}
	return out
}

// dynamicTable groups the decoded actions by object hash, in action order.
func (r *Resolver) dynamicTable() map[string][]entry {
	if r.dynamic != nil {
		return r.dynamic
	}
	table := make(map[string][]entry)
	for objectHash, oa := range r.row.ObjectActions {
		for _, action := range oa.Actions {
			if _, ok := r.index.Owner(action.FeatureHash); !ok {
				continue
			}
			e := entry{attributeHash: action.FeatureHash, values: Values{}}
			attr, _ := r.index.Attribute(action.FeatureHash)
			decode(attr, action.Answers, e.values)
			for _, rng := range action.Range {
				if rng[1] < rng[0] {
					monitoring.Logf("[answers] ignoring inverted range [%d, %d] on object %s", rng[0], rng[1], objectHash)
					continue
				}
				e.ranges = append(e.ranges, rng)
			}
			if len(e.ranges) > 0 {
				table[objectHash] = append(table[objectHash], e)
			}
		}
	}
	r.dynamic = table
	return table
}

// fillDefaults adds the unanswered top-level attributes of the class whose
// dynamic flag equals dynamic.
func (r *Resolver) fillDefaults(out Values, featureHash string, dynamic bool) {
	for _, attr := range r.index.Attributes(featureHash) {
		if attr.Base().Dynamic != dynamic {
			continue
		}
		switch a := attr.(type) {
		case *ontology.ChecklistAttribute:
			for _, opt := range a.Options {
				if _, ok := out[opt.Label]; !ok {
					out[opt.Label] = false
				}
			}
		default:
			if _, ok := out[a.Title()]; !ok {
				out[a.Title()] = nil
			}
		}
	}
}

// decode writes the answers of one attribute into out.
func decode(attr ontology.Attribute, ans labels.Answers, out Values) {
	switch a := attr.(type) {
	case *ontology.TextAttribute:
		if ans.Text != nil {
			out[a.Name] = *ans.Text
		}
	case *ontology.RadioAttribute:
		// radios hold a single answer
		if len(ans.Options) > 0 {
			out[a.Name] = ans.Options[0].Name
		}
	case *ontology.ChecklistAttribute:
		selected := make(map[string]bool, len(ans.Options))
		for _, o := range ans.Options {
			selected[o.Name] = true
		}
		for _, opt := range a.Options {
			out[opt.Label] = selected[opt.Label]
		}
	}
}
