package ontology

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/coco-export/internal/geometry"
)

const vehicleOntology = `{
  "objects": [
    {
      "id": "1", "name": "Car", "color": "#D33115", "shape": "bounding_box",
      "featureNodeHash": "car00001", "required": false,
      "attributes": [
        {
          "id": "1.1", "name": "Colour", "type": "radio", "featureNodeHash": "colr0001",
          "required": false, "dynamic": false,
          "options": [
            {"id": "1.1.1", "label": "Red", "value": "red", "featureNodeHash": "red00001"},
            {
              "id": "1.1.2", "label": "Other", "value": "other", "featureNodeHash": "othr0001",
              "options": [
                {"id": "1.1.2.1", "name": "Describe", "type": "text", "featureNodeHash": "desc0001", "required": false, "dynamic": false}
              ]
            }
          ]
        },
        {
          "id": "1.2", "name": "State", "type": "checklist", "featureNodeHash": "stat0001",
          "required": false, "dynamic": true,
          "options": [
            {"id": "1.2.1", "label": "Parked", "value": "parked", "featureNodeHash": "park0001"},
            {"id": "1.2.2", "label": "Moving", "value": "moving", "featureNodeHash": "movg0001"}
          ]
        }
      ]
    },
    {"id": 2, "name": "Speaker", "color": "#000000", "shape": "audio", "featureNodeHash": "aud00001"},
    {"id": "3", "name": "Red", "color": "#FF0000", "shape": "point", "featureNodeHash": "pnt00001"}
  ],
  "classifications": [
    {
      "id": "1", "featureNodeHash": "wthr0001",
      "attributes": [
        {"id": "1.1", "name": "Weather", "type": "text", "featureNodeHash": "wtxt0001", "required": true, "dynamic": false}
      ]
    }
  ]
}`

func mustParse(t *testing.T) *Structure {
	t.Helper()
	s, err := Parse([]byte(vehicleOntology))
	require.NoError(t, err)
	return s
}

func TestParse(t *testing.T) {
	s := mustParse(t)
	require.Len(t, s.Objects, 3)
	require.Len(t, s.Classifications, 1)

	car := s.Objects[0]
	assert.Equal(t, "Car", car.Name)
	assert.Equal(t, geometry.ShapeBoundingBox, car.Shape)
	require.Len(t, car.Attributes, 2)

	radio, ok := car.Attributes[0].(*RadioAttribute)
	require.True(t, ok)
	assert.Equal(t, "Colour", radio.Name)
	require.Len(t, radio.Options, 2)
	require.Len(t, radio.Options[1].Attributes, 1)
	assert.Equal(t, KindText, radio.Options[1].Attributes[0].Kind())

	check, ok := car.Attributes[1].(*ChecklistAttribute)
	require.True(t, ok)
	assert.True(t, check.Dynamic)

	assert.Equal(t, "2", s.Objects[1].UID)
	assert.Equal(t, "Weather", s.Classifications[0].Title())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{`},
		{"unknown shape", `{"objects":[{"id":"1","name":"x","shape":"cuboid","featureNodeHash":"a"}]}`},
		{"missing hash", `{"objects":[{"id":"1","name":"x","shape":"polygon"}]}`},
		{"unknown attribute type", `{"objects":[{"id":"1","name":"x","shape":"polygon","featureNodeHash":"a",
			"attributes":[{"id":"1.1","name":"q","type":"slider","featureNodeHash":"b"}]}]}`},
		{"option without hash", `{"objects":[{"id":"1","name":"x","shape":"polygon","featureNodeHash":"a",
			"attributes":[{"id":"1.1","name":"q","type":"checklist","featureNodeHash":"b","options":[{"id":"1.1.1","label":"l"}]}]}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json))
			assert.Error(t, err)
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s := mustParse(t)
	data, err := json.Marshal(s)
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(s, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestChildByHash(t *testing.T) {
	s := mustParse(t)

	obj, err := ChildByHash[*Object](s, "car00001")
	require.NoError(t, err)
	assert.Equal(t, "Car", obj.Name)

	// nested attribute under a radio option
	text, err := ChildByHash[*TextAttribute](s, "desc0001")
	require.NoError(t, err)
	assert.Equal(t, "Describe", text.Name)

	attr, err := ChildByHash[Attribute](s, "stat0001")
	require.NoError(t, err)
	assert.Equal(t, KindChecklist, attr.Kind())

	_, err = ChildByHash[*Object](s, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = ChildByHash[*RadioAttribute](s, "car00001")
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestChildByTitle(t *testing.T) {
	s := mustParse(t)

	radio, err := ChildByTitle[*RadioAttribute](s, "Colour")
	require.NoError(t, err)
	assert.Equal(t, "colr0001", radio.Hash)

	// "Red" is both an object and a radio option; the type disambiguates.
	obj, err := ChildByTitle[*Object](s, "Red")
	require.NoError(t, err)
	assert.Equal(t, "pnt00001", obj.Hash)

	opt, err := ChildByTitle[*NestableOption](s, "Red")
	require.NoError(t, err)
	assert.Equal(t, "red00001", opt.Hash)

	_, err = ChildByTitle[Element](s, "Red")
	assert.True(t, errors.Is(err, ErrAmbiguous))

	_, err = ChildByTitle[*Object](s, "Truck")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.Len(t, ChildrenByTitle[Element](s, "Red"), 2)
}

func TestIndex(t *testing.T) {
	s := mustParse(t)
	ix := NewIndex(s)

	a, ok := ix.Attribute("desc0001")
	require.True(t, ok)
	assert.Equal(t, "Describe", a.Title())

	_, ok = ix.TopLevel("car00001", "desc0001")
	assert.False(t, ok, "nested attributes are not top-level")

	top, ok := ix.TopLevel("car00001", "stat0001")
	require.True(t, ok)
	assert.Equal(t, "State", top.Title())

	_, ok = ix.TopLevel("pnt00001", "stat0001")
	assert.False(t, ok, "attribute belongs to another object")

	// classification attributes are not object attributes
	_, ok = ix.Attribute("wtxt0001")
	assert.False(t, ok)

	owner, ok := ix.Owner("colr0001")
	require.True(t, ok)
	assert.Equal(t, "car00001", owner)
	_, ok = ix.Owner("desc0001")
	assert.False(t, ok)

	assert.Len(t, ix.Attributes("car00001"), 2)
	assert.Nil(t, ix.Attributes("nope"))
}

func TestBuilder(t *testing.T) {
	original := newFeatureHash
	defer func() { newFeatureHash = original }()
	n := 0
	newFeatureHash = func() string {
		n++
		return "h" + string(rune('a'+n))
	}

	s := &Structure{}
	car := s.AddObject("Car", geometry.ShapePolygon)
	colour := car.AddRadioAttribute("Colour", false)
	other := colour.AddOption("Dark Blue")
	nested := other.AddAttribute(KindText, "Shade")
	state := car.AddChecklistAttribute("State", true)
	state.AddOption("Parked")
	_, weather := s.AddClassification(KindRadio, "Weather")

	assert.Equal(t, "1", car.UID)
	assert.Equal(t, "1.1", colour.UID)
	assert.Equal(t, "1.1.1", other.UID)
	assert.Equal(t, "dark_blue", other.Value)
	assert.Equal(t, "1.1.1.1", nested.Base().UID)
	assert.Equal(t, "1.2", state.UID)
	assert.True(t, state.Dynamic)
	assert.Equal(t, KindRadio, weather.Kind())

	// every generated hash is distinct
	seen := map[string]bool{}
	walk(s, func(e Element) {
		assert.False(t, seen[e.FeatureHash()], "duplicate hash %s", e.FeatureHash())
		seen[e.FeatureHash()] = true
	})

	// the built structure survives serialisation
	data, err := json.Marshal(s)
	require.NoError(t, err)
	back, err := Parse(data)
	require.NoError(t, err)
	if diff := cmp.Diff(s, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("builder round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultFeatureHash(t *testing.T) {
	h := newFeatureHash()
	assert.Len(t, h, 8)
	assert.NotEqual(t, h, newFeatureHash())
}
