package geometry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/banshee-data/coco-export/internal/monitoring"
)

type fields map[string]json.RawMessage

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// ParseObject reads the coordinates of the given shape from a raw object
// instance. Absent keys yield a *FieldError matching ErrMissingField.
func ParseObject(shape Shape, object []byte) (Coordinates, error) {
	var obj fields
	if err := json.Unmarshal(object, &obj); err != nil {
		return nil, invalid(shape, "", err)
	}

	switch shape {
	case ShapeBoundingBox:
		m, err := objectField(obj, shape, "boundingBox")
		if err != nil {
			return nil, err
		}
		var b BoundingBoxCoordinates
		if err := readFloats(m, shape, "boundingBox", map[string]*float64{"x": &b.X, "y": &b.Y, "w": &b.W, "h": &b.H}); err != nil {
			return nil, err
		}
		return b, nil

	case ShapeRotatableBoundingBox:
		m, err := objectField(obj, shape, "rotatableBoundingBox")
		if err != nil {
			return nil, err
		}
		var b RotatableBoundingBoxCoordinates
		if err := readFloats(m, shape, "rotatableBoundingBox", map[string]*float64{
			"x": &b.X, "y": &b.Y, "w": &b.W, "h": &b.H, "theta": &b.Theta,
		}); err != nil {
			return nil, err
		}
		return b, nil

	case ShapePolygon:
		return parsePolygon(obj)

	case ShapePolyline:
		raw, ok := obj["polyline"]
		if !ok || !present(raw) {
			return nil, missing(shape, "polyline")
		}
		pts, err := readPointList(raw, shape, "polyline")
		if err != nil {
			return nil, err
		}
		return PolylineCoordinates{Points: pts}, nil

	case ShapePoint:
		m, err := objectField(obj, shape, "point")
		if err != nil {
			return nil, err
		}
		raw, ok := m["0"]
		if !ok || !present(raw) {
			return nil, missing(shape, "point.0")
		}
		return readPoint(raw, shape, "point.0")

	case ShapeSkeleton:
		raw, ok := obj["skeleton"]
		if !ok || !present(raw) {
			return nil, missing(shape, "skeleton")
		}
		return parseSkeleton(raw)

	case ShapeBitmask:
		m, err := objectField(obj, shape, "bitmask")
		if err != nil {
			return nil, err
		}
		return parseBitmask(m)
	}

	return nil, fmt.Errorf("geometry: shape %q has no coordinates", shape)
}

func objectField(obj fields, shape Shape, key string) (fields, error) {
	raw, ok := obj[key]
	if !ok || !present(raw) {
		return nil, missing(shape, key)
	}
	var m fields
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, invalid(shape, key, err)
	}
	return m, nil
}

func readFloats(m fields, shape Shape, field string, dst map[string]*float64) error {
	// Stable order so the first missing key reported is deterministic.
	keys := make([]string, 0, len(dst))
	for k := range dst {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		raw, ok := m[k]
		if !ok || !present(raw) {
			return missing(shape, field+"."+k)
		}
		if err := json.Unmarshal(raw, dst[k]); err != nil {
			return invalid(shape, field+"."+k, err)
		}
	}
	return nil
}

func readPoint(raw json.RawMessage, shape Shape, field string) (PointCoordinate, error) {
	var m fields
	if err := json.Unmarshal(raw, &m); err != nil {
		return PointCoordinate{}, invalid(shape, field, err)
	}
	var p PointCoordinate
	if err := readFloats(m, shape, field, map[string]*float64{"x": &p.X, "y": &p.Y}); err != nil {
		return PointCoordinate{}, err
	}
	return p, nil
}

// readPointList accepts both the indexed-dict form {"0": {...}, "1": {...}}
// and the plain list form [{...}, {...}].
func readPointList(raw json.RawMessage, shape Shape, field string) ([]PointCoordinate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, invalid(shape, field, err)
		}
		pts := make([]PointCoordinate, 0, len(items))
		for i, item := range items {
			p, err := readPoint(item, shape, field+"."+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			pts = append(pts, p)
		}
		return pts, nil
	}

	var m fields
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, invalid(shape, field, err)
	}
	// dict keys are vertex indices; gaps are allowed, order is numeric
	type vertex struct {
		index int
		key   string
	}
	order := make([]vertex, 0, len(m))
	for key := range m {
		i, err := strconv.Atoi(key)
		if err != nil {
			return nil, invalid(shape, field+"."+key, fmt.Errorf("vertex key is not an integer"))
		}
		order = append(order, vertex{i, key})
	}
	sort.Slice(order, func(a, b int) bool { return order[a].index < order[b].index })

	pts := make([]PointCoordinate, 0, len(order))
	for _, v := range order {
		p, err := readPoint(m[v.key], shape, field+"."+v.key)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func parsePolygon(obj fields) (PolygonCoordinates, error) {
	var values Ring
	hasValues := false
	if raw, ok := obj["polygon"]; ok && present(raw) {
		pts, err := readPointList(raw, ShapePolygon, "polygon")
		if err != nil {
			return PolygonCoordinates{}, err
		}
		values = pts
		hasValues = true
	}

	var nested [][][]float64
	if raw, ok := obj["polygons"]; ok && present(raw) {
		if err := json.Unmarshal(raw, &nested); err != nil {
			return PolygonCoordinates{}, invalid(ShapePolygon, "polygons", err)
		}
	}

	if len(nested) == 0 {
		if !hasValues {
			return PolygonCoordinates{}, missing(ShapePolygon, "polygon")
		}
		return PolygonCoordinates{Polygons: []Polygon{{values}}}, nil
	}

	polys := make([]Polygon, 0, len(nested))
	for i, rings := range nested {
		if len(rings) == 0 {
			return PolygonCoordinates{}, invalid(ShapePolygon, fmt.Sprintf("polygons.%d", i), fmt.Errorf("polygon has no rings"))
		}
		poly := make(Polygon, 0, len(rings))
		for j, flat := range rings {
			if len(flat)%2 != 0 {
				return PolygonCoordinates{}, invalid(ShapePolygon, fmt.Sprintf("polygons.%d.%d", i, j),
					fmt.Errorf("odd number of coordinates: %d", len(flat)))
			}
			ring := make(Ring, 0, len(flat)/2)
			for k := 0; k < len(flat); k += 2 {
				ring = append(ring, PointCoordinate{X: flat[k], Y: flat[k+1]})
			}
			poly = append(poly, ring)
		}
		polys = append(polys, poly)
	}

	coords := PolygonCoordinates{Polygons: polys}
	if hasValues && !values.Equal(coords.Outer()) {
		monitoring.Logf("[geometry] polygon values disagree with polygons (%d vs %d points); using polygons",
			len(values), len(coords.Outer()))
	}
	return coords, nil
}

type skeletonPointJSON struct {
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
	Name        string   `json:"name"`
	Color       string   `json:"color"`
	FeatureHash string   `json:"featureHash"`
	Value       string   `json:"value"`
	Invisible   *bool    `json:"invisible"`
	Occluded    *bool    `json:"occluded"`
}

// parseSkeleton keeps the vertices in index order. Payloads keyed with
// non-numeric keys fall back to document order.
func parseSkeleton(raw json.RawMessage) (SkeletonCoordinates, error) {
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return SkeletonCoordinates{}, invalid(ShapeSkeleton, "skeleton", fmt.Errorf("expected object"))
	}

	type entry struct {
		key   string
		index int
		value string
	}
	var entries []entry
	numeric := true
	root.ForEach(func(k, v gjson.Result) bool {
		idx, err := strconv.Atoi(k.String())
		if err != nil {
			numeric = false
		}
		entries = append(entries, entry{key: k.String(), index: idx, value: v.Raw})
		return true
	})
	if numeric {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].index < entries[j].index })
	}

	pts := make([]SkeletonPoint, 0, len(entries))
	for _, e := range entries {
		field := "skeleton." + e.key
		var sp skeletonPointJSON
		if err := json.Unmarshal([]byte(e.value), &sp); err != nil {
			return SkeletonCoordinates{}, invalid(ShapeSkeleton, field, err)
		}
		if sp.X == nil {
			return SkeletonCoordinates{}, missing(ShapeSkeleton, field+".x")
		}
		if sp.Y == nil {
			return SkeletonCoordinates{}, missing(ShapeSkeleton, field+".y")
		}
		pts = append(pts, SkeletonPoint{
			X:           *sp.X,
			Y:           *sp.Y,
			Name:        sp.Name,
			Color:       sp.Color,
			FeatureHash: sp.FeatureHash,
			Value:       sp.Value,
			Invisible:   sp.Invisible != nil && *sp.Invisible,
			Occluded:    sp.Occluded != nil && *sp.Occluded,
		})
	}
	return SkeletonCoordinates{Points: pts}, nil
}

func parseBitmask(m fields) (BitmaskCoordinates, error) {
	var b BitmaskCoordinates
	required := []struct {
		key string
		dst any
	}{
		{"rleString", &b.RLEString},
		{"width", &b.Width},
		{"height", &b.Height},
	}
	for _, r := range required {
		raw, ok := m[r.key]
		if !ok || !present(raw) {
			return BitmaskCoordinates{}, missing(ShapeBitmask, "bitmask."+r.key)
		}
		if err := json.Unmarshal(raw, r.dst); err != nil {
			return BitmaskCoordinates{}, invalid(ShapeBitmask, "bitmask."+r.key, err)
		}
	}
	// top and left are optional offsets
	for key, dst := range map[string]*int{"top": &b.Top, "left": &b.Left} {
		if raw, ok := m[key]; ok && present(raw) {
			if err := json.Unmarshal(raw, dst); err != nil {
				return BitmaskCoordinates{}, invalid(ShapeBitmask, "bitmask."+key, err)
			}
		}
	}
	if b.Width < 0 || b.Height < 0 {
		return BitmaskCoordinates{}, invalid(ShapeBitmask, "bitmask", fmt.Errorf("negative size %dx%d", b.Width, b.Height))
	}
	return b, nil
}
