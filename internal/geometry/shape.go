package geometry

import "fmt"

// Shape is the shape tag carried by ontology objects and object instances.
type Shape string

const (
	ShapeBoundingBox          Shape = "bounding_box"
	ShapeRotatableBoundingBox Shape = "rotatable_bounding_box"
	ShapePolygon              Shape = "polygon"
	ShapePolyline             Shape = "polyline"
	ShapePoint                Shape = "point"
	ShapeSkeleton             Shape = "skeleton"
	ShapeBitmask              Shape = "bitmask"
	ShapeAudio                Shape = "audio"
	ShapeText                 Shape = "text"
)

var knownShapes = map[Shape]bool{
	ShapeBoundingBox:          true,
	ShapeRotatableBoundingBox: true,
	ShapePolygon:              true,
	ShapePolyline:             true,
	ShapePoint:                true,
	ShapeSkeleton:             true,
	ShapeBitmask:              true,
	ShapeAudio:                true,
	ShapeText:                 true,
}

// ParseShape validates a shape tag.
func ParseShape(s string) (Shape, error) {
	shape := Shape(s)
	if !knownShapes[shape] {
		return "", fmt.Errorf("unknown shape %q", s)
	}
	return shape, nil
}

// Visual reports whether the shape has a spatial representation.
// Audio and text objects annotate ranges, not pixels.
func (s Shape) Visual() bool {
	return knownShapes[s] && s != ShapeAudio && s != ShapeText
}

// String implements fmt.Stringer.
func (s Shape) String() string { return string(s) }

// field returns the object key holding the coordinates of this shape.
func (s Shape) field() string {
	switch s {
	case ShapeBoundingBox:
		return "boundingBox"
	case ShapeRotatableBoundingBox:
		return "rotatableBoundingBox"
	case ShapePolygon:
		return "polygon"
	case ShapePolyline:
		return "polyline"
	case ShapePoint:
		return "point"
	case ShapeSkeleton:
		return "skeleton"
	case ShapeBitmask:
		return "bitmask"
	}
	return ""
}
