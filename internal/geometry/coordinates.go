package geometry

// Coordinates is the sum of all coordinate value types. The set is closed:
// only types in this package implement it.
type Coordinates interface {
	Shape() Shape
	coordinates()
}

// PointCoordinate is a single normalized point.
type PointCoordinate struct {
	X, Y float64
}

// BoundingBoxCoordinates is an axis-aligned box; X and Y are the top-left corner.
type BoundingBoxCoordinates struct {
	X, Y, W, H float64
}

// RotatableBoundingBoxCoordinates is a box rotated by Theta degrees about its
// centre. X, Y, W and H describe the unrotated box.
type RotatableBoundingBoxCoordinates struct {
	X, Y, W, H float64
	Theta      float64
}

// Ring is a closed sequence of points. The closing edge is implicit.
type Ring []PointCoordinate

// Polygon is an outer ring followed by zero or more holes.
type Polygon []Ring

// PolygonCoordinates holds one or more polygons.
type PolygonCoordinates struct {
	Polygons []Polygon
}

// PolylineCoordinates is an open sequence of points.
type PolylineCoordinates struct {
	Points []PointCoordinate
}

// SkeletonPoint is one named vertex of a skeleton template.
type SkeletonPoint struct {
	X, Y        float64
	Name        string
	Color       string
	FeatureHash string
	Value       string
	Invisible   bool
	Occluded    bool
}

// SkeletonCoordinates lists skeleton vertices in template order.
type SkeletonCoordinates struct {
	Points []SkeletonPoint
}

// BitmaskCoordinates is a binary mask stored as a COCO-compressed RLE string
// over a row-major Height x Width grid.
type BitmaskCoordinates struct {
	Top, Left     int
	Width, Height int
	RLEString     string
}

func (PointCoordinate) Shape() Shape                 { return ShapePoint }
func (BoundingBoxCoordinates) Shape() Shape          { return ShapeBoundingBox }
func (RotatableBoundingBoxCoordinates) Shape() Shape { return ShapeRotatableBoundingBox }
func (PolygonCoordinates) Shape() Shape              { return ShapePolygon }
func (PolylineCoordinates) Shape() Shape             { return ShapePolyline }
func (SkeletonCoordinates) Shape() Shape             { return ShapeSkeleton }
func (BitmaskCoordinates) Shape() Shape              { return ShapeBitmask }

func (PointCoordinate) coordinates()                 {}
func (BoundingBoxCoordinates) coordinates()          {}
func (RotatableBoundingBoxCoordinates) coordinates() {}
func (PolygonCoordinates) coordinates()              {}
func (PolylineCoordinates) coordinates()             {}
func (SkeletonCoordinates) coordinates()             {}
func (BitmaskCoordinates) coordinates()              {}

// IsMulti reports whether the polygon set cannot be written as a single
// COCO polygon: more than one polygon, or a polygon with holes.
func (p PolygonCoordinates) IsMulti() bool {
	if len(p.Polygons) > 1 {
		return true
	}
	return len(p.Polygons) == 1 && len(p.Polygons[0]) > 1
}

// Outer returns the outer ring of the first polygon, or nil if empty.
func (p PolygonCoordinates) Outer() Ring {
	if len(p.Polygons) == 0 || len(p.Polygons[0]) == 0 {
		return nil
	}
	return p.Polygons[0][0]
}

// Equal reports whether two rings hold the same points in the same order.
func (r Ring) Equal(other Ring) bool {
	if len(r) != len(other) {
		return false
	}
	for i := range r {
		if r[i] != other[i] {
			return false
		}
	}
	return true
}

// Flatten returns the ring as [x0, y0, x1, y1, ...].
func (r Ring) Flatten() []float64 {
	out := make([]float64, 0, 2*len(r))
	for _, p := range r {
		out = append(out, p.X, p.Y)
	}
	return out
}

// Area returns the unsigned shoelace area of the ring.
func (r Ring) Area() float64 {
	if len(r) < 3 {
		return 0
	}
	var sum float64
	for i := range r {
		j := (i + 1) % len(r)
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

// Area returns the outer ring area minus the area of its holes.
func (p Polygon) Area() float64 {
	if len(p) == 0 {
		return 0
	}
	a := p[0].Area()
	for _, hole := range p[1:] {
		a -= hole.Area()
	}
	return a
}
