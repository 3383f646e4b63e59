// Package transcode converts normalized platform geometry into COCO pixel
// geometry: bounding box, area, segmentation and keypoints.
//
// Coordinates are scaled by the target image size. Polygons with holes or
// several parts, and bitmasks, become column-major RLE masks flagged as
// crowd annotations.
package transcode

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/coco-export/internal/geometry"
	"github.com/banshee-data/coco-export/internal/mask"
)

// Keypoint visibility flags.
const (
	NotLabeled = 0
	NotVisible = 1
	Visible    = 2
)

// Size is a pixel size. Both sides are clamped to at least 1.
type Size struct {
	Width, Height int
}

// Clamp returns s with zero or negative sides raised to 1.
func (s Size) Clamp() Size {
	return Size{Width: max(s.Width, 1), Height: max(s.Height, 1)}
}

// Result is the COCO geometry of one annotation. Exactly one of Polygons
// and RLE is set, except for skeletons, which have neither.
type Result struct {
	BBox     [4]float64
	Area     float64
	Polygons [][]float64
	RLE      *mask.RLE
	IsCrowd  int

	Keypoints    []float64
	NumKeypoints int

	// Rotation is the box angle in degrees for rotatable boxes.
	Rotation *float64
}

// Transcode dispatches on the coordinate type.
func Transcode(c geometry.Coordinates, size Size) (Result, error) {
	size = size.Clamp()
	switch g := c.(type) {
	case geometry.BoundingBoxCoordinates:
		return BoundingBox(g, size), nil
	case geometry.RotatableBoundingBoxCoordinates:
		return RotatableBoundingBox(g, size), nil
	case geometry.PolygonCoordinates:
		return Polygon(g, size), nil
	case geometry.PolylineCoordinates:
		return Polyline(g, size), nil
	case geometry.PointCoordinate:
		return Point(g, size), nil
	case geometry.SkeletonCoordinates:
		return Skeleton(g, size), nil
	case geometry.BitmaskCoordinates:
		return Bitmask(g)
	}
	return Result{}, fmt.Errorf("transcode: unsupported coordinates %T", c)
}

func box(x, y, w, h float64) Result {
	return Result{
		BBox:     [4]float64{x, y, w, h},
		Area:     w * h,
		Polygons: [][]float64{{x, y, x + w, y, x + w, y + h, x, y + h}},
	}
}

// BoundingBox scales the box and emits its four corners as the segmentation.
func BoundingBox(b geometry.BoundingBoxCoordinates, size Size) Result {
	size = size.Clamp()
	fw, fh := float64(size.Width), float64(size.Height)
	return box(b.X*fw, b.Y*fh, b.W*fw, b.H*fh)
}

// RotatableBoundingBox is BoundingBox on the unrotated box, with the angle
// carried through unchanged.
func RotatableBoundingBox(b geometry.RotatableBoundingBoxCoordinates, size Size) Result {
	size = size.Clamp()
	fw, fh := float64(size.Width), float64(size.Height)
	r := box(b.X*fw, b.Y*fh, b.W*fw, b.H*fh)
	theta := b.Theta
	r.Rotation = &theta
	return r
}

// Polygon writes a simple polygon as a plain COCO polygon and anything with
// holes or several parts as an RLE mask.
func Polygon(p geometry.PolygonCoordinates, size Size) Result {
	size = size.Clamp()
	if p.IsMulti() {
		return multiPolygon(p, size)
	}

	ring := scaleRing(p.Outer(), size)
	xs, ys := split(ring)
	return Result{
		BBox:     extent(xs, ys),
		Area:     ring.Area(),
		Polygons: [][]float64{ring.Flatten()},
	}
}

func multiPolygon(p geometry.PolygonCoordinates, size Size) Result {
	polys := make([]geometry.Polygon, 0, len(p.Polygons))
	for _, poly := range p.Polygons {
		scaled := make(geometry.Polygon, len(poly))
		for i, ring := range poly {
			scaled[i] = scaleRing(ring, size)
		}
		polys = append(polys, scaled)
	}
	// larger parts first so smaller parts and their holes paint over them
	sort.SliceStable(polys, func(i, j int) bool { return polys[i].Area() > polys[j].Area() })

	canvas := mask.NewCanvas(size.Width, size.Height)
	for _, poly := range polys {
		for i, ring := range poly {
			canvas.Fill(pixels(ring), i == 0)
		}
	}

	rle := mask.Encode(canvas.Bitmap())
	return Result{
		BBox:    rle.BBox(),
		Area:    float64(rle.Area()),
		RLE:     &rle,
		IsCrowd: 1,
	}
}

// Polyline emulates a line as a degenerate polygon that walks the points
// forward and back again.
func Polyline(l geometry.PolylineCoordinates, size Size) Result {
	size = size.Clamp()
	ring := scaleRing(l.Points, size)
	flat := ring.Flatten()
	for i := len(ring) - 1; i >= 0; i-- {
		flat = append(flat, ring[i].X, ring[i].Y)
	}
	xs, ys := split(ring)
	return Result{
		BBox:     extent(xs, ys),
		Polygons: [][]float64{flat},
	}
}

// Point is a zero-size box holding a single visible keypoint.
func Point(p geometry.PointCoordinate, size Size) Result {
	size = size.Clamp()
	x, y := p.X*float64(size.Width), p.Y*float64(size.Height)
	return Result{
		BBox:         [4]float64{x, y, 0, 0},
		Polygons:     [][]float64{{x, y}},
		Keypoints:    []float64{x, y, Visible},
		NumKeypoints: 1,
	}
}

// Skeleton emits one keypoint per vertex. The box spans all vertices, the
// area is zero and there is no segmentation.
func Skeleton(s geometry.SkeletonCoordinates, size Size) Result {
	size = size.Clamp()
	fw, fh := float64(size.Width), float64(size.Height)
	kps := make([]float64, 0, 3*len(s.Points))
	xs := make([]float64, 0, len(s.Points))
	ys := make([]float64, 0, len(s.Points))
	for _, p := range s.Points {
		x, y := p.X*fw, p.Y*fh
		kps = append(kps, x, y, float64(visibility(p)))
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return Result{
		BBox:         extent(xs, ys),
		Polygons:     [][]float64{},
		Keypoints:    kps,
		NumKeypoints: len(s.Points),
	}
}

func visibility(p geometry.SkeletonPoint) int {
	switch {
	case p.Invisible:
		return NotLabeled
	case p.Occluded:
		return NotVisible
	}
	return Visible
}

// Bitmask re-encodes a row-major platform mask as column-major COCO RLE.
// The mask keeps its own width and height.
func Bitmask(b geometry.BitmaskCoordinates) (Result, error) {
	flat, err := mask.Expand(mask.StringToCounts(b.RLEString), b.Width*b.Height)
	if err != nil {
		return Result{}, fmt.Errorf("failed to decode bitmask: %w", err)
	}
	rle := mask.Encode(&mask.Bitmap{W: b.Width, H: b.Height, Pix: flat})
	return Result{
		BBox:    rle.BBox(),
		Area:    float64(rle.Area()),
		RLE:     &rle,
		IsCrowd: 1,
	}, nil
}

func scaleRing(pts []geometry.PointCoordinate, size Size) geometry.Ring {
	fw, fh := float64(size.Width), float64(size.Height)
	out := make(geometry.Ring, len(pts))
	for i, p := range pts {
		out[i] = geometry.PointCoordinate{X: p.X * fw, Y: p.Y * fh}
	}
	return out
}

// pixels truncates scaled vertices toward zero.
func pixels(r geometry.Ring) []mask.Point {
	out := make([]mask.Point, len(r))
	for i, p := range r {
		out[i] = mask.Point{X: int(p.X), Y: int(p.Y)}
	}
	return out
}

func split(r geometry.Ring) (xs, ys []float64) {
	xs = make([]float64, len(r))
	ys = make([]float64, len(r))
	for i, p := range r {
		xs[i], ys[i] = p.X, p.Y
	}
	return xs, ys
}

// extent returns the [x, y, w, h] box around the points, or zeros when
// there are none.
func extent(xs, ys []float64) [4]float64 {
	if len(xs) == 0 || len(ys) == 0 {
		return [4]float64{}
	}
	x, y := floats.Min(xs), floats.Min(ys)
	return [4]float64{x, y, floats.Max(xs) - x, floats.Max(ys) - y}
}
