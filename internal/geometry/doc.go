// Package geometry models the normalized coordinate payloads attached to
// annotated objects in a label row.
//
// All coordinates are image-relative: x and y are fractions of the frame
// width and height in [0, 1]. Each value type can be parsed from the raw
// object JSON the annotation platform emits and written back with Fields,
// which is the exact inverse for values produced here.
//
// Shapes:
//
//	bounding_box            BoundingBoxCoordinates
//	rotatable_bounding_box  RotatableBoundingBoxCoordinates (theta in degrees)
//	polygon                 PolygonCoordinates (polygons -> rings -> points)
//	polyline                PolylineCoordinates
//	point                   PointCoordinate
//	skeleton                SkeletonCoordinates
//	bitmask                 BitmaskCoordinates (row-major platform RLE string)
package geometry
