package geometry

import "strconv"

// Fields returns the object keys that carry c, in the platform's JSON
// shape. ParseObject(c.Shape(), json(Fields(c))) reproduces c.
func Fields(c Coordinates) map[string]any {
	key := c.Shape().field()
	switch v := c.(type) {
	case BoundingBoxCoordinates:
		return map[string]any{key: map[string]any{"x": v.X, "y": v.Y, "w": v.W, "h": v.H}}

	case RotatableBoundingBoxCoordinates:
		return map[string]any{key: map[string]any{
			"x": v.X, "y": v.Y, "w": v.W, "h": v.H, "theta": v.Theta,
		}}

	case PolygonCoordinates:
		nested := make([][][]float64, 0, len(v.Polygons))
		for _, poly := range v.Polygons {
			rings := make([][]float64, 0, len(poly))
			for _, ring := range poly {
				rings = append(rings, ring.Flatten())
			}
			nested = append(nested, rings)
		}
		return map[string]any{
			key:        indexedPoints(v.Outer()),
			"polygons": nested,
		}

	case PolylineCoordinates:
		return map[string]any{key: indexedPoints(v.Points)}

	case PointCoordinate:
		return map[string]any{key: map[string]any{"0": map[string]any{"x": v.X, "y": v.Y}}}

	case SkeletonCoordinates:
		pts := make(map[string]any, len(v.Points))
		for i, p := range v.Points {
			pts[strconv.Itoa(i)] = map[string]any{
				"x":           p.X,
				"y":           p.Y,
				"name":        p.Name,
				"color":       p.Color,
				"featureHash": p.FeatureHash,
				"value":       p.Value,
				"invisible":   p.Invisible,
				"occluded":    p.Occluded,
			}
		}
		return map[string]any{key: pts}

	case BitmaskCoordinates:
		return map[string]any{key: map[string]any{
			"rleString": v.RLEString,
			"width":     v.Width,
			"height":    v.Height,
			"top":       v.Top,
			"left":      v.Left,
		}}
	}
	return nil
}

func indexedPoints(pts []PointCoordinate) map[string]any {
	out := make(map[string]any, len(pts))
	for i, p := range pts {
		out[strconv.Itoa(i)] = map[string]any{"x": p.X, "y": p.Y}
	}
	return out
}
