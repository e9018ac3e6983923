// Package geometry provides footprint construction helpers on top of orb.
//
// The pipeline only ever produces two geometry shapes: bounding-envelope
// polygons (optionally tightened to a convex hull) and points.
package geometry

import (
	"sort"

	"github.com/paulmach/orb"
)

// BoundPolygon converts a bounding box to a closed polygon ring.
func BoundPolygon(b orb.Bound) orb.Polygon {
	return b.ToPolygon()
}

// BoundOf computes the bounding box of a vertex set.
func BoundOf(points []orb.Point) orb.Bound {
	b := orb.Bound{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	return b
}

// MinimumBounding returns the convex hull of the vertex set, falling back to
// the bounding envelope when the hull degenerates to a point or line.
func MinimumBounding(points []orb.Point) orb.Polygon {
	if hull, ok := ConvexHull(points); ok {
		return hull
	}
	return BoundOf(points).ToPolygon()
}

// ConvexHull computes the convex hull of a vertex set using the monotone
// chain algorithm. Returns false when the input degenerates to fewer than
// three distinct non-collinear vertices.
func ConvexHull(points []orb.Point) (orb.Polygon, bool) {
	pts := dedupe(points)
	if len(pts) < 3 {
		return nil, false
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	var lower, upper []orb.Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// Drop the duplicated endpoints before joining the chains
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) < 3 {
		// all vertices collinear
		return nil, false
	}

	ring := make(orb.Ring, 0, len(hull)+1)
	ring = append(ring, hull...)
	ring = append(ring, hull[0])
	return orb.Polygon{ring}, true
}

// Vertices collects every vertex of a geometry.
func Vertices(g orb.Geometry) []orb.Point {
	var pts []orb.Point
	switch v := g.(type) {
	case orb.Point:
		pts = append(pts, v)
	case orb.MultiPoint:
		pts = append(pts, v...)
	case orb.LineString:
		pts = append(pts, v...)
	case orb.MultiLineString:
		for _, ls := range v {
			pts = append(pts, ls...)
		}
	case orb.Ring:
		pts = append(pts, v...)
	case orb.Polygon:
		for _, r := range v {
			pts = append(pts, r...)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			pts = append(pts, Vertices(p)...)
		}
	case orb.Collection:
		for _, c := range v {
			pts = append(pts, Vertices(c)...)
		}
	case orb.Bound:
		pts = append(pts, v.Min, v.Max)
	}
	return pts
}

func dedupe(points []orb.Point) []orb.Point {
	seen := make(map[orb.Point]struct{}, len(points))
	out := make([]orb.Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// cross returns the z component of (b-a) x (c-a); positive for a left turn.
func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}
