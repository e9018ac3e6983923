package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundPolygon(t *testing.T) {
	b := orb.Bound{Min: orb.Point{-10, -5}, Max: orb.Point{10, 5}}
	poly := BoundPolygon(b)

	require.Len(t, poly, 1)
	assert.Equal(t, b, poly.Bound())
}

func TestConvexHull(t *testing.T) {
	pts := []orb.Point{
		{0, 0}, {4, 0}, {4, 4}, {0, 4},
		{2, 2}, {1, 3}, // interior, must not appear on hull
	}

	hull, ok := ConvexHull(pts)
	require.True(t, ok)
	require.Len(t, hull, 1)

	ring := hull[0]
	assert.Equal(t, ring[0], ring[len(ring)-1], "ring must be closed")
	// 4 corners + closing vertex
	assert.Len(t, ring, 5)
	assert.NotContains(t, ring, orb.Point{2, 2})
}

func TestConvexHullDegenerate(t *testing.T) {
	_, ok := ConvexHull([]orb.Point{{1, 1}, {1, 1}, {1, 1}})
	assert.False(t, ok, "single point has no hull")

	_, ok = ConvexHull([]orb.Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}})
	assert.False(t, ok, "collinear points have no hull")
}

func TestMinimumBoundingFallsBackToEnvelope(t *testing.T) {
	// Collinear input: hull degenerates, envelope is used
	poly := MinimumBounding([]orb.Point{{0, 0}, {1, 1}, {2, 2}})
	require.Len(t, poly, 1)
	assert.Equal(t, orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 2}}, poly.Bound())
}

func TestVertices(t *testing.T) {
	poly := orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}
	assert.Len(t, Vertices(poly), 4)

	mp := orb.MultiPoint{{1, 2}, {3, 4}}
	assert.Len(t, Vertices(mp), 2)
}

func TestDMSToDD(t *testing.T) {
	lat, lon, err := DMSToDD("324853N1170812W")
	require.NoError(t, err)
	assert.InDelta(t, 32.8147, lat, 0.001)
	assert.InDelta(t, -117.1366, lon, 0.001)

	lat, lon, err = DMSToDD("101530S0453000E")
	require.NoError(t, err)
	assert.InDelta(t, -10.2583, lat, 0.001)
	assert.InDelta(t, 45.5, lon, 0.001)
}

func TestDMSToDDMalformed(t *testing.T) {
	_, _, err := DMSToDD("junk")
	assert.Error(t, err)

	_, _, err = DMSToDD("xx4853N1170812W")
	assert.Error(t, err)
}
