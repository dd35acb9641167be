package geom_test

import (
	"testing"

	"github.com/chazu/contour/pkg/geom"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{Exterior: geom.Ring{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func TestUnionWithOverlappingSquares(t *testing.T) {
	a := geom.MultiPolygon{square(0, 0, 10, 10)}
	b := geom.MultiPolygon{square(5, 5, 15, 15)}

	out := a.UnionWith(b)
	require.Len(t, out, 1)
	require.True(t, out.Contains(geom.Coord{X: 1, Y: 1}))
	require.True(t, out.Contains(geom.Coord{X: 12, Y: 12}))
	require.False(t, out.Contains(geom.Coord{X: 20, Y: 20}))
}

func TestDifferenceWithCarvesHole(t *testing.T) {
	outer := geom.MultiPolygon{square(0, 0, 10, 10)}
	inner := geom.MultiPolygon{square(3, 3, 6, 6)}

	out := outer.DifferenceWith(inner)
	require.True(t, out.Contains(geom.Coord{X: 1, Y: 1}))
	require.False(t, out.Contains(geom.Coord{X: 4, Y: 4}))
}

func TestOffsetFromGrowsAndShrinks(t *testing.T) {
	base := geom.MultiPolygon{square(0, 0, 10, 10)}

	grown := base.OffsetFrom(1)
	require.True(t, grown.Contains(geom.Coord{X: -0.5, Y: 5}))

	shrunk := base.OffsetFrom(-1)
	require.False(t, shrunk.Contains(geom.Coord{X: 0.5, Y: 5}))
	require.True(t, shrunk.Contains(geom.Coord{X: 2, Y: 5}))
}

func TestCoordinatePositionBoundary(t *testing.T) {
	mp := geom.MultiPolygon{square(0, 0, 10, 10)}
	require.Equal(t, geom.OnBoundary, mp.CoordinatePosition(geom.Coord{X: 0, Y: 5}))
	require.Equal(t, geom.Inside, mp.CoordinatePosition(geom.Coord{X: 5, Y: 5}))
	require.Equal(t, geom.Outside, mp.CoordinatePosition(geom.Coord{X: -5, Y: 5}))
}

func TestClosestPoint(t *testing.T) {
	mp := geom.MultiPolygon{square(0, 0, 10, 10)}
	c, ok := mp.ClosestPoint(geom.Coord{X: 5, Y: -3})
	require.True(t, ok)
	require.InDelta(t, 5.0, c.X, 1e-6)
	require.InDelta(t, 0.0, c.Y, 1e-6)
}

func TestConvexHullOfLShape(t *testing.T) {
	mp := geom.MultiPolygon{{Exterior: geom.Ring{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 10},
	}}}
	hull := mp.ConvexHull()
	require.True(t, geom.MultiPolygon{hull}.Contains(geom.Coord{X: 7, Y: 7}))
}

func TestVertexOrdering(t *testing.T) {
	a := geom.Vertex{X: 0, Y: 0, Z: 1}
	b := geom.Vertex{X: 5, Y: 5, Z: 2}
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func TestVertexNaNPanics(t *testing.T) {
	require.Panics(t, func() {
		nan := geom.Vertex{X: 0, Y: 0, Z: 0}
		nan.Z = nan.Z / 0 * 0
		_ = nan.Less(geom.Vertex{})
	})
}
