package lightning

import (
	"testing"

	"github.com/chazu/contour/pkg/geom"
	"github.com/stretchr/testify/require"
)

func square(side float64) geom.MultiPolygon {
	return geom.MultiPolygon{{Exterior: geom.Ring{
		{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side},
	}}}
}

func TestLayerSeedsTreeFromEmptyForest(t *testing.T) {
	forest := &Forest{}
	poly := square(20)
	chains := Layer(forest, poly, poly, 0.4, 0.3)
	require.NotEmpty(t, forest.Trees)
	require.NotEmpty(t, chains)
}

func TestAddPointToTreeAttachesToClosestDescendant(t *testing.T) {
	root := &Node{Location: geom.Coord{X: 0, Y: 0}}
	near := &Node{Location: geom.Coord{X: 1, Y: 0}}
	root.Children = append(root.Children, near)

	far := &Node{Location: geom.Coord{X: 1, Y: 0.1}}
	root.addPointToTree(far)

	require.Len(t, root.Children, 1)
	require.Len(t, near.Children, 1)
	require.Equal(t, far, near.Children[0])
}

func TestGetMoveChainsProducesOneChainPerLeaf(t *testing.T) {
	root := &Node{Location: geom.Coord{X: 0, Y: 0}}
	leaf1 := &Node{Location: geom.Coord{X: 1, Y: 0}}
	leaf2 := &Node{Location: geom.Coord{X: -1, Y: 0}}
	root.Children = []*Node{leaf1, leaf2}

	chains := root.GetMoveChains(0.4)
	require.Len(t, chains, 2)
	for _, c := range chains {
		require.Len(t, c.Moves, 1)
		require.Equal(t, geom.Coord{X: 0, Y: 0}, c.Moves[0].End)
	}
}

func TestSegmentIntersectFindsCrossing(t *testing.T) {
	p, ok := segmentIntersect(geom.Coord{X: 0, Y: 0}, geom.Coord{X: 10, Y: 10}, geom.Coord{X: 0, Y: 10}, geom.Coord{X: 10, Y: 0})
	require.True(t, ok)
	require.InDelta(t, 5.0, p.X, 1e-9)
	require.InDelta(t, 5.0, p.Y, 1e-9)
}

func TestTrimForPolygonInsideClipsOutsideChild(t *testing.T) {
	poly := square(10)
	root := &Node{Location: geom.Coord{X: 5, Y: 5}}
	outside := &Node{Location: geom.Coord{X: 20, Y: 5}}
	root.Children = []*Node{outside}

	fragments := root.trimForPolygonInside(poly)
	require.Len(t, root.Children, 1)
	require.InDelta(t, 10.0, root.Children[0].Location.X, 1e-6)
	require.Empty(t, fragments)
}
