package tower_test

import (
	"testing"

	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/tower"
	"github.com/stretchr/testify/require"
)

// tetrahedronMesh is the literal tetrahedron
// (0,0,0),(10,0,0),(5,10,0),(5,5,10): a triangular base plus an apex.
func tetrahedronMesh() ([]geom.Vertex, []geom.IndexedTriangle) {
	vs := []geom.Vertex{
		{X: 0, Y: 0, Z: 0},  // 0
		{X: 10, Y: 0, Z: 0}, // 1
		{X: 5, Y: 10, Z: 0}, // 2
		{X: 5, Y: 5, Z: 10}, // 3 apex
	}
	raw := [][3]int{
		{0, 1, 2}, // base
		{0, 1, 3},
		{1, 2, 3},
		{2, 0, 3},
	}
	tris := make([]geom.IndexedTriangle, len(raw))
	for i, r := range raw {
		tris[i] = geom.NewIndexedTriangle(r[0], r[1], r[2], vs)
	}
	return vs, tris
}

func TestTetrahedronCrossSectionAtMidHeight(t *testing.T) {
	vs, tris := tetrahedronMesh()
	tw := tower.New(vs, tris)
	it := tower.NewIterator(tw)
	require.NoError(t, it.AdvanceToHeight(5))

	loops, err := it.GetPoints()
	require.NoError(t, err)
	require.Len(t, loops, 1)
	require.Len(t, loops[0], 3)

	for _, p := range loops[0] {
		require.InDelta(t, 5.0, p.Z, 1e-9)
	}

	expected := map[[2]float64]bool{
		{2.5, 2.5}: false, {7.5, 2.5}: false, {5, 7.5}: false,
	}
	for _, p := range loops[0] {
		key := [2]float64{p.X, p.Y}
		found := false
		for k := range expected {
			if approxEq(k[0], p.X) && approxEq(k[1], p.Y) {
				expected[k] = true
				found = true
			}
		}
		require.Truef(t, found, "unexpected point %v", key)
	}
	for k, seen := range expected {
		require.Truef(t, seen, "missing expected point %v", k)
	}
}

func approxEq(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-6
}

func TestEventClassification(t *testing.T) {
	vs, tris := tetrahedronMesh()
	kinds := tower.ClassifyEvents(tris[1], vs)

	var leading, trailing int
	for _, k := range kinds {
		switch k {
		case tower.LeadingEdge:
			leading++
		case tower.TrailingEdge:
			trailing++
		}
	}
	// The two base vertices tie for lowest, so both open edges; the apex
	// alone is strictly highest.
	require.Equal(t, 2, leading)
	require.Equal(t, 1, trailing)
}

func TestAdvanceToHeightBelowMeshIsEmpty(t *testing.T) {
	vs, tris := tetrahedronMesh()
	tw := tower.New(vs, tris)
	it := tower.NewIterator(tw)
	require.NoError(t, it.AdvanceToHeight(-1))
	loops, err := it.GetPoints()
	require.NoError(t, err)
	require.Empty(t, loops)
}
