package meshio_test

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/meshio"
	"github.com/stretchr/testify/require"
)

// writeBinarySTL writes a minimal binary STL file containing the given
// triangles, the format STLLoader.Load expects.
func writeBinarySTL(t *testing.T, path string, triangles [][3][3]float32) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	var header [80]byte
	_, err = f.Write(header[:])
	require.NoError(t, err)
	require.NoError(t, binary.Write(f, binary.LittleEndian, uint32(len(triangles))))

	for _, tri := range triangles {
		var rec [12]float32 // normal + 3 vertices
		for i := 0; i < 3; i++ {
			rec[3+i*3+0] = tri[i][0]
			rec[3+i*3+1] = tri[i][1]
			rec[3+i*3+2] = tri[i][2]
		}
		require.NoError(t, binary.Write(f, binary.LittleEndian, rec))
		require.NoError(t, binary.Write(f, binary.LittleEndian, uint16(0)))
	}
}

func TestSTLLoaderLoadsSingleTriangle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.stl")
	writeBinarySTL(t, path, [][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
	})

	vertices, triangles, err := meshio.STLLoader{}.Load(path)
	require.NoError(t, err)
	require.Len(t, vertices, 3)
	require.Len(t, triangles, 1)
	require.Equal(t, geom.Vertex{X: 0, Y: 0, Z: 0}, vertices[0])
	require.Equal(t, geom.Vertex{X: 1, Y: 0, Z: 0}, vertices[1])
}

func TestSTLLoaderLoadsMultipleTrianglesWithoutDeduplication(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.stl")
	writeBinarySTL(t, path, [][3][3]float32{
		{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}},
	})

	vertices, triangles, err := meshio.STLLoader{}.Load(path)
	require.NoError(t, err)
	require.Len(t, vertices, 6)
	require.Len(t, triangles, 2)
}

func TestSTLLoaderMissingFileReturnsError(t *testing.T) {
	_, _, err := meshio.STLLoader{}.Load(filepath.Join(t.TempDir(), "missing.stl"))
	require.Error(t, err)
}

func TestSTLLoaderTruncatedHeaderReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.stl")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o644))

	_, _, err := meshio.STLLoader{}.Load(path)
	require.Error(t, err)
}

func TestNormalAreaOfRightTriangle(t *testing.T) {
	a := geom.Vertex{X: 0, Y: 0, Z: 0}
	b := geom.Vertex{X: 2, Y: 0, Z: 0}
	c := geom.Vertex{X: 0, Y: 2, Z: 0}

	require.InDelta(t, 2.0, meshio.NormalArea(a, b, c), 1e-9)
}

func TestNormalAreaOfDegenerateTriangleIsZero(t *testing.T) {
	a := geom.Vertex{X: 0, Y: 0, Z: 0}
	b := geom.Vertex{X: 1, Y: 0, Z: 0}
	c := geom.Vertex{X: 2, Y: 0, Z: 0}

	require.InDelta(t, 0.0, meshio.NormalArea(a, b, c), 1e-9)
}
