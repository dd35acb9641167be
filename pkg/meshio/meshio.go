// Package meshio loads triangle meshes from STL and 3MF files into the
// geom package's Vertex/IndexedTriangle representation.
package meshio

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/chazu/contour/pkg/geom"
	"github.com/hpinc/go3mf"
)

// Loader produces a mesh (flat vertex list plus triangles referencing it
// by index) from a file on disk.
type Loader interface {
	Load(filepath string) ([]geom.Vertex, []geom.IndexedTriangle, error)
}

// STLLoader reads binary STL files.
type STLLoader struct{}

// Load reads filepath as a binary STL mesh. Coincident vertices across
// triangles are not deduplicated: each triangle's three corners become
// three fresh indices, since binary STL carries no vertex sharing.
func (STLLoader) Load(filepath string) ([]geom.Vertex, []geom.IndexedTriangle, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var header [80]byte
	if _, err := io.ReadFull(f, header[:]); err != nil {
		return nil, nil, err
	}
	var count uint32
	if err := binary.Read(f, binary.LittleEndian, &count); err != nil {
		return nil, nil, err
	}

	vertices := make([]geom.Vertex, 0, count*3)
	triangles := make([]geom.IndexedTriangle, 0, count)

	for i := uint32(0); i < count; i++ {
		var rec [12]float32 // normal(3) + v0(3) + v1(3) + v2(3)
		if err := binary.Read(f, binary.LittleEndian, &rec); err != nil {
			return nil, nil, err
		}
		var attr uint16
		if err := binary.Read(f, binary.LittleEndian, &attr); err != nil {
			return nil, nil, err
		}

		base := len(vertices)
		for v := 0; v < 3; v++ {
			off := 3 + v*3
			vertices = append(vertices, geom.Vertex{
				X: float64(rec[off]),
				Y: float64(rec[off+1]),
				Z: float64(rec[off+2]),
			})
		}
		triangles = append(triangles, geom.NewIndexedTriangle(base, base+1, base+2, vertices))
	}

	return vertices, triangles, nil
}

// ThreeMFLoader reads 3MF model archives via go3mf, flattening every
// mesh object's build-plate transform into the returned vertex
// coordinates so the pipeline sees one already-placed mesh.
type ThreeMFLoader struct{}

// Load reads filepath as a 3MF package and concatenates every mesh
// object it finds into one combined mesh.
func (ThreeMFLoader) Load(filepath string) ([]geom.Vertex, []geom.IndexedTriangle, error) {
	var model go3mf.Model
	if err := go3mf.DecodeFile(&model, filepath); err != nil {
		return nil, nil, err
	}

	var vertices []geom.Vertex
	var triangles []geom.IndexedTriangle

	for _, item := range model.Build.Items {
		obj, ok := model.FindObject(item.ObjectPath(), item.ObjectID)
		if !ok || obj.Mesh == nil {
			continue
		}
		transform := buildTransform(item.Transform)
		base := len(vertices)
		for _, v := range obj.Mesh.Vertices.Vertex {
			vertices = append(vertices, transform.Apply(geom.Vertex{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}))
		}
		for _, tri := range obj.Mesh.Triangles.Triangle {
			triangles = append(triangles, geom.NewIndexedTriangle(base+tri.V1, base+tri.V2, base+tri.V3, vertices))
		}
	}

	return vertices, triangles, nil
}

func buildTransform(m go3mf.Matrix) geom.Transform {
	if m == (go3mf.Matrix{}) {
		return geom.Identity()
	}
	var t geom.Transform
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == 3 {
				t[i][j] = boolToFloat(i == j)
				continue
			}
			t[i][j] = float64(m[i*4+j])
		}
	}
	return t
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// NormalArea returns the area of the triangle formed by the three
// vertices; a degenerate triangle has zero area. The loaders in this
// package do not call it and keep degenerate triangles.
func NormalArea(a, b, c geom.Vertex) float64 {
	ux, uy, uz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	vx, vy, vz := c.X-a.X, c.Y-a.Y, c.Z-a.Z
	cx := uy*vz - uz*vy
	cy := uz*vx - ux*vz
	cz := ux*vy - uy*vx
	return 0.5 * math.Sqrt(cx*cx+cy*cy+cz*cz)
}
