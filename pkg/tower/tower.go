// Package tower builds a TriangleTower from a triangle mesh: an
// event-driven structure that yields the polygon loops formed by slicing
// the mesh at an arbitrary ascending sequence of heights in amortized
// near-constant time per query, by keeping only the triangles whose Z
// range straddles the current height active between queries.
package tower

import (
	"fmt"
	"sort"

	"github.com/chazu/contour/pkg/geom"
)

// EventKind classifies a triangle's role at one of its own vertices, as
// height sweeps upward through it.
type EventKind int

const (
	// LeadingEdge: this vertex is the triangle's lowest; two new ring
	// edges open here.
	LeadingEdge EventKind = iota
	// MiddleVertex: this vertex is neither the triangle's lowest nor
	// highest; one ring edge closes and another opens here.
	MiddleVertex
	// TrailingEdge: this vertex is the triangle's highest; the two ring
	// edges opened at the lowest vertex close here.
	TrailingEdge
)

// ClassifyEvents returns, for each of tri's three vertices (in tri.Verts
// order), the role that vertex plays as a sweep passes through it.
func ClassifyEvents(tri geom.IndexedTriangle, vertices []geom.Vertex) [3]EventKind {
	heights := [3]float64{vertices[tri.Verts[0]].Z, vertices[tri.Verts[1]].Z, vertices[tri.Verts[2]].Z}
	var kinds [3]EventKind
	for i, h := range heights {
		lower, higher := 0, 0
		for j, other := range heights {
			if j == i {
				continue
			}
			if other < h {
				lower++
			} else if other > h {
				higher++
			}
		}
		switch {
		case lower == 0:
			kinds[i] = LeadingEdge
		case higher == 0:
			kinds[i] = TrailingEdge
		default:
			kinds[i] = MiddleVertex
		}
	}
	return kinds
}

// edgeKey identifies a mesh edge by its two vertex indices, ordered low,
// high, so two triangles sharing an edge resolve to the same key.
type edgeKey struct{ a, b int }

func newEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

type triRange struct {
	tri       int
	lo, hi    float64
}

// Tower is the event-driven cross-section structure built once per mesh
// and queried at an ascending sequence of heights via an Iterator.
type Tower struct {
	Vertices  []geom.Vertex
	Triangles []geom.IndexedTriangle

	enters []triRange // sorted ascending by lo
	exits  []triRange // sorted ascending by hi
}

// ErrNonManifold is returned when a height query cannot close a loop,
// indicating a non-manifold input mesh.
type ErrNonManifold struct {
	Height float64
}

func (e *ErrNonManifold) Error() string {
	return fmt.Sprintf("tower: could not close ring at height %g (non-manifold mesh)", e.Height)
}

// New builds a Tower from a mesh. Triangles are expected already
// index-normalized (see geom.NewIndexedTriangle).
func New(vertices []geom.Vertex, triangles []geom.IndexedTriangle) *Tower {
	t := &Tower{Vertices: vertices, Triangles: triangles}
	for i, tri := range triangles {
		lo := vertices[tri.Verts[0]].Z
		hi := lo
		for _, vi := range tri.Verts {
			z := vertices[vi].Z
			if z < lo {
				lo = z
			}
			if z > hi {
				hi = z
			}
		}
		t.enters = append(t.enters, triRange{tri: i, lo: lo, hi: hi})
		t.exits = append(t.exits, triRange{tri: i, lo: lo, hi: hi})
	}
	sort.Slice(t.enters, func(i, j int) bool { return t.enters[i].lo < t.enters[j].lo })
	sort.Slice(t.exits, func(i, j int) bool { return t.exits[i].hi < t.exits[j].hi })
	return t
}

// Iterator tracks the active-triangle set as height advances
// monotonically. It is single-owner: do not share across goroutines.
type Iterator struct {
	tower       *Tower
	enterCursor int
	exitCursor  int
	active      map[int]struct{}
	height      float64
}

// NewIterator returns an iterator positioned below the mesh's lowest
// point.
func NewIterator(t *Tower) *Iterator {
	return &Iterator{tower: t, active: make(map[int]struct{})}
}

// AdvanceToHeight activates and retires triangles so the active set
// matches height z exactly, then records z as the iterator's current
// height for GetPoints.
func (it *Iterator) AdvanceToHeight(z float64) error {
	for it.enterCursor < len(it.tower.enters) && it.tower.enters[it.enterCursor].lo <= z {
		it.active[it.tower.enters[it.enterCursor].tri] = struct{}{}
		it.enterCursor++
	}
	for it.exitCursor < len(it.tower.exits) && it.tower.exits[it.exitCursor].hi <= z {
		delete(it.active, it.tower.exits[it.exitCursor].tri)
		it.exitCursor++
	}
	it.height = z
	return nil
}

// GetPoints interpolates every active triangle against the iterator's
// current height and stitches the resulting segments into closed point
// loops, one per connected boundary component.
func (it *Iterator) GetPoints() ([][]geom.Vertex, error) {
	type segEnd struct {
		key edgeKey
		pt  geom.Vertex
	}
	var segs [][2]segEnd

	for triIdx := range it.active {
		tri := it.tower.Triangles[triIdx]
		var hits []segEnd
		verts := [3]geom.Vertex{it.tower.Vertices[tri.Verts[0]], it.tower.Vertices[tri.Verts[1]], it.tower.Vertices[tri.Verts[2]]}
		idx := [3]int{tri.Verts[0], tri.Verts[1], tri.Verts[2]}
		for e := 0; e < 3; e++ {
			a, b := verts[e], verts[(e+1)%3]
			ai, bi := idx[e], idx[(e+1)%3]
			if (a.Z <= it.height && b.Z > it.height) || (b.Z <= it.height && a.Z > it.height) {
				t := (it.height - a.Z) / (b.Z - a.Z)
				pt := geom.Vertex{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y), Z: it.height}
				hits = append(hits, segEnd{key: newEdgeKey(ai, bi), pt: pt})
			}
		}
		if len(hits) == 2 {
			segs = append(segs, [2]segEnd{hits[0], hits[1]})
		}
		// A triangle exactly tangent to the plane (0 or >2 crossing
		// edges after the half-open test above) contributes nothing;
		// it is picked up by its neighbors on either side instead.
	}

	if len(segs) == 0 {
		return nil, nil
	}

	// Each segment connects two mesh-edge crossings; chain segments
	// whose edge keys match into closed loops.
	byKey := make(map[edgeKey][]int)
	for i, s := range segs {
		byKey[s[0].key] = append(byKey[s[0].key], i)
		byKey[s[1].key] = append(byKey[s[1].key], i)
	}
	used := make([]bool, len(segs))
	var loops [][]geom.Vertex

	for start := range segs {
		if used[start] {
			continue
		}
		loop := []geom.Vertex{segs[start][0].pt}
		cur := start
		curEnd := segs[start][1]
		used[cur] = true
		for {
			loop = append(loop, curEnd.pt)
			candidates := byKey[curEnd.key]
			next := -1
			for _, c := range candidates {
				if !used[c] {
					next = c
					break
				}
			}
			if next == -1 {
				break
			}
			used[next] = true
			if segs[next][0].key == curEnd.key {
				curEnd = segs[next][1]
			} else {
				curEnd = segs[next][0]
			}
			cur = next
			if cur == start {
				break
			}
		}
		if len(loop) >= 3 {
			loop = loop[:len(loop)-1]
			loops = append(loops, loop)
		} else {
			return nil, &ErrNonManifold{Height: it.height}
		}
	}
	return loops, nil
}
