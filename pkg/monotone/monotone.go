// Package monotone partitions a polygon (exterior plus holes, in
// canonical CCW-exterior/CW-hole orientation) into y-monotone sections
// via a single descending sweep, the way the infill stripe generator
// needs them: each section is a pair of chains (left, right) that can be
// interpolated at any sweep height between the section's top and bottom.
package monotone

import (
	"sort"

	"github.com/chazu/contour/pkg/geom"
	"github.com/samber/lo"
)

// VertexClass is the sweep-line classification of a polygon vertex.
type VertexClass int

const (
	Start VertexClass = iota
	End
	Left
	Right
	Merge
	Split
)

// Section is one y-monotone strip: a left chain and a right chain of
// points, both ordered from the section's top (YMax) to its bottom
// (YMin), connected by interpolation at any Y within that range.
type Section struct {
	YMax, YMin float64
	Left       []geom.Coord
	Right      []geom.Coord
}

// ChainX returns the X coordinate of chain at height y via linear
// interpolation between the bracketing chain vertices.
func ChainX(chain []geom.Coord, y float64) float64 {
	for i := 0; i < len(chain)-1; i++ {
		a, b := chain[i], chain[i+1]
		top, bot := a, b
		if top.Y < bot.Y {
			top, bot = bot, top
		}
		if y <= top.Y+1e-9 && y >= bot.Y-1e-9 {
			if top.Y == bot.Y {
				return top.X
			}
			t := (top.Y - y) / (top.Y - bot.Y)
			return top.X + t*(bot.X-top.X)
		}
	}
	if len(chain) > 0 {
		return chain[len(chain)-1].X
	}
	return 0
}

type ringNode struct {
	pt         geom.Coord
	prev, next int
}

func orientation(a, b, c geom.Coord) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func classify(nodes []ringNode, i int) VertexClass {
	v := nodes[i]
	p := nodes[v.prev].pt
	n := nodes[v.next].pt
	below := func(a, b geom.Coord) bool {
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X > b.X
	}
	prevBelow := below(p, v.pt)
	nextBelow := below(n, v.pt)
	turn := orientation(p, v.pt, n)

	switch {
	case prevBelow && nextBelow:
		// Both neighbors come later in the sweep: v is a local Y-maximum.
		// Collinear (turn == 0) classifies as Start, never Split.
		if turn < 0 {
			return Split
		}
		return Start
	case !prevBelow && !nextBelow:
		// Both neighbors came earlier: v is a local Y-minimum. Collinear
		// classifies as End, never Merge.
		if turn < 0 {
			return Merge
		}
		return End
	default:
		// The incident edge trending downward in forward ring order
		// carries CCW-polygon interior on its east side, which is the
		// left chain's side.
		if nextBelow {
			return Left
		}
		return Right
	}
}

// activeEdge tracks one edge currently crossing the sweep line, the
// section it feeds, and which side (left/right) of that section it is.
type activeEdge struct {
	fromNode, toNode int
	section          *Section
	isLeft           bool
}

func edgeXAt(nodes []ringNode, e *activeEdge, y float64) float64 {
	a, b := nodes[e.fromNode].pt, nodes[e.toNode].pt
	return ChainX([]geom.Coord{a, b}, y)
}

// Decompose partitions poly into y-monotone sections.
func Decompose(poly geom.Polygon) []Section {
	var nodes []ringNode
	addRing := func(r geom.Ring) []int {
		n := len(r)
		base := len(nodes)
		idx := make([]int, n)
		for i := 0; i < n; i++ {
			idx[i] = base + i
		}
		for i, c := range r {
			nodes = append(nodes, ringNode{
				pt:   c,
				prev: base + (i-1+n)%n,
				next: base + (i+1)%n,
			})
		}
		return idx
	}
	addRing(poly.Exterior)
	for _, h := range poly.Holes {
		addRing(h)
	}

	order := make([]int, len(nodes))
	for i := range nodes {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := nodes[order[i]].pt, nodes[order[j]].pt
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		return a.X < b.X
	})

	var active []*activeEdge
	// sections holds *Section (not Section) so pointers activeEdge.section
	// caches stay valid across later appends: appending to a []Section
	// value slice can reallocate its backing array, stranding any
	// previously taken &sections[i] in the old array.
	var sections []*Section

	// Edges are not vertical lines, so each neighbor lookup recomputes
	// every active edge's X at the current sweep Y rather than keeping a
	// stale cached ordering.
	type edgeX struct {
		e *activeEdge
		x float64
	}
	refreshAndFindNeighbors := func(y, x float64) (left, right *edgeX) {
		var xs []edgeX
		for _, e := range active {
			xs = append(xs, edgeX{e: e, x: edgeXAt(nodes, e, y)})
		}
		sort.Slice(xs, func(i, j int) bool { return xs[i].x < xs[j].x })
		for i, ex := range xs {
			if ex.x > x {
				if i > 0 {
					l := xs[i-1]
					left = &l
				}
				r := ex
				right = &r
				return
			}
		}
		if len(xs) > 0 {
			l := xs[len(xs)-1]
			left = &l
		}
		return
	}

	for _, vi := range order {
		v := nodes[vi]
		cls := classify(nodes, vi)

		switch cls {
		case Start:
			s := &Section{YMax: v.pt.Y, YMin: v.pt.Y, Left: []geom.Coord{v.pt}, Right: []geom.Coord{v.pt}}
			sections = append(sections, s)
			active = append(active, &activeEdge{fromNode: vi, toNode: v.next, section: s, isLeft: true})
			active = append(active, &activeEdge{fromNode: v.prev, toNode: vi, section: s, isLeft: false})

		case End:
			// Close the two edges meeting at v.
			for _, e := range active {
				if e.toNode == vi || e.fromNode == vi {
					e.section.YMin = v.pt.Y
					if e.isLeft {
						e.section.Left = append(e.section.Left, v.pt)
					} else {
						e.section.Right = append(e.section.Right, v.pt)
					}
				}
			}
			active = lo.Filter(active, func(e *activeEdge, _ int) bool {
				return e.toNode != vi && e.fromNode != vi
			})

		case Left, Right:
			// A regular vertex continues one edge of its section and
			// replaces the other.
			for _, e := range active {
				if e.toNode == vi {
					e.section.YMin = v.pt.Y
					if e.isLeft {
						e.section.Left = append(e.section.Left, v.pt)
					} else {
						e.section.Right = append(e.section.Right, v.pt)
					}
					e.fromNode = vi
					e.toNode = v.next
				} else if e.fromNode == vi {
					// Right-chain edges run from prev to the vertex.
					e.section.YMin = v.pt.Y
					if e.isLeft {
						e.section.Left = append(e.section.Left, v.pt)
					} else {
						e.section.Right = append(e.section.Right, v.pt)
					}
					e.toNode = vi
					e.fromNode = v.prev
				}
			}

		case Split:
			left, _ := refreshAndFindNeighbors(v.pt.Y, v.pt.X)
			if left != nil {
				bx := edgeXAt(nodes, left.e, v.pt.Y)
				breakPt := geom.Coord{X: bx, Y: v.pt.Y}
				left.e.section.YMin = v.pt.Y
				if left.e.isLeft {
					left.e.section.Left = append(left.e.section.Left, breakPt)
				} else {
					left.e.section.Right = append(left.e.section.Right, breakPt)
				}
				newSec := &Section{YMax: v.pt.Y, YMin: v.pt.Y, Left: []geom.Coord{breakPt}, Right: []geom.Coord{v.pt}}
				sections = append(sections, newSec)
				left.section = newSec
				left.isLeft = true
			}
			s := &Section{YMax: v.pt.Y, YMin: v.pt.Y, Left: []geom.Coord{v.pt}, Right: []geom.Coord{v.pt}}
			sections = append(sections, s)
			active = append(active, &activeEdge{fromNode: vi, toNode: v.next, section: s, isLeft: true})
			active = append(active, &activeEdge{fromNode: v.prev, toNode: vi, section: s, isLeft: false})

		case Merge:
			var leftEdge, rightEdge *activeEdge
			for _, e := range active {
				if e.toNode == vi {
					rightEdge = e
				}
			}
			if rightEdge != nil {
				rightEdge.section.YMin = v.pt.Y
				if rightEdge.isLeft {
					rightEdge.section.Left = append(rightEdge.section.Left, v.pt)
				} else {
					rightEdge.section.Right = append(rightEdge.section.Right, v.pt)
				}
			}
			left, _ := refreshAndFindNeighbors(v.pt.Y, v.pt.X)
			if left != nil {
				leftEdge = left.e
				leftEdge.section.YMin = v.pt.Y
				if leftEdge.isLeft {
					leftEdge.section.Left = append(leftEdge.section.Left, v.pt)
				} else {
					leftEdge.section.Right = append(leftEdge.section.Right, v.pt)
				}
				newSec := &Section{YMax: v.pt.Y, YMin: v.pt.Y, Left: []geom.Coord{v.pt}, Right: []geom.Coord{v.pt}}
				sections = append(sections, newSec)
				leftEdge.section = newSec
			}
			if rightEdge != nil {
				rightEdge.fromNode = vi
				rightEdge.toNode = v.next
			}
		}
	}

	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if len(s.Left) >= 2 && len(s.Right) >= 2 {
			out = append(out, *s)
		}
	}
	return out
}
