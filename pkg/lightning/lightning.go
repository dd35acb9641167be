// Package lightning builds a lightning-infill support forest: a sparse
// tree of branches that fan out from the perimeter to support the layer
// above with minimal material, reconnected and trimmed against each
// layer's remaining (unsupported) area from the top of the print down.
package lightning

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
)

// Node is one branch point of the forest: a location and the children
// it supports.
type Node struct {
	Children []*Node
	Location geom.Coord
}

// Forest is the set of trees carried down from the top layer to the
// bottom, reconnected and trimmed against each layer's geometry in turn.
type Forest struct {
	Trees []*Node
}

func dist(a, b geom.Coord) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// closestChildDistance returns the minimum distance from pt to n or any
// descendant of n.
func (n *Node) closestChildDistance(pt geom.Coord) float64 {
	min := dist(n.Location, pt)
	for _, c := range n.Children {
		if d := c.closestChildDistance(pt); d < min {
			min = d
		}
	}
	return min
}

// addPointToTree attaches node to the closest point in the subtree
// rooted at n, recursing into whichever child is strictly closer than n
// itself.
func (n *Node) addPointToTree(node *Node) {
	bestIdx := -1
	bestDist := math.Inf(1)
	selfDist := dist(n.Location, node.Location)
	for i, c := range n.Children {
		d := c.closestChildDistance(node.Location)
		if d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	if bestIdx >= 0 && bestDist < selfDist {
		n.Children[bestIdx].addPointToTree(node)
		return
	}
	n.Children = append(n.Children, node)
}

// GetMoveChains flattens the subtree rooted at n into move chains: each
// leaf starts a chain that is extended back toward the root as the
// recursion unwinds, so sibling branches stay in separate chains while
// the chain carrying a node's first child absorbs the move into n.
func (n *Node) GetMoveChains(width float64) []command.MoveChain {
	var out []command.MoveChain
	for _, child := range n.Children {
		chains := child.GetMoveChains(width)
		if len(chains) > 0 {
			chains[0].Moves = append(chains[0].Moves, command.Move{End: n.Location, Width: width, Type: command.Infill})
		} else {
			chains = append(chains, command.MoveChain{
				Start: child.Location,
				Moves: []command.Move{{End: n.Location, Width: width, Type: command.Infill}},
			})
		}
		out = append(out, chains...)
	}
	return out
}

// trimForPolygonInside walks n's children, recursing into whichever are
// still inside poly and clipping whichever have left it at the boundary
// crossing. It returns the fragments, rooted at a boundary crossing,
// whose branches re-enter poly; subtrees lying fully outside are dropped.
func (n *Node) trimForPolygonInside(poly geom.MultiPolygon) []*Node {
	var fragments []*Node
	for i, child := range n.Children {
		if poly.Contains(child.Location) {
			fragments = append(fragments, child.trimForPolygonInside(poly)...)
			continue
		}
		cut, ok := closestIntersection(segment{n.Location, child.Location}, poly)
		if !ok {
			cut = child.Location
		}
		oldChild := child
		n.Children[i] = &Node{Location: cut}
		fragments = append(fragments, oldChild.trimForPolygonOutside(poly)...)
	}
	return fragments
}

// trimForPolygonOutside consumes n, a node already known to lie outside
// poly: any child that has entered poly roots a new fragment at the
// boundary crossing, anything still outside recurses with n's child as
// the new outside endpoint.
func (n *Node) trimForPolygonOutside(poly geom.MultiPolygon) []*Node {
	var fragments []*Node
	for _, child := range n.Children {
		if poly.Contains(child.Location) {
			cut, ok := closestIntersection(segment{child.Location, n.Location}, poly)
			if !ok {
				cut = n.Location
			}
			newNode := &Node{Location: cut, Children: []*Node{child}}
			fragments = append(fragments, newNode.trimForPolygonInside(poly)...)
			fragments = append(fragments, newNode)
			continue
		}
		fragments = append(fragments, child.trimForPolygonOutside(poly)...)
	}
	return fragments
}

// addNodeToTree attaches node to whichever existing tree has a point
// closer to it than the polygon boundary itself, or starts a new tree
// rooted at the boundary point otherwise.
func (f *Forest) addNodeToTree(node *Node, closestOnPolygon geom.Coord) {
	polyDist := dist(node.Location, closestOnPolygon)

	bestIdx := -1
	bestDist := math.Inf(1)
	for i, t := range f.Trees {
		d := t.closestChildDistance(node.Location)
		if d < polyDist && d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		f.Trees[bestIdx].addPointToTree(node)
		return
	}
	f.Trees = append(f.Trees, &Node{Location: closestOnPolygon, Children: []*Node{node}})
}

// reconnectToPolygonAndTrim trims every tree against poly's current
// boundary (the layer below has less area than the layer above), and
// returns the fragments of any tree now wholly inside poly: those
// fragments get re-seeded as fresh nodes on this layer.
func (f *Forest) reconnectToPolygonAndTrim(poly geom.MultiPolygon) []*Node {
	var fragments []*Node
	var newTrees []*Node
	for _, tree := range f.Trees {
		switch poly.CoordinatePosition(tree.Location) {
		case geom.OnBoundary:
			newTrees = append(newTrees, tree.trimForPolygonInside(poly)...)
			newTrees = append(newTrees, tree)
		case geom.Outside:
			newTrees = append(newTrees, tree.trimForPolygonOutside(poly)...)
		case geom.Inside:
			newTrees = append(newTrees, tree.trimForPolygonInside(poly)...)
			fragments = append(fragments, tree)
		}
	}
	f.Trees = newTrees
	return fragments
}

// Layer advances the forest down one layer: it reconnects/trims the
// existing forest against remainingArea, seeds a hexagonal grid of
// candidate support points across unsupportedArea, attaches every
// candidate (closest first, ties broken randomly) to the forest or to a
// fresh boundary root, and returns the move chains the layer's trees
// now describe.
func Layer(forest *Forest, unsupportedArea, remainingArea geom.MultiPolygon, layerWidth, infillPercentage float64) []command.MoveChain {
	hSpacing := layerWidth / infillPercentage
	vSpacing := hSpacing * math.Sqrt(3) / 2

	fragments := forest.reconnectToPolygonAndTrim(remainingArea)

	minX, maxX, minY, maxY := bounds(unsupportedArea)

	type candidate struct {
		node     *Node
		distance float64
		closest  geom.Coord
	}
	var candidates []candidate

	if hSpacing > 0 && vSpacing > 0 && maxX >= minX {
		xStart, xEnd := int(math.Floor(minX/hSpacing)), int(math.Floor(maxX/hSpacing))+1
		yStart, yEnd := int(math.Floor(minY/vSpacing)), int(math.Floor(maxY/vSpacing))+1
		for y := yStart; y <= yEnd; y++ {
			for x := xStart; x <= xEnd; x++ {
				var c geom.Coord
				if y%2 == 0 {
					c = geom.Coord{X: float64(x) * hSpacing, Y: float64(y) * vSpacing}
				} else {
					c = geom.Coord{X: (float64(x) - 0.5) * hSpacing, Y: float64(y) * vSpacing}
				}
				if !unsupportedArea.Contains(c) {
					continue
				}
				node := &Node{Location: c}
				closest, ok := remainingArea.ClosestPoint(c)
				if !ok {
					continue
				}
				candidates = append(candidates, candidate{node: node, distance: dist(c, closest), closest: closest})
			}
		}
	}
	for _, f := range fragments {
		closest, ok := remainingArea.ClosestPoint(f.Location)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{node: f, distance: dist(f.Location, closest), closest: closest})
	}

	if len(candidates) > 0 {
		rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].distance < candidates[j].distance })
		for _, c := range candidates {
			forest.addNodeToTree(c.node, c.closest)
		}
	}

	var chains []command.MoveChain
	for _, t := range forest.Trees {
		chains = append(chains, t.GetMoveChains(layerWidth)...)
	}
	return chains
}

func bounds(mp geom.MultiPolygon) (minX, maxX, minY, maxY float64) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, poly := range mp {
		for _, c := range poly.Exterior {
			minX, maxX = math.Min(minX, c.X), math.Max(maxX, c.X)
			minY, maxY = math.Min(minY, c.Y), math.Max(maxY, c.Y)
		}
	}
	return
}

type segment [2]geom.Coord

// closestIntersection returns the intersection point of line with
// poly's boundary (exterior and holes, across every polygon) closest to
// line's start point.
func closestIntersection(line segment, poly geom.MultiPolygon) (geom.Coord, bool) {
	best := geom.Coord{}
	bestDist := math.Inf(1)
	found := false
	check := func(ring geom.Ring) {
		n := len(ring)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			if pt, ok := segmentIntersect(line[0], line[1], ring[i], ring[j]); ok {
				d := dist(line[0], pt)
				if d < bestDist {
					bestDist = d
					best = pt
					found = true
				}
			}
		}
	}
	for _, p := range poly {
		check(p.Exterior)
		for _, h := range p.Holes {
			check(h)
		}
	}
	return best, found
}

// segmentIntersect returns the intersection of segments (p1,p2) and
// (p3,p4), if one exists within both segments' bounds.
func segmentIntersect(p1, p2, p3, p4 geom.Coord) (geom.Coord, bool) {
	d1x, d1y := p2.X-p1.X, p2.Y-p1.Y
	d2x, d2y := p4.X-p3.X, p4.Y-p3.Y
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < 1e-12 {
		return geom.Coord{}, false
	}
	t := ((p3.X-p1.X)*d2y - (p3.Y-p1.Y)*d2x) / denom
	u := ((p3.X-p1.X)*d1y - (p3.Y-p1.Y)*d1x) / denom
	if t < -1e-9 || t > 1+1e-9 || u < -1e-9 || u > 1+1e-9 {
		return geom.Coord{}, false
	}
	return geom.Coord{X: p1.X + t*d1x, Y: p1.Y + t*d1y}, true
}
