package geom

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// precisionScale is the grid every coordinate is snapped to, matching
// the 1e-6 working precision used throughout the pipeline.
const precisionScale = 1e6

// Coord is a 2D point.
type Coord struct {
	X, Y float64
}

// Ring is a closed polygon loop (first point is not repeated).
type Ring []Coord

// Polygon is an exterior ring plus zero or more hole rings. Canonical
// orientation is CCW for the exterior and CW for holes.
type Polygon struct {
	Exterior Ring
	Holes    []Ring
}

// MultiPolygon is an unordered set of polygons.
type MultiPolygon []Polygon

// CoordPosition classifies a point relative to a polygon boundary.
type CoordPosition int

const (
	Outside CoordPosition = iota
	OnBoundary
	Inside
)

// Snap rounds a coordinate to the 1e-6 working grid.
func Snap(c Coord) Coord {
	return Coord{
		X: math.Round(c.X*precisionScale) / precisionScale,
		Y: math.Round(c.Y*precisionScale) / precisionScale,
	}
}

// flattenRings collects every ring (exterior and holes) of mp into one
// slice, in their stored orientation.
func (mp MultiPolygon) flattenRings() []Ring {
	var rings []Ring
	for _, poly := range mp {
		rings = append(rings, poly.Exterior)
		rings = append(rings, poly.Holes...)
	}
	return rings
}

// fromFlatRings reassembles exterior/hole polygons from a flat ring set
// using signed area: positive-area loops are exteriors, negative-area
// loops are holes of the most recently emitted exterior.
func fromFlatRings(rings []Ring) MultiPolygon {
	var out MultiPolygon
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		if signedArea(ring) >= 0 {
			out = append(out, Polygon{Exterior: ring})
			continue
		}
		if len(out) == 0 {
			out = append(out, Polygon{Exterior: ring})
			continue
		}
		last := len(out) - 1
		out[last].Holes = append(out[last].Holes, ring)
	}
	return out
}

func signedArea(r Ring) float64 {
	var sum float64
	n := len(r)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return sum / 2
}

// UnionWith returns the union of mp and other.
func (mp MultiPolygon) UnionWith(other MultiPolygon) MultiPolygon {
	return clipBoolean(opUnion, mp, other)
}

// DifferenceWith subtracts other from mp.
func (mp MultiPolygon) DifferenceWith(other MultiPolygon) MultiPolygon {
	return clipBoolean(opDifference, mp, other)
}

// IntersectionWith returns the overlap of mp and other.
func (mp MultiPolygon) IntersectionWith(other MultiPolygon) MultiPolygon {
	return clipBoolean(opIntersection, mp, other)
}

// XorWith returns the symmetric difference of mp and other: (mp - other)
// union (other - mp), computed as the two differences concatenated since
// they never overlap.
func (mp MultiPolygon) XorWith(other MultiPolygon) MultiPolygon {
	a := clipBoolean(opDifference, mp, other)
	b := clipBoolean(opDifference, other, mp)
	return fromFlatRings(append(a.flattenRings(), b.flattenRings()...))
}

// OffsetFrom grows (delta > 0) or shrinks (delta < 0) mp by delta. Each
// ring edge is pushed outward along its right-hand normal and adjacent
// offset edges are joined by a flat (square) cut rather than a mitered
// point, matching spec's square-join requirement. Corners sharp enough
// that the offset self-intersects are not cleaned up; see DESIGN.md.
func (mp MultiPolygon) OffsetFrom(delta float64) MultiPolygon {
	if len(mp) == 0 {
		return nil
	}
	src := mp.flattenRings()
	rings := make([]Ring, 0, len(src))
	for _, r := range src {
		rings = append(rings, snapRing(offsetRing(r, delta)))
	}
	return fromFlatRings(rings)
}

// Contains reports whether pt lies strictly inside mp.
func (mp MultiPolygon) Contains(pt Coord) bool {
	return mp.CoordinatePosition(pt) == Inside
}

// CoordinatePosition classifies pt relative to mp.
func (mp MultiPolygon) CoordinatePosition(pt Coord) CoordPosition {
	best := Outside
	for _, poly := range mp {
		pos := poly.coordinatePosition(pt)
		if pos == OnBoundary {
			return OnBoundary
		}
		if pos == Inside {
			best = Inside
		}
	}
	return best
}

func (p Polygon) coordinatePosition(pt Coord) CoordPosition {
	pos := ringPosition(p.Exterior, pt)
	if pos == Outside {
		return Outside
	}
	if pos == OnBoundary {
		return OnBoundary
	}
	for _, h := range p.Holes {
		hp := ringPosition(h, pt)
		if hp == OnBoundary {
			return OnBoundary
		}
		if hp == Inside {
			return Outside
		}
	}
	return Inside
}

// ringPosition is a standard even-odd ray-cast test, with an explicit
// on-segment check so boundary points are reported exactly rather than
// falling randomly to either side.
func ringPosition(r Ring, pt Coord) CoordPosition {
	n := len(r)
	if n == 0 {
		return Outside
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[j], r[i]
		if onSegment(a, b, pt) {
			return OnBoundary
		}
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			xint := a.X + (pt.Y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
			if pt.X < xint {
				inside = !inside
			}
		}
	}
	if inside {
		return Inside
	}
	return Outside
}

func onSegment(a, b, pt Coord) bool {
	cross := (b.X-a.X)*(pt.Y-a.Y) - (b.Y-a.Y)*(pt.X-a.X)
	if math.Abs(cross) > 1e-9 {
		return false
	}
	if pt.X < math.Min(a.X, b.X)-1e-9 || pt.X > math.Max(a.X, b.X)+1e-9 {
		return false
	}
	if pt.Y < math.Min(a.Y, b.Y)-1e-9 || pt.Y > math.Max(a.Y, b.Y)+1e-9 {
		return false
	}
	return true
}

// ClosestPoint returns the closest point on mp's boundary to pt. Each call
// builds an R-tree over the boundary segments and measures the distance
// to every segment it returns, so a query costs at least linear time in
// the number of segments.
func (mp MultiPolygon) ClosestPoint(pt Coord) (Coord, bool) {
	segs := mp.boundarySegments()
	if len(segs) == 0 {
		return Coord{}, false
	}
	rt := rtreego.NewTree(2, 25, 50)
	for i, s := range segs {
		rt.Insert(&segmentSpatial{id: i, seg: s})
	}
	results := rt.NearestNeighbors(len(segs), rtreego.Point{pt.X, pt.Y})
	best := Coord{}
	bestDist := math.Inf(1)
	found := false
	for _, r := range results {
		ss, ok := r.(*segmentSpatial)
		if !ok {
			continue
		}
		c, d := closestOnSegment(ss.seg[0], ss.seg[1], pt)
		if d < bestDist {
			bestDist = d
			best = c
			found = true
		}
	}
	return best, found
}

type segment [2]Coord

type segmentSpatial struct {
	id  int
	seg segment
}

func (s *segmentSpatial) Bounds() rtreego.Rect {
	minX := math.Min(s.seg[0].X, s.seg[1].X)
	minY := math.Min(s.seg[0].Y, s.seg[1].Y)
	w := math.Max(math.Abs(s.seg[1].X-s.seg[0].X), 1e-9)
	h := math.Max(math.Abs(s.seg[1].Y-s.seg[0].Y), 1e-9)
	rect, _ := rtreego.NewRect(rtreego.Point{minX, minY}, []float64{w, h})
	return rect
}

func (mp MultiPolygon) boundarySegments() []segment {
	var segs []segment
	addRing := func(r Ring) {
		n := len(r)
		for i := 0; i < n; i++ {
			j := (i + 1) % n
			segs = append(segs, segment{r[i], r[j]})
		}
	}
	for _, poly := range mp {
		addRing(poly.Exterior)
		for _, h := range poly.Holes {
			addRing(h)
		}
	}
	return segs
}

func closestOnSegment(a, b, pt Coord) (Coord, float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a, math.Hypot(pt.X-a.X, pt.Y-a.Y)
	}
	t := ((pt.X-a.X)*dx + (pt.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	c := Coord{X: a.X + t*dx, Y: a.Y + t*dy}
	return c, math.Hypot(pt.X-c.X, pt.Y-c.Y)
}

// Rotate performs a rigid rotation of mp about the origin by angle
// radians.
func (mp MultiPolygon) Rotate(angle float64) MultiPolygon {
	cos, sin := math.Cos(angle), math.Sin(angle)
	rotRing := func(r Ring) Ring {
		out := make(Ring, len(r))
		for i, c := range r {
			out[i] = Coord{X: c.X*cos - c.Y*sin, Y: c.X*sin + c.Y*cos}
		}
		return out
	}
	out := make(MultiPolygon, len(mp))
	for i, poly := range mp {
		holes := make([]Ring, len(poly.Holes))
		for j, h := range poly.Holes {
			holes[j] = rotRing(h)
		}
		out[i] = Polygon{Exterior: rotRing(poly.Exterior), Holes: holes}
	}
	return out
}

// ConvexHull computes the convex hull of every point across every ring in
// mp via Andrew's monotone chain.
func (mp MultiPolygon) ConvexHull() Polygon {
	var pts []Coord
	for _, poly := range mp {
		pts = append(pts, poly.Exterior...)
		for _, h := range poly.Holes {
			pts = append(pts, h...)
		}
	}
	return Polygon{Exterior: convexHull(pts)}
}

func convexHull(pts []Coord) Ring {
	if len(pts) < 3 {
		return append(Ring{}, pts...)
	}
	sorted := append([]Coord{}, pts...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	cross := func(o, a, b Coord) float64 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}
	var lower, upper []Coord
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	lower = lower[:len(lower)-1]
	upper = upper[:len(upper)-1]
	return append(lower, upper...)
}
