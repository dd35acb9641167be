// Package slicepipe turns a tower's per-height point loops into finished
// move chains: building each layer's polygon, running the object- and
// slice-level passes over the whole print, and assembling every layer's
// commands into one ordered stream.
package slicepipe

import (
	"sort"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/settings"
	"github.com/google/uuid"
)

// Slice is one layer of one object: its outline, the area still open for
// infill, any support geometry inherited from layers above, and the
// chains generated for it so far.
type Slice struct {
	MainPolygon      geom.MultiPolygon
	RemainingArea    geom.MultiPolygon
	SupportInterface geom.MultiPolygon
	SupportTower     geom.MultiPolygon
	FixedChains      []command.MoveChain
	Chains           []command.MoveChain
	BottomHeight     float64
	TopHeight        float64
	LayerSettings    settings.LayerSettings
}

// GetHeight returns the layer's vertical midpoint, the height its
// LayerSettings were resolved against.
func (s *Slice) GetHeight() float64 {
	return (s.BottomHeight + s.TopHeight) / 2.0
}

// GetEntireSlicePolygon returns the layer's full outline, before any
// perimeter inset has been subtracted from RemainingArea.
func (s *Slice) GetEntireSlicePolygon() geom.MultiPolygon {
	return s.MainPolygon
}

// GetSupportPolygon returns the union of whatever support geometry (tower
// and interface) this layer carries.
func (s *Slice) GetSupportPolygon() geom.MultiPolygon {
	switch {
	case len(s.SupportTower) == 0:
		return s.SupportInterface
	case len(s.SupportInterface) == 0:
		return s.SupportTower
	default:
		return s.SupportTower.UnionWith(s.SupportInterface)
	}
}

// Object is a single mesh's full stack of layers, identified by a UUID
// that survives reordering the way a slice index into objects would not.
type Object struct {
	ID     uuid.UUID
	Layers []Slice
}

// NewSliceFromLoops builds a Slice from a tower cross-section's raw point
// loops: orders them by descending signed area, so every counter-clockwise
// exterior loop comes before the clockwise interior loops, then nests each
// interior loop as a hole in the smallest exterior loop that contains it,
// since the tower's cross-sections carry no such structure.
func NewSliceFromLoops(loops [][]geom.Coord, bottomHeight, topHeight float64, layerCount int, s settings.Settings) Slice {
	type loopArea struct {
		ring Ring
		area float64
	}
	entries := make([]loopArea, 0, len(loops))
	for _, loop := range loops {
		ring := Ring(loop)
		area := signedRingArea(ring)
		if abs(area) <= 0.0001 {
			continue
		}
		entries = append(entries, loopArea{ring, area})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].area > entries[j].area })

	var polys []geom.Polygon
	for _, e := range entries {
		if e.area > 0 {
			polys = append(polys, geom.Polygon{Exterior: geom.Ring(e.ring)})
			continue
		}
		for i := len(polys) - 1; i >= 0; i-- {
			if ringContains(polys[i].Exterior, e.ring[0]) {
				polys[i].Holes = append(polys[i].Holes, geom.Ring(e.ring))
				break
			}
		}
	}

	mp := geom.MultiPolygon(polys)
	layerSettings := s.GetLayerSettings(layerCount, (bottomHeight+topHeight)/2.0)

	return Slice{
		MainPolygon:   mp,
		RemainingArea: mp,
		BottomHeight:  bottomHeight,
		TopHeight:     topHeight,
		LayerSettings: layerSettings,
	}
}

// Ring is a plain-point closed loop, ahead of being classified into an
// exterior or a hole.
type Ring []geom.Coord

func signedRingArea(r Ring) float64 {
	var sum float64
	n := len(r)
	for i := 0; i < n; i++ {
		p1 := r[i]
		p2 := r[(i+1)%n]
		sum += (p1.X + p2.X) * (p2.Y - p1.Y)
	}
	return sum
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func ringContains(r geom.Ring, pt geom.Coord) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := r[i], r[j]
		if (pi.Y > pt.Y) != (pj.Y > pt.Y) &&
			pt.X < (pj.X-pi.X)*(pt.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}
