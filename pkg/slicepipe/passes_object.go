package slicepipe

import (
	"math"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/infill"
	"github.com/chazu/contour/pkg/settings"
)

// BrimPass adds a brim to the first object's first layer, ringing the
// union of every object's first-layer outline (and any support polygon
// already present on it).
func BrimPass(objects []Object, s settings.Settings) {
	if s.BrimWidth == nil {
		return
	}
	var all geom.MultiPolygon
	for _, obj := range objects {
		first := obj.Layers[0]
		all = all.UnionWith(first.GetEntireSlicePolygon().UnionWith(first.GetSupportPolygon()))
	}
	generateBrim(&objects[0].Layers[0], all, *s.BrimWidth)
}

func generateBrim(slice *Slice, entireFirstLayer geom.MultiPolygon, brimWidth float64) {
	width := slice.LayerSettings.ExtrusionWidth.ExteriorSurfacePerimeter
	if width <= 0 {
		return
	}
	rings := int(brimWidth / width)
	for i := rings - 1; i >= 0; i-- {
		distance := float64(i)*width + width/2.0
		offset := entireFirstLayer.OffsetFrom(distance)
		for _, poly := range offset {
			slice.FixedChains = append(slice.FixedChains, ringChain(poly.Exterior, command.ExteriorSurfacePerimeter, slice.LayerSettings))
		}
	}
}

// SupportTowerPass walks each object's layers top-down, growing a support
// tower wherever the layer above needs support this layer can't give.
func SupportTowerPass(objects []Object, s settings.Settings) {
	if s.Support == nil {
		return
	}
	for o := range objects {
		layers := objects[o].Layers
		for q := len(layers) - 1; q >= 1; q-- {
			addSupportPolygons(&layers[q-1], &layers[q], *s.Support)
		}
	}
}

func addSupportPolygons(slice, above *Slice, support settings.SupportSettings) {
	distanceBetweenLayers := above.GetHeight() - slice.GetHeight()
	maxOverhang := distanceBetweenLayers * tanDeg(support.MaxOverhangAngle)

	currentSupportArea := slice.MainPolygon.OffsetFrom(maxOverhang)
	unsupportedAbove := above.MainPolygon.DifferenceWith(currentSupportArea)
	if len(unsupportedAbove) > 0 {
		slice.SupportInterface = unsupportedAbove
	}

	switch {
	case len(above.SupportInterface) > 0:
		largerInterface := above.SupportInterface.OffsetFrom(maxOverhang).DifferenceWith(slice.MainPolygon.OffsetFrom(0.2))
		if len(above.SupportTower) > 0 {
			slice.SupportTower = above.SupportTower.UnionWith(largerInterface)
		} else {
			slice.SupportTower = largerInterface
		}
	case len(above.SupportTower) > 0:
		slice.SupportTower = above.SupportTower
	}
}

// SkirtPass rings the convex hull of every object's first skirtLayers
// layers around the first object's first skirtLayers layers.
func SkirtPass(objects []Object, s settings.Settings) {
	if s.Skirt == nil {
		return
	}
	var unioned geom.MultiPolygon
	for _, obj := range objects {
		n := s.Skirt.Layers
		if n > len(obj.Layers) {
			n = len(obj.Layers)
		}
		for _, layer := range obj.Layers[:n] {
			unioned = unioned.UnionWith(layer.GetEntireSlicePolygon().UnionWith(layer.GetSupportPolygon()))
		}
	}
	hull := unioned.ConvexHull()

	n := s.Skirt.Layers
	if n > len(objects[0].Layers) {
		n = len(objects[0].Layers)
	}
	for i := 0; i < n; i++ {
		generateSkirt(&objects[0].Layers[i], hull, *s.Skirt, s)
	}
}

func generateSkirt(slice *Slice, hull geom.Polygon, skirt settings.SkirtSettings, s settings.Settings) {
	offset := geom.MultiPolygon{hull}.OffsetFrom(skirt.Distance)
	if len(offset) == 0 {
		return
	}
	ring := offset[0].Exterior
	bounded := make(geom.Ring, len(ring))
	for i, p := range ring {
		bounded[i] = geom.Coord{X: clamp(p.X, 0, s.PrintX), Y: clamp(p.Y, 0, s.PrintY)}
	}
	slice.FixedChains = append(slice.FixedChains, ringChain(bounded, command.ExteriorSurfacePerimeter, slice.LayerSettings))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func tanDeg(d float64) float64 { return math.Tan(d * math.Pi / 180) }

// fillSupportPolygons generates the linear fill covering a layer's
// inherited support tower area.
func fillSupportPolygons(slice *Slice, support settings.SupportSettings) {
	if len(slice.SupportTower) == 0 {
		return
	}
	for _, poly := range slice.SupportTower {
		chains := infill.SupportLinearFill(poly, slice.LayerSettings.ExtrusionWidth.Support, command.Support, support.SupportSpacing, 90.0, 0.0)
		slice.FixedChains = append(slice.FixedChains, chains...)
	}
}
