package slicepipe

import (
	"math"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/infill"
	"github.com/chazu/contour/pkg/lightning"
	"github.com/chazu/contour/pkg/settings"
)

// PerimeterPass insets each slice's remaining area into NumberOfPerimeters
// rings of chains, shrinking RemainingArea by the total perimeter width
// consumed.
func PerimeterPass(slices []Slice, s settings.Settings) {
	for i := range slices {
		slice := &slices[i]
		for _, poly := range slice.RemainingArea {
			if mc := insetPolygonRecursive(geom.MultiPolygon{poly}, slice.LayerSettings, true, s.NumberOfPerimeters-1); mc != nil {
				slice.FixedChains = append(slice.FixedChains, *mc)
			}
		}

		var perimeterInset float64
		switch {
		case s.NumberOfPerimeters == 0:
			perimeterInset = 0
		case s.NumberOfPerimeters == 1:
			perimeterInset = slice.LayerSettings.ExtrusionWidth.ExteriorSurfacePerimeter
		default:
			perimeterInset = slice.LayerSettings.ExtrusionWidth.ExteriorSurfacePerimeter +
				float64(s.NumberOfPerimeters-1)*slice.LayerSettings.ExtrusionWidth.ExteriorInnerPerimeter
		}
		slice.RemainingArea = slice.RemainingArea.OffsetFrom(-perimeterInset)
	}
}

// BridgingPass fills, with bridge-angled linear infill, whatever area of
// each slice (after the first) is unsupported by the slice below.
func BridgingPass(slices []Slice) {
	for q := 1; q < len(slices); q++ {
		below := slices[q-1].GetEntireSlicePolygon()
		fillSolidBridgeArea(&slices[q], below)
	}
}

func fillSolidBridgeArea(slice *Slice, layerBelow geom.MultiPolygon) {
	solidArea := slice.RemainingArea.DifferenceWith(layerBelow).
		OffsetFrom(slice.LayerSettings.ExtrusionWidth.Bridge * 4.0).
		IntersectionWith(slice.RemainingArea)

	for _, poly := range solidArea {
		unsupported := geom.MultiPolygon{poly}.DifferenceWith(layerBelow)
		angle := optimalBridgeAngle(poly, unsupported)
		if angle < 0 {
			angle += 180
		}
		slice.Chains = append(slice.Chains, infill.LinearFill(poly, slice.LayerSettings.ExtrusionWidth.Bridge, slice.LayerSettings.InfillPerimeterOverlapPercentage, command.Bridging, angle)...)
	}

	slice.RemainingArea = slice.RemainingArea.DifferenceWith(solidArea)
}

// TopLayerPass fills the area of each non-final slice not shared with the
// slice above with top solid infill.
func TopLayerPass(slices []Slice) {
	for q := 0; q < len(slices)-1; q++ {
		above := slices[q+1].GetEntireSlicePolygon()
		fillSolidTopLayer(&slices[q], above, q)
	}
}

func fillSolidTopLayer(slice *Slice, layerAbove geom.MultiPolygon, layerCount int) {
	solidArea := slice.RemainingArea.DifferenceWith(layerAbove).
		OffsetFrom(slice.LayerSettings.ExtrusionWidth.SolidTopInfill * 4.0).
		IntersectionWith(slice.RemainingArea)

	angle := 45.0 + 120.0*float64(layerCount)
	for _, poly := range solidArea {
		slice.Chains = append(slice.Chains, infill.LinearFill(poly, slice.LayerSettings.ExtrusionWidth.SolidTopInfill, slice.LayerSettings.InfillPerimeterOverlapPercentage, command.TopSolidInfill, angle)...)
	}

	slice.RemainingArea = slice.RemainingArea.DifferenceWith(solidArea)
}

// TopAndBottomLayersPass fills with solid infill whatever area of an
// interior slice is not shared by every one of its configured top and
// bottom neighbour layers, so solid caps get the requested thickness.
func TopAndBottomLayersPass(slices []Slice, s settings.Settings) {
	top, bottom := s.TopLayers, s.BottomLayers
	if len(slices) <= bottom+top {
		return
	}
	for q := bottom; q < len(slices)-top; q++ {
		var below, above geom.MultiPolygon
		haveBelow, haveAbove := bottom != 0, top != 0

		if haveBelow {
			below = slices[q-bottom].GetEntireSlicePolygon()
			for k := q - bottom + 1; k < q; k++ {
				below = below.IntersectionWith(slices[k].GetEntireSlicePolygon())
			}
		}
		if haveAbove {
			above = slices[q+1].GetEntireSlicePolygon()
			for k := q + 2; k <= q+top; k++ {
				above = above.IntersectionWith(slices[k].GetEntireSlicePolygon())
			}
		}

		var intersection geom.MultiPolygon
		switch {
		case haveAbove && haveBelow:
			intersection = above.IntersectionWith(below)
		case haveBelow:
			intersection = below
		case haveAbove:
			intersection = above
		default:
			continue
		}
		fillSolidSubtractedArea(&slices[q], intersection, q)
	}
}

func fillSolidSubtractedArea(slice *Slice, other geom.MultiPolygon, layerCount int) {
	solidArea := slice.RemainingArea.DifferenceWith(other).
		OffsetFrom(slice.LayerSettings.ExtrusionWidth.SolidInfill * 4.0).
		IntersectionWith(slice.RemainingArea)

	angle := 45.0 + 120.0*float64(layerCount)
	for _, poly := range solidArea {
		slice.Chains = append(slice.Chains, infill.LinearFill(poly, slice.LayerSettings.ExtrusionWidth.SolidInfill, slice.LayerSettings.InfillPerimeterOverlapPercentage, command.SolidInfill, angle)...)
	}

	slice.RemainingArea = slice.RemainingArea.DifferenceWith(solidArea)
}

// SupportPass fills every slice's inherited support tower area.
func SupportPass(slices []Slice, s settings.Settings) {
	if s.Support == nil {
		return
	}
	for i := range slices {
		fillSupportPolygons(&slices[i], *s.Support)
	}
}

// FillAreaPass fills whatever area remains in each slice: solid infill for
// the configured bottom/top skin layers, partial infill everywhere else.
// Lightning infill is walked top-down across the whole stack, since its
// support tree for a layer depends on what's unsupported in the layer
// above it.
func FillAreaPass(slices []Slice, s settings.Settings) {
	n := len(slices)
	remaining := make([]geom.MultiPolygon, n)
	for i := range slices {
		remaining[i] = slices[i].RemainingArea
	}

	var forest lightning.Forest
	for layerNum := n - 1; layerNum >= 0; layerNum-- {
		slice := &slices[layerNum]
		area := remaining[layerNum]
		solid := layerNum < s.BottomLayers || s.TopLayers+layerNum+1 > n

		switch {
		case solid:
			for _, poly := range area {
				slice.Chains = append(slice.Chains, infill.SolidInfill(poly, slice.LayerSettings.ExtrusionWidth.SolidInfill, 0, command.SolidInfill, layerNum)...)
			}
		case slice.LayerSettings.PartialInfillType == infill.Lightning:
			unsupported := area
			if layerNum+1 < n {
				unsupported = area.DifferenceWith(remaining[layerNum+1])
			}
			slice.Chains = append(slice.Chains, lightning.Layer(&forest, unsupported, area,
				slice.LayerSettings.ExtrusionWidth.Infill, slice.LayerSettings.InfillPercentage)...)
		default:
			for _, poly := range area {
				slice.Chains = append(slice.Chains, infill.PartialInfill(poly, slice.LayerSettings.ExtrusionWidth.Infill, 0,
					slice.LayerSettings.PartialInfillType, slice.LayerSettings.InfillPercentage, slice.LayerSettings.LayerHeight)...)
			}
		}
		slice.RemainingArea = nil
	}
}

// OrderPass reorders each slice's chains nearest-neighbor greedily from
// the end of the previously placed chain, shortening the travel moves
// stitching them together.
func OrderPass(slices []Slice) {
	for i := range slices {
		orderChains(&slices[i])
	}
}

func orderChains(slice *Slice) {
	if len(slice.Chains) == 0 {
		return
	}
	remaining := slice.Chains
	ordered := []command.MoveChain{remaining[0]}
	remaining = append(remaining[:0:0], remaining[1:]...)

	for len(remaining) > 0 {
		last := ordered[len(ordered)-1]
		lastEnd := last.Start
		if len(last.Moves) > 0 {
			lastEnd = last.Moves[len(last.Moves)-1].End
		}

		best := 0
		bestDist := math.Inf(1)
		for i, c := range remaining {
			d := math.Hypot(c.Start.X-lastEnd.X, c.Start.Y-lastEnd.Y)
			if d < bestDist {
				bestDist = d
				best = i
			}
		}
		ordered = append(ordered, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}

	slice.Chains = ordered
}

func optimalBridgeAngle(fillArea geom.Polygon, unsupportedArea geom.MultiPolygon) float64 {
	type seg struct{ s, e geom.Coord }
	var lines []seg
	for _, poly := range unsupportedArea {
		rings := append([]geom.Ring{poly.Exterior}, poly.Holes...)
		for _, r := range rings {
			for i := range r {
				s, e := r[i], r[(i+1)%len(r)]
				mid := geom.Coord{X: (s.X + e.X) / 2, Y: (s.Y + e.Y) / 2}
				if (geom.MultiPolygon{fillArea}).CoordinatePosition(mid) != geom.Inside {
					lines = append(lines, seg{s, e})
				}
			}
		}
	}

	bestAngle := 0.0
	bestSum := math.Inf(1)
	found := false
	for _, l := range lines {
		xDiff := l.e.X - l.s.X
		yDiff := l.e.Y - l.s.Y
		perVec := [2]float64{yDiff, -xDiff}
		perLen := math.Hypot(xDiff, yDiff)
		if perLen == 0 {
			continue
		}
		var sum float64
		for _, inner := range lines {
			ix := inner.e.X - inner.s.X
			iy := inner.e.Y - inner.s.Y
			dot := ix*perVec[0] + iy*perVec[1]
			sum += math.Abs(dot / perLen)
		}
		if sum < bestSum {
			bestSum = sum
			bestAngle = -90.0 - math.Atan2(perVec[1], perVec[0])*180/math.Pi
			found = true
		}
	}
	if !found {
		return 0.0
	}
	return bestAngle
}
