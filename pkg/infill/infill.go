// Package infill generates boustrophedon (back-and-forth) fill move
// chains from a polygon's y-monotone decomposition.
package infill

import (
	"math"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/monotone"
)

// Pattern selects the angle/spacing table a partial fill is generated
// with.
type Pattern int

const (
	Linear Pattern = iota
	Rectilinear
	Triangle
	Cubic
	Lightning
)

func degToRad(d float64) float64 { return d * math.Pi / 180 }

// LinearFill fills poly at 100% density along a single angle, first
// growing the boundary outward by overlapPct of half the extrusion width
// so the fill overlaps the surrounding perimeter by that much.
func LinearFill(poly geom.Polygon, layerWidth, overlapPct float64, fillType command.MoveType, angleDeg float64) []command.MoveChain {
	return partialLinearFillInset(poly, layerWidth, overlapPct, fillType, layerWidth, angleDeg, 0)
}

// PartialLinearFill fills poly at a given spacing along a single angle,
// with the same perimeter-overlap inset as LinearFill.
func PartialLinearFill(poly geom.Polygon, layerWidth, overlapPct float64, fillType command.MoveType, spacing, angleDeg, offset float64) []command.MoveChain {
	return partialLinearFillInset(poly, layerWidth, overlapPct, fillType, spacing, angleDeg, offset)
}

func partialLinearFillInset(poly geom.Polygon, layerWidth, overlapPct float64, fillType command.MoveType, spacing, angleDeg, offset float64) []command.MoveChain {
	angle := degToRad(angleDeg)
	rotated := rotatePolygon(poly, angle)
	inset := (-layerWidth/2)*(1-overlapPct) + layerWidth/2
	insetPolys := rotated.OffsetFrom(inset)

	var out []command.MoveChain
	for _, p := range insetPolys {
		chains := spacedFillPolygon(p, layerWidth, fillType, spacing, offset)
		out = append(out, chains...)
	}
	for i := range out {
		out[i].Rotate(-angle)
	}
	return out
}

// SupportLinearFill fills poly at a given spacing and angle, insetting
// only by half the extrusion width with no overlap discount (support
// material does not need to bond as tightly to its own boundary).
func SupportLinearFill(poly geom.Polygon, layerWidth float64, fillType command.MoveType, spacing, angleDeg, offset float64) []command.MoveChain {
	angle := degToRad(angleDeg)
	rotated := rotatePolygon(poly, angle)
	insetPolys := rotated.OffsetFrom(-layerWidth / 2)

	var out []command.MoveChain
	for _, p := range insetPolys {
		chains := spacedFillPolygon(p, layerWidth, fillType, spacing, offset)
		out = append(out, chains...)
	}
	for i := range out {
		out[i].Rotate(-angle)
	}
	return out
}

// SolidInfill fills poly at 100% density, alternating the fill angle
// by 120 degrees each layer so consecutive solid layers cross-hatch.
func SolidInfill(poly geom.Polygon, layerWidth, overlapPct float64, fillType command.MoveType, layerCount int) []command.MoveChain {
	angle := 45.0 + 120.0*float64(layerCount)
	return LinearFill(poly, layerWidth, overlapPct, fillType, angle)
}

// PartialInfill dispatches to the angle/spacing table for pattern and
// fillRatio (the fraction of solid extrusion width the fill consumes
// per unit area: 1.0 is dense, smaller values are sparser).
func PartialInfill(poly geom.Polygon, layerWidth, overlapPct float64, pattern Pattern, fillRatio, layerHeight float64) []command.MoveChain {
	if fillRatio < 1e-9 {
		return nil
	}
	switch pattern {
	case Linear:
		return PartialLinearFill(poly, layerWidth, overlapPct, command.Infill, layerWidth/fillRatio, 0, 0)

	case Rectilinear:
		spacing := 2 * layerWidth / fillRatio
		out := PartialLinearFill(poly, layerWidth, overlapPct, command.Infill, spacing, 45, 0)
		out = append(out, PartialLinearFill(poly, layerWidth, overlapPct, command.Infill, spacing, 135, 0)...)
		return out

	case Triangle:
		spacing := 3 * layerWidth / fillRatio
		var out []command.MoveChain
		for _, a := range []float64{45, 105, 165} {
			out = append(out, PartialLinearFill(poly, layerWidth, overlapPct, command.Infill, spacing, a, 0)...)
		}
		return out

	case Cubic:
		spacing := 3 * layerWidth / fillRatio
		offset := layerHeight / math.Sqrt2
		var out []command.MoveChain
		for _, a := range []float64{45, 165, 285} {
			out = append(out, PartialLinearFill(poly, layerWidth, overlapPct, command.Infill, spacing, a, offset)...)
		}
		return out

	case Lightning:
		panic("PartialInfill: Lightning pattern is generated by pkg/lightning, not spacedFillPolygon")
	}
	return nil
}

func rotatePolygon(poly geom.Polygon, angle float64) geom.MultiPolygon {
	return geom.MultiPolygon{poly}.Rotate(angle)
}

// spacedFillPolygon walks the polygon's monotone sections top to bottom,
// laying alternating-direction stripes spacing millimeters apart, shifted
// by offset millimeters, and chaining them into a single
// back-and-forth MoveChain per section.
func spacedFillPolygon(poly geom.Polygon, layerWidth float64, fillType command.MoveType, spacing, offset float64) []command.MoveChain {
	var out []command.MoveChain
	for _, section := range monotone.Decompose(poly) {
		chain := fillSection(section, layerWidth, fillType, spacing, offset)
		if chain != nil {
			out = append(out, *chain)
		}
	}
	return out
}

func fillSection(section monotone.Section, layerWidth float64, fillType command.MoveType, spacing, offset float64) *command.MoveChain {
	if len(section.Left) == 0 {
		return nil
	}
	currentY := (math.Floor((section.Left[0].Y+offset)/spacing) - offset/spacing) * spacing
	// A stripe level with the section's top vertex has no edge above it
	// to interpolate along, so stripes start one spacing lower.
	if currentY >= section.Left[0].Y {
		currentY -= spacing
	}

	orient := true
	var started bool
	var startPt geom.Coord
	var moves []command.Move

	leftIdx, rightIdx := 0, 0

	for {
		var connectChain []geom.Coord
		for leftIdx < len(section.Left) && section.Left[leftIdx].Y > currentY {
			if orient {
				connectChain = append(connectChain, section.Left[leftIdx])
			}
			leftIdx++
		}
		if leftIdx == len(section.Left) {
			break
		}
		for rightIdx < len(section.Right) && section.Right[rightIdx].Y > currentY {
			if !orient {
				connectChain = append(connectChain, section.Right[rightIdx])
			}
			rightIdx++
		}
		if rightIdx == len(section.Right) {
			break
		}

		leftTop, leftBot := section.Left[leftIdx-1], section.Left[leftIdx]
		rightTop, rightBot := section.Right[rightIdx-1], section.Right[rightIdx]

		leftPt := pointLerp(leftTop, leftBot, currentY)
		rightPt := pointLerp(rightTop, rightBot, currentY)

		if started {
			var prevY *float64
			for _, pt := range connectChain {
				mt := fillType
				if prevY != nil && *prevY == pt.Y {
					mt = command.Travel
				}
				moves = append(moves, command.Move{End: pt, Width: layerWidth, Type: mt})
				y := pt.Y
				prevY = &y
			}
		}

		if !started {
			startPt = geom.Coord{X: leftPt.X, Y: currentY}
			started = true
		}

		if orient {
			moves = append(moves, command.Move{End: geom.Coord{X: leftPt.X, Y: currentY}, Width: layerWidth, Type: fillType})
			moves = append(moves, command.Move{End: geom.Coord{X: rightPt.X, Y: currentY}, Width: layerWidth, Type: fillType})
		} else {
			moves = append(moves, command.Move{End: geom.Coord{X: rightPt.X, Y: currentY}, Width: layerWidth, Type: fillType})
			moves = append(moves, command.Move{End: geom.Coord{X: leftPt.X, Y: currentY}, Width: layerWidth, Type: fillType})
		}

		orient = !orient
		currentY -= spacing
	}

	if !started {
		return nil
	}
	return &command.MoveChain{Start: startPt, Moves: moves}
}

func pointLerp(a, b geom.Coord, y float64) geom.Coord {
	if b.Y == a.Y {
		return geom.Coord{X: a.X, Y: y}
	}
	f := (y - a.Y) / (b.Y - a.Y)
	return geom.Coord{X: a.X + f*(b.X-a.X), Y: y}
}
