package slicepipe

import (
	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/settings"
)

// insetPolygonRecursive insets poly by half of one perimeter's width (to
// that perimeter's centerline), emits a ring
// chain for its exterior and every hole, then recurses inward for the
// remaining perimeter count, stitching every ring together with travel
// moves into one chain. Returns nil for an area too small to hold even one
// perimeter.
func insetPolygonRecursive(poly geom.MultiPolygon, ls settings.LayerSettings, outerPerimeter bool, layersLeft int) *command.MoveChain {
	var moveChains []command.MoveChain

	insetDist := ls.ExtrusionWidth.InteriorInnerPerimeter
	if outerPerimeter {
		insetDist = ls.ExtrusionWidth.InteriorSurfacePerimeter
	}
	insetPoly := poly.OffsetFrom(-insetDist / 2.0)

	for _, polygon := range insetPoly {
		var outerChains, innerChains []command.MoveChain

		exteriorType := command.ExteriorInnerPerimeter
		interiorType := command.InteriorInnerPerimeter
		if outerPerimeter {
			exteriorType = command.ExteriorSurfacePerimeter
			interiorType = command.InteriorSurfacePerimeter
		}

		outerChains = append(outerChains, ringChain(polygon.Exterior, exteriorType, ls))
		for _, hole := range polygon.Holes {
			outerChains = append(outerChains, ringChain(hole, interiorType, ls))
		}

		if layersLeft != 0 {
			recInset := geom.MultiPolygon{polygon}.OffsetFrom(-insetDist / 2.0)
			for _, recPoly := range recInset {
				if mc := insetPolygonRecursive(geom.MultiPolygon{recPoly}, ls, false, layersLeft-1); mc != nil {
					innerChains = append(innerChains, *mc)
				}
			}
		}

		if ls.InnerPerimetersFirst {
			moveChains = append(moveChains, innerChains...)
			moveChains = append(moveChains, outerChains...)
		} else {
			moveChains = append(moveChains, outerChains...)
			moveChains = append(moveChains, innerChains...)
		}
	}

	if len(moveChains) == 0 {
		return nil
	}

	startingPoint := moveChains[0].Start
	var fullMoves []command.Move
	for _, chain := range moveChains {
		fullMoves = append(fullMoves, command.Move{End: chain.Start, Type: command.Travel})
		fullMoves = append(fullMoves, chain.Moves...)
	}

	return &command.MoveChain{Start: startingPoint, Moves: fullMoves, IsLoop: true}
}

func ringChain(r geom.Ring, t command.MoveType, ls settings.LayerSettings) command.MoveChain {
	width := ls.ExtrusionWidth.ForMoveType(t)
	moves := make([]command.Move, len(r))
	for i := range r {
		end := r[(i+1)%len(r)]
		moves[i] = command.Move{End: end, Width: width, Type: t}
	}
	return command.MoveChain{Start: r[0], Moves: moves, IsLoop: true}
}
