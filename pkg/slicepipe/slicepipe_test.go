package slicepipe_test

import (
	"testing"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/infill"
	"github.com/chazu/contour/pkg/settings"
	"github.com/chazu/contour/pkg/slicepipe"
	"github.com/stretchr/testify/require"
)

func square(side float64) []geom.Coord {
	return []geom.Coord{{X: 0, Y: 0}, {X: side, Y: 0}, {X: side, Y: side}, {X: 0, Y: side}}
}

func squareObject(s settings.Settings, layers int, side float64) slicepipe.Object {
	obj := slicepipe.Object{}
	for i := 0; i < layers; i++ {
		h := float64(i) * s.LayerHeight
		obj.Layers = append(obj.Layers, slicepipe.NewSliceFromLoops(
			[][]geom.Coord{square(side)}, h, h+s.LayerHeight, i, s))
	}
	return obj
}

func TestNewSliceFromLoopsBuildsExteriorFromSquare(t *testing.T) {
	s := settings.Default()
	slice := slicepipe.NewSliceFromLoops([][]geom.Coord{square(10)}, 0, 0.2, 0, s)
	require.Len(t, slice.MainPolygon, 1)
	require.Len(t, slice.MainPolygon[0].Exterior, 4)
	require.Empty(t, slice.MainPolygon[0].Holes)
}

func TestNewSliceFromLoopsNestsHoleInsideExterior(t *testing.T) {
	s := settings.Default()
	outer := square(10)
	// Reverse winding makes this loop's signed area negative, so it's
	// classified as a hole nested in the larger, positive-area outer loop.
	inner := []geom.Coord{{X: 2, Y: 2}, {X: 2, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 2}}

	slice := slicepipe.NewSliceFromLoops([][]geom.Coord{outer, inner}, 0, 0.2, 0, s)
	require.Len(t, slice.MainPolygon, 1)
	require.Len(t, slice.MainPolygon[0].Holes, 1)
}

func TestGenerateProducesOptimizedCommandStream(t *testing.T) {
	s := settings.Default()
	s.NumberOfPerimeters = 2
	s.TopLayers, s.BottomLayers = 1, 1
	s.InfillPercentage = 0.2

	objects := []slicepipe.Object{squareObject(s, 4, 10)}
	cmds := slicepipe.Generate(objects, s)
	require.NotEmpty(t, cmds)

	var sawExtrude bool
	for _, c := range cmds {
		if _, ok := c.(command.MoveAndExtrude); ok {
			sawExtrude = true
			break
		}
	}
	require.True(t, sawExtrude)
}

func TestFillAreaPassRoutesLightningThroughForest(t *testing.T) {
	s := settings.Default()
	s.PartialInfillType = infill.Lightning
	s.InfillPercentage = 0.15
	s.TopLayers, s.BottomLayers = 0, 0

	obj := squareObject(s, 3, 10)
	slicepipe.FillAreaPass(obj.Layers, s)

	var sawFill bool
	for _, layer := range obj.Layers {
		require.Empty(t, layer.RemainingArea)
		if len(layer.Chains) > 0 {
			sawFill = true
		}
	}
	require.True(t, sawFill)
}

func TestOrderChainsKeepsAllChains(t *testing.T) {
	slices := []slicepipe.Slice{{
		Chains: []command.MoveChain{
			{Start: geom.Coord{X: 10, Y: 10}, Moves: []command.Move{{End: geom.Coord{X: 11, Y: 10}, Width: 0.4}}},
			{Start: geom.Coord{X: 0, Y: 0}, Moves: []command.Move{{End: geom.Coord{X: 1, Y: 0}, Width: 0.4}}},
		},
	}}
	slicepipe.OrderPass(slices)
	require.Len(t, slices[0].Chains, 2)
}
