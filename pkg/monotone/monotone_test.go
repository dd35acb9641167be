package monotone_test

import (
	"testing"

	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/monotone"
	"github.com/stretchr/testify/require"
)

func diamond() geom.Polygon {
	return geom.Polygon{Exterior: geom.Ring{
		{X: 5, Y: 0}, {X: 10, Y: 5}, {X: 5, Y: 10}, {X: 0, Y: 5},
	}}
}

func TestDecomposeDiamondIsSingleSection(t *testing.T) {
	sections := monotone.Decompose(diamond())
	require.NotEmpty(t, sections)
	require.Len(t, sections, 1)

	for _, s := range sections {
		require.GreaterOrEqual(t, s.YMax, s.YMin)
		// Every section's chains must be interpolatable across the whole
		// section height.
		mid := (s.YMax + s.YMin) / 2
		left := monotone.ChainX(s.Left, mid)
		right := monotone.ChainX(s.Right, mid)
		require.LessOrEqual(t, left, right+1e-6)
	}
}

func TestChainXInterpolatesLinearly(t *testing.T) {
	chain := []geom.Coord{{X: 0, Y: 10}, {X: 10, Y: 0}}
	x := monotone.ChainX(chain, 5)
	require.InDelta(t, 5.0, x, 1e-9)
}
