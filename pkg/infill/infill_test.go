package infill_test

import (
	"testing"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/infill"
	"github.com/stretchr/testify/require"
)

func square() geom.Polygon {
	return geom.Polygon{Exterior: geom.Ring{
		{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
	}}
}

func TestLinearFillProducesChainsCoveringSquare(t *testing.T) {
	chains := infill.LinearFill(square(), 0.4, 0.0, command.Infill, 0)
	require.NotEmpty(t, chains)
	for _, c := range chains {
		require.NotEmpty(t, c.Moves)
	}
}

func TestPartialInfillLinearRespectsFillRatio(t *testing.T) {
	dense := infill.PartialInfill(square(), 0.4, 0.0, infill.Linear, 1.0, 0.2)
	sparse := infill.PartialInfill(square(), 0.4, 0.0, infill.Linear, 0.1, 0.2)
	require.NotEmpty(t, dense)
	require.NotEmpty(t, sparse)

	totalMoves := func(cs []command.MoveChain) int {
		n := 0
		for _, c := range cs {
			n += len(c.Moves)
		}
		return n
	}
	require.Greater(t, totalMoves(dense), totalMoves(sparse))
}

func TestPartialInfillZeroRatioReturnsEmpty(t *testing.T) {
	chains := infill.PartialInfill(square(), 0.4, 0.0, infill.Linear, 0, 0.2)
	require.Empty(t, chains)
}

func TestPartialInfillRectilinearCrossHatches(t *testing.T) {
	chains := infill.PartialInfill(square(), 0.4, 0.0, infill.Rectilinear, 0.3, 0.2)
	require.NotEmpty(t, chains)
}
