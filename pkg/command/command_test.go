package command_test

import (
	"testing"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestStateDiffOnlyReturnsChangedFields(t *testing.T) {
	var running command.StateChange
	diff := running.StateDiff(command.StateChange{MovementSpeed: floatPtr(1200)})
	require.NotNil(t, diff.MovementSpeed)
	require.Equal(t, 1200.0, *diff.MovementSpeed)
	require.Nil(t, diff.ExtruderTemp)

	// Same value again produces no diff.
	again := running.StateDiff(command.StateChange{MovementSpeed: floatPtr(1200)})
	require.True(t, again.IsAllNil())
}

func TestEmitChainProducesRetractTravelExtrude(t *testing.T) {
	chain := command.MoveChain{
		Start: geom.Coord{X: 0, Y: 0},
		Moves: []command.Move{
			{End: geom.Coord{X: 10, Y: 0}, Width: 0.4, Type: command.Infill},
			{End: geom.Coord{X: 10, Y: 10}, Width: 0.4, Type: command.Infill},
		},
	}
	cfg := command.SpeedConfig{InfillSpeed: 3000, TravelSpeed: 6000}
	cmds := command.EmitChain(chain, 0.2, cfg)
	require.NotEmpty(t, cmds)

	_, isSetState := cmds[0].(command.SetState)
	require.True(t, isSetState)
	_, isMoveTo := cmds[1].(command.MoveTo)
	require.True(t, isMoveTo)

	var extrudeCount int
	for _, c := range cmds {
		if _, ok := c.(command.MoveAndExtrude); ok {
			extrudeCount++
		}
	}
	require.Equal(t, 2, extrudeCount)
}

func TestOptimizePassCoalescesColinearMoves(t *testing.T) {
	cmds := []command.Command{
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 5, Y: 0}, Width: 0.4, Thickness: 0.2},
		command.MoveAndExtrude{Start: geom.Coord{X: 5, Y: 0}, End: geom.Coord{X: 10, Y: 0}, Width: 0.4, Thickness: 0.2},
	}
	out := command.OptimizePass(cmds, 1.0)
	require.Len(t, out, 1)
	merged, ok := out[0].(command.MoveAndExtrude)
	require.True(t, ok)
	require.Equal(t, geom.Coord{X: 0, Y: 0}, merged.Start)
	require.Equal(t, geom.Coord{X: 10, Y: 0}, merged.End)
}

func TestOptimizePassDropsZeroLengthMove(t *testing.T) {
	cmds := []command.Command{
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 0, Y: 0}, Width: 0.4, Thickness: 0.2},
	}
	out := command.OptimizePass(cmds, 1.0)
	require.Empty(t, out)
}

func TestOptimizePassElidesRetractBelowMinimumDistance(t *testing.T) {
	cmds := []command.Command{
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 10, Y: 0}, Width: 0.4, Thickness: 0.2},
		command.SetState{State: command.StateChange{Retract: &command.RetractionChange{Kind: command.Retract}}},
		command.MoveTo{End: geom.Coord{X: 10.5, Y: 0}},
	}
	out := command.OptimizePass(cmds, 1.0)
	for _, c := range out {
		if ss, ok := c.(command.SetState); ok {
			require.Nil(t, ss.State.Retract)
		}
	}
}

func TestOptimizePassKeepsRetractAboveMinimumDistance(t *testing.T) {
	cmds := []command.Command{
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 10, Y: 0}, Width: 0.4, Thickness: 0.2},
		command.SetState{State: command.StateChange{Retract: &command.RetractionChange{Kind: command.Retract}}},
		command.MoveTo{End: geom.Coord{X: 50, Y: 0}},
	}
	out := command.OptimizePass(cmds, 1.0)
	var sawRetract bool
	for _, c := range out {
		if ss, ok := c.(command.SetState); ok && ss.State.Retract != nil {
			sawRetract = true
		}
	}
	require.True(t, sawRetract)
}

func TestCalculateAccumulatesExtrudedVolume(t *testing.T) {
	cmds := []command.Command{
		command.SetState{State: command.StateChange{MovementSpeed: floatPtr(3000)}},
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 10, Y: 0}, Width: 0.4, Thickness: 0.2},
	}
	cv := command.Calculate(cmds, 1.24, 0.4, 35, 0.8, 0.6, 6000)
	require.Greater(t, cv.PlasticVolume, 0.0)
	require.Greater(t, cv.Mass, 0.0)
	require.Greater(t, cv.FilamentLength, 0.0)
	require.Greater(t, cv.TotalTime, 0.0)
	require.InDelta(t, 0.4*0.2*10, cv.PlasticVolume, 1e-9)
}

func TestCalculateAccumulatesRetractionTime(t *testing.T) {
	cmds := []command.Command{
		command.SetState{State: command.StateChange{Retract: &command.RetractionChange{Kind: command.Retract}}},
	}
	cv := command.Calculate(cmds, 1.24, 0.4, 35, 0.8, 0.6, 6000)
	require.Greater(t, cv.TotalTime, 0.0)
}

func TestSlowDownLayerScalesSpeedDown(t *testing.T) {
	cmds := []command.Command{
		command.SetState{State: command.StateChange{MovementSpeed: floatPtr(6000)}},
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 100, Y: 0}, Width: 0.4, Thickness: 0.2},
	}
	fast := command.Calculate(cmds, 0, 1, 35, 0.8, 0.6, 9000)
	out := command.SlowDownLayer(cmds, fast.TotalTime*10, 9000, 1, 0.8, 35, 0.6)
	slow := command.Calculate(out, 0, 1, 35, 0.8, 0.6, 9000)
	require.InDelta(t, fast.TotalTime*10, slow.TotalTime, 1e-6)
}

func TestSlowDownLayerLeavesTravelUntouched(t *testing.T) {
	const travelSpeed = 9000.0
	cmds := []command.Command{
		command.SetState{State: command.StateChange{MovementSpeed: floatPtr(6000)}},
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 100, Y: 0}, Width: 0.4, Thickness: 0.2},
		command.SetState{State: command.StateChange{MovementSpeed: floatPtr(travelSpeed)}},
		command.MoveTo{End: geom.Coord{X: 200, Y: 0}},
	}
	fast := command.Calculate(cmds, 0, 1, 35, 0.8, 0.6, travelSpeed)
	out := command.SlowDownLayer(cmds, fast.TotalTime*10, travelSpeed, 1, 0.8, 35, 0.6)

	travelState, ok := out[2].(command.SetState)
	require.True(t, ok)
	require.Equal(t, travelSpeed, *travelState.State.MovementSpeed)

	extrudeState, ok := out[0].(command.SetState)
	require.True(t, ok)
	require.Less(t, *extrudeState.State.MovementSpeed, 6000.0)
}
