package gcode_test

import (
	"strings"
	"testing"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/gcode"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/settings"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestConvertEmitsMachineSetupLines(t *testing.T) {
	s := settings.Default()
	var buf strings.Builder
	require.NoError(t, gcode.Convert(nil, s, &buf))

	out := buf.String()
	require.Contains(t, out, "M201 X")
	require.Contains(t, out, "G21 ; set units to millimeters")
	require.Contains(t, out, "G90 ; use absolute Coords")
	require.Contains(t, out, "M83 ; use relative distances for extrusion")
}

func TestConvertEmitsTravelMove(t *testing.T) {
	s := settings.Default()
	cmds := []command.Command{
		command.MoveTo{End: geom.Coord{X: 12, Y: 34}},
	}
	var buf strings.Builder
	require.NoError(t, gcode.Convert(cmds, s, &buf))
	require.Contains(t, buf.String(), "G1 X12.00000 Y34.00000")
}

func TestConvertEmitsExtrudeMoveWithPositiveExtrusion(t *testing.T) {
	s := settings.Default()
	// No ending script, so the extrude move is the last line written.
	s.EndingInstructions = ""
	cmds := []command.Command{
		command.MoveAndExtrude{
			Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 10, Y: 0},
			Width: 0.4, Thickness: 0.2,
		},
	}
	var buf strings.Builder
	require.NoError(t, gcode.Convert(cmds, s, &buf))

	line := lastLine(buf.String())
	require.True(t, strings.HasPrefix(line, "G1 X10.00000 Y0.00000 E"))
	require.NotContains(t, line, "E-")
}

func TestConvertRetractEmitsRetractAndLift(t *testing.T) {
	s := settings.Default()
	cmds := []command.Command{
		command.SetState{State: command.StateChange{
			Retract: &command.RetractionChange{Kind: command.Retract},
		}},
	}
	var buf strings.Builder
	require.NoError(t, gcode.Convert(cmds, s, &buf))

	out := buf.String()
	require.Contains(t, out, "; Retract")
	require.Contains(t, out, "; z Lift")
}

func TestConvertMoveRetractSplitsAmountBySegmentLength(t *testing.T) {
	s := settings.Default()
	cmds := []command.Command{
		command.SetState{State: command.StateChange{
			Retract: &command.RetractionChange{
				Kind: command.MoveRetract,
				Path: []geom.Coord{{X: 1, Y: 0}, {X: 3, Y: 0}},
			},
		}},
	}
	var buf strings.Builder
	require.NoError(t, gcode.Convert(cmds, s, &buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var moveLines []string
	for _, l := range lines {
		if strings.Contains(l, "Retract with move") {
			moveLines = append(moveLines, l)
		}
	}
	require.Len(t, moveLines, 2)
	// The first path point is the wipe's starting position, so it carries
	// no share; the only segment (X1 to X3) carries the whole retraction.
	require.Contains(t, moveLines[0], "X1.00000")
	require.Contains(t, moveLines[1], "X3.00000")
	require.Contains(t, moveLines[1], "E-0.80000")
}

func TestConvertSetStateTemperaturesAndFan(t *testing.T) {
	s := settings.Default()
	cmds := []command.Command{
		command.SetState{State: command.StateChange{
			ExtruderTemp: floatPtr(205),
			BedTemp:      floatPtr(60),
			FanSpeed:     floatPtr(100),
		}},
	}
	var buf strings.Builder
	require.NoError(t, gcode.Convert(cmds, s, &buf))

	out := buf.String()
	require.Contains(t, out, "M104 S205.0 ; set extruder temp")
	require.Contains(t, out, "M140 S60.0 ; set bed temp")
	require.Contains(t, out, "M106 S255 ; set fan speed")
}

func TestConvertLayerChangeUpdatesZ(t *testing.T) {
	s := settings.Default()
	cmds := []command.Command{
		command.LayerChange{Z: 0.4, Index: 2},
	}
	var buf strings.Builder
	require.NoError(t, gcode.Convert(cmds, s, &buf))
	require.Contains(t, buf.String(), "G1 Z0.40000")
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	return lines[len(lines)-1]
}
