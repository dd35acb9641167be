package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/settings"
	"github.com/stretchr/testify/require"
)

func TestRunNoInputReturnsError(t *testing.T) {
	err := run("", filepath.Join(t.TempDir(), "out.gcode"), nil)
	require.Error(t, err)
}

func TestMeshLoaderForRejectsUnknownExtension(t *testing.T) {
	_, err := meshLoaderFor("model.obj")
	require.Error(t, err)
}

func TestMeshLoaderForSelectsByExtension(t *testing.T) {
	_, err := meshLoaderFor("model.STL")
	require.NoError(t, err)

	_, err = meshLoaderFor("model.3mf")
	require.NoError(t, err)
}

func TestLoadSettingsFallsBackToDefaults(t *testing.T) {
	s, err := loadSettings("")
	require.NoError(t, err)
	require.Equal(t, settings.Default().LayerHeight, s.LayerHeight)
}

func TestSlowDownEveryLayerSplitsOnLayerChange(t *testing.T) {
	speed := 10.0
	cmds := []command.Command{
		command.LayerChange{Z: 0.2, Index: 0},
		command.SetState{State: command.StateChange{MovementSpeed: &speed}},
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 1, Y: 0}, Width: 0.4, Thickness: 0.2},
		command.LayerChange{Z: 0.4, Index: 1},
		command.SetState{State: command.StateChange{MovementSpeed: &speed}},
		command.MoveAndExtrude{Start: geom.Coord{X: 0, Y: 0}, End: geom.Coord{X: 1, Y: 0}, Width: 0.4, Thickness: 0.2},
	}
	s := settings.Default()
	s.Fan.SlowDownThreshold = 0

	out := slowDownEveryLayer(cmds, s)
	require.Len(t, out, len(cmds))
}

func TestRunRejectsUnreadableMesh(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "broken.stl")
	require.NoError(t, os.WriteFile(p, []byte("not a real stl"), 0o644))

	err := run("", filepath.Join(dir, "out.gcode"), []string{p})
	require.Error(t, err)
}
