package settingsfile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/contour/pkg/settingsfile"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadResolvesBaseFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "base.toml", "nozzle_diameter = 0.5\nlayer_height = 0.2\n")

	s, err := settingsfile.Load(p)
	require.NoError(t, err)
	require.InDelta(t, 0.5, s.NozzleDiameter, 1e-9)
	require.InDelta(t, 0.2, s.LayerHeight, 1e-9)
}

func TestLoadFollowsIncludesWithOverlayPriority(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.toml", "nozzle_diameter = 0.4\nlayer_height = 0.15\n")
	top := writeFile(t, dir, "overlay.toml", `other_files = ["`+base+`"]`+"\nlayer_height = 0.3\n")

	s, err := settingsfile.Load(top)
	require.NoError(t, err)
	require.InDelta(t, 0.4, s.NozzleDiameter, 1e-9)
	require.InDelta(t, 0.3, s.LayerHeight, 1e-9)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := settingsfile.Load("/nonexistent/path.toml")
	require.Error(t, err)
}
