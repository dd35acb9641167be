package settings_test

import (
	"testing"

	"github.com/chazu/contour/pkg/settings"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	s := settings.Default()
	require.NoError(t, s.Validate())
}

func TestGetLayerSettingsAppliesFirstLayerOverride(t *testing.T) {
	s := settings.Default()
	first := s.GetLayerSettings(0, 0)
	require.InDelta(t, 0.3, first.LayerHeight, 1e-9)
	require.InDelta(t, 60.0, first.BedTemp, 1e-9)

	later := s.GetLayerSettings(5, 1.5)
	require.InDelta(t, s.LayerHeight, later.LayerHeight, 1e-9)
}

func TestValidateCatchesLowLayerHeight(t *testing.T) {
	s := settings.Default()
	s.LayerHeight = 0.01
	require.Error(t, s.Validate())
}

func TestPartialLayerSettingsCombineLastWins(t *testing.T) {
	a := 1.0
	b := 2.0
	var p settings.PartialLayerSettings
	p.Combine(settings.PartialLayerSettings{LayerHeight: &a})
	p.Combine(settings.PartialLayerSettings{LayerHeight: &b})
	require.InDelta(t, 2.0, *p.LayerHeight, 1e-9)
}
