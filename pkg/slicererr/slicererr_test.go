package slicererr_test

import (
	"errors"
	"testing"

	"github.com/chazu/contour/pkg/slicererr"
	"github.com/stretchr/testify/require"
)

func TestErrorCarriesStableCode(t *testing.T) {
	err := slicererr.ObjectFileNotFound("part.stl")
	require.Equal(t, slicererr.CodeObjectFileNotFound, err.Code)
	require.Contains(t, err.Error(), "part.stl")
}

func TestUnspecifiedWrapsCause(t *testing.T) {
	cause := errors.New("boom")
	err := slicererr.Unspecified(cause)
	require.Equal(t, slicererr.CodeUnspecified, err.Code)
	require.Contains(t, err.Error(), "boom")
}

func TestWarningCarriesStableCode(t *testing.T) {
	w := slicererr.LayerSizeTooLow(0.05, 0.4)
	require.Equal(t, slicererr.WarningLayerSizeTooLow, w.Code)
}
