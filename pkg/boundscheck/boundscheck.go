// Package boundscheck validates that model geometry and generated
// commands stay within the configured build volume and outside any
// excluded bed areas.
package boundscheck

import (
	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/settings"
	"github.com/chazu/contour/pkg/slicererr"
)

// Model is the flat vertex/triangle mesh representation a loader hands
// the pipeline.
type Model struct {
	Vertices  []geom.Vertex
	Triangles []geom.IndexedTriangle
}

// CheckModelBounds reports an error if any vertex of any model falls
// outside the print volume (after accounting for brim and layer-shrink
// offsets) or inside a bed exclude area.
func CheckModelBounds(models []Model, s settings.Settings) error {
	brimWidth := 0.0
	if s.BrimWidth != nil {
		brimWidth = *s.BrimWidth
	}
	shrinkDistance := 0.0
	if s.LayerShrinkAmount != nil {
		shrinkDistance = *s.LayerShrinkAmount
	}
	totalOffset := brimWidth + shrinkDistance

	for _, m := range models {
		for _, v := range m.Vertices {
			if err := checkExcluded(v.X, v.Y, s.BedExcludeAreas); err != nil {
				return err
			}
			if v.X < totalOffset || v.Y < totalOffset || v.Z < -0.00001 ||
				v.X > s.PrintX-totalOffset || v.Y > s.PrintY-totalOffset || v.Z > s.PrintZ {
				return slicererr.ModelOutsideBuildArea()
			}
		}
	}
	return nil
}

func checkExcluded(x, y float64, excludeAreas geom.MultiPolygon) error {
	if excludeAreas.Contains(geom.Coord{X: x, Y: y}) {
		return slicererr.InExcludeArea(x, y)
	}
	return nil
}

// CheckMovesBounds reports an error if any emitted move or layer-change
// command falls outside the print volume.
func CheckMovesBounds(cmds []command.Command, s settings.Settings) error {
	for _, cmd := range cmds {
		switch v := cmd.(type) {
		case command.MoveTo:
			if outsideXY(v.End, s) {
				return slicererr.MovesOutsideBuildArea()
			}
		case command.MoveAndExtrude:
			if outsideXY(v.End, s) {
				return slicererr.MovesOutsideBuildArea()
			}
		case command.LayerChange:
			if v.Z > s.PrintZ || v.Z < 0.0 {
				return slicererr.MovesOutsideBuildArea()
			}
		}
	}
	return nil
}

func outsideXY(end geom.Coord, s settings.Settings) bool {
	return end.X < 0.0 || end.X > s.PrintX || end.Y < 0.0 || end.Y > s.PrintY
}
