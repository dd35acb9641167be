package slicepipe

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/settings"
	"github.com/chazu/contour/pkg/slicererr"
	"github.com/chazu/contour/pkg/tower"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var logger = log.Default()

// SliceTowers advances every tower from bottom to top, one resolved
// layer height at a time, and turns each tower's point loops into a full
// stack of Slices. Towers are processed concurrently.
func SliceTowers(ctx context.Context, towers []*tower.Tower, s settings.Settings) ([]Object, error) {
	objects := make([]Object, len(towers))

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range towers {
		i, t := i, t
		g.Go(func() error {
			obj, err := sliceOneTower(ctx, t, s)
			if err != nil {
				return slicererr.TowerGeneration(err)
			}
			objects[i] = obj
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return objects, nil
}

func sliceOneTower(ctx context.Context, t *tower.Tower, s settings.Settings) (Object, error) {
	it := tower.NewIterator(t)

	type layerRange struct {
		bottom, top float64
		loops       [][]geom.Coord
	}
	var ranges []layerRange

	height := 0.0
	for layerCount := 0; ; layerCount++ {
		if err := ctx.Err(); err != nil {
			return Object{}, err
		}

		layerHeight := s.GetLayerSettings(layerCount, height).LayerHeight
		bottom := height
		height += layerHeight / 2.0
		if err := it.AdvanceToHeight(height); err != nil {
			return Object{}, err
		}
		height += layerHeight / 2.0
		top := height

		points, err := it.GetPoints()
		if err != nil {
			return Object{}, err
		}
		if len(points) == 0 {
			break
		}

		loops := make([][]geom.Coord, len(points))
		for i, loop := range points {
			coords := make([]geom.Coord, len(loop))
			for j, v := range loop {
				coords[j] = geom.Coord{X: v.X, Y: v.Y}
			}
			loops[i] = coords
		}
		ranges = append(ranges, layerRange{bottom, top, loops})
	}

	layers := make([]Slice, len(ranges))
	for i, r := range ranges {
		layers[i] = NewSliceFromLoops(r.loops, r.bottom, r.top, i, s)
	}
	return Object{ID: uuid.New(), Layers: layers}, nil
}

// Generate runs every object- and slice-level pass in the order a print
// actually builds up: skirt and brim first (they depend on every
// object's first layer), then per-object support towers, then the
// per-slice passes that consume and produce RemainingArea, and finally
// chain ordering. It returns the finished, optimized command stream.
func Generate(objects []Object, s settings.Settings) []command.Command {
	logger.Info("running object passes", "objects", len(objects))
	SkirtPass(objects, s)
	BrimPass(objects, s)
	SupportTowerPass(objects, s)

	for i := range objects {
		slices := objects[i].Layers
		logger.Debug("running slice passes", "object", objects[i].ID, "layers", len(slices))
		PerimeterPass(slices, s)
		BridgingPass(slices)
		TopLayerPass(slices)
		TopAndBottomLayersPass(slices, s)
		SupportPass(slices, s)
		FillAreaPass(slices, s)
		OrderPass(slices)
	}

	cmds := ConvertObjectsIntoMoves(objects, s)
	cmds = command.OptimizePass(cmds, s.MinimumRetractDistance)
	logger.Info("generated command stream", "commands", len(cmds))
	return cmds
}
