// Command contour slices one or more mesh files into G-code: load
// settings, load each mesh, build its tower, slice every tower into
// finished move chains, check the result against the build volume, and
// write G-code.
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chazu/contour/pkg/boundscheck"
	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/gcode"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/meshio"
	"github.com/chazu/contour/pkg/settings"
	"github.com/chazu/contour/pkg/settingsfile"
	"github.com/chazu/contour/pkg/slicepipe"
	"github.com/chazu/contour/pkg/slicererr"
	"github.com/chazu/contour/pkg/tower"
)

var logger = log.Default()

func main() {
	var settingsPath, outputPath string
	flag.StringVar(&settingsPath, "settings", "", "path to a TOML settings file (defaults built in if omitted)")
	flag.StringVar(&outputPath, "output", "out.gcode", "path to write the generated G-code")
	flag.Parse()

	if err := run(settingsPath, outputPath, flag.Args()); err != nil {
		logger.Fatal("slicing failed", "err", err)
	}
}

func run(settingsPath, outputPath string, meshPaths []string) error {
	if len(meshPaths) == 0 {
		return slicererr.NoInputProvided()
	}

	s, err := loadSettings(settingsPath)
	if err != nil {
		return err
	}

	models := make([]boundscheck.Model, 0, len(meshPaths))
	towers := make([]*tower.Tower, 0, len(meshPaths))
	for _, p := range meshPaths {
		logger.Info("loading mesh", "path", p)
		vertices, triangles, err := loadMesh(p)
		if err != nil {
			return err
		}
		models = append(models, boundscheck.Model{Vertices: vertices, Triangles: triangles})
		towers = append(towers, tower.New(vertices, triangles))
	}

	logger.Info("checking model bounds", "objects", len(models))
	if err := boundscheck.CheckModelBounds(models, s); err != nil {
		return err
	}

	ctx := context.Background()
	logger.Info("slicing towers", "count", len(towers))
	objects, err := slicepipe.SliceTowers(ctx, towers, s)
	if err != nil {
		return err
	}

	logger.Info("running object and slice passes")
	cmds := slicepipe.Generate(objects, s)
	cmds = slowDownEveryLayer(cmds, s)

	logger.Info("checking move bounds", "commands", len(cmds))
	if err := boundscheck.CheckMovesBounds(cmds, s); err != nil {
		return err
	}

	calc := command.Calculate(cmds, s.Filament.Density, s.NozzleDiameter,
		s.RetractSpeed, s.RetractLength, s.RetractLiftZ, s.Speed.Travel)
	logger.Info("slice complete",
		"print_time_s", calc.TotalTime,
		"filament_length_mm", calc.FilamentLength,
		"mass_g", calc.Mass)

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := gcode.Convert(cmds, s, f); err != nil {
		return err
	}
	logger.Info("wrote G-code", "path", outputPath)
	return nil
}

func loadSettings(path string) (settings.Settings, error) {
	if path == "" {
		s := settings.Default()
		return s, s.Validate()
	}
	return settingsfile.Load(path)
}

func loadMesh(path string) ([]geom.Vertex, []geom.IndexedTriangle, error) {
	loader, err := meshLoaderFor(path)
	if err != nil {
		return nil, nil, err
	}
	return loader.Load(path)
}

func slowDownEveryLayer(cmds []command.Command, s settings.Settings) []command.Command {
	var out []command.Command
	start := 0
	flush := func(end int) {
		out = append(out, command.SlowDownLayer(cmds[start:end], s.Fan.SlowDownThreshold,
			s.Speed.Travel, s.Fan.MinPrintSpeed, s.RetractLength, s.RetractSpeed, s.RetractLiftZ)...)
	}
	for i, c := range cmds {
		if _, ok := c.(command.LayerChange); ok && i > start {
			flush(i)
			start = i
		}
	}
	flush(len(cmds))
	return out
}

func meshLoaderFor(path string) (meshio.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return meshio.STLLoader{}, nil
	case ".3mf":
		return meshio.ThreeMFLoader{}, nil
	default:
		return nil, slicererr.InputMisformat()
	}
}
