package slicepipe

import (
	"sort"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/settings"
)

// speedConfigFor builds an EmitChain speed configuration from a layer's
// resolved settings.
func speedConfigFor(ls settings.LayerSettings) command.SpeedConfig {
	cfg := command.SpeedConfig{
		TopSolidInfillSpeed:           ls.Speed.SolidTopInfill,
		SolidInfillSpeed:              ls.Speed.SolidInfill,
		InfillSpeed:                   ls.Speed.Infill,
		ExteriorSurfacePerimeterSpeed: ls.Speed.ExteriorSurfacePerimeter,
		InteriorSurfacePerimeterSpeed: ls.Speed.InteriorSurfacePerimeter,
		ExteriorInnerPerimeterSpeed:   ls.Speed.ExteriorInnerPerimeter,
		InteriorInnerPerimeterSpeed:   ls.Speed.InteriorInnerPerimeter,
		BridgingSpeed:                 ls.Speed.Bridge,
		SupportSpeed:                  ls.Speed.Support,
		TravelSpeed:                   ls.Speed.Travel,
		RetractLength:                 ls.RetractionLength,
	}
	if ls.RetractionWipe != nil {
		cfg.WipeDistance = ls.RetractionWipe.Distance
		cfg.RetractSpeed = ls.RetractionWipe.Speed
	}
	return cfg
}

// SliceIntoCommands emits every chain a slice carries (fixed chains
// first, then infill chains) as a command stream.
func SliceIntoCommands(slice *Slice, layerThickness float64) []command.Command {
	cfg := speedConfigFor(slice.LayerSettings)
	var cmds []command.Command
	for _, chain := range slice.FixedChains {
		cmds = append(cmds, command.EmitChain(chain, layerThickness, cfg)...)
	}
	for _, chain := range slice.Chains {
		cmds = append(cmds, command.EmitChain(chain, layerThickness, cfg)...)
	}
	return cmds
}

// ConvertObjectsIntoMoves assembles every object's layers into one
// command stream ordered by height (then by the object's position in
// objects for layers sharing a height), prefixed per layer with an
// object change, a layer change, and the layer's temperature/fan state.
func ConvertObjectsIntoMoves(objects []Object, s settings.Settings) []command.Command {
	type layerMoves struct {
		height float64
		cmds   []command.Command
	}
	var all []layerMoves

	for objectNum, obj := range objects {
		lastLayer := 0.0
		for layerNum, slice := range obj.Layers {
			ls := s.GetLayerSettings(layerNum, slice.TopHeight)

			moves := []command.Command{
				command.ChangeObject{Index: objectNum},
				command.LayerChange{Z: slice.TopHeight, Index: layerNum},
				command.SetState{State: command.StateChange{
					ExtruderTemp: floatPtr(ls.ExtruderTemp),
					BedTemp:      floatPtr(ls.BedTemp),
					FanSpeed:     floatPtr(layerFanSpeed(s, layerNum)),
				}},
			}
			moves = append(moves, SliceIntoCommands(&obj.Layers[layerNum], slice.TopHeight-lastLayer)...)
			lastLayer = slice.TopHeight

			all = append(all, layerMoves{height: slice.TopHeight, cmds: moves})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].height < all[j].height })

	var out []command.Command
	for _, lm := range all {
		out = append(out, lm.cmds...)
	}
	return out
}

func layerFanSpeed(s settings.Settings, layerNum int) float64 {
	if layerNum < s.Fan.DisableFanForLayers {
		return 0.0
	}
	return s.Fan.FanSpeed
}

func floatPtr(f float64) *float64 { return &f }
