package command

import (
	"math"

	"github.com/chazu/contour/pkg/geom"
)

// SpeedConfig supplies the per-move-type speed and retraction parameters
// a chain is emitted with.
type SpeedConfig struct {
	TopSolidInfillSpeed          float64
	SolidInfillSpeed             float64
	InfillSpeed                  float64
	ExteriorSurfacePerimeterSpeed float64
	InteriorSurfacePerimeterSpeed float64
	ExteriorInnerPerimeterSpeed  float64
	InteriorInnerPerimeterSpeed  float64
	BridgingSpeed                float64
	SupportSpeed                 float64
	TravelSpeed                  float64

	RetractLength float64
	RetractSpeed  float64
	WipeDistance  float64
}

func speedFor(cfg SpeedConfig, t MoveType) float64 {
	switch t {
	case TopSolidInfill:
		return cfg.TopSolidInfillSpeed
	case SolidInfill:
		return cfg.SolidInfillSpeed
	case Infill:
		return cfg.InfillSpeed
	case ExteriorSurfacePerimeter:
		return cfg.ExteriorSurfacePerimeterSpeed
	case InteriorSurfacePerimeter:
		return cfg.InteriorSurfacePerimeterSpeed
	case ExteriorInnerPerimeter:
		return cfg.ExteriorInnerPerimeterSpeed
	case InteriorInnerPerimeter:
		return cfg.InteriorInnerPerimeterSpeed
	case Bridging:
		return cfg.BridgingSpeed
	case Support:
		return cfg.SupportSpeed
	default:
		return cfg.TravelSpeed
	}
}

func floatPtr(f float64) *float64 { return &f }

// EmitChain converts a MoveChain into commands: an initial retract and
// travel to the chain's start, a SetState at every move-type transition
// (carrying the unretract when leaving Travel), MoveAndExtrude/MoveTo per
// move, and a trailing wipe retraction distributed across the chain's
// final WipeDistance millimeters when configured.
func EmitChain(chain MoveChain, thickness float64, cfg SpeedConfig) []Command {
	var cmds []Command
	cmds = append(cmds, SetState{State: StateChange{Retract: &RetractionChange{Kind: Retract}}})
	cmds = append(cmds, MoveTo{End: chain.Start})

	currentType := Travel
	currentLoc := chain.Start
	first := true

	for _, m := range chain.Moves {
		if m.Type != currentType || first {
			sc := StateChange{MovementSpeed: floatPtr(speedFor(cfg, m.Type))}
			if currentType == Travel && m.Type != Travel {
				sc.Retract = &RetractionChange{Kind: Unretract}
			} else if currentType != Travel && m.Type == Travel {
				sc.Retract = &RetractionChange{Kind: Retract}
			}
			cmds = append(cmds, SetState{State: sc})
			currentType = m.Type
			first = false
		}
		if m.Type == Travel {
			cmds = append(cmds, MoveTo{End: m.End})
		} else {
			cmds = append(cmds, MoveAndExtrude{Start: currentLoc, End: m.End, Width: m.Width, Thickness: thickness})
		}
		currentLoc = m.End
	}

	if cfg.WipeDistance > 0 && len(chain.Moves) > 0 {
		path := trailingPath(chain, cfg.WipeDistance)
		cmds = append(cmds, SetState{State: StateChange{Retract: &RetractionChange{Kind: MoveRetract, Path: path}}})
	}

	return cmds
}

func distance(a, b geom.Coord) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// trailingPath walks the chain's points backward from its end, collecting
// the points spanning the final dist millimeters of travel. For a chain
// no longer than dist, every point in the chain is returned, end first.
func trailingPath(chain MoveChain, dist float64) []geom.Coord {
	pts := make([]geom.Coord, 0, len(chain.Moves)+1)
	pts = append(pts, chain.Start)
	for _, m := range chain.Moves {
		pts = append(pts, m.End)
	}
	if len(pts) < 2 {
		return pts
	}

	segLens := make([]float64, len(pts)-1)
	total := 0.0
	for i := 1; i < len(pts); i++ {
		segLens[i-1] = distance(pts[i-1], pts[i])
		total += segLens[i-1]
	}
	if total <= dist {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
		return pts
	}

	result := []geom.Coord{pts[len(pts)-1]}
	acc := 0.0
	for i := len(pts) - 1; i > 0; i-- {
		segLen := segLens[i-1]
		if acc+segLen >= dist {
			remain := dist - acc
			t := remain / segLen
			a, b := pts[i-1], pts[i]
			cut := geom.Coord{X: b.X + t*(a.X-b.X), Y: b.Y + t*(a.Y-b.Y)}
			result = append(result, cut)
			break
		}
		acc += segLen
		result = append(result, pts[i-1])
	}
	return result
}
