package command

import (
	"math"

	"github.com/chazu/contour/pkg/geom"
)

// colinearThreshold is the maximum cross-product-derived deviation, in
// millimeters, two consecutive MoveAndExtrude segments may have while
// still being coalesced into one.
const colinearThreshold = 1e-5

// OptimizePass runs the state-diff, unary, and binary optimizers to a
// fixed point: each pass runs in turn, and the whole cycle repeats until
// none of them change the command count. minimumRetractDistance is the
// binary pass's threshold below which a retract immediately followed by a
// short travel is elided entirely.
func OptimizePass(cmds []Command, minimumRetractDistance float64) []Command {
	for {
		before := len(cmds)
		cmds = stateDiffPass(cmds)
		cmds = unaryPass(cmds)
		cmds = binaryPass(cmds, minimumRetractDistance)
		if len(cmds) == before {
			return cmds
		}
	}
}

// stateDiffPass rewrites every SetState to carry only the fields that
// actually change relative to the running state, dropping SetStates that
// end up empty.
func stateDiffPass(cmds []Command) []Command {
	var state StateChange
	out := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		ss, ok := c.(SetState)
		if !ok {
			out = append(out, c)
			continue
		}
		diff := state.StateDiff(ss.State)
		if !diff.IsAllNil() {
			out = append(out, SetState{State: diff})
		}
	}
	return out
}

// unaryPass drops commands that are no-ops in isolation: zero-length
// moves, empty SetStates, zero-millisecond Delays, and NoActions.
func unaryPass(cmds []Command) []Command {
	out := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		switch v := c.(type) {
		case MoveTo:
			if len(out) > 0 {
				if prevEnd, ok := lastEnd(out); ok && approxEqualPt(prevEnd, v.End) {
					continue
				}
			}
			out = append(out, c)
		case MoveAndExtrude:
			if approxEqualPt(v.Start, v.End) {
				continue
			}
			out = append(out, c)
		case SetState:
			if v.State.IsAllNil() {
				continue
			}
			out = append(out, c)
		case Delay:
			if v.Msec == 0 {
				continue
			}
			out = append(out, c)
		case NoAction:
			continue
		default:
			out = append(out, c)
		}
	}
	return out
}

// binaryPass coalesces adjacent MoveAndExtrude commands that share a
// width and are colinear within colinearThreshold into a single longer
// move, keeps only the later of two back-to-back MoveTos, merges
// back-to-back SetStates into one (fields set by the later one win), and
// elides a
// Retract SetState immediately followed by a MoveTo whose travel distance
// is below minimumRetractDistance (not worth the retract/unretract round
// trip).
func binaryPass(cmds []Command, minimumRetractDistance float64) []Command {
	out := make([]Command, 0, len(cmds))
	for _, c := range cmds {
		if len(out) == 0 {
			out = append(out, c)
			continue
		}
		last := out[len(out)-1]

		if a, ok := last.(MoveAndExtrude); ok {
			if b, ok := c.(MoveAndExtrude); ok {
				if a.Width == b.Width && a.Thickness == b.Thickness && a.End == b.Start && colinear(a.Start, a.End, b.End) {
					out[len(out)-1] = MoveAndExtrude{Start: a.Start, End: b.End, Width: a.Width, Thickness: a.Thickness}
					continue
				}
			}
		}

		if _, ok := last.(MoveTo); ok {
			if _, ok := c.(MoveTo); ok {
				out[len(out)-1] = c
				continue
			}
		}

		if a, ok := last.(SetState); ok {
			if b, ok := c.(SetState); ok {
				out[len(out)-1] = SetState{State: a.State.Combine(b.State)}
				continue
			}
			if b, ok := c.(MoveTo); ok && a.State.Retract != nil && a.State.Retract.Kind == Retract {
				pos, _ := lastEnd(out[:len(out)-1])
				if hypot(pos, b.End) < minimumRetractDistance {
					newState := a.State
					newState.Retract = nil
					if newState.IsAllNil() {
						out = out[:len(out)-1]
					} else {
						out[len(out)-1] = SetState{State: newState}
					}
					out = append(out, c)
					continue
				}
			}
		}

		out = append(out, c)
	}
	return out
}

func colinear(a, b, c geom.Coord) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	ab := math.Hypot(b.X-a.X, b.Y-a.Y)
	if ab == 0 {
		return true
	}
	dist := math.Abs(cross) / ab
	return dist <= colinearThreshold
}

func approxEqualPt(a, b geom.Coord) bool {
	return a == b
}

func lastEnd(cmds []Command) (geom.Coord, bool) {
	if len(cmds) == 0 {
		return geom.Coord{}, false
	}
	switch v := cmds[len(cmds)-1].(type) {
	case MoveTo:
		return v.End, true
	case MoveAndExtrude:
		return v.End, true
	}
	return geom.Coord{}, false
}

func sameStateChange(a, b StateChange) bool {
	return floatPtrEq(a.ExtruderTemp, b.ExtruderTemp) &&
		floatPtrEq(a.BedTemp, b.BedTemp) &&
		floatPtrEq(a.MovementSpeed, b.MovementSpeed) &&
		floatPtrEq(a.Acceleration, b.Acceleration) &&
		floatPtrEq(a.FanSpeed, b.FanSpeed) &&
		retractEq(a.Retract, b.Retract)
}
