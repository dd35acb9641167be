// Package command models the emitted move/command stream: per-chain move
// lists, the tagged Command union, state tracking, and the optimizer and
// calculation passes that run over a finished stream.
package command

import (
	"math"

	"github.com/chazu/contour/pkg/geom"
)

// MoveType classifies a single extruded or travel move.
type MoveType int

const (
	TopSolidInfill MoveType = iota
	SolidInfill
	Infill
	ExteriorSurfacePerimeter
	InteriorSurfacePerimeter
	ExteriorInnerPerimeter
	InteriorInnerPerimeter
	Bridging
	Support
	Travel
)

// Move is one segment of a chain: travel to End if Type is Travel,
// otherwise extrude to End at Width.
type Move struct {
	End   geom.Coord
	Width float64
	Type  MoveType
}

// MoveChain is an ordered run of moves starting at Start. IsLoop marks a
// chain whose first and last point coincide (a closed perimeter ring).
type MoveChain struct {
	Start  geom.Coord
	Moves  []Move
	IsLoop bool
}

// Rotate performs a rigid rotation of the chain about the origin.
func (c *MoveChain) Rotate(angle float64) {
	cos, sin := math.Cos(angle), math.Sin(angle)
	rot := func(p geom.Coord) geom.Coord {
		return geom.Coord{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
	}
	c.Start = rot(c.Start)
	for i := range c.Moves {
		c.Moves[i].End = rot(c.Moves[i].End)
	}
}

// RetractionKind distinguishes the four retraction behaviors a SetState
// can request.
type RetractionKind int

const (
	RetractNone RetractionKind = iota
	Retract
	Unretract
	MoveRetract
)

// RetractionChange describes a retraction state transition. Path is only
// populated for MoveRetract, where retraction is distributed proportionally
// across a wipe path.
type RetractionChange struct {
	Kind RetractionKind
	Path []geom.Coord
}

// StateChange carries only the fields that change; every field is a
// pointer so nil means "unspecified", not "set to zero".
type StateChange struct {
	ExtruderTemp    *float64
	BedTemp         *float64
	MovementSpeed   *float64
	Acceleration    *float64
	FanSpeed        *float64
	Retract         *RetractionChange
}

// Combine merges two state changes field by field, with fields set in
// other taking priority over the same field in s.
func (s StateChange) Combine(other StateChange) StateChange {
	pick := func(a, b *float64) *float64 {
		if b != nil {
			return b
		}
		return a
	}
	out := StateChange{
		ExtruderTemp:  pick(s.ExtruderTemp, other.ExtruderTemp),
		BedTemp:       pick(s.BedTemp, other.BedTemp),
		MovementSpeed: pick(s.MovementSpeed, other.MovementSpeed),
		Acceleration:  pick(s.Acceleration, other.Acceleration),
		FanSpeed:      pick(s.FanSpeed, other.FanSpeed),
	}
	if other.Retract != nil {
		out.Retract = other.Retract
	} else {
		out.Retract = s.Retract
	}
	return out
}

// StateDiff computes the fields of other that differ from the running
// state s, updates s in place to reflect other, and returns only the
// changed fields.
func (s *StateChange) StateDiff(other StateChange) StateChange {
	var diff StateChange
	if !floatPtrEq(s.ExtruderTemp, other.ExtruderTemp) {
		diff.ExtruderTemp = other.ExtruderTemp
		s.ExtruderTemp = other.ExtruderTemp
	}
	if !floatPtrEq(s.BedTemp, other.BedTemp) {
		diff.BedTemp = other.BedTemp
		s.BedTemp = other.BedTemp
	}
	if !floatPtrEq(s.MovementSpeed, other.MovementSpeed) {
		diff.MovementSpeed = other.MovementSpeed
		s.MovementSpeed = other.MovementSpeed
	}
	if !floatPtrEq(s.Acceleration, other.Acceleration) {
		diff.Acceleration = other.Acceleration
		s.Acceleration = other.Acceleration
	}
	if !floatPtrEq(s.FanSpeed, other.FanSpeed) {
		diff.FanSpeed = other.FanSpeed
		s.FanSpeed = other.FanSpeed
	}
	if !retractEq(s.Retract, other.Retract) {
		diff.Retract = other.Retract
		s.Retract = other.Retract
	}
	return diff
}

// IsAllNil reports whether every field of s is unset.
func (s StateChange) IsAllNil() bool {
	return s.ExtruderTemp == nil && s.BedTemp == nil && s.MovementSpeed == nil &&
		s.Acceleration == nil && s.FanSpeed == nil && s.Retract == nil
}

func floatPtrEq(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func retractEq(a, b *RetractionChange) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Kind == b.Kind
}

// Command is the tagged union of every emittable instruction.
type Command interface {
	isCommand()
}

type MoveTo struct{ End geom.Coord }
type MoveAndExtrude struct {
	Start, End         geom.Coord
	Width, Thickness   float64
}
type LayerChange struct {
	Z     float64
	Index int
}
type SetState struct{ State StateChange }
type Delay struct{ Msec uint64 }
type Arc struct {
	Start, End, Center geom.Coord
	Clockwise          bool
	Thickness, Width   float64
}
type ChangeObject struct{ Index int }
type NoAction struct{}

func (MoveTo) isCommand()         {}
func (MoveAndExtrude) isCommand() {}
func (LayerChange) isCommand()    {}
func (SetState) isCommand()       {}
func (Delay) isCommand()          {}
func (Arc) isCommand()            {}
func (ChangeObject) isCommand()   {}
func (NoAction) isCommand()       {}
