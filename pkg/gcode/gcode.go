// Package gcode converts a finished command.Command stream into textual
// RepRap-flavored G-code, the last step before a print file reaches disk.
package gcode

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/contour/pkg/command"
	"github.com/chazu/contour/pkg/geom"
	"github.com/chazu/contour/pkg/settings"
)

// retractShare is one leg of a multi-point wipe move: travel to end while
// extruding -amount of retraction.
type retractShare struct {
	end    geom.Coord
	amount float64
}

// retractShares splits totalRetract across path's segments in proportion
// to each segment's length, so a longer leg of the wipe pulls back more
// filament than a short one.
func retractShares(path []geom.Coord, totalRetract float64) []retractShare {
	if len(path) == 0 {
		return nil
	}
	lengths := make([]float64, len(path))
	var total float64
	prev := path[0]
	for i, p := range path {
		d := math.Hypot(p.X-prev.X, p.Y-prev.Y)
		lengths[i] = d
		total += d
		prev = p
	}

	shares := make([]retractShare, len(path))
	if total == 0 {
		even := totalRetract / float64(len(path))
		for i, p := range path {
			shares[i] = retractShare{end: p, amount: even}
		}
		return shares
	}
	for i, p := range path {
		shares[i] = retractShare{end: p, amount: totalRetract * lengths[i] / total}
	}
	return shares
}

// Convert walks cmds in order and writes the resulting G-code to w.
func Convert(cmds []command.Command, s settings.Settings, w io.Writer) error {
	bw := bufio.NewWriter(w)

	c := &converter{s: s, w: bw}

	start := c.resolveInstructions(s.StartingInstructions, nil)

	if _, err := fmt.Fprintf(bw, "M201 X%.1f Y%.1f Z%.1f E%.1f; sets maximum accelerations, mm/sec^2\n",
		s.MaxAccelerationX, s.MaxAccelerationY, s.MaxAccelerationZ, s.MaxAccelerationE); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "M203 X%.1f Y%.1f Z%.1f E%.1f; ; sets maximum feedrates, mm/sec\n",
		s.MaximumFeedrateX, s.MaximumFeedrateY, s.MaximumFeedrateZ, s.MaximumFeedrateE); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "M204 P%.1f R%.1f T%.1f; sets acceleration (P, T) and retract acceleration (R), mm/sec^2\n",
		s.MaxAccelerationExtruding, s.MaxAccelerationRetracting, s.MaxAccelerationTravel); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "M205 X%.1f Y%.1f Z%.1f E%.1f; sets the jerk limits, mm/sec\n",
		s.MaxJerkX, s.MaxJerkY, s.MaxJerkZ, s.MaxJerkE); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(bw, "M205 S%.1f T%.1f ; sets the minimum extruding and travel feed rate, mm/sec\n",
		s.MinimumFeedratePrint, s.MinimumFeedrateTravel); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, start); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, "G21 ; set units to millimeters"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, "G90 ; use absolute Coords"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(bw, "M83 ; use relative distances for extrusion"); err != nil {
		return err
	}

	for _, cmd := range cmds {
		if err := c.emit(cmd); err != nil {
			return err
		}
	}

	end := c.resolveInstructions(s.EndingInstructions, nil)
	if _, err := fmt.Fprintln(bw, end); err != nil {
		return err
	}

	return bw.Flush()
}

type converter struct {
	s             settings.Settings
	w             *bufio.Writer
	currentZ      float64
	layerCount    int
	currentObject *int
}

func (c *converter) emit(cmd command.Command) error {
	switch v := cmd.(type) {
	case command.MoveTo:
		_, err := fmt.Fprintf(c.w, "G1 X%.5f Y%.5f\n", v.End.X, v.End.Y)
		return err

	case command.MoveAndExtrude:
		xDiff := v.End.X - v.Start.X
		yDiff := v.End.Y - v.Start.Y
		length := math.Sqrt(xDiff*xDiff + yDiff*yDiff)

		extrusionVolume := ((v.Width-v.Thickness)*v.Thickness +
			math.Pi*(v.Thickness/2)*(v.Thickness/2)) * length
		filamentArea := (math.Pi * c.s.Filament.Diameter * c.s.Filament.Diameter) / 4.0
		extrude := extrusionVolume / filamentArea

		_, err := fmt.Fprintf(c.w, "G1 X%.5f Y%.5f E%.5f\n", v.End.X, v.End.Y, extrude)
		return err

	case command.SetState:
		if err := c.emitStateChange(v.State); err != nil {
			return err
		}
		if v.State.ExtruderTemp != nil {
			if _, err := fmt.Fprintf(c.w, "M104 S%.1f ; set extruder temp\n", *v.State.ExtruderTemp); err != nil {
				return err
			}
		}
		if v.State.BedTemp != nil {
			if _, err := fmt.Fprintf(c.w, "M140 S%.1f ; set bed temp\n", *v.State.BedTemp); err != nil {
				return err
			}
		}
		if v.State.FanSpeed != nil {
			_, err := fmt.Fprintf(c.w, "M106 S%d ; set fan speed\n", int(math.Round(2.550*(*v.State.FanSpeed))))
			return err
		}
		return nil

	case command.LayerChange:
		before := c.resolveInstructions(c.s.BeforeLayerChangeInstructions, nil)
		if _, err := fmt.Fprintln(c.w, before); err != nil {
			return err
		}
		c.currentZ = v.Z
		c.layerCount = v.Index
		if _, err := fmt.Fprintf(c.w, "G1 Z%.5f\n", v.Z); err != nil {
			return err
		}
		after := c.resolveInstructions(c.s.AfterLayerChangeInstructions, nil)
		_, err := fmt.Fprintln(c.w, after)
		return err

	case command.Delay:
		_, err := fmt.Fprintf(c.w, "G4 P%d\n", v.Msec)
		return err

	case command.Arc:
		xDiff := v.End.X - v.Start.X
		yDiff := v.End.Y - v.Start.Y
		chordLength := math.Sqrt(xDiff*xDiff + yDiff*yDiff)
		xDiffR := v.End.X - v.Center.X
		yDiffR := v.End.Y - v.Center.Y
		radius := math.Sqrt(xDiffR*xDiffR + yDiffR*yDiffR)

		t := chordLength / (2.0 * radius)
		central := math.Asin(t) * 2.0
		extrusionLength := central * radius

		extrude := (4.0 * v.Thickness * v.Width * extrusionLength) /
			(math.Pi * c.s.Filament.Diameter * c.s.Filament.Diameter)

		code := "G3"
		if v.Clockwise {
			code = "G2"
		}
		_, err := fmt.Fprintf(c.w, "%s X%.5f Y%.5f I%.5f J%.5f E%.5f\n",
			code, v.End.X, v.End.Y, v.Center.X-v.Start.X, v.Center.Y-v.Start.Y, extrude)
		return err

	case command.ChangeObject:
		previous := c.currentObject
		idx := v.Index
		c.currentObject = &idx
		line := c.resolveInstructions(c.s.ObjectChangeInstructions, previous)
		_, err := fmt.Fprintln(c.w, line)
		return err

	case command.NoAction:
		panic("converter reached a NoAction command, optimization failure")
	}
	return nil
}

func (c *converter) emitStateChange(state command.StateChange) error {
	if state.Retract == nil {
		return c.emitSpeedAndAccel(state)
	}

	switch state.Retract.Kind {
	case command.RetractNone:
		return c.emitSpeedAndAccel(state)

	case command.Retract:
		if err := c.emitSpeedAndAccel(state); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.w, "G1 E%.5f F%.5f; Retract\n",
			-c.s.RetractLength, 60.0*c.s.RetractSpeed); err != nil {
			return err
		}
		_, err := fmt.Fprintf(c.w, "G1 Z%.5f F%.5f; z Lift\n",
			c.currentZ+c.s.RetractLiftZ, 60.0*c.s.Speed.Travel)
		return err

	case command.Unretract:
		if _, err := fmt.Fprintf(c.w, "G1 Z%.5f; z unlift\n", c.currentZ); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(c.w, "G1 E%.5f F%.5f; Unretract\n",
			c.s.RetractLength, 60.0*c.s.RetractSpeed); err != nil {
			return err
		}
		return c.emitSpeedAndAccel(state)

	case command.MoveRetract:
		if err := c.emitSpeedAndAccel(state); err != nil {
			return err
		}
		for _, share := range retractShares(state.Retract.Path, c.s.RetractLength) {
			if _, err := fmt.Fprintf(c.w, "G1 X%.5f Y%.5f E%.5f; Retract with move\n",
				share.end.X, share.end.Y, -share.amount); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(c.w, "G1 Z%.5f F%.5f; z Lift\n",
			c.currentZ+c.s.RetractLiftZ, 60.0*c.s.Speed.Travel)
		return err
	}
	return nil
}

func (c *converter) emitSpeedAndAccel(state command.StateChange) error {
	if state.MovementSpeed != nil {
		if _, err := fmt.Fprintf(c.w, "G1 F%.5f\n", *state.MovementSpeed*60.0); err != nil {
			return err
		}
	}
	if state.Acceleration != nil {
		if _, err := fmt.Fprintf(c.w, "M204 S%.1f\n", *state.Acceleration); err != nil {
			return err
		}
	}
	return nil
}

// resolveInstructions substitutes the bracketed placeholders an
// instruction template may carry with their current values.
func (c *converter) resolveInstructions(template string, previousObject *int) string {
	ls := c.s.GetLayerSettings(c.layerCount, c.currentZ)

	out := template
	out = strings.ReplaceAll(out, "[Extruder Temperature]", strconv.FormatFloat(ls.ExtruderTemp, 'f', 1, 64))
	out = strings.ReplaceAll(out, "[Bed Temperature]", strconv.FormatFloat(ls.BedTemp, 'f', 1, 64))
	out = strings.ReplaceAll(out, "[Z Position]", strconv.FormatFloat(c.currentZ, 'f', 5, 64))
	out = strings.ReplaceAll(out, "[Layer Count]", strconv.FormatFloat(float64(c.layerCount), 'f', 1, 64))
	out = strings.ReplaceAll(out, "[Previous Object]", intPtrString(previousObject))
	out = strings.ReplaceAll(out, "[Current Object]", intPtrString(c.currentObject))
	return out
}

func intPtrString(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
